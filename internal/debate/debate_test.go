package debate

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/parleyhq/parley/internal/review"
)

func twoRoundResult() *Result {
	return &Result{Rounds: []Round{
		{Number: 1, Outcomes: []review.Outcome{
			{Name: "claude-sonnet", Text: "Looks solid.", Elapsed: time.Second},
			{Name: "codex-gpt", Err: "codex-gpt timed out after 300s"},
		}},
		{Number: 2, Outcomes: []review.Outcome{
			{Name: "claude-sonnet", Text: "Still solid.", Elapsed: time.Second},
			{Name: "codex-gpt", Text: "I disagree.", Elapsed: 2 * time.Second},
		}},
	}}
}

func TestFormatHistory(t *testing.T) {
	res := twoRoundResult()

	expected := "## Round 1\n" +
		"### claude-sonnet\n" +
		"Looks solid.\n" +
		"### codex-gpt\n" +
		"*Error: codex-gpt timed out after 300s*\n" +
		"\n" +
		"## Round 2\n" +
		"### claude-sonnet\n" +
		"Still solid.\n" +
		"### codex-gpt\n" +
		"I disagree.\n"

	if got := res.FormatHistory(); got != expected {
		t.Errorf("FormatHistory() = %q, expected %q", got, expected)
	}
}

func TestFormatHistory_Deterministic(t *testing.T) {
	res := twoRoundResult()
	first := res.FormatHistory()
	for i := 0; i < 10; i++ {
		if got := res.FormatHistory(); got != first {
			t.Fatalf("FormatHistory() changed on call %d: %q vs %q", i+2, got, first)
		}
	}
}

func TestFormatHistory_Empty(t *testing.T) {
	res := &Result{}
	if got := res.FormatHistory(); got != "" {
		t.Errorf("FormatHistory() = %q, expected empty string", got)
	}
}

func TestLatestRound(t *testing.T) {
	res := &Result{}
	if res.LatestRound() != nil {
		t.Error("LatestRound() on an empty result should be nil")
	}

	res = twoRoundResult()
	latest := res.LatestRound()
	if latest == nil || latest.Number != 2 {
		t.Errorf("LatestRound() = %+v, expected round 2", latest)
	}
}

func TestRound_OutcomeByName(t *testing.T) {
	round := twoRoundResult().Rounds[0]

	out, ok := round.Outcome("codex-gpt")
	if !ok {
		t.Fatal("Outcome(codex-gpt) not found")
	}
	if out.OK() {
		t.Error("codex-gpt outcome should carry an error")
	}

	if _, ok := round.Outcome("gemini"); ok {
		t.Error("Outcome(gemini) should not be found")
	}
}

func TestResult_JSONRoundTrip(t *testing.T) {
	res := twoRoundResult()

	data, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var loaded Result
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if !reflect.DeepEqual(&loaded, res) {
		t.Errorf("round trip changed the result:\n got %+v\nwant %+v", &loaded, res)
	}
	if loaded.RoundCount() != res.RoundCount() {
		t.Errorf("RoundCount() = %d, expected %d", loaded.RoundCount(), res.RoundCount())
	}
}
