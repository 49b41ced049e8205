package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/parleyhq/parley/internal/conflict"
	"github.com/parleyhq/parley/internal/debate"
	"github.com/parleyhq/parley/internal/loop"
	"github.com/parleyhq/parley/internal/review"
)

func TestRenderGauge(t *testing.T) {
	tests := []struct {
		name   string
		filled int
		want   string
	}{
		{"empty", 0, "[░░░░]"},
		{"half", 2, "[██░░]"},
		{"full", 4, "[████]"},
		{"clamped low", -1, "[░░░░]"},
		{"clamped high", 9, "[████]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderGauge(tt.filled, 4)
			if got != tt.want {
				t.Errorf("renderGauge(%d, 4) = %q, expected %q", tt.filled, got, tt.want)
			}
		})
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"zero", 0, "0s"},
		{"negative", -time.Second, "0s"},
		{"subsecond", 3240 * time.Millisecond, "3.2s"},
		{"minutes", 90 * time.Second, "1m30s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatElapsed(tt.d)
			if got != tt.want {
				t.Errorf("formatElapsed(%v) = %q, expected %q", tt.d, got, tt.want)
			}
		})
	}
}

func TestRenderReviewResult(t *testing.T) {
	res := &review.Result{
		Outcomes: []review.Outcome{
			{Name: "claude-sonnet", Text: "Looks good.", Elapsed: 3200 * time.Millisecond},
			{Name: "codex-gpt", Err: "codex exited with status 1"},
		},
		Synthesized: "# Review Summary\n\nOne critic responded.",
		Conflicts: []conflict.Conflict{
			{Topic: "auth", Category: conflict.CategorySecurity, Guidance: "address the security concern first"},
		},
	}

	out := renderReviewResult(res)
	if !strings.Contains(out, "claude-sonnet") || !strings.Contains(out, "(3.2s)") {
		t.Errorf("missing the succeeding outcome line:\n%s", out)
	}
	if !strings.Contains(out, "codex-gpt: codex exited with status 1") {
		t.Errorf("missing the failure line:\n%s", out)
	}
	if !strings.Contains(out, "# Review Summary") {
		t.Errorf("missing the synthesized summary:\n%s", out)
	}
	if !strings.Contains(out, "Conflicts (1)") || !strings.Contains(out, "[security] auth") {
		t.Errorf("missing the conflict listing:\n%s", out)
	}
	if !strings.Contains(out, "address the security concern first") {
		t.Errorf("missing the guidance line:\n%s", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Error("rendered result should end with a newline")
	}
}

func TestRenderMultiResult(t *testing.T) {
	res := &review.MultiResult{
		Outcomes: []review.Outcome{
			{Name: "claude-sonnet", Text: "Fine.", Elapsed: time.Second},
			{Name: "claude-opus", Text: "Fine.", Elapsed: time.Second},
			{Name: "codex-gpt", Text: "Fine.", Elapsed: time.Second},
		},
		Synthesized: "All three agree.",
		Consensus:   0.75,
	}

	out := renderMultiResult(res)
	if !strings.Contains(out, "Consensus:") || !strings.Contains(out, "0.75") {
		t.Errorf("missing the consensus line:\n%s", out)
	}
	if !strings.Contains(out, "█") || !strings.Contains(out, "░") {
		t.Errorf("the consensus gauge should be partially filled:\n%s", out)
	}
}

func TestRenderConflicts_NoGuidance(t *testing.T) {
	out := renderConflicts([]conflict.Conflict{
		{Topic: "cache", Category: conflict.CategoryArchitecture},
	})
	if !strings.Contains(out, "[architecture] cache") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if strings.Count(out, "\n") != 2 {
		t.Errorf("expected two lines without guidance, got:\n%q", out)
	}
}

func TestRenderRound(t *testing.T) {
	r := debate.Round{
		Number: 2,
		Outcomes: []review.Outcome{
			{Name: "claude-sonnet", Text: "Agreed on the rollout."},
			{Name: "codex-gpt", Err: "timeout"},
		},
	}

	out := renderRound(r)
	if !strings.Contains(out, "Round 2") {
		t.Errorf("missing the round heading:\n%s", out)
	}
	if !strings.Contains(out, "Agreed on the rollout.") {
		t.Errorf("missing the response text:\n%s", out)
	}
	if !strings.Contains(out, "failed: timeout") {
		t.Errorf("missing the failure text:\n%s", out)
	}
}

func TestRenderRoundSummary(t *testing.T) {
	r := debate.Round{
		Number: 1,
		Outcomes: []review.Outcome{
			{Name: "claude-sonnet", Text: "A long analysis body.", Elapsed: 500 * time.Millisecond},
		},
	}

	out := renderRoundSummary(r)
	if !strings.HasPrefix(out, "Round 1\n") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "claude-sonnet") {
		t.Errorf("missing the outcome line:\n%s", out)
	}
	if strings.Contains(out, "A long analysis body.") {
		t.Errorf("summary should not include response bodies:\n%s", out)
	}
}

func TestRenderLoopState(t *testing.T) {
	st := loop.State{
		Iteration:     2,
		MaxIterations: 5,
		Phase:         loop.PhaseCodeReview,
		LastConflicts: []string{"[security] auth"},
		History: []loop.Event{
			{Iteration: 1, Phase: loop.PhasePlanReview, Name: "iteration_advanced"},
			{Iteration: 2, Phase: loop.PhaseCodeReview, Name: "phase_changed"},
		},
	}

	out := renderLoopState(st)
	if !strings.Contains(out, "Phase:      code_review") {
		t.Errorf("missing the phase line:\n%s", out)
	}
	if !strings.Contains(out, "2/5 (3 remaining)") {
		t.Errorf("missing the iteration line:\n%s", out)
	}
	if !strings.Contains(out, "Resolved:   no") {
		t.Errorf("missing the resolved line:\n%s", out)
	}
	if !strings.Contains(out, "Conflicts (1)") || !strings.Contains(out, "• [security] auth") {
		t.Errorf("missing the conflict block:\n%s", out)
	}
	if !strings.Contains(out, "Recent events:") || !strings.Contains(out, "[i2 code_review] phase_changed") {
		t.Errorf("missing the history block:\n%s", out)
	}
}

func TestRenderLoopState_Resolved(t *testing.T) {
	st := loop.State{
		Iteration:     3,
		MaxIterations: 5,
		Phase:         loop.PhaseDone,
		Resolved:      true,
	}

	out := renderLoopState(st)
	if !strings.Contains(out, "Resolved:   yes") {
		t.Errorf("missing the resolved line:\n%s", out)
	}
	if strings.Contains(out, "Conflicts") {
		t.Errorf("no conflict block expected:\n%s", out)
	}
}

func TestRenderLoopState_HistoryTruncated(t *testing.T) {
	st := loop.State{Iteration: 7, MaxIterations: 10, Phase: loop.PhasePlanReview}
	for i := 1; i <= 7; i++ {
		st.History = append(st.History, loop.Event{
			Iteration: i, Phase: loop.PhasePlanReview, Name: "iteration_advanced",
		})
	}

	out := renderLoopState(st)
	if strings.Contains(out, "[i1 ") || strings.Contains(out, "[i2 ") {
		t.Errorf("only the last five events should render:\n%s", out)
	}
	if !strings.Contains(out, "[i3 ") || !strings.Contains(out, "[i7 ") {
		t.Errorf("the last five events should render:\n%s", out)
	}
}
