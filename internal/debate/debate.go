// Package debate runs the multi-round review protocol: round one is an
// independent critique from every critic, later rounds feed each critic
// the full history so it can agree, rebut, or add perspective. Rounds
// are bounded; the human decides after every round whether to continue.
package debate

import (
	"fmt"
	"strings"

	"github.com/parleyhq/parley/internal/review"
)

// MaxRounds caps a debate session. Once five rounds exist, continuation
// fails and the only way forward is an explicit Reset.
const MaxRounds = 5

// Round is one exchange where every configured critic responded once.
// Round numbers are 1-based and gapless.
type Round struct {
	Number int `json:"round_number"`

	// Outcomes holds each critic's response or error, in configuration
	// order. Keyed by critic identity, not arrival order.
	Outcomes []review.Outcome `json:"outcomes"`
}

// Outcome returns the outcome for the named critic.
func (r Round) Outcome(name string) (review.Outcome, bool) {
	for _, out := range r.Outcomes {
		if out.Name == name {
			return out, true
		}
	}
	return review.Outcome{}, false
}

// Result is the ordered debate history, append-only within a session.
type Result struct {
	// SessionID identifies the session in event streams and the history
	// database. Stamped once when the debate starts.
	SessionID string `json:"session_id,omitempty"`

	Rounds []Round `json:"rounds"`
}

// RoundCount returns how many rounds have completed.
func (r *Result) RoundCount() int {
	return len(r.Rounds)
}

// LatestRound returns the most recent round, or nil before round one.
func (r *Result) LatestRound() *Round {
	if len(r.Rounds) == 0 {
		return nil
	}
	return &r.Rounds[len(r.Rounds)-1]
}

// FormatHistory renders every round so far as markdown. The rendering
// feeds the next round's prompt and the display, so it is deterministic:
// identical rounds always produce the identical string.
func (r *Result) FormatHistory() string {
	var parts []string
	for _, round := range r.Rounds {
		parts = append(parts, fmt.Sprintf("## Round %d", round.Number))
		for _, out := range round.Outcomes {
			parts = append(parts, fmt.Sprintf("### %s", out.Name))
			if out.OK() {
				parts = append(parts, out.Text)
			} else {
				parts = append(parts, fmt.Sprintf("*Error: %s*", out.Err))
			}
		}
		parts = append(parts, "")
	}
	return strings.Join(parts, "\n")
}
