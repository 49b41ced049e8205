package review

import (
	"time"

	"github.com/parleyhq/parley/internal/conflict"
)

// Outcome captures one critic's result within a round. Exactly one of
// Text or Err is meaningful: a successful call carries text, a failed
// call carries the error message.
type Outcome struct {
	// Name is the critic identity the outcome belongs to.
	Name string `json:"name"`

	// Text is the critic's review on success.
	Text string `json:"text,omitempty"`

	// Err is the failure message when the call did not produce a review.
	Err string `json:"error,omitempty"`

	// Elapsed is how long the call took on success.
	Elapsed time.Duration `json:"elapsed,omitempty"`
}

// OK reports whether the critic produced a usable review.
func (o Outcome) OK() bool {
	return o.Err == ""
}

// Result is one synthesized round over all configured critics.
type Result struct {
	// Outcomes holds each critic's result in configuration order.
	Outcomes []Outcome `json:"outcomes"`

	// Synthesized is the human-readable summary combining available
	// reviews and noting which critics failed.
	Synthesized string `json:"synthesized"`

	// Conflicts lists detected disagreements between successful reviews.
	// Empty when fewer than two critics succeeded.
	Conflicts []conflict.Conflict `json:"conflicts,omitempty"`
}

// Succeeded returns the outcomes that produced a usable review.
func (r *Result) Succeeded() []Outcome {
	return successes(r.Outcomes)
}

// SuccessCount returns how many critics produced a usable review.
func (r *Result) SuccessCount() int {
	return len(successes(r.Outcomes))
}

// AllSucceeded reports whether every critic produced a usable review.
func (r *Result) AllSucceeded() bool {
	return len(successes(r.Outcomes)) == len(r.Outcomes)
}

// Outcome returns the outcome for the named critic.
func (r *Result) Outcome(name string) (Outcome, bool) {
	return outcomeByName(r.Outcomes, name)
}

// MultiResult is a round over N critics annotated with a consensus score.
type MultiResult struct {
	// Outcomes holds each critic's result in configuration order.
	Outcomes []Outcome `json:"outcomes"`

	// Synthesized is the human-readable summary of all reviews.
	Synthesized string `json:"synthesized"`

	// Consensus is the keyword-agreement score in [0,1]. Advisory only;
	// the system never auto-decides that consensus was reached.
	Consensus float64 `json:"consensus_score"`
}

// Succeeded returns the outcomes that produced a usable review.
func (r *MultiResult) Succeeded() []Outcome {
	return successes(r.Outcomes)
}

// SuccessCount returns how many critics produced a usable review.
func (r *MultiResult) SuccessCount() int {
	return len(successes(r.Outcomes))
}

// Outcome returns the outcome for the named critic.
func (r *MultiResult) Outcome(name string) (Outcome, bool) {
	return outcomeByName(r.Outcomes, name)
}

func successes(outcomes []Outcome) []Outcome {
	var succ []Outcome
	for _, out := range outcomes {
		if out.OK() {
			succ = append(succ, out)
		}
	}
	return succ
}

func outcomeByName(outcomes []Outcome, name string) (Outcome, bool) {
	for _, out := range outcomes {
		if out.Name == name {
			return out, true
		}
	}
	return Outcome{}, false
}
