package loop

// Phase identifies where the refinement loop currently is.
type Phase string

const (
	// PhasePlanReview is the initial phase: the plan is under review.
	PhasePlanReview Phase = "plan_review"

	// PhaseCodeReview reviews the implementation. It may be re-entered
	// once per iteration until the ceiling is reached.
	PhaseCodeReview Phase = "code_review"

	// PhaseTestGeneration derives tests from the reviewed code.
	PhaseTestGeneration Phase = "test_generation"

	// PhaseDone is the terminal phase.
	PhaseDone Phase = "done"
)

// DefaultMaxIterations bounds how many refinement iterations one session
// may consume. The ceiling is inclusive: the Nth iteration is the last
// permitted.
const DefaultMaxIterations = 5

// ValidPhases returns every phase in workflow order.
func ValidPhases() []Phase {
	return []Phase{PhasePlanReview, PhaseCodeReview, PhaseTestGeneration, PhaseDone}
}

// ValidPhase reports whether p is a known phase.
func ValidPhase(p Phase) bool {
	switch p {
	case PhasePlanReview, PhaseCodeReview, PhaseTestGeneration, PhaseDone:
		return true
	}
	return false
}

// Event is one append-only history entry.
type Event struct {
	// Iteration the loop was in when the event was recorded.
	Iteration int `json:"iteration"`

	// Phase the loop was in when the event was recorded.
	Phase Phase `json:"phase"`

	// Name identifies what happened, e.g. "review_completed".
	Name string `json:"event"`

	// Details carries event-specific payload.
	Details map[string]any `json:"details"`
}

// State is the persisted loop document. It is the durable source of
// truth for the session; the Manager never acknowledges a mutation that
// was not persisted first.
type State struct {
	// Iteration counts consumed refinement iterations. A fresh session
	// starts at zero; the first AdvanceIteration enters iteration one.
	Iteration int `json:"iteration"`

	// MaxIterations is the inclusive ceiling. Immutable once the
	// session's document exists.
	MaxIterations int `json:"max_iterations"`

	// Phase is the loop's current phase.
	Phase Phase `json:"phase"`

	// LastConflicts holds the rendered conflicts from the most recent
	// review round.
	LastConflicts []string `json:"last_conflicts"`

	// Resolved marks the session terminally resolved.
	Resolved bool `json:"resolved"`

	// History is the append-only event log.
	History []Event `json:"history"`
}

// NewState returns a fresh session state.
func NewState(maxIterations int) *State {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &State{
		Iteration:     0,
		MaxIterations: maxIterations,
		Phase:         PhasePlanReview,
		LastConflicts: []string{},
		History:       []Event{},
	}
}

// Remaining returns how many iterations the session may still consume.
func (s *State) Remaining() int {
	remaining := s.MaxIterations - s.Iteration
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (s *State) clone() *State {
	next := *s
	next.LastConflicts = append([]string(nil), s.LastConflicts...)
	next.History = append([]Event(nil), s.History...)
	return &next
}
