// Package workflow drives a full review cycle over a plan: context
// collection, plan review, code review, and test generation, with a
// human checkpoint between phases. State persists after every phase so
// an interrupted run resumes where it stopped.
package workflow

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/parleyhq/parley/internal/checkpoint"
	"github.com/parleyhq/parley/internal/loop"
)

// DocName is the document the workflow state persists under.
const DocName = "workflow_state"

// Phase identifies where the workflow currently is.
type Phase string

const (
	// PhaseContext collects and confirms the files sent to the critics.
	PhaseContext Phase = "context"

	// PhasePlan runs the plan review.
	PhasePlan Phase = "plan"

	// PhaseCode reviews the implementation diff.
	PhaseCode Phase = "code"

	// PhaseTest derives tests from the plan.
	PhaseTest Phase = "test"

	// PhaseDone is the terminal phase.
	PhaseDone Phase = "done"
)

// Next returns the phase that follows p in workflow order.
func (p Phase) Next() Phase {
	switch p {
	case PhaseContext:
		return PhasePlan
	case PhasePlan:
		return PhaseCode
	case PhaseCode:
		return PhaseTest
	default:
		return PhaseDone
	}
}

// loopPhase maps a workflow phase onto the refinement loop phase.
func (p Phase) loopPhase() (loop.Phase, bool) {
	switch p {
	case PhasePlan:
		return loop.PhasePlanReview, true
	case PhaseCode:
		return loop.PhaseCodeReview, true
	case PhaseTest:
		return loop.PhaseTestGeneration, true
	case PhaseDone:
		return loop.PhaseDone, true
	}
	return "", false
}

// State is the persisted workflow document.
type State struct {
	SessionID    string              `json:"session_id"`
	StartedAt    time.Time           `json:"started_at"`
	Phase        Phase               `json:"phase"`
	Aborted      bool                `json:"aborted,omitempty"`
	PlanPath     string              `json:"plan_path,omitempty"`
	Plan         string              `json:"plan"`
	Feedback     string              `json:"feedback,omitempty"`
	ContextFiles []string            `json:"context_files,omitempty"`
	PlanReview   string              `json:"plan_review,omitempty"`
	CodeReview   string              `json:"code_review,omitempty"`
	TestContent  string              `json:"test_content,omitempty"`
	Checkpoints  []checkpoint.Result `json:"checkpoints,omitempty"`
}

// NewState creates a fresh workflow state at the context phase.
func NewState(plan, planPath string) *State {
	return &State{
		SessionID: ulid.Make().String(),
		StartedAt: time.Now().UTC(),
		Phase:     PhaseContext,
		Plan:      plan,
		PlanPath:  planPath,
	}
}

// Done reports whether the workflow ran to completion.
func (s *State) Done() bool {
	return s.Phase == PhaseDone
}
