package events

import (
	"fmt"
	"strings"
	"time"
)

// Event represents a single occurrence in the review lifecycle
type Event struct {
	// Time is when the event occurred (set by bus on emit)
	Time time.Time `json:"time"`

	// Type identifies what happened
	Type EventType `json:"type"`

	// Session is the session key this event relates to (empty for global events)
	Session string `json:"session,omitempty"`

	// Iteration is the loop iteration (nil if not loop-related)
	Iteration *int `json:"iteration,omitempty"`

	// Round is the debate round number (nil if not debate-related)
	Round *int `json:"round,omitempty"`

	// Payload contains event-specific data (type varies by event)
	Payload any `json:"payload,omitempty"`

	// Error contains error message if this is a failure event
	Error string `json:"error,omitempty"`
}

// EventType is a string constant identifying the event category
type EventType string

// Review round events
const (
	// ReviewStarted is emitted when a parallel review round begins
	// Payload: critics ([]string)
	ReviewStarted EventType = "review.started"

	// ReviewCompleted is emitted when every critic responded
	ReviewCompleted EventType = "review.completed"

	// ReviewPartial is emitted when at least one critic failed but the
	// round is still usable
	// Payload: failed ([]string)
	ReviewPartial EventType = "review.partial"

	// ReviewConflicts is emitted when disagreements were detected
	// Payload: count (int), topics ([]string)
	ReviewConflicts EventType = "review.conflicts"

	// ReviewFailed is emitted when every critic failed (terminal for the round)
	ReviewFailed EventType = "review.failed"
)

// Debate events
const (
	DebateStarted        EventType = "debate.started"
	DebateRoundCompleted EventType = "debate.round.completed"
	DebateMaxRounds      EventType = "debate.max_rounds"
	DebateReset          EventType = "debate.reset"
	DebateFailed         EventType = "debate.failed"
)

// Loop state machine events
const (
	LoopCreated           EventType = "loop.created"
	LoopIterationAdvanced EventType = "loop.iteration.advanced"
	LoopPhaseChanged      EventType = "loop.phase.changed"
	LoopConflictsRecorded EventType = "loop.conflicts.recorded"
	LoopResolved          EventType = "loop.resolved"
	LoopCeiling           EventType = "loop.ceiling"
	LoopReset             EventType = "loop.reset"
)

// Checkpoint events (human decision points)
const (
	// CheckpointPresented is emitted when a decision is offered
	// Payload: options ([]string)
	CheckpointPresented EventType = "checkpoint.presented"

	// CheckpointDecided is emitted when the human chose
	// Payload: decision (string)
	CheckpointDecided EventType = "checkpoint.decided"
)

// Workflow events
const (
	WorkflowStarted        EventType = "workflow.started"
	WorkflowPhaseStarted   EventType = "workflow.phase.started"
	WorkflowPhaseCompleted EventType = "workflow.phase.completed"
	WorkflowCompleted      EventType = "workflow.completed"
	WorkflowAborted        EventType = "workflow.aborted"
	WorkflowFailed         EventType = "workflow.failed"
)

// Viewer events
const (
	// DocumentUpdated is emitted when a persisted session document
	// changed on disk. Payload: document (string)
	DocumentUpdated EventType = "document.updated"
)

// NewEvent creates an event with the given type and session key
func NewEvent(eventType EventType, session string) Event {
	return Event{
		Type:    eventType,
		Session: session,
	}
}

// WithIteration returns a copy of the event with the iteration set
func (e Event) WithIteration(iteration int) Event {
	e.Iteration = &iteration
	return e
}

// WithRound returns a copy of the event with the round number set
func (e Event) WithRound(round int) Event {
	e.Round = &round
	return e
}

// WithPayload returns a copy of the event with the payload set
func (e Event) WithPayload(payload any) Event {
	e.Payload = payload
	return e
}

// WithError returns a copy of the event with the error message set
func (e Event) WithError(err error) Event {
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// IsFailure returns true if this is a failure event type
func (e Event) IsFailure() bool {
	return strings.HasSuffix(string(e.Type), ".failed")
}

// String returns a human-readable representation of the event
func (e Event) String() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("[%s]", e.Type))

	if e.Session != "" {
		parts = append(parts, e.Session)
	}

	if e.Iteration != nil {
		parts = append(parts, fmt.Sprintf("iteration=#%d", *e.Iteration))
	}

	if e.Round != nil {
		parts = append(parts, fmt.Sprintf("round=#%d", *e.Round))
	}

	return strings.Join(parts, " ")
}
