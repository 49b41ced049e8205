// Package checkpoint implements the human decision points between
// workflow phases. Every phase transition that matters runs through a
// named checkpoint; nothing proceeds without a recorded decision.
package checkpoint

import "time"

// Decision is the outcome a user picks at a checkpoint.
type Decision string

const (
	// DecisionContinue proceeds to the next phase unchanged.
	DecisionContinue Decision = "continue"

	// DecisionContinueWithFeedback proceeds after folding the user's
	// feedback into the next phase input.
	DecisionContinueWithFeedback Decision = "continue_with_feedback"

	// DecisionContinueWithoutFeedback proceeds, discarding the critic
	// output the checkpoint presented.
	DecisionContinueWithoutFeedback Decision = "continue_without_feedback"

	// DecisionRequestModification re-runs the current phase with the
	// user's feedback.
	DecisionRequestModification Decision = "request_modification"

	// DecisionSkip skips the rest of the current phase.
	DecisionSkip Decision = "skip"

	// DecisionAbort stops the workflow.
	DecisionAbort Decision = "abort"
)

// NeedsFeedback reports whether the decision carries user feedback.
func (d Decision) NeedsFeedback() bool {
	return d == DecisionRequestModification || d == DecisionContinueWithFeedback
}

// Name identifies a checkpoint definition.
type Name string

const (
	Context    Name = "context"
	PlanReview Name = "plan_review"
	CodeReview Name = "code_review"
	TestReview Name = "test_review"
)

// Option is one selectable menu entry at a checkpoint.
type Option struct {
	Label    string
	Decision Decision
}

// Checkpoint defines a single decision point.
type Checkpoint struct {
	Name    Name
	Phase   int
	Prompt  string
	Options []Option
}

// Result records one checkpoint decision.
type Result struct {
	Phase    int       `json:"phase"`
	Decision Decision  `json:"decision"`
	Feedback string    `json:"feedback,omitempty"`
	Time     time.Time `json:"time"`
}

var definitions = map[Name]Checkpoint{
	Context: {
		Name:   Context,
		Phase:  0,
		Prompt: "Send these files to the critics?",
		Options: []Option{
			{Label: "Proceed", Decision: DecisionContinue},
			{Label: "Add files", Decision: DecisionRequestModification},
			{Label: "Remove files", Decision: DecisionRequestModification},
			{Label: "Abort", Decision: DecisionAbort},
		},
	},
	PlanReview: {
		Name:   PlanReview,
		Phase:  1,
		Prompt: "Review the critics' plan feedback",
		Options: []Option{
			{Label: "Proceed (apply review)", Decision: DecisionContinueWithFeedback},
			{Label: "Request changes", Decision: DecisionRequestModification},
			{Label: "Proceed (ignore review)", Decision: DecisionContinueWithoutFeedback},
			{Label: "Abort", Decision: DecisionAbort},
		},
	},
	CodeReview: {
		Name:   CodeReview,
		Phase:  2,
		Prompt: "Review the critics' code feedback",
		Options: []Option{
			{Label: "Proceed (apply review)", Decision: DecisionContinueWithFeedback},
			{Label: "Request changes", Decision: DecisionRequestModification},
			{Label: "Proceed (ignore review)", Decision: DecisionContinueWithoutFeedback},
			{Label: "Abort", Decision: DecisionAbort},
		},
	},
	TestReview: {
		Name:   TestReview,
		Phase:  3,
		Prompt: "Review the generated tests",
		Options: []Option{
			{Label: "Proceed (run tests)", Decision: DecisionContinue},
			{Label: "Request test changes", Decision: DecisionRequestModification},
			{Label: "Finish without tests", Decision: DecisionSkip},
			{Label: "Abort", Decision: DecisionAbort},
		},
	},
}

// Definition returns the named checkpoint definition.
func Definition(name Name) (Checkpoint, bool) {
	def, ok := definitions[name]
	return def, ok
}
