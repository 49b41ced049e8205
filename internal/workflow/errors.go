package workflow

import "errors"

var (
	// ErrNoPlan indicates a run was started without a plan path or content.
	ErrNoPlan = errors.New("a plan path or plan content is required")

	// ErrNoSavedRun indicates resume was called with no persisted workflow.
	ErrNoSavedRun = errors.New("no saved workflow to resume")
)
