package debate

import "errors"

var (
	// ErrMaxRounds is returned by Continue once MaxRounds rounds exist.
	// The debate result is left untouched.
	ErrMaxRounds = errors.New("maximum debate rounds reached")

	// ErrNotStarted is returned when a round is requested before any
	// debate has been started.
	ErrNotStarted = errors.New("no debate in progress")
)
