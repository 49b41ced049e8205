package loop

import "errors"

var (
	// ErrCeilingExceeded is returned when AdvanceIteration is called with
	// no iteration slots left. Terminal: recovering requires an explicit
	// human reset, never a silent retry.
	ErrCeilingExceeded = errors.New("iteration ceiling exceeded")

	// ErrInvalidPhase is returned for a phase outside the fixed
	// enumeration.
	ErrInvalidPhase = errors.New("invalid phase")

	// ErrAlreadyResolved is returned when AdvanceIteration is called on
	// a resolved session.
	ErrAlreadyResolved = errors.New("loop already resolved")
)
