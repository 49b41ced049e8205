package review

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoClients is returned when a reviewer is constructed without critics.
	ErrNoClients = errors.New("at least one critic is required")

	// ErrTooFewClients is returned when a multi-model reviewer is
	// constructed with fewer than two critics.
	ErrTooFewClients = errors.New("multi-model review requires at least two critics")

	// ErrAllFailed is returned when no critic produced a usable review.
	ErrAllFailed = errors.New("all critics failed")
)

// allFailedError wraps ErrAllFailed with every critic's failure message.
func allFailedError(outcomes []Outcome) error {
	details := make([]string, 0, len(outcomes))
	for _, out := range outcomes {
		details = append(details, out.Err)
	}
	return fmt.Errorf("%w: %s", ErrAllFailed, strings.Join(details, "; "))
}
