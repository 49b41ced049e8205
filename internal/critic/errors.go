package critic

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies why a critic call failed
type Kind string

const (
	// KindTimeout indicates the call exceeded its per-attempt timeout
	KindTimeout Kind = "timeout"

	// KindFailure indicates the CLI exited non-zero or could not run
	KindFailure Kind = "failure"
)

// CallError describes a failed call to a single critic.
// The Kind distinguishes timeouts from ordinary failures; synthesis treats
// both as "no response from this participant" but preserves the message.
type CallError struct {
	Client string
	Kind   Kind
	Msg    string
	Err    error
}

func (e *CallError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %v", e.Client, e.Err)
	}
	return fmt.Sprintf("%s failed", e.Client)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// NewTimeout creates a CallError marking a timed-out critic call
func NewTimeout(client string, timeout time.Duration) *CallError {
	return &CallError{
		Client: client,
		Kind:   KindTimeout,
		Msg:    fmt.Sprintf("%s timed out after %ds", client, int(timeout.Seconds())),
	}
}

// NewFailure creates a CallError for a failed critic call
func NewFailure(client, detail string, err error) *CallError {
	msg := fmt.Sprintf("%s failed", client)
	if detail != "" {
		msg = fmt.Sprintf("%s failed: %s", client, detail)
	}
	return &CallError{
		Client: client,
		Kind:   KindFailure,
		Msg:    msg,
		Err:    err,
	}
}

// IsTimeout reports whether err is a timed-out critic call
func IsTimeout(err error) bool {
	var ce *CallError
	return errors.As(err, &ce) && ce.Kind == KindTimeout
}
