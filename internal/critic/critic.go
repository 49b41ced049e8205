package critic

import (
	"context"
	"time"
)

// Type identifies which critic backend to use
type Type string

const (
	// TypeClaude uses the Claude CLI
	TypeClaude Type = "claude"

	// TypeCodex uses the OpenAI Codex CLI
	TypeCodex Type = "codex"

	// TypeOpenCode uses the OpenCode CLI
	TypeOpenCode Type = "opencode"
)

const (
	// DefaultTimeout bounds a single call attempt.
	DefaultTimeout = 5 * time.Minute

	// DefaultRetries is the number of attempts per call.
	DefaultRetries = 3
)

// Response is the successful outcome of one critic call.
// A Response never carries an error; failed calls return a *CallError instead.
type Response struct {
	// Source is the name of the critic that produced the text.
	Source string

	// Text is the critic's trimmed output.
	Text string

	// Elapsed is how long the call took.
	Elapsed time.Duration
}

// Client defines the interface for CLI-based critic backends
type Client interface {
	// Call submits a prompt (with optional context prepended) and blocks
	// until the critic responds or the call times out. Failures are
	// reported as *CallError with the timeout/failure kind preserved.
	Call(ctx context.Context, prompt, contextText string) (*Response, error)

	// Name returns the stable critic identity (e.g. "claude-sonnet").
	// Results are keyed by this name everywhere downstream.
	Name() string

	// Available reports whether the backing CLI is installed.
	Available() bool
}

// Config holds critic backend configuration
type Config struct {
	// Type specifies which backend to use (defaults to "claude" if empty)
	Type Type

	// Model selects the model alias for backends that support one.
	Model string

	// Command is the path to the CLI executable.
	// If empty, uses the default command name for the type.
	Command string

	// Timeout bounds each call attempt. Zero means DefaultTimeout.
	Timeout time.Duration

	// Retries is the number of attempts per call. Zero means DefaultRetries.
	Retries int
}

func (c Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

func (c Config) retries() int {
	if c.Retries > 0 {
		return c.Retries
	}
	return DefaultRetries
}

// joinPrompt prepends context text to the prompt when present.
func joinPrompt(contextText, prompt string) string {
	if contextText == "" {
		return prompt
	}
	return contextText + "\n\n---\n\n" + prompt
}

// retryCall runs fn up to attempts times, returning the first success.
// Between attempts it checks ctx so a cancelled caller stops retrying.
func retryCall(ctx context.Context, attempts int, fn func() (*Response, error)) (*Response, error) {
	var lastErr error
	for i := 0; i < attempts; i++ {
		if ctx.Err() != nil {
			break
		}
		resp, err := fn()
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = ctx.Err()
	}
	return nil, lastErr
}
