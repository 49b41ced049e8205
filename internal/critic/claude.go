package critic

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ClaudeModels lists the model aliases accepted by NewClaude.
var ClaudeModels = []string{"sonnet", "opus", "haiku"}

// Claude implements Client by invoking the claude CLI in a fresh session.
// The subprocess runs independently of any interactive session, so its
// review reflects a perspective uncontaminated by the caller's context.
type Claude struct {
	command string
	model   string
	timeout time.Duration
	retries int
}

// NewClaude creates a Claude critic. The model must be one of ClaudeModels.
func NewClaude(cfg Config) (*Claude, error) {
	model := cfg.Model
	if model == "" {
		model = "sonnet"
	}
	if !validClaudeModel(model) {
		return nil, fmt.Errorf("unknown claude model: %s (available: %s)",
			model, strings.Join(ClaudeModels, ", "))
	}
	command := cfg.Command
	if command == "" {
		command = "claude"
	}
	return &Claude{
		command: command,
		model:   model,
		timeout: cfg.timeout(),
		retries: cfg.retries(),
	}, nil
}

func validClaudeModel(model string) bool {
	for _, m := range ClaudeModels {
		if m == model {
			return true
		}
	}
	return false
}

// Name returns the critic identity, e.g. "claude-sonnet".
func (c *Claude) Name() string {
	return "claude-" + c.model
}

// Available reports whether the claude CLI is installed.
func (c *Claude) Available() bool {
	_, err := exec.LookPath(c.command)
	return err == nil
}

// Call runs the claude CLI with the prompt, retrying failed attempts.
func (c *Claude) Call(ctx context.Context, prompt, contextText string) (*Response, error) {
	full := joinPrompt(contextText, prompt)
	return retryCall(ctx, c.retries, func() (*Response, error) {
		return c.callOnce(ctx, full)
	})
}

func (c *Claude) callOnce(ctx context.Context, prompt string) (*Response, error) {
	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, c.command,
		"-p", prompt, "--model", c.model, "--output-format", "text")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, NewTimeout(c.Name(), c.timeout)
		}
		return nil, NewFailure(c.Name(), strings.TrimSpace(stderr.String()), err)
	}

	return &Response{
		Source:  c.Name(),
		Text:    strings.TrimSpace(stdout.String()),
		Elapsed: time.Since(start),
	}, nil
}
