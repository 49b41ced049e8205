package critic

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

// OpenCode implements Client using the OpenCode CLI.
type OpenCode struct {
	command string
	timeout time.Duration
	retries int
}

// NewOpenCode creates an OpenCode critic with the specified command path.
// If the command is empty, defaults to "opencode".
func NewOpenCode(cfg Config) *OpenCode {
	command := cfg.Command
	if command == "" {
		command = "opencode"
	}
	return &OpenCode{
		command: command,
		timeout: cfg.timeout(),
		retries: cfg.retries(),
	}
}

// Name returns "opencode-gpt".
func (c *OpenCode) Name() string {
	return "opencode-gpt"
}

// Available reports whether the opencode CLI is installed.
func (c *OpenCode) Available() bool {
	_, err := exec.LookPath(c.command)
	return err == nil
}

// Call runs the opencode CLI with the prompt, retrying failed attempts.
func (c *OpenCode) Call(ctx context.Context, prompt, contextText string) (*Response, error) {
	full := joinPrompt(contextText, prompt)
	return retryCall(ctx, c.retries, func() (*Response, error) {
		return c.callOnce(ctx, full)
	})
}

func (c *OpenCode) callOnce(ctx context.Context, prompt string) (*Response, error) {
	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, c.command, "-p", prompt, "-q")
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
