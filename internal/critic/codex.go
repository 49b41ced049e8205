package critic

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"
)

// Codex implements Client using the OpenAI Codex CLI.
// Codex writes its response to a file rather than stdout, so each call
// round-trips through a temp file that is removed afterwards.
type Codex struct {
	command string
	timeout time.Duration
	retries int
}

// NewCodex creates a Codex critic with the specified command path.
// If the command is empty, defaults to "codex".
func NewCodex(cfg Config) *Codex {
	command := cfg.Command
	if command == "" {
		command = "codex"
	}
	return &Codex{
		command: command,
		timeout: cfg.timeout(),
		retries: cfg.retries(),
	}
}

// Name returns "codex-gpt".
func (c *Codex) Name() string {
	return "codex-gpt"
}

// Available reports whether the codex CLI is installed.
func (c *Codex) Available() bool {
	_, err := exec.LookPath(c.command)
	return err == nil
}

// Call runs the codex CLI with the prompt, retrying failed attempts.
func (c *Codex) Call(ctx context.Context, prompt, contextText string) (*Response, error) {
	full := joinPrompt(contextText, prompt)
	return retryCall(ctx, c.retries, func() (*Response, error) {
		return c.callOnce(ctx, full)
	})
}

func (c *Codex) callOnce(ctx context.Context, prompt string) (*Response, error) {
	out, err := os.CreateTemp("", "parley-codex-*.txt")
	if err != nil {
		return nil, NewFailure(c.Name(), "create output file", err)
	}
	outPath := out.Name()
	out.Close()
	defer os.Remove(outPath)

	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	var stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, c.command, "exec", prompt, "-o", outPath)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, NewTimeout(c.Name(), c.timeout)
		}
		return nil, NewFailure(c.Name(), strings.TrimSpace(stderr.String()), err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, NewFailure(c.Name(), "read output file", err)
	}

	return &Response{
		Source:  c.Name(),
		Text:    strings.TrimSpace(string(data)),
		Elapsed: time.Since(start),
	}, nil
}
