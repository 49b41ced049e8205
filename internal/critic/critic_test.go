package critic

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestJoinPrompt_WithContext(t *testing.T) {
	got := joinPrompt("some context", "review this")
	want := "some context\n\n---\n\nreview this"
	if got != want {
		t.Errorf("joinPrompt() = %q, want %q", got, want)
	}
}

func TestJoinPrompt_NoContext(t *testing.T) {
	got := joinPrompt("", "review this")
	if got != "review this" {
		t.Errorf("joinPrompt() = %q, want prompt unchanged", got)
	}
}

func TestCallError_TimeoutMessage(t *testing.T) {
	err := NewTimeout("codex-gpt", 300*time.Second)
	want := "codex-gpt timed out after 300s"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !IsTimeout(err) {
		t.Error("IsTimeout() = false, want true")
	}
}

func TestCallError_FailureMessage(t *testing.T) {
	underlying := errors.New("exit status 1")
	err := NewFailure("claude-sonnet", "model overloaded", underlying)
	want := "claude-sonnet failed: model overloaded"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if IsTimeout(err) {
		t.Error("IsTimeout() = true for a failure error")
	}
	if !errors.Is(err, underlying) {
		t.Error("expected wrapped error to match with errors.Is")
	}
}

func TestIsTimeout_WrappedError(t *testing.T) {
	err := fmt.Errorf("dispatch: %w", NewTimeout("claude-sonnet", time.Minute))
	if !IsTimeout(err) {
		t.Error("IsTimeout() should see through wrapping")
	}
}

// writeScript creates an executable shell script for exercising the exec path.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-cli")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestClaude_CallSuccess(t *testing.T) {
	bin := writeScript(t, `echo "looks good to me"`)
	c, err := NewClaude(Config{Command: bin, Retries: 1})
	if err != nil {
		t.Fatalf("NewClaude: %v", err)
	}

	resp, err := c.Call(context.Background(), "review", "")
	if err != nil {
		t.Fatalf("Call() error: %v", err)
	}
	if resp.Text != "looks good to me" {
		t.Errorf("Text = %q, want trimmed script output", resp.Text)
	}
	if resp.Source != "claude-sonnet" {
		t.Errorf("Source = %q, want claude-sonnet", resp.Source)
	}
	if resp.Elapsed <= 0 {
		t.Error("Elapsed should be positive")
	}
}

func TestClaude_CallFailure(t *testing.T) {
	bin := writeScript(t, `echo "rate limited" >&2; exit 1`)
	c, err := NewClaude(Config{Command: bin, Retries: 2})
	if err != nil {
		t.Fatalf("NewClaude: %v", err)
	}

	_, err = c.Call(context.Background(), "review", "")
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	var ce *CallError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CallError, got %T", err)
	}
	if ce.Kind != KindFailure {
		t.Errorf("Kind = %q, want failure", ce.Kind)
	}
	if !strings.Contains(ce.Error(), "rate limited") {
		t.Errorf("error should carry stderr, got %q", ce.Error())
	}
}

func TestClaude_CallTimeout(t *testing.T) {
	bin := writeScript(t, `sleep 5`)
	c, err := NewClaude(Config{Command: bin, Timeout: 100 * time.Millisecond, Retries: 1})
	if err != nil {
		t.Fatalf("NewClaude: %v", err)
	}

	_, err = c.Call(context.Background(), "review", "")
	if !IsTimeout(err) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestClaude_RetriesThenSucceeds(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "attempted")
	// Fails on the first attempt, succeeds on the second.
	path := filepath.Join(dir, "flaky-cli")
	script := fmt.Sprintf("#!/bin/sh\nif [ ! -f %q ]; then touch %q; exit 1; fi\necho recovered\n", marker, marker)
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	c, err := NewClaude(Config{Command: path, Retries: 3})
	if err != nil {
		t.Fatalf("NewClaude: %v", err)
	}
	resp, err := c.Call(context.Background(), "review", "")
	if err != nil {
		t.Fatalf("Call() should succeed after retry: %v", err)
	}
	if resp.Text != "recovered" {
		t.Errorf("Text = %q, want recovered", resp.Text)
	}
}

func TestOpenCode_CallSuccess(t *testing.T) {
	bin := writeScript(t, `echo "gpt review"`)
	c := NewOpenCode(Config{Command: bin, Retries: 1})

	resp, err := c.Call(context.Background(), "review", "ctx")
	if err != nil {
		t.Fatalf("Call() error: %v", err)
	}
	if resp.Text != "gpt review" {
		t.Errorf("Text = %q, want gpt review", resp.Text)
	}
}

func TestCodex_CallWritesOutputFile(t *testing.T) {
	// Codex receives "exec <prompt> -o <file>"; emulate writing the file.
	bin := writeScript(t, `out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-o" ]; then out="$2"; shift; fi
  shift
done
echo "codex review" > "$out"`)
	c := NewCodex(Config{Command: bin, Retries: 1})

	resp, err := c.Call(context.Background(), "review", "")
	if err != nil {
		t.Fatalf("Call() error: %v", err)
	}
	if resp.Text != "codex review" {
		t.Errorf("Text = %q, want codex review", resp.Text)
	}
	if resp.Source != "codex-gpt" {
		t.Errorf("Source = %q, want codex-gpt", resp.Source)
	}
}

func TestRetryCall_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := retryCall(ctx, 3, func() (*Response, error) {
		calls++
		return nil, NewFailure("fake", "boom", nil)
	})
	if calls != 0 {
		t.Errorf("expected no attempts on cancelled context, got %d", calls)
	}
	if err == nil {
		t.Error("expected error from cancelled context")
	}
}
