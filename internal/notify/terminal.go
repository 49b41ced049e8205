package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

// Terminal writes notifications to stderr with visual severity indicators
type Terminal struct {
	mu  sync.Mutex // Protects concurrent writes
	out io.Writer
}

// NewTerminal creates a terminal notifier writing to stderr
func NewTerminal() *Terminal {
	return &Terminal{out: os.Stderr}
}

// NewTerminalWithWriter creates a terminal notifier with a custom writer
func NewTerminalWithWriter(out io.Writer) *Terminal {
	return &Terminal{out: out}
}

// Notify writes the notification to the terminal
func (t *Terminal) Notify(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	prefix := ""
	switch n.Severity {
	case SeverityCritical, SeverityBlocking:
		prefix = "🚨 "
	case SeverityWarning:
		prefix = "⚠️  "
	default:
		prefix = "ℹ️  "
	}

	// Serialize writes to prevent interleaved output
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.out, "\n%s[%s] %s\n", prefix, n.Severity, n.Title)
	if n.Session != "" {
		fmt.Fprintf(t.out, "   Session: %s\n", n.Session)
	}
	fmt.Fprintf(t.out, "   %s\n", n.Message)

	for k, v := range n.Details {
		fmt.Fprintf(t.out, "   %s: %s\n", k, v)
	}

	return nil
}

// Name returns "terminal"
func (t *Terminal) Name() string {
	return "terminal"
}
