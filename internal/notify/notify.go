// Package notify delivers review milestones that need a human's
// attention to configured backends: the terminal, a Slack incoming
// webhook, or a generic JSON webhook.
package notify

import "context"

// Severity indicates how urgent the notification is
type Severity string

const (
	SeverityInfo     Severity = "info"     // FYI, no action needed
	SeverityWarning  Severity = "warning"  // May need attention
	SeverityCritical Severity = "critical" // Requires immediate action
	SeverityBlocking Severity = "blocking" // Cannot proceed without user
)

// Notification represents something that needs user attention
type Notification struct {
	Severity Severity          // How urgent is this?
	Session  string            // Which review session is affected
	Title    string            // Short summary (one line)
	Message  string            // Detailed explanation
	Details  map[string]string // Additional context (iteration, round, error details, etc.)
}

// Notifier is the interface for notifying users
type Notifier interface {
	// Notify sends a notification to the user.
	// Returns nil if notification was sent successfully.
	// Implementations should respect context cancellation.
	Notify(ctx context.Context, n Notification) error

	// Name returns the notifier type for logging
	Name() string
}

// Noop discards every notification. Used when notifications are turned
// off in config.
type Noop struct{}

// NewNoop creates a no-op notifier
func NewNoop() *Noop {
	return &Noop{}
}

// Notify discards the notification
func (*Noop) Notify(ctx context.Context, n Notification) error {
	return ctx.Err()
}

// Name returns "none"
func (*Noop) Name() string {
	return "none"
}
