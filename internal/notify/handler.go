package notify

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/parleyhq/parley/internal/events"
)

// sendTimeout bounds one notification delivery.
const sendTimeout = 15 * time.Second

// EventHandler returns a bus handler that forwards attention-worthy
// events to the notifier. Delivery failures are logged, never
// propagated; the bus must not stall on a slow webhook.
func EventHandler(n Notifier) events.Handler {
	return func(e events.Event) {
		notif, ok := FromEvent(e)
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		if err := n.Notify(ctx, notif); err != nil {
			log.Printf("WARN: %s notification failed: %v", n.Name(), err)
		}
	}
}

// FromEvent maps a bus event to a notification. Only ceiling hits,
// all-critics failures, waiting checkpoints, and workflow failures
// notify; everything else reports false.
func FromEvent(e events.Event) (Notification, bool) {
	var notif Notification
	switch e.Type {
	case events.LoopCeiling:
		notif = Notification{
			Severity: SeverityWarning,
			Title:    "Iteration ceiling reached",
			Message:  "The review loop hit its iteration ceiling and needs a decision.",
		}
	case events.DebateMaxRounds:
		notif = Notification{
			Severity: SeverityWarning,
			Title:    "Debate round ceiling reached",
			Message:  "The debate used all its rounds. Resolve it or reset the history.",
		}
	case events.ReviewFailed, events.DebateFailed:
		notif = Notification{
			Severity: SeverityCritical,
			Title:    "All critics failed",
			Message:  "No critic produced a usable review.",
		}
	case events.CheckpointPresented:
		notif = Notification{
			Severity: SeverityBlocking,
			Title:    "Checkpoint waiting",
			Message:  "A checkpoint is waiting for your decision.",
		}
	case events.WorkflowFailed:
		notif = Notification{
			Severity: SeverityCritical,
			Title:    "Workflow failed",
			Message:  "The workflow stopped on an error.",
		}
	default:
		return Notification{}, false
	}

	notif.Session = e.Session

	details := make(map[string]string)
	if e.Error != "" {
		details["error"] = e.Error
	}
	if e.Iteration != nil {
		details["iteration"] = strconv.Itoa(*e.Iteration)
	}
	if e.Round != nil {
		details["round"] = strconv.Itoa(*e.Round)
	}
	if len(details) > 0 {
		notif.Details = details
	}

	return notif, true
}
