package events

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// LogConfig configures the logging handler
type LogConfig struct {
	// Writer is where logs are written (default: os.Stderr)
	Writer io.Writer

	// IncludePayload includes event payload in log output
	IncludePayload bool

	// TimeFormat is the timestamp format (default: RFC3339)
	TimeFormat string
}

// RecordConfig configures the history persistence handler
type RecordConfig struct {
	// Recorder receives every event for durable storage
	Recorder Recorder

	// OnError is called when recording fails
	OnError func(error)
}

// Recorder persists events (matches history.Store).
// Defined locally to avoid circular imports.
type Recorder interface {
	Record(Event) error
}

// LogHandler returns a handler that logs events to the configured writer
// Format: [event.type] session iteration=#N round=#M
func LogHandler(cfg LogConfig) Handler {
	if cfg.Writer == nil {
		cfg.Writer = os.Stderr
	}
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = time.RFC3339
	}

	return func(e Event) {
		var buf strings.Builder
		buf.WriteString("[")
		buf.WriteString(string(e.Type))
		buf.WriteString("]")

		if e.Session != "" {
			buf.WriteString(" ")
			buf.WriteString(e.Session)
		}
		if e.Iteration != nil {
			fmt.Fprintf(&buf, " iteration=#%d", *e.Iteration)
		}
		if e.Round != nil {
			fmt.Fprintf(&buf, " round=#%d", *e.Round)
		}
		if e.Error != "" {
			fmt.Fprintf(&buf, " error=%q", e.Error)
		}
		if cfg.IncludePayload && e.Payload != nil {
			fmt.Fprintf(&buf, " payload=%v", e.Payload)
		}
		buf.WriteString("\n")

		fmt.Fprint(cfg.Writer, buf.String())
	}
}

// RecordHandler returns a handler that persists every event through the
// configured Recorder. Recording failures never propagate; they are
// reported through OnError when set.
func RecordHandler(cfg RecordConfig) Handler {
	return func(e Event) {
		if cfg.Recorder == nil {
			return
		}
		if err := cfg.Recorder.Record(e); err != nil {
			if cfg.OnError != nil {
				cfg.OnError(err)
			}
		}
	}
}
