package web

import (
	"time"

	"github.com/parleyhq/parley/internal/history"
	"github.com/parleyhq/parley/internal/loop"
	"github.com/parleyhq/parley/internal/state"
	"github.com/parleyhq/parley/internal/workflow"
)

// Config configures the viewer server.
type Config struct {
	// Addr is the HTTP listen address. Defaults to ":7333".
	Addr string

	// StateDir is the session state directory to watch for changes.
	// Empty disables the filesystem watcher.
	StateDir string

	// Docs loads the persisted session documents.
	Docs state.Store

	// History serves the session history endpoint. Optional.
	History *history.Store
}

// StatusSnapshot aggregates the session documents for /api/status.
type StatusSnapshot struct {
	Time       time.Time       `json:"time"`
	Loop       loop.State      `json:"loop"`
	Workflow   *workflow.State `json:"workflow,omitempty"`
	Debate     *DebateStatus   `json:"debate,omitempty"`
	SSEClients int             `json:"sse_clients"`
}

// DebateStatus summarizes the debate document without its full text.
type DebateStatus struct {
	RoundCount int      `json:"round_count"`
	MaxRounds  int      `json:"max_rounds"`
	Critics    []string `json:"critics,omitempty"`
}
