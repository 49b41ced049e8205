// Package tui renders the live session dashboard: loop progress, the
// debate history, workflow phase and the event stream, refreshed as
// other parley processes write state.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/parleyhq/parley/internal/debate"
	"github.com/parleyhq/parley/internal/events"
	"github.com/parleyhq/parley/internal/loop"
	"github.com/parleyhq/parley/internal/workflow"
)

// Snapshot is the set of persisted session documents the dashboard
// renders. Absent documents are nil.
type Snapshot struct {
	Loop     loop.State
	Debate   *debate.Result
	Workflow *workflow.State
}

// StateLoader reads the current snapshot from disk.
type StateLoader func() (Snapshot, error)

const eventLimit = 8

// Model is the bubbletea model for the dashboard
type Model struct {
	Styles    Styles
	StartTime time.Time

	loader   StateLoader
	snapshot Snapshot
	loadErr  error
	events   []string

	viewport viewport.Model
	ready    bool

	width    int
	height   int
	quitting bool
}

// NewModel creates the dashboard model
func NewModel(loader StateLoader) Model {
	return Model{
		Styles:    DefaultStyles(),
		StartTime: time.Now(),
		loader:    loader,
	}
}

// TickMsg fires every second to refresh the clock and reload state.
type TickMsg time.Time

// SnapshotMsg delivers a freshly loaded snapshot.
type SnapshotMsg struct {
	Snapshot Snapshot
	Err      error
}

// EventMsg delivers one event from the project event stream.
type EventMsg struct {
	Event events.Event
}

// DoneMsg tells the dashboard to exit.
type DoneMsg struct{}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.reloadCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// reloadCmd loads the snapshot off the update loop.
func (m Model) reloadCmd() tea.Cmd {
	loader := m.loader
	return func() tea.Msg {
		if loader == nil {
			return SnapshotMsg{}
		}
		snap, err := loader()
		return SnapshotMsg{Snapshot: snap, Err: err}
	}
}
