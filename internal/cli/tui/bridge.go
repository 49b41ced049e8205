package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/parleyhq/parley/internal/events"
)

// Bridge feeds events into a running bubbletea program
type Bridge struct {
	program *tea.Program
}

// NewBridge creates a bridge to the given program
func NewBridge(program *tea.Program) *Bridge {
	return &Bridge{program: program}
}

// Handler returns an event handler that forwards to the dashboard.
// Program.Send is safe from any goroutine.
func (b *Bridge) Handler() events.Handler {
	return func(evt events.Event) {
		b.program.Send(EventMsg{Event: evt})
	}
}

// SendDone tells the dashboard to exit.
func (b *Bridge) SendDone() {
	b.program.Send(DoneMsg{})
}
