package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/parleyhq/parley/internal/events"
)

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m, m.reloadCmd()
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewport()
		return m, nil

	case TickMsg:
		return m, tea.Batch(tickCmd(), m.reloadCmd())

	case SnapshotMsg:
		m.loadErr = msg.Err
		if msg.Err == nil {
			m.snapshot = msg.Snapshot
			if m.ready {
				m.viewport.SetContent(m.debateContent())
			}
		}
		return m, nil

	case EventMsg:
		m.appendEvent(msg.Event)
		// The documents on disk usually changed with the event.
		return m, m.reloadCmd()

	case DoneMsg:
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) resizeViewport() {
	width := m.width - 2
	if width < 20 {
		width = 20
	}
	height := m.height - panelBudget
	if height < 3 {
		height = 3
	}
	if !m.ready {
		m.viewport = viewport.New(width, height)
		m.viewport.SetContent(m.debateContent())
		m.ready = true
		return
	}
	m.viewport.Width = width
	m.viewport.Height = height
}

// appendEvent keeps the newest eventLimit stream lines.
func (m *Model) appendEvent(evt events.Event) {
	line := fmt.Sprintf("%s %s", evt.Time.Format("15:04:05"), evt.String())
	m.events = append(m.events, line)
	if len(m.events) > eventLimit {
		m.events = m.events[len(m.events)-eventLimit:]
	}
}
