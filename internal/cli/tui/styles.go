package tui

import "github.com/charmbracelet/lipgloss"

// Styles contains the lipgloss styles for the dashboard
type Styles struct {
	Title      lipgloss.Style
	Session    lipgloss.Style
	Timer      lipgloss.Style
	PanelTitle lipgloss.Style

	PhaseDone    lipgloss.Style
	PhaseActive  lipgloss.Style
	PhasePending lipgloss.Style

	CriticOK   lipgloss.Style
	CriticFail lipgloss.Style

	Gauge    lipgloss.Style
	Conflict lipgloss.Style
	Event    lipgloss.Style
	Error    lipgloss.Style

	Footer lipgloss.Style
}

// DefaultStyles returns the default dashboard styling
func DefaultStyles() Styles {
	return Styles{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Session:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Timer:      lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		PanelTitle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("250")),

		PhaseDone:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		PhaseActive:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
		PhasePending: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),

		CriticOK:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		CriticFail: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),

		Gauge:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Conflict: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Event:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),

		Footer: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// Status icons
const (
	IconDone    = "✓"
	IconActive  = "●"
	IconPending = "∙"
	IconFailed  = "✗"
)
