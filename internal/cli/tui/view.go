package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/parleyhq/parley/internal/debate"
	"github.com/parleyhq/parley/internal/review"
	"github.com/parleyhq/parley/internal/workflow"
)

// panelBudget is the number of rows reserved for everything around the
// scrollable debate viewport.
const panelBudget = 16

const gaugeWidth = 20

// View implements tea.Model
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")
	if m.loadErr != nil {
		b.WriteString(m.Styles.Error.Render("state: " + m.loadErr.Error()))
		b.WriteString("\n\n")
	}
	b.WriteString(m.renderWorkflowLine())
	b.WriteString("\n")
	b.WriteString(m.renderLoopLine())
	b.WriteString("\n")
	b.WriteString(m.renderCriticsLine())
	b.WriteString("\n\n")
	b.WriteString(m.renderDebate())
	b.WriteString("\n")
	b.WriteString(m.renderEvents())
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	parts := []string{m.Styles.Title.Render("parley")}
	if wf := m.snapshot.Workflow; wf != nil {
		parts = append(parts, m.Styles.Session.Render("session "+wf.SessionID))
	} else if deb := m.snapshot.Debate; deb != nil && deb.SessionID != "" {
		parts = append(parts, m.Styles.Session.Render("debate "+deb.SessionID))
	}
	parts = append(parts, m.Styles.Timer.Render(formatDuration(time.Since(m.StartTime))))
	return strings.Join(parts, "  ")
}

// renderWorkflowLine shows each workflow phase with a progress icon.
func (m Model) renderWorkflowLine() string {
	title := m.Styles.PanelTitle.Render("Workflow")
	wf := m.snapshot.Workflow
	if wf == nil {
		return title + "  " + m.Styles.PhasePending.Render("not started")
	}
	phases := []workflow.Phase{workflow.PhaseContext, workflow.PhasePlan, workflow.PhaseCode, workflow.PhaseTest}
	parts := make([]string, 0, len(phases))
	current := phaseIndex(wf.Phase)
	for _, phase := range phases {
		icon, style := m.phaseMarker(phaseIndex(phase), current, wf.Done())
		parts = append(parts, style.Render(icon+" "+string(phase)))
	}
	line := title + "  " + strings.Join(parts, "  ")
	if wf.Aborted {
		line += "  " + m.Styles.Error.Render("aborted")
	}
	return line
}

func (m Model) phaseMarker(idx, current int, done bool) (string, lipgloss.Style) {
	switch {
	case done || idx < current:
		return IconDone, m.Styles.PhaseDone
	case idx == current:
		return IconActive, m.Styles.PhaseActive
	default:
		return IconPending, m.Styles.PhasePending
	}
}

func phaseIndex(p workflow.Phase) int {
	switch p {
	case workflow.PhaseContext:
		return 0
	case workflow.PhasePlan:
		return 1
	case workflow.PhaseCode:
		return 2
	case workflow.PhaseTest:
		return 3
	default:
		return 4
	}
}

func (m Model) renderLoopLine() string {
	st := m.snapshot.Loop
	line := fmt.Sprintf("%s      %s %s %d/%d",
		m.Styles.PanelTitle.Render("Loop"),
		m.Styles.Gauge.Render(renderBar(st.Iteration, st.MaxIterations, gaugeWidth)),
		st.Phase, st.Iteration, st.MaxIterations)
	if st.Resolved {
		line += "  " + m.Styles.PhaseDone.Render("resolved")
	}
	if n := len(st.LastConflicts); n > 0 {
		line += "  " + m.Styles.Conflict.Render(fmt.Sprintf("%d conflicts open", n))
	}
	return line
}

// renderBar renders a used/max gauge of the given width.
func renderBar(used, max, width int) string {
	if max <= 0 {
		max = 1
	}
	filled := used * width / max
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

// renderCriticsLine shows each critic's result from the latest round.
func (m Model) renderCriticsLine() string {
	title := m.Styles.PanelTitle.Render("Critics")
	deb := m.snapshot.Debate
	if deb == nil || deb.RoundCount() == 0 {
		return title + "  " + m.Styles.PhasePending.Render("no rounds yet")
	}
	round := deb.LatestRound()
	parts := make([]string, 0, len(round.Outcomes))
	for _, out := range round.Outcomes {
		parts = append(parts, m.renderCritic(out))
	}
	return title + "  " + strings.Join(parts, "  ")
}

func (m Model) renderCritic(out review.Outcome) string {
	if out.OK() {
		return m.Styles.CriticOK.Render(fmt.Sprintf("%s %s (%s)",
			IconDone, out.Name, out.Elapsed.Round(100*time.Millisecond)))
	}
	return m.Styles.CriticFail.Render(fmt.Sprintf("%s %s", IconFailed, out.Name))
}

func (m Model) renderDebate() string {
	title := "Debate"
	if deb := m.snapshot.Debate; deb != nil {
		title = fmt.Sprintf("Debate (round %d of %d)", deb.RoundCount(), debate.MaxRounds)
	}
	if !m.ready {
		return m.Styles.PanelTitle.Render(title)
	}
	return m.Styles.PanelTitle.Render(title) + "\n" + m.viewport.View()
}

// debateContent is the scrollable viewport body.
func (m Model) debateContent() string {
	if m.snapshot.Debate == nil {
		return "No debate recorded yet."
	}
	return m.snapshot.Debate.FormatHistory()
}

func (m Model) renderEvents() string {
	if len(m.events) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.Styles.PanelTitle.Render("Events"))
	b.WriteString("\n")
	for _, line := range m.events {
		b.WriteString(m.Styles.Event.Render("  " + line))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderFooter() string {
	return "\n" + m.Styles.Footer.Render("q quit · r refresh · ↑/↓ scroll debate")
}

// formatDuration renders elapsed time as H:MM:SS.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	min := int(d.Minutes()) % 60
	sec := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d:%02d", h, min, sec)
}
