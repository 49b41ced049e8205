package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/parleyhq/parley/internal/conflict"
	"github.com/parleyhq/parley/internal/debate"
	"github.com/parleyhq/parley/internal/loop"
	"github.com/parleyhq/parley/internal/review"
)

// Terminal output styles. lipgloss degrades to plain text when the
// output is not a color terminal.
var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

const (
	iconOK   = "✓"
	iconFail = "✗"

	gaugeWidth = 20
)

// renderReviewResult renders one two-critic round: outcome lines, the
// synthesized summary, and any conflicts.
func renderReviewResult(res *review.Result) string {
	var b strings.Builder
	for _, out := range res.Outcomes {
		b.WriteString(renderOutcomeLine(out))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(res.Synthesized)
	if !strings.HasSuffix(res.Synthesized, "\n") {
		b.WriteString("\n")
	}
	if len(res.Conflicts) > 0 {
		b.WriteString("\n")
		b.WriteString(renderConflicts(res.Conflicts))
	}
	return b.String()
}

// renderMultiResult renders a consensus round over three or more critics.
func renderMultiResult(res *review.MultiResult) string {
	var b strings.Builder
	for _, out := range res.Outcomes {
		b.WriteString(renderOutcomeLine(out))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(res.Synthesized)
	if !strings.HasSuffix(res.Synthesized, "\n") {
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Consensus: %s %.2f\n",
		renderGauge(int(res.Consensus*gaugeWidth), gaugeWidth), res.Consensus))
	return b.String()
}

func renderOutcomeLine(out review.Outcome) string {
	if out.OK() {
		return fmt.Sprintf("  %s %s %s", okStyle.Render(iconOK), out.Name,
			dimStyle.Render("("+formatElapsed(out.Elapsed)+")"))
	}
	return fmt.Sprintf("  %s %s: %s", failStyle.Render(iconFail), out.Name, out.Err)
}

// renderConflicts lists the detected disagreements with the advisory
// resolution guidance per category.
func renderConflicts(conflicts []conflict.Conflict) string {
	var b strings.Builder
	b.WriteString(warnStyle.Render(fmt.Sprintf("Conflicts (%d)", len(conflicts))))
	b.WriteString("\n")
	for _, c := range conflicts {
		b.WriteString(fmt.Sprintf("  • [%s] %s\n", c.Category, c.Topic))
		if c.Guidance != "" {
			b.WriteString(dimStyle.Render("    " + c.Guidance))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderRound renders one debate round with every critic's full response.
func renderRound(r debate.Round) string {
	var b strings.Builder
	b.WriteString(headingStyle.Render(fmt.Sprintf("Round %d", r.Number)))
	b.WriteString("\n\n")
	for _, out := range r.Outcomes {
		b.WriteString(headingStyle.Render(out.Name))
		b.WriteString("\n")
		if out.OK() {
			b.WriteString(out.Text)
			if !strings.HasSuffix(out.Text, "\n") {
				b.WriteString("\n")
			}
		} else {
			b.WriteString(failStyle.Render("failed: " + out.Err))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderRoundSummary renders one debate round as a compact block of
// outcome lines.
func renderRoundSummary(r debate.Round) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Round %d\n", r.Number))
	for _, out := range r.Outcomes {
		b.WriteString(renderOutcomeLine(out))
		b.WriteString("\n")
	}
	return b.String()
}

// renderLoopState renders the loop status panel.
func renderLoopState(st loop.State) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Phase:      %s\n", st.Phase))
	b.WriteString(fmt.Sprintf("Iteration:  %s %d/%d (%d remaining)\n",
		iterationGauge(st), st.Iteration, st.MaxIterations, st.Remaining()))
	resolved := "no"
	if st.Resolved {
		resolved = okStyle.Render("yes")
	}
	b.WriteString(fmt.Sprintf("Resolved:   %s\n", resolved))
	if len(st.LastConflicts) > 0 {
		b.WriteString(warnStyle.Render(fmt.Sprintf("Conflicts (%d)", len(st.LastConflicts))))
		b.WriteString("\n")
		for _, c := range st.LastConflicts {
			b.WriteString(fmt.Sprintf("  • %s\n", c))
		}
	}
	if n := len(st.History); n > 0 {
		b.WriteString("Recent events:\n")
		start := n - 5
		if start < 0 {
			start = 0
		}
		for _, evt := range st.History[start:] {
			b.WriteString(dimStyle.Render(fmt.Sprintf("  [i%d %s] %s", evt.Iteration, evt.Phase, evt.Name)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func iterationGauge(st loop.State) string {
	if st.MaxIterations <= 0 {
		return renderGauge(0, gaugeWidth)
	}
	return renderGauge(st.Iteration*gaugeWidth/st.MaxIterations, gaugeWidth)
}

// renderGauge renders a fixed-width bar with filled of width cells set.
func renderGauge(filled, width int) string {
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", width-filled) + "]"
}

// formatElapsed renders a duration at sub-second precision, e.g. "3.2s".
func formatElapsed(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	return d.Round(100 * time.Millisecond).String()
}
