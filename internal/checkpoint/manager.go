package checkpoint

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// InputHandler collects a decision for a checkpoint. It receives the
// checkpoint prompt and its ordered options and returns the chosen
// decision plus any feedback the user typed.
type InputHandler func(prompt string, options []Option) (Decision, string, error)

// Config configures a Manager.
type Config struct {
	// Input collects decisions. Nil selects the terminal handler on
	// stdin/stdout.
	Input InputHandler

	// Auto approves every checkpoint with DecisionContinue without
	// consulting the input handler. Unattended runs only.
	Auto bool

	// Out receives the content presented at each checkpoint. Nil
	// selects os.Stdout.
	Out io.Writer
}

// Manager runs checkpoints and records their results.
type Manager struct {
	input   InputHandler
	auto    bool
	out     io.Writer
	history []Result
}

// NewManager creates a checkpoint manager.
func NewManager(cfg Config) *Manager {
	input := cfg.Input
	if input == nil {
		input = TerminalHandler(os.Stdin, os.Stdout)
	}
	out := cfg.Out
	if out == nil {
		out = os.Stdout
	}
	return &Manager{input: input, auto: cfg.Auto, out: out}
}

// Auto reports whether the manager approves checkpoints automatically.
func (m *Manager) Auto() bool {
	return m.auto
}

// Run presents the named checkpoint with the given content and returns
// the recorded decision. In auto mode the checkpoint is approved
// immediately and nothing is displayed.
func (m *Manager) Run(name Name, displayContent string) (Result, error) {
	def, ok := Definition(name)
	if !ok {
		return Result{}, fmt.Errorf("unknown checkpoint %q", name)
	}

	if m.auto {
		res := Result{
			Phase:    def.Phase,
			Decision: DecisionContinue,
			Time:     time.Now().UTC(),
		}
		m.history = append(m.history, res)
		return res, nil
	}

	sep := strings.Repeat("-", 60)
	fmt.Fprintf(m.out, "\n%s\n%s\n%s\n\n", sep, displayContent, sep)

	decision, feedback, err := m.input(def.Prompt, def.Options)
	if err != nil {
		return Result{}, fmt.Errorf("checkpoint %s: %w", name, err)
	}

	res := Result{
		Phase:    def.Phase,
		Decision: decision,
		Feedback: feedback,
		Time:     time.Now().UTC(),
	}
	m.history = append(m.history, res)
	return res, nil
}

// History returns a copy of the recorded results in order.
func (m *Manager) History() []Result {
	out := make([]Result, len(m.history))
	copy(out, m.history)
	return out
}

// ClearHistory discards the recorded results.
func (m *Manager) ClearHistory() {
	m.history = nil
}
