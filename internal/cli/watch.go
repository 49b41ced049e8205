package cli

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/internal/cli/tui"
	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/debate"
	"github.com/parleyhq/parley/internal/loop"
	"github.com/parleyhq/parley/internal/state"
	"github.com/parleyhq/parley/internal/workflow"
)

// NewWatchCmd creates the watch command.
func NewWatchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the live session in a terminal dashboard",
		Long: `Watch renders the current loop, debate and workflow state full-screen
and follows the event stream written by other parley commands in this
project. Run it beside 'parley run' or a debate.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Watch()
		},
	}
}

// Watch runs the dashboard until the user quits. The dashboard owns the
// terminal, so the usual event bus and its stderr logging stay unwired.
func (a *App) Watch() error {
	root, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, err := config.LoadConfig(root)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	store := state.NewFileStore(cfg.StateDir)
	model := tui.NewModel(func() (tui.Snapshot, error) {
		return loadSnapshot(store)
	})
	program := tea.NewProgram(model, tea.WithAltScreen())

	follower := newEventFollower(filepath.Join(cfg.StateDir, eventLogName), tui.NewBridge(program).Handler())
	follower.Start()
	defer follower.Stop()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("dashboard error: %w", err)
	}
	return nil
}

// loadSnapshot reads the persisted session documents for the dashboard.
func loadSnapshot(store state.Store) (tui.Snapshot, error) {
	snap := tui.Snapshot{
		Loop: loop.State{MaxIterations: loop.DefaultMaxIterations, Phase: loop.PhasePlanReview},
	}
	if _, err := store.Load(loop.DocName, &snap.Loop); err != nil {
		return snap, err
	}
	var deb debate.Result
	if found, err := store.Load(debate.DocName, &deb); err != nil {
		return snap, err
	} else if found {
		snap.Debate = &deb
	}
	var wf workflow.State
	if found, err := store.Load(workflow.DocName, &wf); err != nil {
		return snap, err
	} else if found {
		snap.Workflow = &wf
	}
	return snap, nil
}
