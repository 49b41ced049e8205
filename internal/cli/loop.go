package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/internal/events"
	"github.com/parleyhq/parley/internal/loop"
)

// NewLoopCmd creates the loop command group.
func NewLoopCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loop",
		Short: "Inspect and drive the persisted refinement loop",
		Long: `The loop tracks how many refinement iterations the session has used
against its ceiling, which phase the review is in, and the conflicts
still open. Its state survives across invocations until reset.`,
	}
	cmd.AddCommand(
		newLoopStatusCmd(app),
		newLoopAdvanceCmd(app),
		newLoopPhaseCmd(app),
		newLoopResolveCmd(app),
		newLoopResetCmd(app),
	)
	return cmd
}

func newLoopStatusCmd(app *App) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the loop state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.ShowLoop(cmd.OutOrStdout(), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON instead of formatted text")
	return cmd
}

func newLoopAdvanceCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "advance",
		Short: "Consume one refinement iteration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.AdvanceLoop(cmd.OutOrStdout())
		},
	}
}

func newLoopPhaseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "phase <phase>",
		Short: "Move the loop to another phase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.SetLoopPhase(cmd.OutOrStdout(), loop.Phase(args[0]))
		},
	}
}

func newLoopResolveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Mark the session resolved",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.ResolveLoop(cmd.OutOrStdout())
		},
	}
}

func newLoopResetCmd(app *App) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Discard the loop state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.ResetLoop(cmd.InOrStdin(), cmd.OutOrStdout(), force)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation prompt")
	return cmd
}

// ShowLoop prints the loop state.
func (a *App) ShowLoop(out io.Writer, asJSON bool) error {
	rt, mgr, err := a.loopManager()
	if err != nil {
		return err
	}
	defer rt.Close()

	st := mgr.State()
	if asJSON {
		return outputJSON(out, st)
	}
	fmt.Fprint(out, renderLoopState(st))
	return nil
}

// AdvanceLoop consumes one iteration, enforcing the ceiling.
func (a *App) AdvanceLoop(out io.Writer) error {
	rt, mgr, err := a.loopManager()
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := mgr.AdvanceIteration(); err != nil {
		st := mgr.State()
		if errors.Is(err, loop.ErrCeilingExceeded) {
			rt.Bus.Emit(events.NewEvent(events.LoopCeiling, "").
				WithIteration(st.Iteration).
				WithError(err))
			return fmt.Errorf("%w; reset with 'parley loop reset' to start over", err)
		}
		if errors.Is(err, loop.ErrAlreadyResolved) {
			return fmt.Errorf("%w; reset with 'parley loop reset' to start over", err)
		}
		return err
	}
	st := mgr.State()
	rt.Bus.Emit(events.NewEvent(events.LoopIterationAdvanced, "").WithIteration(st.Iteration))
	fmt.Fprintf(out, "Iteration %d of %d (%d remaining).\n", st.Iteration, st.MaxIterations, st.Remaining())
	return nil
}

// SetLoopPhase moves the loop to the given phase.
func (a *App) SetLoopPhase(out io.Writer, phase loop.Phase) error {
	rt, mgr, err := a.loopManager()
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := mgr.SetPhase(phase); err != nil {
		if errors.Is(err, loop.ErrInvalidPhase) {
			return fmt.Errorf("%w (valid: %s)", err, phaseList())
		}
		return err
	}
	rt.Bus.Emit(events.NewEvent(events.LoopPhaseChanged, "").
		WithPayload(map[string]any{"phase": string(phase)}))
	fmt.Fprintf(out, "Phase set to %s.\n", phase)
	return nil
}

// ResolveLoop marks the session terminally resolved.
func (a *App) ResolveLoop(out io.Writer) error {
	rt, mgr, err := a.loopManager()
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := mgr.MarkResolved(); err != nil {
		return err
	}
	st := mgr.State()
	rt.Bus.Emit(events.NewEvent(events.LoopResolved, "").WithIteration(st.Iteration))
	fmt.Fprintf(out, "Session resolved after %d of %d iterations.\n", st.Iteration, st.MaxIterations)
	return nil
}

// ResetLoop discards the persisted loop document.
func (a *App) ResetLoop(in io.Reader, out io.Writer, force bool) error {
	rt, mgr, err := a.loopManager()
	if err != nil {
		return err
	}
	defer rt.Close()

	st := mgr.State()
	if !force && !confirm(in, out, fmt.Sprintf("Reset the loop at iteration %d of %d?", st.Iteration, st.MaxIterations)) {
		fmt.Fprintln(out, "Aborted.")
		return nil
	}
	if err := mgr.Reset(); err != nil {
		return fmt.Errorf("failed to reset loop: %w", err)
	}
	rt.Bus.Emit(events.NewEvent(events.LoopReset, ""))
	fmt.Fprintln(out, "Loop state reset.")
	return nil
}

func (a *App) loopManager() (*Runtime, *loop.Manager, error) {
	rt, err := a.wireRuntime()
	if err != nil {
		return nil, nil, err
	}
	mgr, err := rt.LoopManager(0)
	if err != nil {
		rt.Close()
		return nil, nil, fmt.Errorf("failed to open loop state: %w", err)
	}
	return rt, mgr, nil
}

func phaseList() string {
	phases := loop.ValidPhases()
	names := make([]string, len(phases))
	for i, p := range phases {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
