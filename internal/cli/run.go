package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/internal/checkpoint"
	"github.com/parleyhq/parley/internal/loop"
	"github.com/parleyhq/parley/internal/workflow"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	Context       []string // extra context files
	Auto          bool     // approve every checkpoint
	MaxIterations int      // loop ceiling override, 0 uses configuration
}

// NewRunCmd creates the run command.
func NewRunCmd(app *App) *cobra.Command {
	opts := RunOptions{}
	cmd := &cobra.Command{
		Use:   "run <plan>",
		Short: "Run the full review workflow over a plan",
		Long: `Run drives the complete cycle: context collection, plan review, code
review against the working diff, and test generation, with a human
checkpoint between phases. Progress is saved after every phase, so an
interrupted run can be picked up with 'parley resume'.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunWorkflow(cmd.Context(), cmd, args[0], opts)
		},
	}
	cmd.Flags().StringArrayVarP(&opts.Context, "context", "c", nil, "Context file sent with every prompt (repeatable)")
	cmd.Flags().BoolVar(&opts.Auto, "auto", false, "Approve every checkpoint without asking")
	cmd.Flags().IntVar(&opts.MaxIterations, "max-iterations", 0, "Refinement iteration ceiling (default: config)")
	return cmd
}

// RunWorkflow executes the workflow engine for the given plan.
func (a *App) RunWorkflow(ctx context.Context, cmd *cobra.Command, planPath string, opts RunOptions) error {
	rt, err := a.wireRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	auto := opts.Auto || rt.Config.Checkpoint.Auto
	if !auto && !checkpoint.Interactive() {
		return fmt.Errorf("checkpoints need an interactive terminal; use --auto for unattended runs")
	}
	engine, err := a.buildWorkflowEngine(rt, cmd, auto, opts.MaxIterations)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	handler := NewSignalHandler(cancel)
	handler.OnShutdown(func() {
		fmt.Fprintln(os.Stderr, "\nInterrupted; saving workflow state...")
	})
	handler.Start()
	defer handler.Stop()

	st, err := engine.Run(ctx, workflow.RunOptions{
		PlanPath:     planPath,
		ContextPaths: opts.Context,
	})
	return finishWorkflow(cmd.OutOrStdout(), rt, st, err)
}

// buildWorkflowEngine assembles the workflow engine from the runtime.
// Checkpoint decisions are read from the command's input stream.
func (a *App) buildWorkflowEngine(rt *Runtime, cmd *cobra.Command, auto bool, maxIterations int) (*workflow.Engine, error) {
	clients, err := rt.Critics(nil, "")
	if err != nil {
		return nil, err
	}
	reviewer, err := rt.Reviewer(clients)
	if err != nil {
		return nil, err
	}
	loopMgr, err := rt.LoopManager(maxIterations)
	if err != nil {
		return nil, fmt.Errorf("failed to open loop state: %w", err)
	}
	checkpoints := checkpoint.NewManager(checkpoint.Config{
		Auto:  auto,
		Input: checkpoint.TerminalHandler(cmd.InOrStdin(), cmd.OutOrStdout()),
		Out:   cmd.OutOrStdout(),
	})
	return workflow.NewEngine(workflow.Config{
		Root:        rt.Root,
		Reviewer:    reviewer,
		Collector:   rt.Collector(),
		Checkpoints: checkpoints,
		Loop:        loopMgr,
		Store:       rt.Store,
		Bus:         rt.Bus,
	})
}

// finishWorkflow prints the closing summary for a run or resume.
func finishWorkflow(out io.Writer, rt *Runtime, st *workflow.State, err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(out, "Workflow interrupted; state saved. Pick it up with 'parley resume'.")
		return nil
	case errors.Is(err, loop.ErrCeilingExceeded):
		return fmt.Errorf("%w; inspect with 'parley loop status' and reset with 'parley loop reset'", err)
	case err != nil:
		return err
	}

	if st.Aborted {
		fmt.Fprintln(out, "\nWorkflow aborted; state saved. Pick it up with 'parley resume'.")
		return nil
	}
	fmt.Fprintf(out, "\nWorkflow complete (session %s).\n", st.SessionID)
	if st.TestContent != "" {
		fmt.Fprintln(out, "\nGenerated test plan:")
		fmt.Fprintln(out, st.TestContent)
	}
	fmt.Fprintf(out, "Session documents are saved under %s.\n", rt.Config.StateDir)
	return nil
}
