package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/internal/checkpoint"
	"github.com/parleyhq/parley/internal/workflow"
)

// ResumeOptions holds flags for the resume command.
type ResumeOptions struct {
	Auto bool // approve every remaining checkpoint
}

// NewResumeCmd creates the resume command.
func NewResumeCmd(app *App) *cobra.Command {
	opts := ResumeOptions{}
	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Pick up the saved workflow where it left off",
		Long: `Resume reloads the persisted workflow and continues from the phase it
stopped in, whether it was aborted at a checkpoint or interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.ResumeWorkflow(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.Auto, "auto", false, "Approve every checkpoint without asking")
	return cmd
}

// ResumeWorkflow continues the persisted workflow run.
func (a *App) ResumeWorkflow(ctx context.Context, cmd *cobra.Command, opts ResumeOptions) error {
	rt, err := a.wireRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	auto := opts.Auto || rt.Config.Checkpoint.Auto
	if !auto && !checkpoint.Interactive() {
		return fmt.Errorf("checkpoints need an interactive terminal; use --auto for unattended runs")
	}
	engine, err := a.buildWorkflowEngine(rt, cmd, auto, 0)
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

	st, err := engine.Resume(ctx)
	if errors.Is(err, workflow.ErrNoSavedRun) {
		return fmt.Errorf("%w; start one with 'parley run <plan>'", err)
	}
	return finishWorkflow(cmd.OutOrStdout(), rt, st, err)
}
