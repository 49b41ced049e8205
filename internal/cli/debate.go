package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/internal/debate"
	"github.com/parleyhq/parley/internal/events"
	"github.com/parleyhq/parley/internal/history"
)

// NewDebateCmd creates the debate command group.
func NewDebateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debate",
		Short: "Run a bounded multi-round debate between critics",
		Long: `Debate opens with one independent review round, then lets the critics
respond to each other round by round, each seeing the full history. A
debate is capped at ` + fmt.Sprint(debate.MaxRounds) + ` rounds and persists across invocations.`,
	}
	cmd.AddCommand(
		newDebateStartCmd(app),
		newDebateContinueCmd(app),
		newDebateStatusCmd(app),
		newDebateResetCmd(app),
	)
	return cmd
}

// DebateStartOptions holds flags for debate start.
type DebateStartOptions struct {
	Type        string
	Context     []string
	AutoContext bool
	Critics     []string
	Model       string
}

func newDebateStartCmd(app *App) *cobra.Command {
	opts := DebateStartOptions{Type: "plan"}
	cmd := &cobra.Command{
		Use:   "start <artifact>",
		Short: "Open a new debate with one independent review round",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.StartDebate(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}
	cmd.Flags().StringVarP(&opts.Type, "type", "t", "plan", "Artifact kind: plan or code")
	cmd.Flags().StringArrayVarP(&opts.Context, "context", "c", nil, "Context file sent with the prompt (repeatable)")
	cmd.Flags().BoolVar(&opts.AutoContext, "auto-context", false, "Detect context files from the artifact")
	cmd.Flags().StringSliceVar(&opts.Critics, "critics", nil, "Critics on the panel (default: all configured)")
	cmd.Flags().StringVar(&opts.Model, "model", "", "Claude model alias override")
	return cmd
}

// DebateContinueOptions holds flags for debate continue.
type DebateContinueOptions struct {
	Focus       string
	Context     []string
	AutoContext bool
	Critics     []string
	Model       string
}

func newDebateContinueCmd(app *App) *cobra.Command {
	opts := DebateContinueOptions{}
	cmd := &cobra.Command{
		Use:   "continue <artifact>",
		Short: "Run the next debate round",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.ContinueDebate(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.Focus, "focus", "", "Topic the round should concentrate on")
	cmd.Flags().StringArrayVarP(&opts.Context, "context", "c", nil, "Context file sent with the prompt (repeatable)")
	cmd.Flags().BoolVar(&opts.AutoContext, "auto-context", false, "Detect context files from the artifact")
	cmd.Flags().StringSliceVar(&opts.Critics, "critics", nil, "Critics on the panel (default: all configured)")
	cmd.Flags().StringVar(&opts.Model, "model", "", "Claude model alias override")
	return cmd
}

func newDebateStatusCmd(app *App) *cobra.Command {
	var full, asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the saved debate",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.ShowDebate(cmd.OutOrStdout(), full, asJSON)
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "Print every round's full text")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON instead of formatted text")
	return cmd
}

func newDebateResetCmd(app *App) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Discard the saved debate",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.ResetDebate(cmd.InOrStdin(), cmd.OutOrStdout(), force)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation prompt")
	return cmd
}

// StartDebate opens a fresh debate, replacing any saved one.
func (a *App) StartDebate(ctx context.Context, out io.Writer, artifactPath string, opts DebateStartOptions) error {
	rt, err := a.wireRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	artifact, err := readArtifact(artifactPath)
	if err != nil {
		return err
	}
	engine, err := a.buildDebateEngine(rt, opts.Critics, opts.Model)
	if err != nil {
		return err
	}
	if prev, err := engine.Load(); err == nil && prev != nil && prev.RoundCount() > 0 {
		fmt.Fprintf(out, "Replacing the saved debate (%d rounds).\n\n", prev.RoundCount())
	}
	contextText := buildContext(rt.Collector(), artifact, opts.Context, opts.AutoContext)

	kind := debate.Kind(opts.Type)
	res, err := engine.Start(ctx, artifact, contextText, kind)
	if res == nil {
		rt.Bus.Emit(events.NewEvent(events.DebateFailed, "").WithError(err))
		return fmt.Errorf("debate failed: %w", err)
	}

	rt.Bus.Emit(events.NewEvent(events.DebateStarted, res.SessionID).
		WithPayload(map[string]any{"artifact": artifactPath, "type": string(kind)}))
	rt.Bus.Emit(events.NewEvent(events.DebateRoundCompleted, res.SessionID).WithRound(1))
	saveDebateSession(rt, res, artifactPath, kind)

	fmt.Fprint(out, renderRound(res.Rounds[0]))
	fmt.Fprintf(out, "Round 1 of %d recorded. Continue with 'parley debate continue %s'.\n",
		debate.MaxRounds, artifactPath)

	if err != nil {
		return fmt.Errorf("debate ran but its state was not saved: %w", err)
	}
	return nil
}

// ContinueDebate runs the next round of the saved debate.
func (a *App) ContinueDebate(ctx context.Context, out io.Writer, artifactPath string, opts DebateContinueOptions) error {
	rt, err := a.wireRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	artifact, err := readArtifact(artifactPath)
	if err != nil {
		return err
	}
	engine, err := a.buildDebateEngine(rt, opts.Critics, opts.Model)
	if err != nil {
		return err
	}
	res, err := engine.Load()
	if err != nil {
		return fmt.Errorf("failed to load debate: %w", err)
	}
	if res == nil {
		return fmt.Errorf("%w; start one with 'parley debate start %s'", debate.ErrNotStarted, artifactPath)
	}
	contextText := buildContext(rt.Collector(), artifact, opts.Context, opts.AutoContext)

	before := res.RoundCount()
	runErr := engine.Continue(ctx, res, artifact, contextText, opts.Focus)
	if runErr != nil && res.RoundCount() == before {
		if errors.Is(runErr, debate.ErrMaxRounds) {
			rt.Bus.Emit(events.NewEvent(events.DebateMaxRounds, res.SessionID).
				WithRound(res.RoundCount()))
			return fmt.Errorf("%w; close it out or start over with 'parley debate reset'", runErr)
		}
		rt.Bus.Emit(events.NewEvent(events.DebateFailed, res.SessionID).WithError(runErr))
		return fmt.Errorf("debate round failed: %w", runErr)
	}

	round := res.LatestRound()
	rt.Bus.Emit(events.NewEvent(events.DebateRoundCompleted, res.SessionID).WithRound(round.Number))
	saveDebateSession(rt, res, artifactPath, "")

	fmt.Fprint(out, renderRound(*round))
	fmt.Fprintf(out, "Round %d of %d recorded.\n", round.Number, debate.MaxRounds)

	// The round ran even if the document write failed; the history row
	// above may still have it.
	if runErr != nil {
		return fmt.Errorf("debate ran but its state was not saved: %w", runErr)
	}
	return nil
}

// ShowDebate prints the saved debate, if any.
func (a *App) ShowDebate(out io.Writer, full, asJSON bool) error {
	rt, err := a.wireRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	var res debate.Result
	found, err := rt.Store.Load(debate.DocName, &res)
	if err != nil {
		return fmt.Errorf("failed to load debate: %w", err)
	}
	if !found {
		fmt.Fprintln(out, "No debate in progress.")
		return nil
	}
	if asJSON {
		return outputJSON(out, &res)
	}
	if res.SessionID != "" {
		fmt.Fprintf(out, "Session:  %s\n", res.SessionID)
	}
	fmt.Fprintf(out, "Rounds:   %d of %d\n\n", res.RoundCount(), debate.MaxRounds)
	if full {
		fmt.Fprintln(out, res.FormatHistory())
		return nil
	}
	for _, r := range res.Rounds {
		fmt.Fprint(out, renderRoundSummary(r))
	}
	fmt.Fprintln(out, "\nUse --full to print every response.")
	return nil
}

// ResetDebate discards the saved debate document.
func (a *App) ResetDebate(in io.Reader, out io.Writer, force bool) error {
	rt, err := a.wireRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	var res debate.Result
	found, err := rt.Store.Load(debate.DocName, &res)
	if err != nil {
		return fmt.Errorf("failed to load debate: %w", err)
	}
	if !found {
		fmt.Fprintln(out, "No debate to reset.")
		return nil
	}
	if !force && !confirm(in, out, fmt.Sprintf("Delete the saved debate (%d rounds)?", res.RoundCount())) {
		fmt.Fprintln(out, "Aborted.")
		return nil
	}
	if err := rt.Store.Delete(debate.DocName); err != nil {
		return fmt.Errorf("failed to reset debate: %w", err)
	}
	rt.Bus.Emit(events.NewEvent(events.DebateReset, res.SessionID))
	fmt.Fprintln(out, "Debate history cleared.")
	return nil
}

// buildDebateEngine wires a debate engine over the selected critics.
func (a *App) buildDebateEngine(rt *Runtime, critics []string, model string) (*debate.Engine, error) {
	clients, err := rt.Critics(critics, model)
	if err != nil {
		return nil, err
	}
	reviewer, err := rt.Reviewer(clients)
	if err != nil {
		return nil, err
	}
	return debate.NewEngine(reviewer, rt.Store), nil
}

// saveDebateSession upserts the debate's history row, preserving the
// created time and review type of an existing row. Recording must never
// fail the command; problems are logged.
func saveDebateSession(rt *Runtime, res *debate.Result, artifactPath string, kind debate.Kind) {
	if rt.History == nil {
		return
	}
	if res.SessionID == "" {
		slog.Debug("debate predates session ids, not recording")
		return
	}
	rec, err := rt.History.GetSession(res.SessionID)
	if err != nil {
		slog.Warn("failed to look up debate session", "error", err)
		return
	}
	if rec == nil {
		rec = &history.SessionRecord{
			ID:         res.SessionID,
			CreatedAt:  time.Now().UTC(),
			ReviewType: kind,
			Artifact:   artifactPath,
		}
	}
	rec.Rounds = res.Rounds
	if err := rt.History.SaveSession(rec); err != nil {
		slog.Warn("failed to record debate session", "error", err)
	}
}
