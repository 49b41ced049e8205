package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/parleyhq/parley/internal/conflict"
	"github.com/parleyhq/parley/internal/contextdir"
	"github.com/parleyhq/parley/internal/critic"
	"github.com/parleyhq/parley/internal/debate"
	"github.com/parleyhq/parley/internal/events"
	"github.com/parleyhq/parley/internal/history"
	"github.com/parleyhq/parley/internal/prompts"
	"github.com/parleyhq/parley/internal/review"
)

// ReviewOptions holds flags for the review command.
type ReviewOptions struct {
	Type        string   // artifact kind: plan or code
	Context     []string // explicit context files
	AutoContext bool     // detect context from the artifact text
	Critics     []string // subset of configured critics
	Model       string   // claude model alias override
	JSON        bool     // machine-readable output
}

// Validate checks option consistency.
func (opts ReviewOptions) Validate() error {
	switch opts.Type {
	case "plan", "code":
		return nil
	default:
		return fmt.Errorf("review type must be plan or code, got %q", opts.Type)
	}
}

// NewReviewCmd creates the review command.
func NewReviewCmd(app *App) *cobra.Command {
	opts := ReviewOptions{Type: "plan"}
	cmd := &cobra.Command{
		Use:   "review <artifact>",
		Short: "Run one multi-critic review round over a plan or diff",
		Long: `Review sends the artifact to every configured critic in parallel and
prints the synthesized round. With two critics the responses are
cross-checked for conflicts; with three or more a consensus score is
computed instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.Validate(); err != nil {
				return err
			}
			return app.RunReview(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}
	cmd.Flags().StringVarP(&opts.Type, "type", "t", "plan", "Artifact kind: plan or code")
	cmd.Flags().StringArrayVarP(&opts.Context, "context", "c", nil, "Context file sent with the prompt (repeatable)")
	cmd.Flags().BoolVar(&opts.AutoContext, "auto-context", false, "Detect context files from the artifact")
	cmd.Flags().StringSliceVar(&opts.Critics, "critics", nil, "Critics to consult (default: all configured)")
	cmd.Flags().StringVar(&opts.Model, "model", "", "Claude model alias override")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output as JSON instead of formatted text")
	return cmd
}

// RunReview executes a single review round and prints the result.
func (a *App) RunReview(ctx context.Context, out io.Writer, artifactPath string, opts ReviewOptions) error {
	rt, err := a.wireRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	artifact, err := readArtifact(artifactPath)
	if err != nil {
		return err
	}
	clients, err := rt.Critics(opts.Critics, opts.Model)
	if err != nil {
		return err
	}
	contextText := buildContext(rt.Collector(), artifact, opts.Context, opts.AutoContext)

	prompt, err := reviewPrompt(opts.Type, artifact)
	if err != nil {
		return err
	}

	session := ulid.Make().String()
	rt.Bus.Emit(events.NewEvent(events.ReviewStarted, session).
		WithPayload(map[string]any{"critics": criticNames(clients), "type": opts.Type}))

	if len(clients) >= 3 {
		return a.runMultiReview(ctx, rt, out, session, artifactPath, prompt, contextText, clients, opts)
	}
	return a.runParallelReview(ctx, rt, out, session, artifactPath, prompt, contextText, clients, opts)
}

// runParallelReview is the one- or two-critic path with conflict
// classification.
func (a *App) runParallelReview(ctx context.Context, rt *Runtime, out io.Writer, session, artifactPath, prompt, contextText string, clients []critic.Client, opts ReviewOptions) error {
	reviewer, err := rt.Reviewer(clients)
	if err != nil {
		return err
	}
	res, err := reviewer.Review(ctx, prompt, contextText)
	if err != nil {
		rt.Bus.Emit(events.NewEvent(events.ReviewFailed, session).WithError(err))
		return fmt.Errorf("review failed: %w", err)
	}

	emitReviewEvents(rt.Bus, session, 1, res.Outcomes, conflictTopics(res.Conflicts))
	saveReviewSession(rt, session, artifactPath, debate.Kind(opts.Type), []debate.Round{{Number: 1, Outcomes: res.Outcomes}})

	if opts.JSON {
		return outputJSON(out, res)
	}
	fmt.Fprint(out, renderReviewResult(res))
	return nil
}

// runMultiReview is the consensus path for panels of three or more.
func (a *App) runMultiReview(ctx context.Context, rt *Runtime, out io.Writer, session, artifactPath, prompt, contextText string, clients []critic.Client, opts ReviewOptions) error {
	reviewer, err := rt.MultiReviewer(clients)
	if err != nil {
		return err
	}
	res, err := reviewer.Review(ctx, prompt, contextText)
	if err != nil {
		rt.Bus.Emit(events.NewEvent(events.ReviewFailed, session).WithError(err))
		return fmt.Errorf("review failed: %w", err)
	}

	emitReviewEvents(rt.Bus, session, 1, res.Outcomes, nil)
	saveReviewSession(rt, session, artifactPath, debate.Kind(opts.Type), []debate.Round{{Number: 1, Outcomes: res.Outcomes}})

	if opts.JSON {
		return outputJSON(out, res)
	}
	fmt.Fprint(out, renderMultiResult(res))
	return nil
}

// reviewPrompt renders the round-one prompt for the artifact kind.
func reviewPrompt(reviewType, artifact string) (string, error) {
	switch reviewType {
	case "code":
		return prompts.RenderCodeReview("", artifact)
	default:
		return prompts.RenderPlanReview(artifact)
	}
}

// readArtifact loads and validates the artifact under review.
func readArtifact(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read artifact: %w", err)
	}
	artifact := strings.TrimSpace(string(content))
	if artifact == "" {
		return "", fmt.Errorf("artifact %s is empty", path)
	}
	return artifact, nil
}

// buildContext assembles the prompt context from explicit paths plus,
// when requested, the files the artifact itself references.
func buildContext(col *contextdir.Collector, artifact string, explicit []string, auto bool) string {
	paths := append([]string(nil), explicit...)
	if auto {
		seen := make(map[string]bool, len(paths))
		for _, p := range paths {
			seen[p] = true
		}
		for _, p := range col.AutoDetect(artifact) {
			if !seen[p] {
				seen[p] = true
				paths = append(paths, p)
			}
		}
	}
	if len(paths) == 0 {
		return ""
	}
	res := col.Collect(artifact, paths)
	if len(res.Files) > 0 {
		slog.Debug("collected review context", "files", len(res.Files))
	}
	return res.PromptContext()
}

// emitReviewEvents publishes the completion events for one round.
func emitReviewEvents(bus *events.Bus, session string, round int, outcomes []review.Outcome, topics []string) {
	var failed []string
	for _, o := range outcomes {
		if !o.OK() {
			failed = append(failed, o.Name)
		}
	}
	if len(failed) > 0 {
		bus.Emit(events.NewEvent(events.ReviewPartial, session).
			WithRound(round).
			WithPayload(map[string]any{"failed": failed}))
	} else {
		bus.Emit(events.NewEvent(events.ReviewCompleted, session).WithRound(round))
	}
	if len(topics) > 0 {
		bus.Emit(events.NewEvent(events.ReviewConflicts, session).
			WithRound(round).
			WithPayload(map[string]any{"count": len(topics), "topics": topics}))
	}
}

func conflictTopics(conflicts []conflict.Conflict) []string {
	topics := make([]string, len(conflicts))
	for i, c := range conflicts {
		topics[i] = c.Topic
	}
	return topics
}

// saveReviewSession records a completed single-round review. Recording
// must never fail the command; problems are logged.
func saveReviewSession(rt *Runtime, session, artifactPath string, kind debate.Kind, rounds []debate.Round) {
	if rt.History == nil {
		return
	}
	rec := &history.SessionRecord{
		ID:         session,
		CreatedAt:  time.Now().UTC(),
		ReviewType: kind,
		Artifact:   artifactPath,
		Rounds:     rounds,
	}
	if err := rt.History.SaveSession(rec); err != nil {
		slog.Warn("failed to record review session", "error", err)
	}
}

// outputJSON writes v as indented JSON.
func outputJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
