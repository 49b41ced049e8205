package workflow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/parleyhq/parley/internal/checkpoint"
	"github.com/parleyhq/parley/internal/contextdir"
	"github.com/parleyhq/parley/internal/events"
	"github.com/parleyhq/parley/internal/loop"
	"github.com/parleyhq/parley/internal/prompts"
	"github.com/parleyhq/parley/internal/review"
	"github.com/parleyhq/parley/internal/state"
)

// Config wires the engine's collaborators.
type Config struct {
	// Root is the project root. Defaults to ".".
	Root string

	// Reviewer dispatches prompts to the critic panel.
	Reviewer *review.Parallel

	// Collector gathers context files and the working diff.
	Collector *contextdir.Collector

	// Checkpoints gates phase transitions on user decisions.
	Checkpoints *checkpoint.Manager

	// Loop tracks refinement iterations across phase re-runs.
	Loop *loop.Manager

	// Store persists the workflow state between runs.
	Store state.Store

	// Bus receives lifecycle events. Optional.
	Bus *events.Bus
}

// Engine executes the workflow phases in order, persisting state after
// each transition and consuming a loop iteration for every phase re-run.
type Engine struct {
	root        string
	reviewer    *review.Parallel
	collector   *contextdir.Collector
	checkpoints *checkpoint.Manager
	loop        *loop.Manager
	store       state.Store
	bus         *events.Bus

	state   *State
	context *contextdir.Result
	extra   []string
}

// NewEngine validates the configuration and builds an engine.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Reviewer == nil {
		return nil, fmt.Errorf("workflow: reviewer is required")
	}
	if cfg.Collector == nil {
		return nil, fmt.Errorf("workflow: collector is required")
	}
	if cfg.Checkpoints == nil {
		return nil, fmt.Errorf("workflow: checkpoint manager is required")
	}
	if cfg.Loop == nil {
		return nil, fmt.Errorf("workflow: loop manager is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("workflow: store is required")
	}
	root := cfg.Root
	if root == "" {
		root = "."
	}
	return &Engine{
		root:        root,
		reviewer:    cfg.Reviewer,
		collector:   cfg.Collector,
		checkpoints: cfg.Checkpoints,
		loop:        cfg.Loop,
		store:       cfg.Store,
		bus:         cfg.Bus,
	}, nil
}

// RunOptions select the plan and extra context for a run.
type RunOptions struct {
	// PlanPath locates the plan file relative to the project root.
	PlanPath string

	// PlanContent supplies the plan directly and wins over PlanPath.
	PlanContent string

	// ContextPaths are files included alongside the auto-detected set.
	ContextPaths []string
}

// Run starts a fresh workflow from the context phase.
func (e *Engine) Run(ctx context.Context, opts RunOptions) (*State, error) {
	plan := opts.PlanContent
	if plan == "" && opts.PlanPath != "" {
		data, err := os.ReadFile(filepath.Join(e.root, opts.PlanPath))
		if err != nil {
			return nil, fmt.Errorf("failed to read plan: %w", err)
		}
		plan = string(data)
	}
	if strings.TrimSpace(plan) == "" {
		return nil, ErrNoPlan
	}

	e.state = NewState(plan, opts.PlanPath)
	e.context = nil
	e.extra = opts.ContextPaths
	e.emit(events.NewEvent(events.WorkflowStarted, e.state.SessionID).
		WithPayload(map[string]string{"plan": opts.PlanPath}))
	return e.execute(ctx)
}

// Resume continues the persisted workflow from its saved phase.
func (e *Engine) Resume(ctx context.Context) (*State, error) {
	st := &State{}
	found, err := e.store.Load(DocName, st)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNoSavedRun
	}
	if st.Done() {
		return st, nil
	}

	e.state = st
	e.state.Aborted = false
	e.extra = nil
	e.context = nil
	if len(st.ContextFiles) > 0 {
		e.context = e.collector.Collect(st.Plan, st.ContextFiles)
	}
	e.emit(events.NewEvent(events.WorkflowStarted, st.SessionID).
		WithPayload(map[string]any{"resumed": true, "phase": string(st.Phase)}))
	return e.execute(ctx)
}

// Load returns the saved workflow state, or nil when none exists.
func (e *Engine) Load() (*State, error) {
	st := &State{}
	found, err := e.store.Load(DocName, st)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return st, nil
}

// Reset discards the saved workflow state.
func (e *Engine) Reset() error {
	return e.store.Delete(DocName)
}

func (e *Engine) execute(ctx context.Context) (*State, error) {
	for !e.state.Done() {
		if err := ctx.Err(); err != nil {
			_ = e.saveState()
			return e.state, err
		}

		e.emit(events.NewEvent(events.WorkflowPhaseStarted, e.state.SessionID).
			WithPayload(map[string]string{"phase": string(e.state.Phase)}))

		var proceed bool
		var err error
		switch e.state.Phase {
		case PhaseContext:
			proceed, err = e.phaseContext(ctx)
		case PhasePlan:
			proceed, err = e.phasePlan(ctx)
		case PhaseCode:
			proceed, err = e.phaseCode(ctx)
		case PhaseTest:
			proceed, err = e.phaseTest(ctx)
		default:
			err = fmt.Errorf("unknown workflow phase %q", e.state.Phase)
		}
		if err != nil {
			e.emit(events.NewEvent(events.WorkflowFailed, e.state.SessionID).
				WithPayload(map[string]string{"phase": string(e.state.Phase)}).
				WithError(err))
			_ = e.saveState()
			return e.state, err
		}
		if !proceed {
			return e.state, nil
		}

		e.emit(events.NewEvent(events.WorkflowPhaseCompleted, e.state.SessionID).
			WithPayload(map[string]string{"phase": string(e.state.Phase)}))
		e.state.Phase = e.state.Phase.Next()
		if err := e.saveState(); err != nil {
			return e.state, err
		}
	}

	if err := e.finishLoop(); err != nil {
		return e.state, err
	}
	e.emit(events.NewEvent(events.WorkflowCompleted, e.state.SessionID))
	return e.state, nil
}

// finishLoop moves the refinement loop to its terminal phase and marks
// the session resolved. A loop resolved by an earlier run is left alone.
func (e *Engine) finishLoop() error {
	if e.loop.State().Resolved {
		return nil
	}
	if err := e.loop.SetPhase(loop.PhaseDone); err != nil {
		return err
	}
	if err := e.loop.MarkResolved(); err != nil && !errors.Is(err, loop.ErrAlreadyResolved) {
		return err
	}
	return nil
}

// phaseContext assembles the context set and confirms it with the user.
// Edits at the checkpoint do not consume loop iterations.
func (e *Engine) phaseContext(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	files := e.collector.AutoDetect(e.state.Plan)
	files = mergePaths(files, e.extra)
	e.context = e.collector.Collect(e.state.Plan, files)

	for {
		res, err := e.runCheckpoint(checkpoint.Context, e.contextDisplay())
		if err != nil {
			return false, err
		}
		switch res.Decision {
		case checkpoint.DecisionAbort:
			return false, e.abort()
		case checkpoint.DecisionRequestModification:
			add, remove := parseContextEdits(res.Feedback)
			if len(remove) > 0 {
				e.context = e.collector.Remove(e.context, remove)
			}
			if len(add) > 0 {
				e.context = e.collector.Add(e.context, add)
			}
		default:
			e.state.ContextFiles = e.context.Files
			return true, nil
		}
	}
}

func (e *Engine) phasePlan(ctx context.Context) (bool, error) {
	if err := e.enterLoopPhase(); err != nil {
		return false, err
	}

	for {
		prompt, err := prompts.RenderPlanReview(e.planInput())
		if err != nil {
			return false, err
		}
		res, err := e.review(ctx, prompt)
		if err != nil {
			return false, err
		}
		e.state.PlanReview = res.Synthesized
		if err := e.recordConflicts(res); err != nil {
			return false, err
		}

		cp, err := e.runCheckpoint(checkpoint.PlanReview, res.Synthesized)
		if err != nil {
			return false, err
		}
		proceed, rerun, err := e.applyDecision(cp)
		if err != nil || !rerun {
			return proceed, err
		}
	}
}

func (e *Engine) phaseCode(ctx context.Context) (bool, error) {
	if err := e.enterLoopPhase(); err != nil {
		return false, err
	}

	for {
		diff, err := e.collector.Diff(ctx)
		if err != nil {
			return false, err
		}

		display := "No code changes detected; nothing to review."
		if strings.TrimSpace(diff) != "" {
			prompt, err := prompts.RenderCodeReview(e.planInput(), diff)
			if err != nil {
				return false, err
			}
			res, err := e.review(ctx, prompt)
			if err != nil {
				return false, err
			}
			e.state.CodeReview = res.Synthesized
			if err := e.recordConflicts(res); err != nil {
				return false, err
			}
			display = res.Synthesized
		}

		cp, err := e.runCheckpoint(checkpoint.CodeReview, display)
		if err != nil {
			return false, err
		}
		proceed, rerun, err := e.applyDecision(cp)
		if err != nil || !rerun {
			return proceed, err
		}
	}
}

func (e *Engine) phaseTest(ctx context.Context) (bool, error) {
	if err := e.enterLoopPhase(); err != nil {
		return false, err
	}

	for {
		prompt, err := prompts.RenderTestGeneration(e.planInput())
		if err != nil {
			return false, err
		}
		res, err := e.review(ctx, prompt)
		if err != nil {
			return false, err
		}
		e.state.TestContent = res.Synthesized

		cp, err := e.runCheckpoint(checkpoint.TestReview, res.Synthesized)
		if err != nil {
			return false, err
		}
		proceed, rerun, err := e.applyDecision(cp)
		if err != nil || !rerun {
			return proceed, err
		}
	}
}

// applyDecision maps a checkpoint decision onto phase control flow.
// proceed advances to the next phase, rerun repeats the current phase
// after consuming one loop iteration.
func (e *Engine) applyDecision(cp checkpoint.Result) (proceed, rerun bool, err error) {
	switch cp.Decision {
	case checkpoint.DecisionAbort:
		return false, false, e.abort()
	case checkpoint.DecisionRequestModification:
		if err := e.advanceIteration(); err != nil {
			return false, false, err
		}
		e.state.Feedback = cp.Feedback
		return false, true, nil
	case checkpoint.DecisionContinueWithFeedback:
		e.state.Feedback = cp.Feedback
		return true, false, nil
	case checkpoint.DecisionSkip:
		return true, false, nil
	default:
		e.state.Feedback = ""
		return true, false, nil
	}
}

func (e *Engine) advanceIteration() error {
	if err := e.loop.AdvanceIteration(); err != nil {
		if errors.Is(err, loop.ErrCeilingExceeded) {
			st := e.loop.State()
			e.emit(events.NewEvent(events.LoopCeiling, e.state.SessionID).
				WithIteration(st.Iteration).
				WithError(err))
		}
		return err
	}
	st := e.loop.State()
	e.emit(events.NewEvent(events.LoopIterationAdvanced, e.state.SessionID).
		WithIteration(st.Iteration))
	return e.loop.RecordEvent("phase_rerun", map[string]any{"phase": string(e.state.Phase)})
}

func (e *Engine) enterLoopPhase() error {
	lp, ok := e.state.Phase.loopPhase()
	if !ok {
		return nil
	}
	if e.loop.State().Phase == lp {
		return nil
	}
	if err := e.loop.SetPhase(lp); err != nil {
		return err
	}
	e.emit(events.NewEvent(events.LoopPhaseChanged, e.state.SessionID).
		WithPayload(map[string]string{"phase": string(lp)}))
	return nil
}

func (e *Engine) review(ctx context.Context, prompt string) (*review.Result, error) {
	e.emit(events.NewEvent(events.ReviewStarted, e.state.SessionID))
	res, err := e.reviewer.Review(ctx, prompt, e.promptContext())
	if err != nil {
		e.emit(events.NewEvent(events.ReviewFailed, e.state.SessionID).WithError(err))
		return nil, err
	}

	evtType := events.ReviewCompleted
	if !res.AllSucceeded() {
		evtType = events.ReviewPartial
	}
	e.emit(events.NewEvent(evtType, e.state.SessionID).
		WithPayload(map[string]int{"succeeded": res.SuccessCount(), "critics": len(res.Outcomes)}))
	if len(res.Conflicts) > 0 {
		e.emit(events.NewEvent(events.ReviewConflicts, e.state.SessionID).
			WithPayload(map[string]int{"count": len(res.Conflicts)}))
	}
	return res, nil
}

func (e *Engine) recordConflicts(res *review.Result) error {
	topics := make([]string, 0, len(res.Conflicts))
	for _, c := range res.Conflicts {
		topics = append(topics, c.Topic)
	}
	if len(topics) > 0 {
		e.emit(events.NewEvent(events.LoopConflictsRecorded, e.state.SessionID).
			WithPayload(map[string]any{"topics": topics}))
	}
	return e.loop.SetConflicts(topics)
}

// runCheckpoint presents a checkpoint and records the decision on the
// workflow state. Auto mode decides without presenting anything.
func (e *Engine) runCheckpoint(name checkpoint.Name, content string) (checkpoint.Result, error) {
	if !e.checkpoints.Auto() {
		e.emit(events.NewEvent(events.CheckpointPresented, e.state.SessionID).
			WithPayload(map[string]string{"checkpoint": string(name)}))
	}
	res, err := e.checkpoints.Run(name, content)
	if err != nil {
		return checkpoint.Result{}, err
	}
	e.state.Checkpoints = append(e.state.Checkpoints, res)
	e.emit(events.NewEvent(events.CheckpointDecided, e.state.SessionID).
		WithPayload(map[string]string{"checkpoint": string(name), "decision": string(res.Decision)}))
	return res, nil
}

func (e *Engine) abort() error {
	e.state.Aborted = true
	e.emit(events.NewEvent(events.WorkflowAborted, e.state.SessionID).
		WithPayload(map[string]string{"phase": string(e.state.Phase)}))
	return e.saveState()
}

// planInput returns the plan with any carried user feedback appended so
// a re-run asks the critics to weigh the user's direction.
func (e *Engine) planInput() string {
	if e.state.Feedback == "" {
		return e.state.Plan
	}
	return e.state.Plan + "\n\n## User Feedback\n" + e.state.Feedback
}

func (e *Engine) promptContext() string {
	if e.context == nil {
		return ""
	}
	return e.context.PromptContext()
}

func (e *Engine) contextDisplay() string {
	if e.context == nil || len(e.context.Files) == 0 {
		return "No context files detected."
	}
	lines := make([]string, 0, len(e.context.Files)+1)
	lines = append(lines, fmt.Sprintf("Context files (%d):", len(e.context.Files)))
	for _, f := range e.context.Files {
		lines = append(lines, "  - "+f)
	}
	return strings.Join(lines, "\n")
}

func (e *Engine) saveState() error {
	return e.store.Save(DocName, e.state)
}

func (e *Engine) emit(evt events.Event) {
	if e.bus == nil {
		return
	}
	e.bus.Emit(evt)
}

// parseContextEdits splits checkpoint feedback into paths to add and
// paths to remove. Tokens separated by whitespace or commas; a leading
// '-' marks a removal.
func parseContextEdits(feedback string) (add, remove []string) {
	tokens := strings.FieldsFunc(feedback, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == ','
	})
	for _, tok := range tokens {
		if rest, ok := strings.CutPrefix(tok, "-"); ok {
			if rest != "" {
				remove = append(remove, rest)
			}
			continue
		}
		add = append(add, tok)
	}
	return add, remove
}

func mergePaths(detected, extra []string) []string {
	seen := make(map[string]struct{}, len(detected))
	for _, p := range detected {
		seen[p] = struct{}{}
	}
	merged := detected
	for _, p := range extra {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		merged = append(merged, p)
	}
	return merged
}
