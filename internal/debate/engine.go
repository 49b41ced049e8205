package debate

import (
	"context"
	"fmt"

	"github.com/oklog/ulid/v2"

	"github.com/parleyhq/parley/internal/prompts"
	"github.com/parleyhq/parley/internal/review"
	"github.com/parleyhq/parley/internal/state"
)

// DocName is the persisted document holding the debate history.
const DocName = "debate_state"

// Kind selects the round-one prompt template.
type Kind string

const (
	// KindPlan critiques a plan or design document.
	KindPlan Kind = "plan"
	// KindCode critiques an implementation diff.
	KindCode Kind = "code"
)

// Engine drives a bounded multi-round debate over one artifact. Every
// completed round is persisted before control returns, so a session can
// be resumed after the process exits. A round where every critic failed
// is neither appended nor persisted: total failure must not consume one
// of the bounded round slots.
type Engine struct {
	reviewer *review.Parallel
	store    state.Store
}

// NewEngine creates a debate engine dispatching rounds through reviewer
// and persisting history in store.
func NewEngine(reviewer *review.Parallel, store state.Store) *Engine {
	return &Engine{reviewer: reviewer, store: store}
}

// Start opens a new debate with one independent review round and
// persists it, replacing any previously saved debate.
//
// If the review ran but could not be saved, the result is still
// returned alongside the persistence error so no critic work is lost;
// the caller is responsible for warning that state is not durable.
func (e *Engine) Start(ctx context.Context, artifact, contextText string, kind Kind) (*Result, error) {
	prompt, err := roundOnePrompt(artifact, kind)
	if err != nil {
		return nil, err
	}

	rr, err := e.reviewer.Review(ctx, prompt, contextText)
	if err != nil {
		return nil, err
	}

	res := &Result{
		SessionID: ulid.Make().String(),
		Rounds:    []Round{{Number: 1, Outcomes: rr.Outcomes}},
	}
	if err := e.store.Save(DocName, res); err != nil {
		return res, err
	}
	return res, nil
}

// Continue runs the next round: each critic sees the full history plus
// an optional user-supplied focus topic, and responds with agreement,
// rebuttal, new perspective, and a position summary. The new round is
// appended to res and persisted.
//
// Fails with ErrMaxRounds once MaxRounds rounds exist, and with the
// round-level review error when every critic failed; res is untouched
// in both cases. On a persistence failure the appended round stays in
// res and the error is returned.
func (e *Engine) Continue(ctx context.Context, res *Result, artifact, contextText, focus string) error {
	if res.RoundCount() >= MaxRounds {
		return fmt.Errorf("%w: %d of %d rounds used", ErrMaxRounds, res.RoundCount(), MaxRounds)
	}

	next := res.RoundCount() + 1
	prompt, err := prompts.RenderDebateRound(artifact, res.FormatHistory(), next, focus)
	if err != nil {
		return err
	}

	rr, err := e.reviewer.Review(ctx, prompt, contextText)
	if err != nil {
		return err
	}

	res.Rounds = append(res.Rounds, Round{Number: next, Outcomes: rr.Outcomes})
	return e.store.Save(DocName, res)
}

// Load returns the persisted debate, or nil when none has been saved.
func (e *Engine) Load() (*Result, error) {
	var res Result
	found, err := e.store.Load(DocName, &res)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &res, nil
}

// Reset discards the persisted debate history. The caller confirms
// with the user first: reset is destructive.
func (e *Engine) Reset() error {
	return e.store.Delete(DocName)
}

func roundOnePrompt(artifact string, kind Kind) (string, error) {
	switch kind {
	case KindCode:
		return prompts.RenderCodeReview("", artifact)
	case KindPlan, "":
		return prompts.RenderPlanReview(artifact)
	default:
		return "", fmt.Errorf("unknown review kind %q", kind)
	}
}
