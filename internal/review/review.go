package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/parleyhq/parley/internal/conflict"
	"github.com/parleyhq/parley/internal/critic"
)

// Parallel dispatches an identical prompt to every configured critic
// concurrently and synthesizes the results into a single round. Critics
// fail independently: one critic's timeout or error never cancels
// another's in-flight call. The reviewer itself has no side effects
// beyond the outbound calls.
type Parallel struct {
	clients    []critic.Client
	classifier *conflict.Classifier
	timeout    time.Duration
}

// NewParallel creates a reviewer over the given critics. The canonical
// configuration is exactly two critics; at least one is required.
// A nil classifier falls back to the default classification table, and a
// non-positive timeout falls back to critic.DefaultTimeout.
func NewParallel(clients []critic.Client, classifier *conflict.Classifier, timeout time.Duration) (*Parallel, error) {
	if len(clients) == 0 {
		return nil, ErrNoClients
	}
	if classifier == nil {
		classifier = conflict.NewClassifier(nil)
	}
	if timeout <= 0 {
		timeout = critic.DefaultTimeout
	}
	return &Parallel{
		clients:    clients,
		classifier: classifier,
		timeout:    timeout,
	}, nil
}

// Review sends the prompt to all critics and returns the synthesized
// round. It returns ErrAllFailed only when zero critics produced a
// usable review; partial failure yields a valid Result with the failed
// critics annotated in their outcomes.
func (p *Parallel) Review(ctx context.Context, prompt, contextText string) (*Result, error) {
	outcomes := dispatch(ctx, p.clients, prompt, contextText, p.timeout)
	succ := successes(outcomes)
	if len(succ) == 0 {
		return nil, allFailedError(outcomes)
	}

	var conflicts []conflict.Conflict
	if len(succ) >= 2 {
		conflicts = p.detectConflicts(succ)
	}

	return &Result{
		Outcomes:    outcomes,
		Synthesized: p.synthesize(outcomes),
		Conflicts:   conflicts,
	}, nil
}

// detectConflicts runs the classifier over every pair of successful
// reviews. With the canonical two critics this is a single comparison.
func (p *Parallel) detectConflicts(succ []Outcome) []conflict.Conflict {
	var conflicts []conflict.Conflict
	for i := 0; i < len(succ); i++ {
		for j := i + 1; j < len(succ); j++ {
			conflicts = append(conflicts, p.classifier.Detect(succ[i].Text, succ[j].Text)...)
		}
	}
	return conflicts
}

func (p *Parallel) synthesize(outcomes []Outcome) string {
	var parts []string
	parts = append(parts, "# Parallel Review Summary\n")

	for i, out := range outcomes {
		parts = append(parts, fmt.Sprintf("## %s Review\n", out.Name))
		if out.OK() {
			parts = append(parts, out.Text)
		} else {
			parts = append(parts, fmt.Sprintf("*Error: %s*", out.Err))
		}
		if i < len(outcomes)-1 {
			parts = append(parts, "\n---\n")
		}
	}

	if succ := successes(outcomes); len(succ) >= 2 {
		if common := p.classifier.CommonTerms(succ[0].Text, succ[1].Text); len(common) > 0 {
			parts = append(parts, "Both reviewers mentioned: "+strings.Join(common, ", "))
		} else {
			parts = append(parts, "*No obvious consensus detected. Review both opinions.*")
		}
	}

	return strings.Join(parts, "\n")
}

// dispatch fans the call out to every client and waits for all of them.
// The whole round is bounded at 1.5x the per-call timeout so a hung
// critic cannot stall it indefinitely; calls still running at the guard
// are killed through context cancellation and their slots report a
// timeout.
func dispatch(ctx context.Context, clients []critic.Client, prompt, contextText string, timeout time.Duration) []Outcome {
	guard := timeout + timeout/2
	callCtx, cancel := context.WithTimeout(ctx, guard)
	defer cancel()

	outcomes := make([]Outcome, len(clients))
	var g errgroup.Group
	for i, client := range clients {
		i, client := i, client
		g.Go(func() error {
			outcomes[i] = callOne(callCtx, client, prompt, contextText, guard)
			return nil
		})
	}
	g.Wait()
	return outcomes
}

func callOne(ctx context.Context, client critic.Client, prompt, contextText string, guard time.Duration) Outcome {
	resp, err := client.Call(ctx, prompt, contextText)
	if err == nil {
		return Outcome{Name: client.Name(), Text: resp.Text, Elapsed: resp.Elapsed}
	}

	var ce *critic.CallError
	if !errors.As(err, &ce) {
		// The guard expired before the client could classify the failure.
		return Outcome{
			Name: client.Name(),
			Err:  fmt.Sprintf("%s timed out after %ds", client.Name(), int(guard.Seconds())),
		}
	}
	return Outcome{Name: client.Name(), Err: ce.Error()}
}
