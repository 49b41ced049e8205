package review

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/parleyhq/parley/internal/critic"
)

// consensusTerms are the topics counted when scoring agreement across
// reviews. Grouped by concern: security, performance, code quality,
// architecture, style.
var consensusTerms = []string{
	"security", "vulnerability", "injection", "xss", "csrf", "auth",
	"performance", "slow", "memory", "cpu", "optimization",
	"error", "exception", "bug", "fix", "timeout",
	"architecture", "design", "pattern", "structure",
	"naming", "convention", "format", "style", "readable",
}

// MultiModel fans a review out to N critics with the same independent
// dispatch semantics as Parallel and scores how much the successful
// reviews agree.
type MultiModel struct {
	clients []critic.Client
	timeout time.Duration
}

// NewMultiModel creates a reviewer over the given critics.
// At least two are required; consensus over fewer is meaningless.
func NewMultiModel(clients []critic.Client, timeout time.Duration) (*MultiModel, error) {
	if len(clients) < 2 {
		return nil, ErrTooFewClients
	}
	if timeout <= 0 {
		timeout = critic.DefaultTimeout
	}
	return &MultiModel{
		clients: clients,
		timeout: timeout,
	}, nil
}

// Review sends the prompt to all critics and returns the synthesized
// round with its consensus score. It fails only when zero critics
// produced a usable review.
func (m *MultiModel) Review(ctx context.Context, prompt, contextText string) (*MultiResult, error) {
	outcomes := dispatch(ctx, m.clients, prompt, contextText, m.timeout)
	succ := successes(outcomes)
	if len(succ) == 0 {
		return nil, allFailedError(outcomes)
	}

	score := consensusScore(succ)
	return &MultiResult{
		Outcomes:    outcomes,
		Synthesized: m.synthesize(outcomes, score),
		Consensus:   score,
	}, nil
}

// consensusScore computes keyword agreement across successful reviews.
//
// Each consensus term is counted once per review that mentions it. A term
// "agrees" when more than half of the successful reviews mention it; the
// score is agreeing terms divided by mentioned terms. With fewer than two
// successful reviews there is nothing to agree on: zero reviews score 0,
// a single review scores 1.
func consensusScore(succ []Outcome) float64 {
	if len(succ) < 2 {
		if len(succ) == 0 {
			return 0
		}
		return 1
	}

	counts := termCounts(succ)
	if len(counts) == 0 {
		return 0
	}

	threshold := float64(len(succ)) / 2
	agreed := 0
	for _, count := range counts {
		if float64(count) > threshold {
			agreed++
		}
	}
	return float64(agreed) / float64(len(counts))
}

func termCounts(succ []Outcome) map[string]int {
	counts := make(map[string]int)
	for _, out := range succ {
		lower := strings.ToLower(out.Text)
		for _, term := range consensusTerms {
			if strings.Contains(lower, term) {
				counts[term]++
			}
		}
	}
	return counts
}

// commonConsensusTerms returns the terms mentioned by at least two
// successful reviews, in consensusTerms order.
func commonConsensusTerms(succ []Outcome) []string {
	counts := termCounts(succ)
	var common []string
	for _, term := range consensusTerms {
		if counts[term] >= 2 {
			common = append(common, term)
		}
	}
	return common
}

func (m *MultiModel) synthesize(outcomes []Outcome, score float64) string {
	var parts []string
	parts = append(parts, "# Multi-Model Review Summary\n")
	parts = append(parts, fmt.Sprintf("**Consensus Score: %.2f**\n", score))

	for _, out := range outcomes {
		parts = append(parts, fmt.Sprintf("## %s\n", out.Name))
		if out.OK() {
			parts = append(parts, out.Text)
		} else {
			parts = append(parts, fmt.Sprintf("*Error: %s*", out.Err))
		}
		parts = append(parts, "\n---\n")
	}

	if succ := successes(outcomes); len(succ) >= 2 {
		parts = append(parts, "## Common Concerns\n")
		if common := commonConsensusTerms(succ); len(common) > 0 {
			parts = append(parts, "Keywords mentioned by multiple models: "+strings.Join(common, ", "))
		} else {
			parts = append(parts, "*No common keywords detected.*")
		}
	}

	return strings.Join(parts, "\n")
}
