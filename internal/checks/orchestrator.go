package checks

import (
	"context"
	"fmt"

	"github.com/codevanta/propgate/internal/proposal"
)

// DefaultMaxOutputLen caps the stored output of a single check.
const DefaultMaxOutputLen = 50000

// truncationMarker is appended to outputs cut at the cap.
const truncationMarker = "... [truncated]"

// Event describes one completed check, for live observers.
type Event struct {
	ProposalID string  `json:"proposal_id"`
	Check      Type    `json:"check_type"`
	Verdict    Verdict `json:"verdict"`
	Step       int     `json:"step"`
	Total      int     `json:"total"`
}

// EventSink receives per-check progress events. Implementations must not
// block; the orchestrator calls them inline between checks.
type EventSink interface {
	CheckCompleted(Event)
}

// Executor runs a single check. *Checker is the production implementation.
type Executor interface {
	Run(ctx context.Context, t Type, p *proposal.Proposal) Outcome
}

// Runner executes a proposal's check plan through the sandboxed checker,
// sequentially and in plan order. With FailFast set (the default) a failed
// check stops the pass; later checks are never invoked.
type Runner struct {
	Checker      Executor
	FailFast     bool
	MaxOutputLen int
	Events       EventSink
}

// NewRunner returns a Runner with fail-fast enabled and the default
// output cap.
func NewRunner(checker Executor) *Runner {
	return &Runner{
		Checker:      checker,
		FailFast:     true,
		MaxOutputLen: DefaultMaxOutputLen,
	}
}

// TestProposal runs the selected checks and aggregates the outcomes into an
// overall verdict and summary. It never returns an error for ordinary check
// failures; a checker panic is converted into an error outcome for that
// check and the pass continues.
func (r *Runner) TestProposal(ctx context.Context, p *proposal.Proposal) (Verdict, string, []Outcome) {
	plan := SelectPlan(p.AgentType, p.ImprovementType, p.FilePath)

	outcomes := make([]Outcome, 0, len(plan))
	for i, t := range plan {
		outcome := r.runOne(ctx, t, p)
		outcome.Output = truncate(outcome.Output, r.maxOutput())
		outcomes = append(outcomes, outcome)

		if r.Events != nil {
			r.Events.CheckCompleted(Event{
				ProposalID: p.ID,
				Check:      t,
				Verdict:    outcome.Verdict,
				Step:       i + 1,
				Total:      len(plan),
			})
		}

		if r.FailFast && outcome.Verdict == VerdictFailed {
			break
		}
	}

	verdict, summary := Aggregate(outcomes)
	return verdict, summary, outcomes
}

// runOne invokes the checker, converting a panic into an error outcome so
// one broken check never aborts the whole pass.
func (r *Runner) runOne(ctx context.Context, t Type, p *proposal.Proposal) (outcome Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			outcome = Outcome{
				Type:    t,
				Verdict: VerdictError,
				Output:  fmt.Sprintf("check execution error: %v", rec),
			}
		}
	}()
	return r.Checker.Run(ctx, t, p)
}

func (r *Runner) maxOutput() int {
	if r.MaxOutputLen > 0 {
		return r.MaxOutputLen
	}
	return DefaultMaxOutputLen
}

// truncate caps s at max characters, appending the truncation marker when
// anything was cut.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + truncationMarker
}
