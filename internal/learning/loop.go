package learning

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/codevanta/propgate/internal/agents"
	"github.com/codevanta/propgate/internal/checks"
	"github.com/codevanta/propgate/internal/proposal"
)

// DefaultMaxGenerations caps revision chains. A change that fails testing
// this many times in a row is abandoned rather than retried forever.
const DefaultMaxGenerations = 3

// Admitter is the admission path for follow-up drafts. *gate.Gate satisfies
// this.
type Admitter interface {
	Create(ctx context.Context, d *proposal.Draft) (*proposal.Proposal, error)
}

// Loop is the feedback loop: it records lifecycle lessons and, on test
// failure, asks the improver for a revised draft and resubmits it. Loop
// methods never return errors; feedback is best-effort and must not affect
// the proposal that triggered it.
type Loop struct {
	Events         *Store
	Gate           Admitter
	Improver       agents.Improver
	MaxGenerations int
}

// NewLoop returns a Loop with the default generation cap.
func NewLoop(events *Store, gate Admitter, improver agents.Improver) *Loop {
	return &Loop{
		Events:         events,
		Gate:           gate,
		Improver:       improver,
		MaxGenerations: DefaultMaxGenerations,
	}
}

// OnTestFailed records the failure and submits a revised follow-up proposal
// when the generation cap allows. Returns the follow-up, or nil when none
// was created. The verdict is kept in the event record so a genuine check
// failure can later be told apart from an environment error.
func (l *Loop) OnTestFailed(ctx context.Context, p *proposal.Proposal, verdict checks.Verdict, summary string) *proposal.Proposal {
	l.record(ctx, p, TopicTestFailure, summary, verdict)

	if l.Improver == nil || l.Gate == nil {
		return nil
	}
	if p.Generation+1 > l.maxGenerations() {
		log.Printf("learning: proposal %s reached generation cap, abandoning", p.ID)
		return nil
	}

	draft, err := l.Improver.Improve(ctx, p, summary)
	if err != nil {
		log.Printf("learning: no revision for proposal %s: %v", p.ID, err)
		return nil
	}

	draft.ParentID = p.ID
	draft.Generation = p.Generation + 1
	draft.Reasoning = annotate(draft.Reasoning, p.ID, summary)

	followUp, err := l.Gate.Create(ctx, draft)
	if err != nil {
		log.Printf("learning: follow-up for proposal %s not admitted: %v", p.ID, err)
		return nil
	}
	return followUp
}

// OnAccepted records the acceptance so future scoring can learn from it,
// then replenishes the agent's queue.
func (l *Loop) OnAccepted(ctx context.Context, p *proposal.Proposal) {
	l.record(ctx, p, TopicAcceptance, "proposal accepted", "")
	l.replenish(ctx, p)
}

// OnRejected records the rejection and the reviewer's reason, then
// replenishes the agent's queue.
func (l *Loop) OnRejected(ctx context.Context, p *proposal.Proposal, reason string) {
	if reason == "" {
		reason = "proposal rejected"
	}
	l.record(ctx, p, TopicRejection, reason, "")
	l.replenish(ctx, p)
}

// replenish asks the improver for a fresh change once a proposal leaves the
// queue, so a decided proposal does not leave its agent's pipeline empty.
// The empty failure context tells the improver this is not a fix-up.
func (l *Loop) replenish(ctx context.Context, p *proposal.Proposal) {
	if l.Improver == nil || l.Gate == nil {
		return
	}
	if p.Generation+1 > l.maxGenerations() {
		return
	}

	draft, err := l.Improver.Improve(ctx, p, "")
	if err != nil {
		log.Printf("learning: no replenishment draft after proposal %s: %v", p.ID, err)
		return
	}

	draft.ParentID = p.ID
	draft.Generation = p.Generation + 1
	if _, err := l.Gate.Create(ctx, draft); err != nil {
		log.Printf("learning: replenishment after proposal %s not admitted: %v", p.ID, err)
	}
}

func (l *Loop) record(ctx context.Context, p *proposal.Proposal, topic Topic, summary string, verdict checks.Verdict) {
	if l.Events == nil {
		return
	}

	fields := map[string]any{
		"file_path":        p.FilePath,
		"improvement_type": p.ImprovementType,
		"generation":       p.Generation,
	}
	if verdict != "" {
		fields["verdict"] = string(verdict)
	}
	contextJSON, _ := json.Marshal(fields)

	err := l.Events.Record(ctx, &Event{
		ProposalID: p.ID,
		AgentType:  p.AgentType,
		Topic:      topic,
		Summary:    summary,
		Context:    string(contextJSON),
	})
	if err != nil {
		log.Printf("learning: recording %s event for proposal %s: %v", topic, p.ID, err)
	}
}

func (l *Loop) maxGenerations() int {
	if l.MaxGenerations > 0 {
		return l.MaxGenerations
	}
	return DefaultMaxGenerations
}

// annotate prefixes the revision's reasoning with the failure it addresses,
// so reviewers see the lineage without chasing parent ids.
func annotate(reasoning, parentID, failure string) string {
	firstLine := failure
	if i := strings.IndexByte(firstLine, '\n'); i >= 0 {
		firstLine = firstLine[:i]
	}
	return fmt.Sprintf("Revision of %s after test failure (%s). %s", parentID, firstLine, reasoning)
}
