package learning

import (
	"context"
	"testing"

	"github.com/codevanta/propgate/internal/proposal"
)

func TestStoreRecordDefaults(t *testing.T) {
	store := newEventStore(t)
	ctx := context.Background()

	e := &Event{
		ProposalID: "p-1",
		AgentType:  proposal.AgentGuardian,
		Summary:    "lint failed",
	}
	if err := store.Record(ctx, e); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if e.ID == "" {
		t.Error("expected generated id")
	}

	events, err := store.ListByAgent(ctx, proposal.AgentGuardian, 10)
	if err != nil {
		t.Fatalf("ListByAgent: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Topic != TopicTestFailure {
		t.Errorf("topic = %q, want the test_failure default", events[0].Topic)
	}
	if events[0].Context != "{}" {
		t.Errorf("context = %q, want the empty-object default", events[0].Context)
	}
	if events[0].CreatedAt.IsZero() {
		t.Error("created_at not populated")
	}
}

func TestStoreListByAgentScoping(t *testing.T) {
	store := newEventStore(t)
	ctx := context.Background()

	for _, agent := range []proposal.AgentType{proposal.AgentGuardian, proposal.AgentSandbox, proposal.AgentGuardian} {
		if err := store.Record(ctx, &Event{ProposalID: "p", AgentType: agent, Summary: "s"}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	events, err := store.ListByAgent(ctx, proposal.AgentGuardian, 10)
	if err != nil {
		t.Fatalf("ListByAgent: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("got %d guardian events, want 2", len(events))
	}
}
