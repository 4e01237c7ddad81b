package checks

import (
	"context"
	"strings"
	"testing"

	"github.com/codevanta/propgate/internal/proposal"
)

// stubExecutor returns a scripted verdict per check type and records the
// order in which it was invoked.
type stubExecutor struct {
	verdicts map[Type]Verdict
	outputs  map[Type]string
	calls    []Type
	panicOn  Type
}

func (s *stubExecutor) Run(ctx context.Context, t Type, p *proposal.Proposal) Outcome {
	s.calls = append(s.calls, t)
	if t == s.panicOn {
		panic("stub exploded")
	}
	verdict, ok := s.verdicts[t]
	if !ok {
		verdict = VerdictPassed
	}
	return Outcome{Type: t, Verdict: verdict, Output: s.outputs[t]}
}

// sinkRecorder collects every event the runner publishes.
type sinkRecorder struct {
	events []Event
}

func (s *sinkRecorder) CheckCompleted(e Event) {
	s.events = append(s.events, e)
}

func testProposal(agent proposal.AgentType, path string) *proposal.Proposal {
	return &proposal.Proposal{
		ID:        "p-1",
		AgentType: agent,
		FilePath:  path,
		CodeAfter: "print('ok')\n",
	}
}

func TestRunnerFailFastStopsAfterFirstFailure(t *testing.T) {
	stub := &stubExecutor{verdicts: map[Type]Verdict{TypeSyntax: VerdictFailed}}
	runner := NewRunner(stub)

	verdict, _, outcomes := runner.TestProposal(context.Background(), testProposal(proposal.AgentImperium, "app/main.py"))
	if verdict != VerdictFailed {
		t.Errorf("verdict = %q, want %q", verdict, VerdictFailed)
	}
	if len(outcomes) != 1 {
		t.Fatalf("got %d outcomes, want 1: %v", len(outcomes), outcomes)
	}
	if len(stub.calls) != 1 || stub.calls[0] != TypeSyntax {
		t.Errorf("checker calls = %v, want just [%s]", stub.calls, TypeSyntax)
	}
}

func TestRunnerFailFastDisabledRunsFullPlan(t *testing.T) {
	stub := &stubExecutor{verdicts: map[Type]Verdict{TypeSyntax: VerdictFailed}}
	runner := NewRunner(stub)
	runner.FailFast = false

	p := testProposal(proposal.AgentImperium, "app/main.py")
	plan := SelectPlan(p.AgentType, p.ImprovementType, p.FilePath)

	verdict, _, outcomes := runner.TestProposal(context.Background(), p)
	if verdict != VerdictFailed {
		t.Errorf("verdict = %q, want %q", verdict, VerdictFailed)
	}
	if len(outcomes) != len(plan) {
		t.Errorf("got %d outcomes, want %d", len(outcomes), len(plan))
	}
}

func TestRunnerRunsPlanInOrder(t *testing.T) {
	stub := &stubExecutor{}
	runner := NewRunner(stub)

	p := testProposal(proposal.AgentGuardian, "config.txt")
	plan := SelectPlan(p.AgentType, p.ImprovementType, p.FilePath)

	verdict, summary, outcomes := runner.TestProposal(context.Background(), p)
	if verdict != VerdictPassed {
		t.Errorf("verdict = %q, want %q", verdict, VerdictPassed)
	}
	if len(stub.calls) != len(plan) {
		t.Fatalf("checker calls = %v, want the full plan %v", stub.calls, plan)
	}
	for i := range plan {
		if stub.calls[i] != plan[i] {
			t.Errorf("call %d = %s, want %s", i, stub.calls[i], plan[i])
		}
	}
	if len(outcomes) != len(plan) {
		t.Errorf("got %d outcomes, want %d", len(outcomes), len(plan))
	}
	if summary == "" {
		t.Error("expected non-empty summary")
	}
}

func TestRunnerTruncatesLongOutput(t *testing.T) {
	long := strings.Repeat("x", 200)
	stub := &stubExecutor{outputs: map[Type]string{TypeSyntax: long}}
	runner := NewRunner(stub)
	runner.MaxOutputLen = 50

	_, _, outcomes := runner.TestProposal(context.Background(), testProposal(proposal.AgentConquest, "notes.txt"))
	got := outcomes[0].Output
	if !strings.HasSuffix(got, truncationMarker) {
		t.Errorf("output %q lacks truncation marker", got)
	}
	if len(got) != 50+len(truncationMarker) {
		t.Errorf("output length = %d, want %d", len(got), 50+len(truncationMarker))
	}
}

func TestRunnerShortOutputNotTruncated(t *testing.T) {
	stub := &stubExecutor{outputs: map[Type]string{TypeSyntax: "fine"}}
	runner := NewRunner(stub)

	_, _, outcomes := runner.TestProposal(context.Background(), testProposal(proposal.AgentConquest, "notes.txt"))
	if strings.Contains(outcomes[0].Output, truncationMarker) {
		t.Errorf("short output %q should not carry the marker", outcomes[0].Output)
	}
}

func TestRunnerConvertsPanicToErrorOutcome(t *testing.T) {
	stub := &stubExecutor{panicOn: TypeLint}
	runner := NewRunner(stub)

	verdict, _, outcomes := runner.TestProposal(context.Background(), testProposal(proposal.AgentConquest, "notes.txt"))
	var lintOutcome *Outcome
	for i := range outcomes {
		if outcomes[i].Type == TypeLint {
			lintOutcome = &outcomes[i]
		}
	}
	if lintOutcome == nil {
		t.Fatalf("no lint outcome in %v", outcomes)
	}
	if lintOutcome.Verdict != VerdictError {
		t.Errorf("panicking check verdict = %q, want %q", lintOutcome.Verdict, VerdictError)
	}
	if !strings.Contains(lintOutcome.Output, "stub exploded") {
		t.Errorf("output %q does not carry the panic value", lintOutcome.Output)
	}
	// Other checks passed, so the lenient aggregation still passes.
	if verdict != VerdictPassed {
		t.Errorf("overall verdict = %q, want %q", verdict, VerdictPassed)
	}
}

func TestRunnerPublishesEvents(t *testing.T) {
	stub := &stubExecutor{}
	sink := &sinkRecorder{}
	runner := NewRunner(stub)
	runner.Events = sink

	p := testProposal(proposal.AgentGuardian, "config.txt")
	plan := SelectPlan(p.AgentType, p.ImprovementType, p.FilePath)
	runner.TestProposal(context.Background(), p)

	if len(sink.events) != len(plan) {
		t.Fatalf("got %d events, want %d", len(sink.events), len(plan))
	}
	for i, e := range sink.events {
		if e.ProposalID != "p-1" {
			t.Errorf("event %d proposal id = %q", i, e.ProposalID)
		}
		if e.Step != i+1 || e.Total != len(plan) {
			t.Errorf("event %d step/total = %d/%d, want %d/%d", i, e.Step, e.Total, i+1, len(plan))
		}
		if e.Check != plan[i] {
			t.Errorf("event %d check = %s, want %s", i, e.Check, plan[i])
		}
	}
}
