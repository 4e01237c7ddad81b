package agents

import (
	"context"
	"testing"

	"github.com/codevanta/propgate/internal/llm"
	"github.com/codevanta/propgate/internal/proposal"
)

// scriptedProvider returns a fixed completion.
type scriptedProvider struct {
	content string
	err     error
	lastReq llm.CompletionRequest
}

func (s *scriptedProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return &llm.CompletionResponse{Content: s.content}, nil
}

func (s *scriptedProvider) Name() string { return "scripted" }

func failedProposal() *proposal.Proposal {
	return &proposal.Proposal{
		ID:              "p-1",
		AgentType:       proposal.AgentSandbox,
		FilePath:        "app/main.py",
		CodeBefore:      "def f():\n    pass\n",
		CodeAfter:       "def f():\n    return x\n",
		ImprovementType: "bugfix",
		Generation:      1,
	}
}

func TestLLMImprover(t *testing.T) {
	provider := &scriptedProvider{
		content: `{"code_after": "def f():\n    return 1\n", "reasoning": "x was undefined", "confidence": 0.75}`,
	}
	im := NewLLMImprover(provider, "test-model")

	draft, err := im.Improve(context.Background(), failedProposal(), "NameError: name 'x' is not defined")
	if err != nil {
		t.Fatalf("Improve: %v", err)
	}
	if draft.CodeAfter != "def f():\n    return 1\n" {
		t.Errorf("code after = %q", draft.CodeAfter)
	}
	if draft.AgentType != proposal.AgentSandbox {
		t.Errorf("agent = %q, want the original agent", draft.AgentType)
	}
	if draft.FilePath != "app/main.py" {
		t.Errorf("file path = %q", draft.FilePath)
	}
	if draft.Confidence != 0.75 {
		t.Errorf("confidence = %v", draft.Confidence)
	}
	if provider.lastReq.JSONMode != true {
		t.Error("expected JSON mode request")
	}
}

func TestLLMImproverFencedResponse(t *testing.T) {
	provider := &scriptedProvider{
		content: "```json\n{\"code_after\": \"def f():\\n    return 2\\n\", \"reasoning\": \"fixed\", \"confidence\": 0.6}\n```",
	}
	im := NewLLMImprover(provider, "test-model")

	draft, err := im.Improve(context.Background(), failedProposal(), "failure")
	if err != nil {
		t.Fatalf("Improve: %v", err)
	}
	if draft.CodeAfter != "def f():\n    return 2\n" {
		t.Errorf("code after = %q", draft.CodeAfter)
	}
}

func TestLLMImproverRejectsEmptyRevision(t *testing.T) {
	provider := &scriptedProvider{content: `{"code_after": "  ", "reasoning": "nothing"}`}
	im := NewLLMImprover(provider, "test-model")

	if _, err := im.Improve(context.Background(), failedProposal(), "failure"); err == nil {
		t.Fatal("expected error for empty revision")
	}
}

func TestLLMImproverRejectsIdenticalRevision(t *testing.T) {
	p := failedProposal()
	provider := &scriptedProvider{
		content: `{"code_after": "def f():\n    return x\n", "reasoning": "same"}`,
	}
	im := NewLLMImprover(provider, "test-model")

	if _, err := im.Improve(context.Background(), p, "failure"); err == nil {
		t.Fatal("expected error for identical revision")
	}
}
