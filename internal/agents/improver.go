package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/codevanta/propgate/internal/llm"
	"github.com/codevanta/propgate/internal/proposal"
)

// Improver produces a revised draft for a proposal that failed testing.
// Implementations return an error when no useful revision can be made; the
// caller treats that as "give up on this line of work", not a fault.
type Improver interface {
	Improve(ctx context.Context, p *proposal.Proposal, failure string) (*proposal.Draft, error)
}

// LLMImprover asks a language model to revise the failed change.
type LLMImprover struct {
	Provider llm.Provider
	Model    string
}

// NewLLMImprover creates an improver backed by the given provider.
func NewLLMImprover(provider llm.Provider, model string) *LLMImprover {
	return &LLMImprover{Provider: provider, Model: model}
}

const improveSystemPrompt = `You revise code changes that failed automated testing.
You receive the original file content, the failed change, and the test output.
Respond with JSON only: {"code_after": "...", "reasoning": "...", "confidence": 0.0}
code_after is the full revised file content. reasoning explains what you fixed.
confidence is your 0-1 estimate that the revision passes.`

type improveResponse struct {
	CodeAfter  string  `json:"code_after"`
	Reasoning  string  `json:"reasoning"`
	Confidence float64 `json:"confidence"`
}

func (im *LLMImprover) Improve(ctx context.Context, p *proposal.Proposal, failure string) (*proposal.Draft, error) {
	var prompt strings.Builder
	fmt.Fprintf(&prompt, "File: %s\n\n", p.FilePath)
	fmt.Fprintf(&prompt, "Original content:\n%s\n\n", p.CodeBefore)
	fmt.Fprintf(&prompt, "Failed change:\n%s\n\n", p.CodeAfter)
	fmt.Fprintf(&prompt, "Test output:\n%s\n", failure)

	resp, err := im.Provider.Complete(ctx, llm.CompletionRequest{
		Model: im.Model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: improveSystemPrompt},
			{Role: llm.RoleUser, Content: prompt.String()},
		},
		MaxTokens:   4096,
		Temperature: 0.2,
		JSONMode:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("requesting revision: %w", err)
	}
	log.Printf("agents: revision for %s used %d input / %d output tokens (~$%.4f)",
		p.FilePath, resp.InputTokens, resp.OutputTokens,
		llm.EstimateCost(resp.Model, resp.InputTokens, resp.OutputTokens))

	var parsed improveResponse
	if err := json.Unmarshal([]byte(extractJSON(resp.Content)), &parsed); err != nil {
		return nil, fmt.Errorf("parsing revision response: %w", err)
	}
	if strings.TrimSpace(parsed.CodeAfter) == "" {
		return nil, fmt.Errorf("revision response has no code")
	}
	if parsed.CodeAfter == p.CodeAfter {
		return nil, fmt.Errorf("revision is identical to the failed change")
	}

	return &proposal.Draft{
		AgentType:       p.AgentType,
		FilePath:        p.FilePath,
		CodeBefore:      p.CodeBefore,
		CodeAfter:       parsed.CodeAfter,
		ImprovementType: p.ImprovementType,
		Reasoning:       parsed.Reasoning,
		Confidence:      parsed.Confidence,
	}, nil
}

// extractJSON strips markdown code fences that some models wrap around JSON
// even in JSON mode.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}
