package gate

import (
	"strings"

	"github.com/codevanta/propgate/internal/proposal"
)

// Features are the numeric signals extracted from a draft for quality
// scoring. All values are finite; ratios degrade to safe defaults when a
// denominator is empty.
type Features struct {
	CodeLengthRatio  float64 `json:"code_length_ratio"`
	ReasoningLength  float64 `json:"reasoning_length"`
	ReasoningQuality float64 `json:"reasoning_quality"`
	LinesAdded       float64 `json:"lines_added"`
	Complexity       float64 `json:"complexity"`
	TokenOverlap     float64 `json:"token_overlap"`
	Confidence       float64 `json:"confidence"`
	AgentIndex       float64 `json:"agent_index"`
	CategoryIndex    float64 `json:"category_index"`
}

// reasoningSignals are phrases whose presence suggests the agent actually
// thought about the change rather than emitting boilerplate.
var reasoningSignals = []string{
	"because", "improves", "fixes", "reduces", "prevents", "simplifies",
}

// ExtractFeatures computes the scoring signals for a draft.
func ExtractFeatures(d *proposal.Draft) Features {
	beforeLen := len(d.CodeBefore)
	afterLen := len(d.CodeAfter)

	ratio := 1.0
	if beforeLen > 0 {
		ratio = float64(afterLen) / float64(beforeLen)
	}

	beforeLines := countLines(d.CodeBefore)
	afterLines := countLines(d.CodeAfter)

	return Features{
		CodeLengthRatio:  ratio,
		ReasoningLength:  float64(len(d.Reasoning)),
		ReasoningQuality: reasoningQuality(d.Reasoning),
		LinesAdded:       float64(afterLines - beforeLines),
		Complexity:       complexity(d.CodeAfter),
		TokenOverlap:     jaccard(tokens(d.CodeBefore), tokens(d.CodeAfter)),
		Confidence:       d.Confidence,
		AgentIndex:       agentIndex(d.AgentType),
		CategoryIndex:    categoryIndex(d.ImprovementType),
	}
}

// knownCategories orders improvement categories for the category feature.
var knownCategories = []string{
	"general", "refactor", "optimization", "bug_fix", "security", "performance",
}

// agentIndex encodes the agent as a position in [0,1]; unknown agents get 0.
func agentIndex(agent proposal.AgentType) float64 {
	for i, a := range proposal.KnownAgents {
		if a == agent {
			return float64(i+1) / float64(len(proposal.KnownAgents))
		}
	}
	return 0
}

// categoryIndex encodes the improvement category as a position in [0,1];
// unknown categories get 0.
func categoryIndex(category string) float64 {
	lower := strings.ToLower(category)
	for i, c := range knownCategories {
		if c == lower {
			return float64(i+1) / float64(len(knownCategories))
		}
	}
	return 0
}

// reasoningQuality is a crude 0..1 signal: longer reasoning that names a
// concrete benefit scores higher.
func reasoningQuality(reasoning string) float64 {
	lower := strings.ToLower(reasoning)
	score := 0.0
	if len(reasoning) >= 30 {
		score += 0.5
	}
	for _, signal := range reasoningSignals {
		if strings.Contains(lower, signal) {
			score += 0.5
			break
		}
	}
	return score
}

// complexity approximates branching density: control-flow keywords per line.
func complexity(code string) float64 {
	lines := countLines(code)
	if lines == 0 {
		return 0
	}
	keywords := []string{"if ", "for ", "while ", "case ", "switch ", "catch ", "except"}
	count := 0
	for _, line := range strings.Split(code, "\n") {
		trimmed := strings.TrimSpace(line)
		for _, kw := range keywords {
			if strings.HasPrefix(trimmed, kw) {
				count++
				break
			}
		}
	}
	return float64(count) / float64(lines)
}

// jaccard is the token-set overlap of two code snippets: 1 means identical
// vocabularies, 0 means disjoint.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	intersection := 0
	for tok := range a {
		if b[tok] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func tokens(code string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(code) {
		set[tok] = true
	}
	return set
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	return len(strings.Split(strings.TrimRight(s, "\n"), "\n"))
}
