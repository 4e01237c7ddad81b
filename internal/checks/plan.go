package checks

import (
	"path/filepath"
	"strings"

	"github.com/codevanta/propgate/internal/proposal"
)

// SelectPlan computes the ordered, de-duplicated list of checks to run for
// a proposal. Every plan starts with the syntax and lint baseline; agent,
// improvement-category and file-type rules add to it. If none of the added
// checks is live, a live-deployment check is appended: every proposal must
// undergo at least one real execution.
func SelectPlan(agent proposal.AgentType, improvementType, filePath string) []Type {
	category := strings.ToLower(improvementType)
	ext := strings.ToLower(filepath.Ext(filePath))

	plan := []Type{TypeSyntax, TypeLint}

	switch agent {
	case proposal.AgentSandbox:
		plan = append(plan, TypeUnit, TypeLiveDeployment)
	case proposal.AgentGuardian:
		plan = append(plan, TypeSecurity, TypeLiveDeployment)
	case proposal.AgentImperium:
		plan = append(plan, TypeUnit, TypeIntegration, TypeLiveDeployment)
	}

	switch category {
	case "security":
		plan = append(plan, TypeSecurity)
	case "performance":
		plan = append(plan, TypePerformance)
	}

	switch ext {
	case ".py", ".dart", ".js":
		plan = append(plan, TypeUnit)
	}

	plan = dedupe(plan)

	if !HasLive(plan) {
		plan = append(plan, TypeLiveDeployment)
	}

	return plan
}

// dedupe removes repeated check types, keeping the first occurrence.
func dedupe(plan []Type) []Type {
	seen := make(map[Type]bool, len(plan))
	out := plan[:0]
	for _, t := range plan {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
