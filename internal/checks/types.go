package checks

import "time"

// Type identifies one kind of automated verification.
type Type string

const (
	TypeSyntax         Type = "syntax_check"
	TypeLint           Type = "lint_check"
	TypeUnit           Type = "unit_test"
	TypeIntegration    Type = "integration_test"
	TypeSecurity       Type = "security_check"
	TypePerformance    Type = "performance_check"
	TypeLiveDeployment Type = "live_deployment_test"
)

// Verdict is the tri-state (plus skipped) result of running one check.
type Verdict string

const (
	VerdictPassed  Verdict = "passed"
	VerdictFailed  Verdict = "failed"
	VerdictError   Verdict = "error"
	VerdictSkipped Verdict = "skipped"
)

// Outcome is the result of running one check against one proposal.
// Outcomes are created fresh for every test pass and never reused.
type Outcome struct {
	Type     Type          `json:"check_type"`
	Verdict  Verdict       `json:"verdict"`
	Output   string        `json:"output"`
	Duration time.Duration `json:"duration"`
}

// liveTypes are the checks considered genuinely live. Every plan must
// contain at least one of these; stubbed-only testing is not allowed.
var liveTypes = map[Type]bool{
	TypeIntegration:    true,
	TypeLiveDeployment: true,
	TypePerformance:    true,
}

// HasLive reports whether the plan contains at least one live check.
func HasLive(plan []Type) bool {
	for _, t := range plan {
		if liveTypes[t] {
			return true
		}
	}
	return false
}
