package checks

import (
	"fmt"
	"strings"
)

// Aggregate reduces a (possibly partial) list of outcomes into one overall
// verdict plus a readable summary.
//
// A genuine failure always wins. Errors are treated leniently when anything
// passed: an error usually means a missing external tool, and a proposal is
// not punished for the environment's limitations.
func Aggregate(outcomes []Outcome) (Verdict, string) {
	if len(outcomes) == 0 {
		return VerdictSkipped, "no checks were executed"
	}

	var passed, failed, errored, skipped int
	for _, o := range outcomes {
		switch o.Verdict {
		case VerdictPassed:
			passed++
		case VerdictFailed:
			failed++
		case VerdictError:
			errored++
		case VerdictSkipped:
			skipped++
		}
	}
	total := len(outcomes)

	verdict := overallVerdict(passed, failed, errored, skipped, total)
	return verdict, buildSummary(outcomes, passed, failed, errored, skipped, total)
}

func overallVerdict(passed, failed, errored, skipped, total int) Verdict {
	switch {
	case passed == total:
		return VerdictPassed
	case failed > 0:
		return VerdictFailed
	case errored > 0 && passed > 0:
		return VerdictPassed
	case passed > 0 && (skipped > 0 || errored > 0):
		return VerdictPassed
	case skipped == total:
		return VerdictSkipped
	case errored > 0:
		return VerdictError
	default:
		return VerdictSkipped
	}
}

func buildSummary(outcomes []Outcome, passed, failed, errored, skipped, total int) string {
	var parts []string
	if passed > 0 {
		parts = append(parts, fmt.Sprintf("%d passed", passed))
	}
	if failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", failed))
	}
	if errored > 0 {
		parts = append(parts, fmt.Sprintf("%d errors", errored))
	}
	if skipped > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", skipped))
	}

	summary := fmt.Sprintf("%s (%d total)", strings.Join(parts, ", "), total)

	if failed > 0 || errored > 0 {
		var details []string
		for _, o := range outcomes {
			if o.Verdict != VerdictFailed && o.Verdict != VerdictError {
				continue
			}
			details = append(details, fmt.Sprintf("%s: %s...", o.Type, head(o.Output, 100)))
			if len(details) == 3 {
				break
			}
		}
		summary += "\nFailures: " + strings.Join(details, "; ")
	}

	return summary
}

// head returns the first n characters of s.
func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
