package checks

import (
	"fmt"
	"strings"
)

// dangerousPattern pairs a literal call pattern with the vulnerability it
// suggests. The scan is intentionally a substring heuristic; a real static
// analyzer can be slotted in behind the same outcome contract.
type dangerousPattern struct {
	pattern string
	issue   string
}

var dangerousPatterns = []dangerousPattern{
	{"exec(", "potential code execution vulnerability"},
	{"eval(", "potential code execution vulnerability"},
	{"subprocess.call", "potential command injection"},
	{"os.system", "potential command injection"},
	{"pickle.loads", "potential deserialization vulnerability"},
	{"yaml.load", "potential deserialization vulnerability"},
}

// scanSecurity checks the code text for known-dangerous call patterns.
// Any match fails the check and the output names every matched pattern.
func scanSecurity(code string) (Verdict, string) {
	var findings []string
	for _, dp := range dangerousPatterns {
		if strings.Contains(code, dp.pattern) {
			findings = append(findings, fmt.Sprintf("%s (%s)", dp.pattern, dp.issue))
		}
	}

	if len(findings) > 0 {
		return VerdictFailed, "security issues found: " + strings.Join(findings, "; ")
	}
	return VerdictPassed, "security check passed - no obvious vulnerabilities found"
}
