package checks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/codevanta/propgate/internal/proposal"
)

// DefaultTimeout bounds a single check's external tool invocation.
const DefaultTimeout = 120 * time.Second

// Checker runs one check at a time against a proposal's code-after content
// inside a private temporary directory. It never returns a Go error for
// check problems: tool failures become failed outcomes, infrastructure
// problems (missing binary, timeout) become error outcomes.
type Checker struct {
	Timeout time.Duration
	// SkipPatterns are doublestar globs for target paths that are never
	// executed in the sandbox (vendored code, generated files). Matching
	// proposals get a skipped outcome for every sandboxed check.
	SkipPatterns []string
}

// NewChecker returns a Checker with the default timeout.
func NewChecker() *Checker {
	return &Checker{Timeout: DefaultTimeout}
}

// Run executes one check type against the proposal and reports the outcome.
// The temporary file it writes is removed on every exit path.
func (c *Checker) Run(ctx context.Context, t Type, p *proposal.Proposal) Outcome {
	start := time.Now()
	verdict, output := c.run(ctx, t, p)
	return Outcome{
		Type:     t,
		Verdict:  verdict,
		Output:   output,
		Duration: time.Since(start),
	}
}

func (c *Checker) run(ctx context.Context, t Type, p *proposal.Proposal) (Verdict, string) {
	if strings.TrimSpace(p.CodeAfter) == "" {
		return VerdictSkipped, "no code to check"
	}

	// The security check is a heuristic scan over the code text; it needs
	// no sandbox and no external tool.
	if t == TypeSecurity {
		return scanSecurity(p.CodeAfter)
	}

	if c.pathSkipped(p.FilePath) {
		return VerdictSkipped, fmt.Sprintf("path %s matches a sandbox skip pattern", p.FilePath)
	}

	dir, err := os.MkdirTemp("", "propgate-check-*")
	if err != nil {
		return VerdictError, fmt.Sprintf("creating sandbox dir: %v", err)
	}
	defer os.RemoveAll(dir)

	base := filepath.Base(p.FilePath)
	if base == "." || base == string(filepath.Separator) {
		base = "candidate" + extensionOf(p.FilePath)
	}
	target := filepath.Join(dir, base)
	if err := os.WriteFile(target, []byte(p.CodeAfter), 0o644); err != nil {
		return VerdictError, fmt.Sprintf("writing sandbox file: %v", err)
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ext := extensionOf(p.FilePath)

	switch t {
	case TypeSyntax:
		return syntaxCheck(ctx, timeout, ext, target)
	case TypeLint:
		return lintCheck(ctx, timeout, ext, target)
	case TypeUnit:
		return unitTest(ctx, timeout, ext, dir, target)
	case TypeIntegration:
		return integrationTest(ctx, timeout, ext, dir, target)
	case TypePerformance:
		return performanceCheck(ctx, timeout, ext, target)
	case TypeLiveDeployment:
		return liveDeploymentTest(ctx, timeout, ext, target)
	default:
		return VerdictSkipped, fmt.Sprintf("unknown check type: %s", t)
	}
}

func (c *Checker) pathSkipped(filePath string) bool {
	normalized := filepath.ToSlash(filePath)
	for _, pattern := range c.SkipPatterns {
		if ok, err := doublestar.PathMatch(filepath.ToSlash(pattern), normalized); err == nil && ok {
			return true
		}
	}
	return false
}

// extensionOf returns the lowercase file extension, defaulting to .txt for
// extensionless paths so temp files always have a suffix.
func extensionOf(filePath string) string {
	ext := strings.ToLower(filepath.Ext(filePath))
	if ext == "" {
		return ".txt"
	}
	return ext
}
