package checks

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// perfBudget is the wall-clock ceiling for the crude performance harness.
const perfBudget = 5 * time.Second

// runTool executes one external tool with a hard timeout and maps the exit
// state onto a verdict: clean exit is passed, non-zero exit is failed with
// the diagnostic output, and anything that prevented the tool from running
// (missing binary, deadline) is error.
func runTool(ctx context.Context, timeout time.Duration, name string, args ...string) (Verdict, string) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, name, args...)
	out, err := cmd.CombinedOutput()

	if cctx.Err() == context.DeadlineExceeded {
		return VerdictError, fmt.Sprintf("%s timed out after %s", name, timeout)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return VerdictFailed, string(out)
		}
		return VerdictError, fmt.Sprintf("%s could not run: %v", name, err)
	}
	return VerdictPassed, string(out)
}

func syntaxCheck(ctx context.Context, timeout time.Duration, ext, target string) (Verdict, string) {
	switch ext {
	case ".py":
		return runTool(ctx, timeout, "python3", "-m", "py_compile", target)
	case ".dart":
		return runTool(ctx, timeout, "dart", "analyze", target)
	case ".js":
		return runTool(ctx, timeout, "node", "--check", target)
	default:
		return VerdictSkipped, fmt.Sprintf("syntax check not implemented for %s files", ext)
	}
}

func lintCheck(ctx context.Context, timeout time.Duration, ext, target string) (Verdict, string) {
	switch ext {
	case ".py":
		verdict, output := runTool(ctx, timeout, "flake8", target)
		// A missing linter should not sink the proposal; downgrade to skipped.
		if verdict == VerdictError {
			if _, err := exec.LookPath("flake8"); err != nil {
				return VerdictSkipped, "flake8 not available - skipping lint"
			}
		}
		return verdict, output
	case ".dart":
		return runTool(ctx, timeout, "dart", "analyze", target)
	default:
		return VerdictSkipped, fmt.Sprintf("lint not implemented for %s files", ext)
	}
}

// unitTest writes a minimal language-specific driver next to the candidate
// file and runs it: the candidate must at least load cleanly as a module.
func unitTest(ctx context.Context, timeout time.Duration, ext, dir, target string) (Verdict, string) {
	switch ext {
	case ".py":
		driver := filepath.Join(dir, "driver_unit.py")
		content := fmt.Sprintf(`import importlib.util
spec = importlib.util.spec_from_file_location("candidate", %q)
mod = importlib.util.module_from_spec(spec)
spec.loader.exec_module(mod)
print("unit: module loaded")
`, target)
		if err := os.WriteFile(driver, []byte(content), 0o644); err != nil {
			return VerdictError, fmt.Sprintf("writing unit driver: %v", err)
		}
		return runTool(ctx, timeout, "python3", driver)
	case ".js":
		driver := filepath.Join(dir, "driver_unit.js")
		content := fmt.Sprintf(`require(%q);
console.log("unit: module loaded");
`, target)
		if err := os.WriteFile(driver, []byte(content), 0o644); err != nil {
			return VerdictError, fmt.Sprintf("writing unit driver: %v", err)
		}
		return runTool(ctx, timeout, "node", driver)
	case ".dart":
		driver := filepath.Join(dir, "driver_unit.dart")
		content := fmt.Sprintf(`import %q as candidate;

void main() {
  print('unit: module loaded');
}
`, "file://"+target)
		if err := os.WriteFile(driver, []byte(content), 0o644); err != nil {
			return VerdictError, fmt.Sprintf("writing unit driver: %v", err)
		}
		return runTool(ctx, timeout, "dart", "run", driver)
	default:
		return VerdictSkipped, fmt.Sprintf("unit tests not implemented for %s files", ext)
	}
}

// integrationTest exercises the candidate the way a consumer would: load it
// and execute its top level in a fresh interpreter process.
func integrationTest(ctx context.Context, timeout time.Duration, ext, dir, target string) (Verdict, string) {
	switch ext {
	case ".py":
		driver := filepath.Join(dir, "driver_integration.py")
		content := fmt.Sprintf(`import runpy
runpy.run_path(%q)
print("integration: executed")
`, target)
		if err := os.WriteFile(driver, []byte(content), 0o644); err != nil {
			return VerdictError, fmt.Sprintf("writing integration driver: %v", err)
		}
		return runTool(ctx, timeout, "python3", driver)
	case ".js":
		driver := filepath.Join(dir, "driver_integration.js")
		content := fmt.Sprintf(`require(%q);
console.log("integration: executed");
`, target)
		if err := os.WriteFile(driver, []byte(content), 0o644); err != nil {
			return VerdictError, fmt.Sprintf("writing integration driver: %v", err)
		}
		return runTool(ctx, timeout, "node", driver)
	case ".dart":
		return runTool(ctx, timeout, "dart", "run", target)
	default:
		return VerdictSkipped, fmt.Sprintf("integration tests not implemented for %s files", ext)
	}
}

// performanceCheck is a crude timing harness: run the candidate once and
// fail if it exceeds the budget. Real profiling can replace this behind the
// same outcome contract.
func performanceCheck(ctx context.Context, timeout time.Duration, ext, target string) (Verdict, string) {
	start := time.Now()

	var verdict Verdict
	var output string
	switch ext {
	case ".py":
		verdict, output = runTool(ctx, timeout, "python3", target)
	case ".js":
		verdict, output = runTool(ctx, timeout, "node", target)
	case ".dart":
		verdict, output = runTool(ctx, timeout, "dart", "run", target)
	default:
		return VerdictSkipped, fmt.Sprintf("performance check not implemented for %s files", ext)
	}

	elapsed := time.Since(start)
	if verdict != VerdictPassed {
		return verdict, output
	}
	if elapsed > perfBudget {
		return VerdictFailed, fmt.Sprintf("execution took %s, budget is %s", elapsed.Round(time.Millisecond), perfBudget)
	}
	return VerdictPassed, fmt.Sprintf("executed in %s", elapsed.Round(time.Millisecond))
}

// liveDeploymentTest runs the candidate file directly under its toolchain.
// Unrecognized file types get a basic deployability validation instead of a
// skip so that forced live checks still verify something real.
func liveDeploymentTest(ctx context.Context, timeout time.Duration, ext, target string) (Verdict, string) {
	switch ext {
	case ".py":
		return runTool(ctx, timeout, "python3", target)
	case ".dart":
		return runTool(ctx, timeout, "dart", "analyze", target)
	case ".js":
		return runTool(ctx, timeout, "node", target)
	default:
		info, err := os.Stat(target)
		if err != nil {
			return VerdictFailed, fmt.Sprintf("deploy validation failed: %v", err)
		}
		if info.Size() == 0 {
			return VerdictFailed, "deploy validation failed: empty file"
		}
		return VerdictPassed, fmt.Sprintf("deploy validation passed for %s", filepath.Base(target))
	}
}
