package checks

import (
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/quench-dev/quench/internal/cache"
	"github.com/quench-dev/quench/internal/check"
	"github.com/quench-dev/quench/internal/config"
)

func init() {
	Register(func(*cache.Store) check.Check {
		return &Tests{}
	})
}

// Tests runs the project's test tool as a black box. Pass or fail comes from
// the tool's exit status; a coverage percentage parsed from its output feeds
// the coverage.* metrics. Results are never cached: the tool's outcome
// depends on more than file bytes.
type Tests struct{}

func (t *Tests) Name() string { return "tests" }

func (t *Tests) Description() string {
	return "The project test suite must pass; coverage feeds the ratchet"
}

func (t *Tests) Run(ctx context.Context, rc *check.RunContext) check.Result {
	if !rc.Config.TestsEnabled() {
		return check.Skipped(t.Name(), "disabled in configuration")
	}
	argv := rc.Config.Check.Tests.Command
	if len(argv) == 0 {
		return check.Skipped(t.Name(), "no test command configured")
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		return check.Skipped(t.Name(), fmt.Sprintf("%s not found in PATH", argv[0]))
	}

	budget := rc.Config.TestsTimeout()
	if budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = rc.Root
	out, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return check.Errored(t.Name(), fmt.Sprintf("%s exceeded the %s budget", argv[0], budget))
	}

	metrics := map[string]float64{}
	if pct, ok := parseCoverage(out, rc.Config.Check.Tests.CoveragePattern); ok {
		metrics["coverage.percent"] = pct
	}

	if err != nil {
		v := check.Violation{
			Type:   "tests_failed",
			Advice: fmt.Sprintf("%s exited with an error: %s", strings.Join(argv, " "), lastLine(out)),
		}
		return check.Failed(t.Name(), []check.Violation{v}).WithMetrics(metrics)
	}
	return check.Passed(t.Name()).WithMetrics(metrics)
}

var defaultCoverage = regexp.MustCompile(config.DefaultCoveragePattern)

// parseCoverage extracts the last coverage percentage from the tool output;
// summary lines come after per-package detail. Custom patterns are validated
// at config load.
func parseCoverage(out []byte, pattern string) (float64, bool) {
	re := defaultCoverage
	if pattern != "" {
		custom, err := regexp.Compile(pattern)
		if err != nil {
			return 0, false
		}
		re = custom
	}
	matches := re.FindAllSubmatch(out, -1)
	if len(matches) == 0 {
		return 0, false
	}
	last := matches[len(matches)-1]
	if len(last) < 2 {
		return 0, false
	}
	pct, err := strconv.ParseFloat(string(last[1]), 64)
	if err != nil {
		return 0, false
	}
	return pct, true
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
