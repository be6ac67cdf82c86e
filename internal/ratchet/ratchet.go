package ratchet

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/quench-dev/quench/internal/check"
)

// trackedPrefixes selects which metrics the baseline records. Everything else
// (file counts, raw line totals) moves freely.
var trackedPrefixes = []string{"escapes.", "suppress.", "coverage."}

// Tracked reports whether a metric participates in ratcheting.
func Tracked(name string) bool {
	for _, p := range trackedPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// lowerIsBetter gives a metric's improvement direction. Violation and
// suppression counts shrink toward zero; coverage climbs.
func lowerIsBetter(name string) bool {
	return !strings.HasPrefix(name, "coverage.")
}

// toleranceFor resolves the allowed slack for a metric: longest configured
// name prefix wins, absent means zero.
func toleranceFor(name string, tol map[string]float64) float64 {
	best, bestLen := 0.0, -1
	for prefix, v := range tol {
		if strings.HasPrefix(name, prefix) && len(prefix) > bestLen {
			best, bestLen = v, len(prefix)
		}
	}
	if bestLen < 0 {
		return 0
	}
	return best
}

// regressed reports whether current is worse than baseline beyond tolerance.
func regressed(name string, baseline, current, tolerance float64) bool {
	if lowerIsBetter(name) {
		return current > baseline+tolerance
	}
	return current < baseline-tolerance
}

// Compare checks every baseline metric still present in the current run and
// returns one violation per regression, sorted by metric name. Metrics new
// to this run have no baseline and pass; they join the baseline on the next
// accept.
func Compare(baseline *Baseline, current map[string]float64, tolerance map[string]float64) []check.Violation {
	var out []check.Violation
	for name, base := range baseline.Metrics {
		cur, ok := current[name]
		if !ok {
			continue
		}
		tol := toleranceFor(name, tolerance)
		if !regressed(name, base, cur, tol) {
			continue
		}
		direction := "above"
		if !lowerIsBetter(name) {
			direction = "below"
		}
		out = append(out, check.Violation{
			Type:      "ratchet_regression",
			Pattern:   name,
			Value:     cur,
			Threshold: base,
			Advice: fmt.Sprintf("Metric %s is %.6g, %s the accepted baseline %.6g. Fix the regression or accept a new baseline.",
				name, cur, direction, base),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pattern < out[j].Pattern })
	return out
}

// Accept rewrites the baseline from the current run's tracked metrics. It
// refuses outright, changing nothing, if any tracked metric is worse than the
// baseline: accepting must never record a regression, not even alongside
// improvements.
func Accept(store *Store, current map[string]float64, commit string) error {
	baseline, err := store.Load()
	if err != nil {
		return err
	}

	var regressions []string
	next := map[string]float64{}
	for name, cur := range current {
		if !Tracked(name) {
			continue
		}
		if base, ok := baseline.Metrics[name]; ok && regressed(name, base, cur, 0) {
			regressions = append(regressions, fmt.Sprintf("%s (%.6g -> %.6g)", name, base, cur))
		}
		next[name] = cur
	}
	if len(regressions) > 0 {
		sort.Strings(regressions)
		return fmt.Errorf("refusing to accept a regressed baseline: %s", strings.Join(regressions, ", "))
	}

	baseline.Metrics = next
	baseline.Updated = time.Now().UTC()
	baseline.Commit = commit
	return store.Save(baseline)
}

// GitCommit returns the short commit hash of HEAD, or "" outside a
// repository. Stamped into the baseline for provenance only.
func GitCommit(ctx context.Context, root string) string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--short", "HEAD")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
