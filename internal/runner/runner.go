// Package runner orchestrates a full quench run: discovery, check execution,
// ratchet comparison and cache flush. Checks are isolated so one check's
// defect never aborts the others.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quench-dev/quench/internal/adapter"
	"github.com/quench-dev/quench/internal/cache"
	"github.com/quench-dev/quench/internal/check"
	"github.com/quench-dev/quench/internal/checks"
	"github.com/quench-dev/quench/internal/config"
	"github.com/quench-dev/quench/internal/ratchet"
	"github.com/quench-dev/quench/internal/walker"
)

// Severity is the aggregate run outcome, worst wins.
type Severity int

// Severities in ascending order of badness. The process exit code equals the
// severity value.
const (
	SeverityOK     Severity = 0
	SeverityFailed Severity = 1
	SeverityConfig Severity = 2
	SeverityCrash  Severity = 3
)

// Report is the aggregate outcome of one run, handed to the renderer.
type Report struct {
	Results []check.Result `json:"results"`

	// Metrics merges every check's metrics, the input to ratcheting.
	Metrics map[string]float64 `json:"metrics,omitempty"`

	// Truncated counts violations dropped by the run-wide cap.
	Truncated int `json:"truncated,omitempty"`

	Files       int           `json:"files"`
	CacheHits   int64         `json:"cache_hits"`
	CacheMisses int64         `json:"cache_misses"`
	Duration    time.Duration `json:"-"`
	Severity    Severity      `json:"severity"`
}

// Passed reports whether every non-skipped check passed.
func (r *Report) Passed() bool { return r.Severity == SeverityOK }

// Runner executes checks against one project.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New builds a runner over a validated config.
func New(cfg *config.Config, logger *slog.Logger) *Runner {
	return &Runner{cfg: cfg, logger: logger}
}

// Run executes the full pipeline and never returns an error for check
// failures; those are encoded in the report severity. Only discovery-level
// failures (unreadable root) surface as errors.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	reg := adapter.NewRegistry(r.cfg)
	files, err := walker.Walk(ctx, r.cfg, reg, r.logger)
	if err != nil {
		return nil, fmt.Errorf("discover files: %w", err)
	}

	var store *cache.Store
	if r.cfg.CacheEnabled() {
		store = cache.Open(filepath.Join(r.cfg.Project.Root, r.cfg.Cache.Dir), r.logger)
	}

	rc := &check.RunContext{
		Root:     r.cfg.Project.Root,
		Files:    files,
		Config:   r.cfg,
		Adapters: reg,
		Logger:   r.logger,
	}
	report := r.execute(ctx, rc, checks.Build(store))

	if r.cfg.RatchetEnabled() {
		report.Results = append(report.Results, r.ratchetResult(report.Metrics))
	}

	if store != nil {
		live := make(map[uint64]bool, len(files))
		for _, f := range files {
			if f.ContentHash != 0 {
				live[f.ContentHash] = true
			}
		}
		store.Prune(live)
		if err := store.Flush(); err != nil {
			r.logger.Warn("cannot flush cache", "error", err)
		}
		report.CacheHits, report.CacheMisses = store.Stats()
	}

	r.capViolations(report)
	report.Severity = severityOf(report.Results)
	report.Files = len(files)
	return report, nil
}

// execute runs every check concurrently. Checks share only read-only inputs,
// so the only coordination is the result slot each goroutine owns.
func (r *Runner) execute(ctx context.Context, rc *check.RunContext, cks []check.Check) *Report {
	start := time.Now()
	results := make([]check.Result, len(cks))

	var g errgroup.Group
	for i, c := range cks {
		g.Go(func() error {
			results[i] = r.runOne(ctx, c, rc)
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers never return errors

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })

	metrics := map[string]float64{}
	for _, res := range results {
		for k, v := range res.Metrics {
			metrics[k] += v
		}
	}
	return &Report{
		Results:  results,
		Metrics:  metrics,
		Duration: time.Since(start),
	}
}

// runOne executes a single check behind a panic boundary. A crash is logged
// and becomes an errored result; the run continues.
func (r *Runner) runOne(ctx context.Context, c check.Check, rc *check.RunContext) (res check.Result) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("check crashed", "check", c.Name(), "panic", p)
			res = check.Errored(c.Name(), fmt.Sprintf("internal error: %v", p))
		}
	}()

	start := time.Now()
	res = c.Run(ctx, rc)
	res.Duration = time.Since(start)
	if res.Name == "" {
		res.Name = c.Name()
	}
	return res
}

// ratchetResult compares merged metrics against the accepted baseline.
func (r *Runner) ratchetResult(metrics map[string]float64) check.Result {
	const name = "ratchet"

	store := ratchet.NewStore(r.cfg.Project.Root, r.cfg.Cache.Dir)
	baseline, err := store.Load()
	if err != nil {
		return check.Errored(name, err.Error())
	}
	if len(baseline.Metrics) == 0 {
		return check.Skipped(name, "no accepted baseline; run 'quench ratchet accept' to start ratcheting")
	}

	violations := ratchet.Compare(baseline, metrics, r.cfg.Ratchet.Tolerance)
	if len(violations) == 0 {
		return check.Passed(name)
	}
	return check.Failed(name, violations)
}

// capViolations applies the run-wide violation cap after aggregation, never
// per check, so the earliest results keep their findings. Limit 0 disables
// the cap.
func (r *Runner) capViolations(report *Report) {
	limit := r.cfg.ViolationLimit()
	if limit <= 0 {
		return
	}
	remaining := limit
	for i := range report.Results {
		res := &report.Results[i]
		if len(res.Violations) <= remaining {
			remaining -= len(res.Violations)
			continue
		}
		report.Truncated += len(res.Violations) - remaining
		res.Violations = res.Violations[:remaining]
		remaining = 0
	}
}

func severityOf(results []check.Result) Severity {
	worst := SeverityOK
	for _, res := range results {
		var s Severity
		switch {
		case res.Skipped:
			s = SeverityOK
		case res.Err != "":
			s = SeverityCrash
		case !res.Passed:
			s = SeverityFailed
		}
		if s > worst {
			worst = s
		}
	}
	return worst
}
