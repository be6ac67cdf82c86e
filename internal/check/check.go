// Package check defines the contract between individual quality checks and
// the runner that executes them. Checks are pure functions over the
// discovered file set and the parsed configuration; they never mutate global
// state, so the runner is free to execute them concurrently.
package check

import (
	"context"
	"log/slog"
	"time"

	"github.com/quench-dev/quench/internal/adapter"
	"github.com/quench-dev/quench/internal/config"
	"github.com/quench-dev/quench/internal/walker"
)

// Check is the interface every quality check implements.
type Check interface {
	// Name returns the unique identifier, e.g. "escapes" or "cloc".
	Name() string

	// Description returns a human-readable description for help output.
	Description() string

	// Run executes the check over the discovered files.
	//
	// Implementations must return a skipped Result when a prerequisite
	// (external tool, required config) is missing, and must honor ctx
	// cancellation between files.
	Run(ctx context.Context, rc *RunContext) Result
}

// RunContext carries the shared read-only inputs for a check run.
type RunContext struct {
	// Root is the absolute project root directory.
	Root string

	// Files is the classified file set from the walker.
	Files []walker.FileRecord

	// Config is the validated configuration.
	Config *config.Config

	// Adapters resolves a language id to its adapter.
	Adapters *adapter.Registry

	// Logger receives warnings for recovered per-file errors.
	Logger *slog.Logger
}

// Violation is a single actionable finding. Optional fields are zero when
// not applicable; File is empty for non-file violations (e.g. a ratchet
// regression).
type Violation struct {
	File      string  `json:"file,omitempty"`
	Line      int     `json:"line,omitempty"`
	Type      string  `json:"type"`
	Advice    string  `json:"advice"`
	Pattern   string  `json:"pattern,omitempty"`
	Value     float64 `json:"value,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Lines     int     `json:"lines,omitempty"`
	Nonblank  int     `json:"nonblank,omitempty"`
}

// Result is the outcome of one check in one run.
type Result struct {
	Name       string                        `json:"name"`
	Passed     bool                          `json:"passed"`
	Skipped    bool                          `json:"skipped,omitempty"`
	Err        string                        `json:"error,omitempty"`
	Violations []Violation                   `json:"violations,omitempty"`
	Metrics    map[string]float64            `json:"metrics,omitempty"`
	ByPackage  map[string]map[string]float64 `json:"by_package,omitempty"`
	Duration   time.Duration                 `json:"-"`
}

// Passed creates a passing result.
func Passed(name string) Result {
	return Result{Name: name, Passed: true}
}

// Failed creates a failing result with violations.
func Failed(name string, violations []Violation) Result {
	return Result{Name: name, Violations: violations}
}

// Skipped creates a skipped result. Skipped checks contribute nothing to the
// aggregate outcome; the error explains the missing prerequisite.
func Skipped(name, reason string) Result {
	return Result{Name: name, Skipped: true, Err: reason}
}

// Errored creates a result for a check that crashed. Unlike Skipped, an
// errored check raises the run's exit severity.
func Errored(name, reason string) Result {
	return Result{Name: name, Err: reason}
}

// WithMetrics attaches aggregate metrics to the result.
func (r Result) WithMetrics(metrics map[string]float64) Result {
	r.Metrics = metrics
	return r
}

// WithByPackage attaches a per-package metric breakdown to the result.
func (r Result) WithByPackage(byPackage map[string]map[string]float64) Result {
	r.ByPackage = byPackage
	return r
}
