package checks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/quench-dev/quench/internal/adapter"
	"github.com/quench-dev/quench/internal/cache"
	"github.com/quench-dev/quench/internal/check"
	"github.com/quench-dev/quench/internal/config"
	"github.com/quench-dev/quench/internal/policy"
	"github.com/quench-dev/quench/internal/scan"
	"github.com/quench-dev/quench/internal/walker"
)

func init() {
	Register(func(store *cache.Store) check.Check {
		return &Escapes{store: store}
	})
}

// Escapes flags escape hatches and lint suppressions that lack the
// justification the resolved policy requires.
type Escapes struct {
	store *cache.Store
}

func (e *Escapes) Name() string { return "escapes" }

func (e *Escapes) Description() string {
	return "Escape hatches and lint suppressions must carry a justification"
}

// fileOutcome is one file's aggregated scan, merged under the collector lock.
type fileOutcome struct {
	file    string
	pkg     string
	contrib cache.Contribution
}

func (e *Escapes) Run(ctx context.Context, rc *check.RunContext) check.Result {
	if !rc.Config.EscapesEnabled() {
		return check.Skipped(e.Name(), "disabled in configuration")
	}

	resolver := policy.NewResolver(rc.Config)
	timeout := rc.Config.EscapeScanTimeout()
	fingerprint := policyFingerprint(rc.Config)

	var (
		mu       sync.Mutex
		outcomes []fileOutcome
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, f := range rc.Files {
		if !scannable(f) {
			continue
		}
		a, claimed := rc.Adapters.ForPath(f.Path)
		if !claimed {
			continue
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			pkg := rc.Config.PackageFor(f.Path)
			slot := e.cacheSlot(f, pkg, fingerprint)

			contrib, hit := e.store.Get(f.ContentHash, slot)
			if !hit {
				var ok bool
				contrib, ok = e.scanFile(gctx, rc, resolver, f, a, pkg, timeout)
				if !ok {
					return nil
				}
				e.store.Put(f.ContentHash, slot, contrib)
			}

			mu.Lock()
			outcomes = append(outcomes, fileOutcome{file: f.Path, pkg: pkg, contrib: contrib})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return check.Errored(e.Name(), err.Error())
	}

	return e.aggregate(outcomes)
}

// scanFile computes one file's contribution. ok is false when the file could
// not be scanned (unreadable or over budget); such files contribute nothing
// and are not cached.
func (e *Escapes) scanFile(ctx context.Context, rc *check.RunContext, resolver *policy.Resolver,
	f walker.FileRecord, a *adapter.Adapter, pkg string, timeout time.Duration) (cache.Contribution, bool) {

	content, err := os.ReadFile(filepath.Join(rc.Root, filepath.FromSlash(f.Path)))
	if err != nil {
		rc.Logger.Warn("cannot read file", "path", f.Path, "error", err)
		return cache.Contribution{}, false
	}

	fs := scan.File(ctx, content, a, timeout)
	if fs.TimedOut {
		// A cancelled run also discards the scan; only a genuine budget
		// overrun is worth a warning.
		if ctx.Err() == nil {
			rc.Logger.Warn("scan budget exceeded, skipping file", "path", f.Path, "budget", timeout)
		}
		return cache.Contribution{}, false
	}

	contrib := cache.Contribution{Metrics: map[string]float64{}}
	role := string(f.Role)

	for _, m := range fs.Escapes {
		contrib.Metrics["escapes."+m.Pattern.Name+"."+role]++
		d := resolver.ResolveEscape(f.Language, pkg, f.Role, m.Pattern)
		switch d.Level {
		case config.LevelForbid:
			contrib.Violations = append(contrib.Violations, check.Violation{
				File:    f.Path,
				Line:    m.Line,
				Type:    m.Pattern.Name,
				Pattern: m.Pattern.Name,
				Advice:  m.Pattern.Advice,
			})
		case config.LevelComment:
			if !policy.Justified(fs.Lines, m.Line-1, "", d, a.CommentPrefixes) {
				contrib.Violations = append(contrib.Violations, check.Violation{
					File:    f.Path,
					Line:    m.Line,
					Type:    m.Pattern.Name,
					Pattern: m.Pattern.Name,
					Advice:  m.Pattern.Advice,
				})
			}
		}
	}

	for _, m := range fs.Directives {
		contrib.Metrics["suppress."+f.Language+"."+role]++
		codes := m.Codes
		if len(codes) == 0 {
			// Blanket suppression with no code list resolves as one
			// anonymous code so role and base levels still apply.
			codes = []string{""}
		}
		for _, code := range codes {
			d := resolver.ResolveDirective(f.Language, pkg, f.Role, code)
			switch d.Level {
			case config.LevelForbid:
				contrib.Violations = append(contrib.Violations, check.Violation{
					File:    f.Path,
					Line:    m.Line,
					Type:    "suppression",
					Pattern: code,
					Advice:  fmt.Sprintf("Suppressing %s is forbidden here. Fix the underlying finding instead.", codeLabel(code)),
				})
			case config.LevelComment:
				if !policy.Justified(fs.Lines, m.Line-1, m.Inline, d, a.CommentPrefixes) {
					contrib.Violations = append(contrib.Violations, check.Violation{
						File:    f.Path,
						Line:    m.Line,
						Type:    "suppression",
						Pattern: code,
						Advice:  fmt.Sprintf("Suppression of %s needs a justification comment (%s).", codeLabel(code), acceptedLabel(d)),
					})
				}
			}
		}
	}
	return contrib, true
}

func (e *Escapes) aggregate(outcomes []fileOutcome) check.Result {
	var violations []check.Violation
	metrics := map[string]float64{}
	byPackage := map[string]map[string]float64{}

	for _, o := range outcomes {
		violations = append(violations, o.contrib.Violations...)
		for k, v := range o.contrib.Metrics {
			metrics[k] += v
		}
		if n := float64(len(o.contrib.Violations)); n > 0 {
			if byPackage[o.pkg] == nil {
				byPackage[o.pkg] = map[string]float64{}
			}
			byPackage[o.pkg]["escapes.violations"] += n
		}
	}
	metrics["escapes.violations"] = float64(len(violations))

	sort.Slice(violations, func(i, j int) bool {
		a, b := violations[i], violations[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Pattern < b.Pattern
	})

	var r check.Result
	if len(violations) == 0 {
		r = check.Passed(e.Name())
	} else {
		r = check.Failed(e.Name(), violations)
	}
	return r.WithMetrics(metrics).WithByPackage(byPackage)
}

// cacheSlot names this check's cache slot for a file. Role, language, package
// and the policy fingerprint are part of the slot because identical bytes can
// resolve differently under another scope, and an edited policy must not
// reuse stale verdicts.
func (e *Escapes) cacheSlot(f walker.FileRecord, pkg string, fingerprint uint64) string {
	return fmt.Sprintf("escapes/%s/%s/%s/%016x", f.Language, f.Role, pkg, fingerprint)
}

// policyFingerprint hashes the config sections that influence scan verdicts.
func policyFingerprint(cfg *config.Config) uint64 {
	snap := struct {
		Suppress  config.SuppressPolicy            `yaml:"suppress"`
		Languages map[string]config.LanguageConfig `yaml:"languages"`
		Packages  map[string]config.ScopeConfig    `yaml:"packages"`
	}{cfg.Suppress, cfg.Languages, cfg.Packages}

	raw, err := yaml.Marshal(snap)
	if err != nil {
		return 0
	}
	return walker.HashBytes(raw)
}

func scannable(f walker.FileRecord) bool {
	return (f.Role == config.RoleSource || f.Role == config.RoleTest) && f.ContentHash != 0
}

func codeLabel(code string) string {
	if code == "" {
		return "all lints"
	}
	return code
}

func acceptedLabel(d policy.Decision) string {
	if len(d.Patterns) > 0 {
		return d.Patterns[0]
	}
	return d.Fallback
}
