package checks

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/quench-dev/quench/internal/cache"
	"github.com/quench-dev/quench/internal/check"
	"github.com/quench-dev/quench/internal/config"
	"github.com/quench-dev/quench/internal/walker"
)

func init() {
	Register(func(store *cache.Store) check.Check {
		return &Cloc{store: store}
	})
}

// Cloc counts lines per file and flags files exceeding the role's limit.
// Raw counts are cached; thresholds apply at aggregation so editing a limit
// never invalidates the cache.
type Cloc struct {
	store *cache.Store
}

func (c *Cloc) Name() string { return "cloc" }

func (c *Cloc) Description() string {
	return "Source files must stay under the configured line limit"
}

const clocSlot = "cloc"

type clocOutcome struct {
	file     string
	pkg      string
	role     config.Role
	lines    float64
	nonblank float64
}

func (c *Cloc) Run(ctx context.Context, rc *check.RunContext) check.Result {
	if !rc.Config.ClocEnabled() {
		return check.Skipped(c.Name(), "disabled in configuration")
	}

	var (
		mu       sync.Mutex
		outcomes []clocOutcome
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, f := range rc.Files {
		if !scannable(f) {
			continue
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			contrib, hit := c.store.Get(f.ContentHash, clocSlot)
			if !hit {
				lines, nonblank, err := countLines(filepath.Join(rc.Root, filepath.FromSlash(f.Path)))
				if err != nil {
					rc.Logger.Warn("cannot count lines", "path", f.Path, "error", err)
					return nil
				}
				contrib = cache.Contribution{Metrics: map[string]float64{
					"lines":    float64(lines),
					"nonblank": float64(nonblank),
				}}
				c.store.Put(f.ContentHash, clocSlot, contrib)
			}

			mu.Lock()
			outcomes = append(outcomes, clocOutcome{
				file:     f.Path,
				pkg:      rc.Config.PackageFor(f.Path),
				role:     f.Role,
				lines:    contrib.Metrics["lines"],
				nonblank: contrib.Metrics["nonblank"],
			})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return check.Errored(c.Name(), err.Error())
	}

	return c.aggregate(rc.Config, outcomes)
}

func (c *Cloc) aggregate(cfg *config.Config, outcomes []clocOutcome) check.Result {
	var violations []check.Violation
	metrics := map[string]float64{"cloc.files": float64(len(outcomes))}
	byPackage := map[string]map[string]float64{}

	for _, o := range outcomes {
		metrics["cloc.lines"] += o.lines
		metrics["cloc.nonblank"] += o.nonblank
		metrics["cloc.nonblank."+string(o.role)] += o.nonblank

		if byPackage[o.pkg] == nil {
			byPackage[o.pkg] = map[string]float64{}
		}
		byPackage[o.pkg]["cloc.lines"] += o.lines
		byPackage[o.pkg]["cloc.nonblank"] += o.nonblank

		limit := cfg.ClocLimit(o.role)
		if limit > 0 && o.nonblank > float64(limit) {
			violations = append(violations, check.Violation{
				File:      o.file,
				Type:      "file_too_long",
				Lines:     int(o.lines),
				Nonblank:  int(o.nonblank),
				Value:     o.nonblank,
				Threshold: float64(limit),
				Advice:    fmt.Sprintf("File has %d non-blank lines (limit %d). Split it into focused units.", int(o.nonblank), limit),
			})
		}
	}

	sort.Slice(violations, func(i, j int) bool { return violations[i].File < violations[j].File })

	var r check.Result
	if len(violations) == 0 {
		r = check.Passed(c.Name())
	} else {
		r = check.Failed(c.Name(), violations)
	}
	return r.WithMetrics(metrics).WithByPackage(byPackage)
}

func countLines(path string) (lines, nonblank int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), walker.MaxFileSize)
	for sc.Scan() {
		lines++
		if strings.TrimSpace(sc.Text()) != "" {
			nonblank++
		}
	}
	return lines, nonblank, sc.Err()
}
