// Package walker discovers project files and classifies them per language.
// Discovery runs once per run; the resulting FileRecord set is immutable for
// the remainder of the run.
package walker

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/quench-dev/quench/internal/adapter"
	"github.com/quench-dev/quench/internal/config"
)

// MaxFileSize bounds files eligible for hashing and scanning. Larger files
// are recorded with role "other" so the report still counts them.
const MaxFileSize = 10 << 20

// skipDirs are pruned during traversal, before any I/O on their subtrees.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"target":       true,
	"vendor":       true,
	".quench":      true,
}

// FileRecord describes one discovered file. Built fresh each run.
type FileRecord struct {
	// Path is root-relative, slash-separated.
	Path string

	// Language is the claiming adapter's id, or "generic".
	Language string

	// Role is the classification bucket.
	Role config.Role

	// ContentHash is the xxhash64 of the file bytes. Zero for excluded and
	// oversized files, which are never scanned.
	ContentHash uint64

	Size  int64
	MTime time.Time
}

// Walk discovers, classifies and hashes every file under root.
//
// Classification and hashing are pure functions of file bytes plus the
// immutable adapter set, so they fan out across a worker pool. Results are
// sorted by path for determinism.
func Walk(ctx context.Context, cfg *config.Config, reg *adapter.Registry, logger *slog.Logger) ([]FileRecord, error) {
	root := cfg.Project.Root
	var candidates []FileRecord

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are recovered locally: warn and move on.
			logger.Warn("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && (skipDirs[name] || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		info, infoErr := d.Info()
		if infoErr != nil {
			logger.Warn("skipping unreadable file", "path", rel, "error", infoErr)
			return nil
		}

		a, claimed := reg.ForPath(rel)
		rec := FileRecord{
			Path:     rel,
			Language: a.Name,
			Role:     a.Classify(rel),
			Size:     info.Size(),
			MTime:    info.ModTime(),
		}
		if !claimed && rec.Role == config.RoleSource {
			// The generic fallback never promotes a file to source.
			rec.Role = config.RoleOther
		}
		if rec.Size > MaxFileSize && rec.Role != config.RoleExcluded {
			logger.Warn("file exceeds size limit, treating as other", "path", rel, "size", rec.Size)
			rec.Role = config.RoleOther
		}
		candidates = append(candidates, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Hash scannable files across a worker pool. Each worker touches only
	// its own record; the slice layout is fixed before the pool starts.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range candidates {
		rec := &candidates[i]
		if rec.Role == config.RoleExcluded || rec.Size > MaxFileSize {
			continue
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			sum, hashErr := HashFile(filepath.Join(root, filepath.FromSlash(rec.Path)))
			if hashErr != nil {
				logger.Warn("cannot hash file", "path", rec.Path, "error", hashErr)
				return nil
			}
			rec.ContentHash = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Path < candidates[j].Path })
	return candidates, nil
}
