// Package ratchet compares run metrics against an accepted baseline and
// refuses to let tracked metrics regress.
package ratchet

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/quench-dev/quench/internal/walker"
)

// ErrConflict reports that the baseline changed between load and save.
// The on-disk baseline is left untouched; the caller retries from a fresh
// load or gives up.
var ErrConflict = errors.New("baseline changed concurrently")

const baselineVersion = 1

// staleLockAge bounds how long a baseline lock is honored. A crashed accept
// never removes its lock; locks older than this are broken instead of
// blocking every future save.
const staleLockAge = 10 * time.Minute

// Baseline is the per-metric best-known state, stored outside the working
// tree under the repository's .git directory so it follows the clone, not
// the checkout.
type Baseline struct {
	Version int                `yaml:"version"`
	Updated time.Time          `yaml:"updated,omitempty"`
	Commit  string             `yaml:"commit,omitempty"`
	Metrics map[string]float64 `yaml:"metrics"`
}

// Store reads and writes the baseline document. Save is compare-and-swap
// against the content seen at Load, so concurrent accepts serialize and the
// loser fails with ErrConflict instead of clobbering.
type Store struct {
	path string

	// loadedSum is the content hash observed by Load. Zero means the file
	// was absent.
	loadedSum uint64
}

// NewStore locates the baseline under root. Inside a git repository it lives
// at .git/quench/baseline.yaml; otherwise it falls back to the cache dir so
// non-git trees still ratchet.
func NewStore(root, cacheDir string) *Store {
	gitDir := filepath.Join(root, ".git")
	if fi, err := os.Stat(gitDir); err == nil && fi.IsDir() {
		return &Store{path: filepath.Join(gitDir, "quench", "baseline.yaml")}
	}
	return &Store{path: filepath.Join(root, cacheDir, "baseline.yaml")}
}

// Load reads the baseline. A missing file yields an empty baseline; a
// malformed one is an error, never silently discarded, because losing the
// baseline would let every metric regress unnoticed.
func (s *Store) Load() (*Baseline, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.loadedSum = 0
			return &Baseline{Version: baselineVersion, Metrics: map[string]float64{}}, nil
		}
		return nil, fmt.Errorf("read baseline: %w", err)
	}
	s.loadedSum = walker.HashBytes(raw)

	var b Baseline
	if err := yaml.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("parse baseline %s: %w", s.path, err)
	}
	if b.Metrics == nil {
		b.Metrics = map[string]float64{}
	}
	return &b, nil
}

// Save atomically replaces the baseline. It fails with ErrConflict when the
// on-disk content no longer matches what Load saw.
func (s *Store) Save(b *Baseline) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create baseline dir: %w", err)
	}

	// Exclusive lock file serializes concurrent writers.
	lock := s.path + ".lock"
	lf, err := acquireLock(lock)
	if err != nil {
		return err
	}
	fmt.Fprintf(lf, "%d %s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	lf.Close()
	defer os.Remove(lock)

	// CAS: the content we loaded must still be the content on disk.
	raw, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		if walker.HashBytes(raw) != s.loadedSum {
			return ErrConflict
		}
	case os.IsNotExist(err):
		if s.loadedSum != 0 {
			return ErrConflict
		}
	default:
		return fmt.Errorf("read baseline: %w", err)
	}

	b.Version = baselineVersion
	out, err := yaml.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode baseline: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "baseline-*.yaml")
	if err != nil {
		return fmt.Errorf("create baseline temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return fmt.Errorf("write baseline: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close baseline temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace baseline: %w", err)
	}
	s.loadedSum = walker.HashBytes(out)
	return nil
}

// acquireLock creates the lock file exclusively. A lock older than
// staleLockAge belongs to a crashed writer and is broken once; a fresh lock
// is a live conflict.
func acquireLock(lock string) (*os.File, error) {
	for attempt := 0; ; attempt++ {
		lf, err := os.OpenFile(lock, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			return lf, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("acquire baseline lock: %w", err)
		}
		fi, statErr := os.Stat(lock)
		if attempt > 0 || statErr != nil || time.Since(fi.ModTime()) < staleLockAge {
			return nil, ErrConflict
		}
		os.Remove(lock)
	}
}
