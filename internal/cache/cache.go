// Package cache persists per-file check contributions between runs.
//
// Lifecycle: loaded once at run start, consulted and updated in memory while
// checks run, flushed once at run end. The on-disk form is an opaque gob blob
// headed by a logic version; any mismatch or decode failure invalidates the
// whole cache silently.
package cache

import (
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/quench-dev/quench/internal/check"
)

// LogicVersion invalidates every persisted entry when scan or policy
// semantics change. Bump it on any behavioral change to a cached check.
const LogicVersion = 1

const cacheFileName = "cache.bin"

// Contribution is one check's cached output for one file.
type Contribution struct {
	Violations []check.Violation
	Metrics    map[string]float64
}

// entry groups the contributions of every cache-eligible check for a file,
// keyed by check name.
type entry struct {
	Checks map[string]Contribution
}

// persisted is the on-disk envelope.
type persisted struct {
	Version int
	Entries map[uint64]entry
}

// Store is the in-memory cache for one run. Reads may run concurrently;
// writes serialize per store. A nil *Store is a valid always-miss cache.
type Store struct {
	mu      sync.RWMutex
	path    string
	entries map[uint64]entry
	logger  *slog.Logger
	dirty   bool

	hits   atomic.Int64
	misses atomic.Int64
}

// Open loads the cache from dir, which is created on flush if missing.
// Corrupt or version-mismatched data is discarded and an empty cache
// returned; loading never fails the run.
func Open(dir string, logger *slog.Logger) *Store {
	s := &Store{
		path:    filepath.Join(dir, cacheFileName),
		entries: map[uint64]entry{},
		logger:  logger,
	}

	f, err := os.Open(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("cannot open cache, starting empty", "path", s.path, "error", err)
		}
		return s
	}
	defer f.Close()

	var p persisted
	if err := gob.NewDecoder(f).Decode(&p); err != nil {
		logger.Warn("corrupt cache discarded", "path", s.path, "error", err)
		return s
	}
	if p.Version != LogicVersion {
		logger.Debug("cache logic version changed, discarding",
			"have", p.Version, "want", LogicVersion)
		return s
	}
	s.entries = p.Entries
	if s.entries == nil {
		s.entries = map[uint64]entry{}
	}
	return s
}

// Get returns the cached contribution for (file content hash, check name).
func (s *Store) Get(contentHash uint64, checkName string) (Contribution, bool) {
	if s == nil {
		return Contribution{}, false
	}
	s.mu.RLock()
	e, ok := s.entries[contentHash]
	var c Contribution
	if ok {
		c, ok = e.Checks[checkName]
	}
	s.mu.RUnlock()

	if ok {
		s.hits.Add(1)
	} else {
		s.misses.Add(1)
	}
	return c, ok
}

// Put stores a contribution, replacing any previous one for the same key.
func (s *Store) Put(contentHash uint64, checkName string, c Contribution) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[contentHash]
	if !ok {
		e = entry{Checks: map[string]Contribution{}}
		s.entries[contentHash] = e
	}
	e.Checks[checkName] = c
	s.dirty = true
}

// Prune drops every entry whose content hash is not in the live set, so the
// cache tracks the current tree instead of growing across checkouts.
func (s *Store) Prune(live map[uint64]bool) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for h := range s.entries {
		if !live[h] {
			delete(s.entries, h)
			s.dirty = true
		}
	}
}

// Flush writes the cache atomically via a temp file rename. A clean store
// writes nothing.
func (s *Store) Flush() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, cacheFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("create cache temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc := gob.NewEncoder(tmp)
	if err := enc.Encode(persisted{Version: LogicVersion, Entries: s.entries}); err != nil {
		tmp.Close()
		return fmt.Errorf("encode cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cache temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace cache file: %w", err)
	}
	s.dirty = false
	return nil
}

// Stats returns cumulative hit and miss counts for this run.
func (s *Store) Stats() (hits, misses int64) {
	if s == nil {
		return 0, 0
	}
	return s.hits.Load(), s.misses.Load()
}
