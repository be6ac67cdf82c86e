package cache

import (
	"encoding/gob"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quench-dev/quench/internal/check"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestGetMissOnEmptyStore(t *testing.T) {
	s := Open(t.TempDir(), testLogger())
	_, ok := s.Get(42, "escapes")
	assert.False(t, ok)

	hits, misses := s.Stats()
	assert.Zero(t, hits)
	assert.EqualValues(t, 1, misses)
}

func TestPutGetRoundTrip(t *testing.T) {
	s := Open(t.TempDir(), testLogger())
	c := Contribution{
		Violations: []check.Violation{{File: "src/lib.rs", Line: 3, Type: "unsafe"}},
		Metrics:    map[string]float64{"escapes.unsafe.source": 1},
	}
	s.Put(42, "escapes", c)

	got, ok := s.Get(42, "escapes")
	require.True(t, ok)
	assert.Equal(t, c, got)

	_, ok = s.Get(42, "cloc")
	assert.False(t, ok)
	_, ok = s.Get(43, "escapes")
	assert.False(t, ok)
}

func TestFlushAndReload(t *testing.T) {
	dir := t.TempDir()
	s := Open(dir, testLogger())
	s.Put(7, "escapes", Contribution{Metrics: map[string]float64{"escapes.total": 2}})
	require.NoError(t, s.Flush())

	s2 := Open(dir, testLogger())
	got, ok := s2.Get(7, "escapes")
	require.True(t, ok)
	assert.Equal(t, float64(2), got.Metrics["escapes.total"])
}

func TestCorruptCacheIsFullMiss(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, cacheFileName), []byte("not gob"), 0o644))

	s := Open(dir, testLogger())
	_, ok := s.Get(7, "escapes")
	assert.False(t, ok)
}

func TestVersionMismatchIsFullMiss(t *testing.T) {
	dir := t.TempDir()
	s := Open(dir, testLogger())
	s.Put(7, "escapes", Contribution{})
	require.NoError(t, s.Flush())

	// Rewrite the blob with a stale version header.
	raw := persisted{Version: LogicVersion - 1, Entries: map[uint64]entry{
		7: {Checks: map[string]Contribution{"escapes": {}}},
	}}
	f, err := os.Create(filepath.Join(dir, cacheFileName))
	require.NoError(t, err)
	require.NoError(t, gob.NewEncoder(f).Encode(raw))
	require.NoError(t, f.Close())

	s2 := Open(dir, testLogger())
	_, ok := s2.Get(7, "escapes")
	assert.False(t, ok)
}

func TestPruneDropsDeadHashes(t *testing.T) {
	s := Open(t.TempDir(), testLogger())
	s.Put(1, "escapes", Contribution{})
	s.Put(2, "escapes", Contribution{})

	s.Prune(map[uint64]bool{2: true})
	_, ok := s.Get(1, "escapes")
	assert.False(t, ok)
	_, ok = s.Get(2, "escapes")
	assert.True(t, ok)
}

func TestNilStoreIsAlwaysMiss(t *testing.T) {
	var s *Store
	_, ok := s.Get(1, "escapes")
	assert.False(t, ok)
	s.Put(1, "escapes", Contribution{})
	assert.NoError(t, s.Flush())
}

func TestFlushWithoutChangesWritesNothing(t *testing.T) {
	dir := t.TempDir()
	s := Open(dir, testLogger())
	require.NoError(t, s.Flush())
	_, err := os.Stat(filepath.Join(dir, cacheFileName))
	assert.True(t, os.IsNotExist(err))
}
