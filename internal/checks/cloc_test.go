package checks

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quench-dev/quench/internal/cache"
)

func repeatedLines(n int) string {
	return strings.Repeat("let x = 1;\n", n)
}

func TestClocCountsAndPasses(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/lib.rs", "fn a() {}\n\nfn b() {}\n")

	c := &Cloc{store: nil}
	res := c.Run(context.Background(), newRunContext(t, root, defaultedConfig()))

	assert.True(t, res.Passed)
	assert.Equal(t, float64(1), res.Metrics["cloc.files"])
	assert.Equal(t, float64(3), res.Metrics["cloc.lines"])
	assert.Equal(t, float64(2), res.Metrics["cloc.nonblank"])
}

func TestClocFlagsOversizedSourceFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/big.rs", repeatedLines(30))
	writeFile(t, root, "src/small.rs", repeatedLines(5))

	cfg := defaultedConfig()
	max := 20
	cfg.Check.Cloc.MaxLines = &max

	c := &Cloc{store: nil}
	res := c.Run(context.Background(), newRunContext(t, root, cfg))

	require.Len(t, res.Violations, 1)
	v := res.Violations[0]
	assert.Equal(t, "src/big.rs", v.File)
	assert.Equal(t, "file_too_long", v.Type)
	assert.Equal(t, 30, v.Nonblank)
	assert.Equal(t, float64(20), v.Threshold)
}

func TestClocTestFilesGetOwnLimit(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "tests/big.rs", repeatedLines(30))

	cfg := defaultedConfig()
	max, maxTest := 20, 50
	cfg.Check.Cloc.MaxLines = &max
	cfg.Check.Cloc.MaxLinesTest = &maxTest

	c := &Cloc{store: nil}
	res := c.Run(context.Background(), newRunContext(t, root, cfg))
	assert.True(t, res.Passed)
	assert.Equal(t, float64(30), res.Metrics["cloc.nonblank.test"])
}

func TestClocLimitEditReusesCache(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/big.rs", repeatedLines(30))

	store := cache.Open(filepath.Join(root, ".quench"), testLogger())
	c := &Cloc{store: store}

	loose := defaultedConfig()
	res := c.Run(context.Background(), newRunContext(t, root, loose))
	assert.True(t, res.Passed)

	tight := defaultedConfig()
	max := 20
	tight.Check.Cloc.MaxLines = &max
	res = c.Run(context.Background(), newRunContext(t, root, tight))
	require.Len(t, res.Violations, 1)

	hits, _ := store.Stats()
	assert.EqualValues(t, 1, hits, "raw counts should be reused across limit changes")
}

func TestClocByPackage(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "crates/core/src/lib.rs", repeatedLines(4))
	writeFile(t, root, "crates/util/src/lib.rs", repeatedLines(6))

	cfg := defaultedConfig()
	cfg.Project.Packages = []string{"crates/core", "crates/util"}

	c := &Cloc{store: nil}
	res := c.Run(context.Background(), newRunContext(t, root, cfg))

	assert.Equal(t, float64(4), res.ByPackage["crates/core"]["cloc.nonblank"])
	assert.Equal(t, float64(6), res.ByPackage["crates/util"]["cloc.nonblank"])
}
