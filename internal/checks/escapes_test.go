package checks

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quench-dev/quench/internal/adapter"
	"github.com/quench-dev/quench/internal/cache"
	"github.com/quench-dev/quench/internal/check"
	"github.com/quench-dev/quench/internal/config"
	"github.com/quench-dev/quench/internal/policy"
	"github.com/quench-dev/quench/internal/walker"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func newRunContext(t *testing.T, root string, cfg *config.Config) *check.RunContext {
	t.Helper()
	cfg.Project.Root = root
	reg := adapter.NewRegistry(cfg)
	files, err := walker.Walk(context.Background(), cfg, reg, testLogger())
	require.NoError(t, err)
	return &check.RunContext{
		Root:     root,
		Files:    files,
		Config:   cfg,
		Adapters: reg,
		Logger:   testLogger(),
	}
}

func defaultedConfig() *config.Config {
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	return cfg
}

func TestEscapesSourceViolationTestAllowed(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/lib.rs", "#[allow(unused_variables)]\nfn f() {}\n")
	writeFile(t, root, "tests/x.rs", "#[allow(unused_variables)]\nfn f() {}\n")

	cfg := defaultedConfig()
	cfg.Suppress.Check = config.LevelAllow
	cfg.Suppress.Source.Check = config.LevelComment

	e := &Escapes{store: cache.Open(filepath.Join(root, ".quench"), testLogger())}
	res := e.Run(context.Background(), newRunContext(t, root, cfg))

	assert.False(t, res.Passed)
	require.Len(t, res.Violations, 1)
	assert.Equal(t, "src/lib.rs", res.Violations[0].File)
	assert.Equal(t, "suppression", res.Violations[0].Type)
	assert.Equal(t, "unused_variables", res.Violations[0].Pattern)
}

func TestEscapesJustifiedSuppressionPasses(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/lib.rs",
		"// JUSTIFIED: kept for the public API surface\n#[allow(unused_variables)]\nfn f() {}\n")

	cfg := defaultedConfig()
	cfg.Suppress.Source.Check = config.LevelComment

	e := &Escapes{store: nil}
	res := e.Run(context.Background(), newRunContext(t, root, cfg))
	assert.True(t, res.Passed)
	assert.Empty(t, res.Violations)
}

func TestEscapesUnsafeNeedsSafetyComment(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/a.rs", "fn f(p: *const u8) -> u8 {\n    unsafe { *p }\n}\n")
	writeFile(t, root, "src/b.rs",
		"fn f(p: *const u8) -> u8 {\n    // SAFETY: p is checked by the caller\n    unsafe { *p }\n}\n")

	e := &Escapes{store: nil}
	res := e.Run(context.Background(), newRunContext(t, root, defaultedConfig()))

	require.Len(t, res.Violations, 1)
	assert.Equal(t, "src/a.rs", res.Violations[0].File)
	assert.Equal(t, "unsafe", res.Violations[0].Type)
	assert.Equal(t, float64(2), res.Metrics["escapes.unsafe.source"])
}

func TestEscapesForbiddenPattern(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.ts", "// @ts-ignore\nconst x: number = bad();\n")

	e := &Escapes{store: nil}
	res := e.Run(context.Background(), newRunContext(t, root, defaultedConfig()))

	require.Len(t, res.Violations, 1)
	assert.Equal(t, "ts_ignore", res.Violations[0].Type)
}

func TestEscapesInlineNolintReason(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "main.go",
		"package main\n\nfunc main() {\n\tdefer f.Close() //nolint:errcheck // JUSTIFIED: best effort\n}\n")

	cfg := defaultedConfig()
	cfg.Suppress.Source.Check = config.LevelComment

	e := &Escapes{store: nil}
	res := e.Run(context.Background(), newRunContext(t, root, cfg))
	assert.True(t, res.Passed, "inline reason should satisfy the comment requirement")
}

func TestEscapesSecondRunHitsCache(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/lib.rs", "#[allow(dead_code)]\nfn f() {}\n")

	cfg := defaultedConfig()
	cfg.Suppress.Source.Check = config.LevelComment
	store := cache.Open(filepath.Join(root, ".quench"), testLogger())
	e := &Escapes{store: store}

	rc := newRunContext(t, root, cfg)
	first := e.Run(context.Background(), rc)
	hits, _ := store.Stats()
	assert.Zero(t, hits)

	second := e.Run(context.Background(), rc)
	hits, _ = store.Stats()
	assert.EqualValues(t, 1, hits)
	assert.Equal(t, first.Violations, second.Violations)
	assert.Equal(t, first.Metrics, second.Metrics)
}

func TestEscapesPolicyEditInvalidatesCache(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/lib.rs", "#[allow(unused_imports)]\nfn f() {}\n")

	store := cache.Open(filepath.Join(root, ".quench"), testLogger())
	e := &Escapes{store: store}

	strict := defaultedConfig()
	strict.Suppress.Source.Check = config.LevelComment
	res := e.Run(context.Background(), newRunContext(t, root, strict))
	require.Len(t, res.Violations, 1)

	relaxed := defaultedConfig()
	relaxed.Suppress.Source.Check = config.LevelAllow
	res = e.Run(context.Background(), newRunContext(t, root, relaxed))
	assert.Empty(t, res.Violations)
}

func TestEscapesByPackageBreakdown(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "crates/core/src/lib.rs", "#[allow(dead_code)]\nfn f() {}\n")
	writeFile(t, root, "crates/util/src/lib.rs", "fn g() {}\n")

	cfg := defaultedConfig()
	cfg.Project.Packages = []string{"crates/core", "crates/util"}
	cfg.Suppress.Source.Check = config.LevelComment

	e := &Escapes{store: nil}
	res := e.Run(context.Background(), newRunContext(t, root, cfg))

	require.Contains(t, res.ByPackage, "crates/core")
	assert.Equal(t, float64(1), res.ByPackage["crates/core"]["escapes.violations"])
	assert.NotContains(t, res.ByPackage, "crates/util")
}

func TestEscapesDisabledSkips(t *testing.T) {
	cfg := defaultedConfig()
	off := false
	cfg.Check.Escapes.Enabled = &off

	e := &Escapes{store: nil}
	res := e.Run(context.Background(), newRunContext(t, t.TempDir(), cfg))
	assert.True(t, res.Skipped)
}

func TestEscapesDefaultDeadCodePattern(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/lib.rs",
		"// KEEP UNTIL: 2.0 removes the legacy entry point\n#[allow(dead_code)]\nfn legacy() {}\n")

	cfg := defaultedConfig()
	cfg.Suppress.Source.Check = config.LevelComment

	e := &Escapes{store: nil}
	res := e.Run(context.Background(), newRunContext(t, root, cfg))
	assert.True(t, res.Passed, "default dead_code pattern should accept KEEP UNTIL")
}

func TestEscapesCancelledRunLogsNoBudgetWarning(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/lib.rs", strings.Repeat("let x = 1;\n", 600))

	var logs bytes.Buffer
	cfg := defaultedConfig()
	rc := newRunContext(t, root, cfg)
	rc.Logger = slog.New(slog.NewTextHandler(&logs, nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := &Escapes{store: nil}
	resolver := policy.NewResolver(cfg)
	a, ok := rc.Adapters.ByName("rust")
	require.True(t, ok)

	_, scanned := e.scanFile(ctx, rc, resolver, rc.Files[0], a, "", time.Minute)
	assert.False(t, scanned)
	assert.NotContains(t, logs.String(), "scan budget", "cancellation is not a budget overrun")
}
