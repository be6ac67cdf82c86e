package scan

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quench-dev/quench/internal/adapter"
	"github.com/quench-dev/quench/internal/config"
)

func adapterFor(t *testing.T, name string) *adapter.Adapter {
	t.Helper()
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	a, ok := adapter.NewRegistry(cfg).ByName(name)
	require.True(t, ok)
	return a
}

func TestScanFindsEscape(t *testing.T) {
	src := []byte("fn read(ptr: *const u8) -> u8 {\n    unsafe { *ptr }\n}\n")
	fs := File(context.Background(), src, adapterFor(t, "rust"), 0)

	require.Len(t, fs.Escapes, 1)
	assert.Equal(t, 2, fs.Escapes[0].Line)
	assert.Equal(t, "unsafe", fs.Escapes[0].Pattern.Name)
}

func TestScanSkipsEscapeInComment(t *testing.T) {
	src := []byte("// SAFETY: unsafe { } is explained here\nlet x = 1;\n")
	fs := File(context.Background(), src, adapterFor(t, "rust"), 0)
	assert.Empty(t, fs.Escapes)
}

func TestScanKeepsGoDirectiveEscapes(t *testing.T) {
	src := []byte("//go:linkname localname runtime.hidden\nfunc localname()\n")
	fs := File(context.Background(), src, adapterFor(t, "go"), 0)

	require.Len(t, fs.Escapes, 1)
	assert.Equal(t, "go_linkname", fs.Escapes[0].Pattern.Name)
}

func TestScanParsesDirectiveCodes(t *testing.T) {
	src := []byte("#[allow(dead_code, unused_imports)]\nfn old() {}\n")
	fs := File(context.Background(), src, adapterFor(t, "rust"), 0)

	require.Len(t, fs.Directives, 1)
	assert.Equal(t, []string{"dead_code", "unused_imports"}, fs.Directives[0].Codes)
	assert.Equal(t, 1, fs.Directives[0].Line)
}

func TestScanNolintInlineReason(t *testing.T) {
	src := []byte("defer f.Close() //nolint:errcheck // JUSTIFIED: best effort\n")
	fs := File(context.Background(), src, adapterFor(t, "go"), 0)

	require.Len(t, fs.Directives, 1)
	assert.Equal(t, []string{"errcheck"}, fs.Directives[0].Codes)
	assert.Equal(t, "JUSTIFIED: best effort", fs.Directives[0].Inline)
}

func TestScanJoinsBracketContinuation(t *testing.T) {
	src := []byte("#[allow(\n    dead_code,\n    unused_imports\n)]\nfn old() {}\n")
	fs := File(context.Background(), src, adapterFor(t, "rust"), 0)

	require.Len(t, fs.Directives, 1)
	assert.Equal(t, 1, fs.Directives[0].Line)
	assert.Equal(t, []string{"dead_code", "unused_imports"}, fs.Directives[0].Codes)
}

func TestScanJoinsBackslashContinuation(t *testing.T) {
	src := []byte("eval \\\n  \"$cmd\"\n")
	fs := File(context.Background(), src, adapterFor(t, "shell"), 0)

	require.Len(t, fs.Escapes, 1)
	assert.Equal(t, "eval", fs.Escapes[0].Pattern.Name)
	assert.Equal(t, 1, fs.Escapes[0].Line)
}

func TestScanExpectAttribute(t *testing.T) {
	src := []byte("#[expect(clippy::too_many_lines)]\nfn big() {}\n")
	fs := File(context.Background(), src, adapterFor(t, "rust"), 0)

	require.Len(t, fs.Directives, 1)
	assert.Equal(t, []string{"clippy::too_many_lines"}, fs.Directives[0].Codes)
}

func TestScanBlanketDirectiveHasNoCodes(t *testing.T) {
	src := []byte("x = risky()  # noqa\n")
	fs := File(context.Background(), src, adapterFor(t, "python"), 0)

	require.Len(t, fs.Directives, 1)
	assert.Empty(t, fs.Directives[0].Codes)
}

func TestScanGenericAdapterProducesNothing(t *testing.T) {
	src := []byte("unsafe { } eslint-disable # noqa\n")
	fs := File(context.Background(), src, adapterFor(t, "generic"), 0)
	assert.Empty(t, fs.Escapes)
	assert.Empty(t, fs.Directives)
}

func TestScanTimeoutDiscardsMatches(t *testing.T) {
	var src []byte
	for i := 0; i < 100000; i++ {
		src = append(src, []byte("unsafe { touch() }\n")...)
	}
	fs := File(context.Background(), src, adapterFor(t, "rust"), time.Nanosecond)

	assert.True(t, fs.TimedOut)
	assert.Empty(t, fs.Escapes)
}

func TestScanCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var src []byte
	for i := 0; i < 100000; i++ {
		src = append(src, []byte("let x = 1;\n")...)
	}
	fs := File(ctx, src, adapterFor(t, "rust"), 0)
	assert.True(t, fs.TimedOut)
}
