package policy

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quench-dev/quench/internal/adapter"
	"github.com/quench-dev/quench/internal/config"
)

func newTestConfig() *config.Config {
	cfg := &config.Config{}
	cfg.ApplyDefaults()
	return cfg
}

func TestRoleCheckOverridesBaseAllow(t *testing.T) {
	cfg := newTestConfig()
	cfg.Suppress.Check = config.LevelAllow
	cfg.Suppress.Source.Check = config.LevelComment
	r := NewResolver(cfg)

	d := r.ResolveDirective("rust", "", config.RoleSource, "dead_code")
	assert.Equal(t, config.LevelComment, d.Level)

	d = r.ResolveDirective("rust", "", config.RoleTest, "dead_code")
	assert.Equal(t, config.LevelAllow, d.Level)
}

func TestTestRoleDefaultsToAllow(t *testing.T) {
	cfg := newTestConfig()
	cfg.Suppress.Check = config.LevelForbid
	r := NewResolver(cfg)

	// Test scope silent: hard default allow, before the base level.
	d := r.ResolveDirective("go", "", config.RoleTest, "errcheck")
	assert.Equal(t, config.LevelAllow, d.Level)

	// Source keeps descending to the base level.
	d = r.ResolveDirective("go", "", config.RoleSource, "errcheck")
	assert.Equal(t, config.LevelForbid, d.Level)
}

func TestSourceDefaultsToCommentWhenUnset(t *testing.T) {
	r := NewResolver(newTestConfig())
	d := r.ResolveDirective("python", "", config.RoleSource, "E501")
	assert.Equal(t, config.LevelComment, d.Level)
}

func TestForbidListWinsOverEverything(t *testing.T) {
	cfg := newTestConfig()
	cfg.Suppress.Check = config.LevelAllow
	cfg.Suppress.Source.Check = config.LevelAllow
	cfg.Suppress.Source.Forbid = []string{"unused_variables"}
	r := NewResolver(cfg)

	d := r.ResolveDirective("rust", "", config.RoleSource, "unused_variables")
	assert.Equal(t, config.LevelForbid, d.Level)
}

func TestAllowListWinsOverCommentLevel(t *testing.T) {
	cfg := newTestConfig()
	cfg.Suppress.Source.Check = config.LevelComment
	cfg.Suppress.Source.Allow = []string{"clippy::too_many_arguments"}
	r := NewResolver(cfg)

	d := r.ResolveDirective("rust", "", config.RoleSource, "clippy::too_many_arguments")
	assert.Equal(t, config.LevelAllow, d.Level)
}

func TestPerCodePatternsResolveAtRoleScope(t *testing.T) {
	cfg := newTestConfig()
	cfg.Suppress.Check = config.LevelAllow
	cfg.Suppress.Source.Patterns = map[string][]string{
		"dead_code": {"// KEEP UNTIL:"},
	}
	r := NewResolver(cfg)

	d := r.ResolveDirective("rust", "", config.RoleSource, "dead_code")
	assert.Equal(t, config.LevelComment, d.Level)
	assert.Equal(t, []string{"// KEEP UNTIL:"}, d.Patterns)

	// Codes without a pattern fall through to the base allow.
	d = r.ResolveDirective("rust", "", config.RoleSource, "unused_imports")
	assert.Equal(t, config.LevelAllow, d.Level)
}

func TestPackageScopeOverridesLanguageAndRoot(t *testing.T) {
	cfg := newTestConfig()
	cfg.Suppress.Source.Check = config.LevelAllow
	cfg.Languages = map[string]config.LanguageConfig{
		"rust": {Suppress: &config.SuppressPolicy{
			Source: config.RolePolicy{Check: config.LevelComment},
		}},
	}
	cfg.Packages = map[string]config.ScopeConfig{
		"crates/core": {Suppress: &config.SuppressPolicy{
			Source: config.RolePolicy{Check: config.LevelForbid},
		}},
	}
	cfg.Project.Packages = []string{"crates/core"}
	r := NewResolver(cfg)

	d := r.ResolveDirective("rust", "crates/core", config.RoleSource, "dead_code")
	assert.Equal(t, config.LevelForbid, d.Level)

	d = r.ResolveDirective("rust", "", config.RoleSource, "dead_code")
	assert.Equal(t, config.LevelComment, d.Level)
}

func TestResolveEscapeUsesPatternAction(t *testing.T) {
	r := NewResolver(newTestConfig())
	unsafe := &adapter.EscapePattern{
		Name:    "unsafe",
		Pattern: regexp.MustCompile(`unsafe\s*\{`),
		Action:  adapter.ActionComment,
		Comment: "// SAFETY:",
	}

	d := r.ResolveEscape("rust", "", config.RoleSource, unsafe)
	assert.Equal(t, config.LevelComment, d.Level)
	assert.Equal(t, []string{"// SAFETY:"}, d.Patterns)

	d = r.ResolveEscape("rust", "", config.RoleTest, unsafe)
	assert.Equal(t, config.LevelAllow, d.Level)
}

func TestResolveEscapeConfigOverrides(t *testing.T) {
	cfg := newTestConfig()
	cfg.Suppress.Source.Allow = []string{"unsafe"}
	cfg.Suppress.Test.Forbid = []string{"breakpoint"}
	r := NewResolver(cfg)

	unsafe := &adapter.EscapePattern{Name: "unsafe", Action: adapter.ActionComment, Comment: "// SAFETY:"}
	d := r.ResolveEscape("rust", "", config.RoleSource, unsafe)
	assert.Equal(t, config.LevelAllow, d.Level)

	bp := &adapter.EscapePattern{Name: "breakpoint", Action: adapter.ActionForbid}
	d = r.ResolveEscape("python", "", config.RoleTest, bp)
	assert.Equal(t, config.LevelForbid, d.Level)
}

func TestFallbackCommentResolution(t *testing.T) {
	cfg := newTestConfig()
	r := NewResolver(cfg)
	d := r.ResolveDirective("go", "", config.RoleSource, "errcheck")
	assert.Equal(t, config.DefaultComment, d.Fallback)

	cfg.Suppress.Comment = "// BECAUSE:"
	d = NewResolver(cfg).ResolveDirective("go", "", config.RoleSource, "errcheck")
	assert.Equal(t, "// BECAUSE:", d.Fallback)
}
