// Package config provides the typed configuration for quench.
// It is decoupled from CLI concerns so the engine packages can consume a
// validated Config without knowing how it was produced.
package config

import "time"

// Role classifies which kind of file a policy scope applies to.
type Role string

// File roles recognized by classification and policy resolution.
const (
	RoleSource   Role = "source"
	RoleTest     Role = "test"
	RoleExcluded Role = "excluded"
	RoleOther    Role = "other"
)

// Enforcement levels for suppression directives and escape hatches.
const (
	LevelForbid  = "forbid"
	LevelComment = "comment"
	LevelAllow   = "allow"
)

// Config is the root configuration, loaded from quench.yaml.
type Config struct {
	Project   ProjectConfig             `koanf:"project"`
	Check     CheckConfig               `koanf:"check"`
	Suppress  SuppressPolicy            `koanf:"suppress"`
	Languages map[string]LanguageConfig `koanf:"languages"`
	Packages  map[string]ScopeConfig    `koanf:"packages"`
	Ratchet   RatchetConfig             `koanf:"ratchet"`
	Cache     CacheConfig               `koanf:"cache"`
	Verbose   bool                      `koanf:"verbose"`
}

// ProjectConfig describes the workspace layout.
type ProjectConfig struct {
	// Root is the absolute project root. Set by the loader, not the file.
	Root string `koanf:"-"`

	// Packages lists workspace member directories, in order. Metrics are
	// broken down per package; files outside every package belong to the
	// implicit root package "".
	Packages []string `koanf:"packages"`

	// Source, Tests and Exclude override adapter classification globs
	// project-wide. Empty means adapter defaults apply.
	Source  []string `koanf:"source"`
	Tests   []string `koanf:"tests"`
	Exclude []string `koanf:"exclude"`
}

// CheckConfig holds settings shared by all checks.
type CheckConfig struct {
	// Limit caps reported violations across the whole run. Explicit 0 means
	// unlimited; unset applies the default.
	Limit *int `koanf:"limit"`

	Escapes EscapesConfig `koanf:"escapes"`
	Cloc    ClocConfig    `koanf:"cloc"`
	Tests   TestsConfig   `koanf:"tests"`
}

// EscapesConfig configures the escapes check.
type EscapesConfig struct {
	// Enabled toggles the check. Defaults to true.
	Enabled *bool `koanf:"enabled"`

	// ScanTimeout bounds the per-file scan, in seconds. Explicit 0 means no
	// budget; unset applies the default.
	ScanTimeout *int `koanf:"scan_timeout"`
}

// ClocConfig configures the line-count check.
type ClocConfig struct {
	// Enabled toggles the check. Defaults to true.
	Enabled *bool `koanf:"enabled"`

	// MaxLines is the non-blank line limit for source files. Explicit 0
	// disables the limit; unset applies the default.
	MaxLines *int `koanf:"max_lines"`

	// MaxLinesTest is the non-blank line limit for test files.
	MaxLinesTest *int `koanf:"max_lines_test"`
}

// TestsConfig configures the tests check, which runs the project's test tool
// as a black box.
type TestsConfig struct {
	// Enabled toggles the check. Defaults to true; without a command the
	// check skips anyway.
	Enabled *bool `koanf:"enabled"`

	// Command is the test tool argv, e.g. ["cargo", "test"] or
	// ["go", "test", "./..."]. Empty means no test tool is configured.
	Command []string `koanf:"command"`

	// Timeout bounds the whole tool run, in seconds.
	Timeout *int `koanf:"timeout"`

	// CoveragePattern extracts the coverage percentage from the tool's
	// output. Capture group 1 must be the number.
	CoveragePattern string `koanf:"coverage_pattern"`
}

// SuppressPolicy is one policy scope: a base enforcement level plus
// role-specific sub-scopes. More specific scopes override field-by-field,
// never wholesale.
type SuppressPolicy struct {
	// Check is the base enforcement level: forbid, comment or allow.
	// Empty inherits from the parent scope.
	Check string `koanf:"check"`

	// Comment is the global fallback justification pattern, checked when no
	// per-lint-code pattern resolves. Example: "// JUSTIFIED:".
	Comment string `koanf:"comment"`

	// LookbackLimit bounds the upward comment search. 0 scans until the
	// first non-blank, non-comment line (the default); N > 0 additionally
	// stops after N lines.
	LookbackLimit int `koanf:"lookback_limit"`

	Source RolePolicy `koanf:"source"`
	Test   RolePolicy `koanf:"test"`
}

// RolePolicy is the role sub-scope of a suppression policy.
type RolePolicy struct {
	// Check overrides the enforcement level for this role. Empty inherits.
	Check string `koanf:"check"`

	// Allow lists lint codes that pass unconditionally at this scope.
	Allow []string `koanf:"allow"`

	// Forbid lists lint codes that fail unconditionally at this scope.
	Forbid []string `koanf:"forbid"`

	// Patterns maps a lint code to its accepted justification comment
	// prefixes. Any listed prefix satisfies the requirement.
	Patterns map[string][]string `koanf:"patterns"`
}

// RoleScope returns the sub-scope for a role. Excluded and other files are
// never scanned, so only source and test reach here; any other role gets an
// empty scope.
func (p *SuppressPolicy) RoleScope(role Role) *RolePolicy {
	switch role {
	case RoleSource:
		return &p.Source
	case RoleTest:
		return &p.Test
	default:
		return &RolePolicy{}
	}
}

// LanguageConfig is a per-language override scope.
type LanguageConfig struct {
	// Suppress overrides the suppression policy for files of this language.
	Suppress *SuppressPolicy `koanf:"suppress"`

	// Source, Tests and Exclude override the adapter's classification globs.
	Source  []string `koanf:"source"`
	Tests   []string `koanf:"tests"`
	Exclude []string `koanf:"exclude"`
}

// ScopeConfig is a per-package override scope.
type ScopeConfig struct {
	Suppress *SuppressPolicy `koanf:"suppress"`
}

// RatchetConfig configures baseline comparison.
type RatchetConfig struct {
	// Enabled toggles ratchet comparison. Defaults to true.
	Enabled *bool `koanf:"enabled"`

	// Tolerance maps a metric name prefix (e.g. "coverage") to the allowed
	// regression before a violation is reported. Counts default to 0.
	Tolerance map[string]float64 `koanf:"tolerance"`
}

// CacheConfig configures the per-file result cache.
type CacheConfig struct {
	// Enabled toggles caching. Defaults to true.
	Enabled *bool `koanf:"enabled"`

	// Dir is the cache directory, relative to the project root.
	Dir string `koanf:"dir"`
}

// EscapesEnabled reports whether the escapes check should run.
func (c *Config) EscapesEnabled() bool {
	return c.Check.Escapes.Enabled == nil || *c.Check.Escapes.Enabled
}

// ClocEnabled reports whether the cloc check should run.
func (c *Config) ClocEnabled() bool {
	return c.Check.Cloc.Enabled == nil || *c.Check.Cloc.Enabled
}

// RatchetEnabled reports whether ratchet comparison should run.
func (c *Config) RatchetEnabled() bool {
	return c.Ratchet.Enabled == nil || *c.Ratchet.Enabled
}

// TestsEnabled reports whether the tests check should run.
func (c *Config) TestsEnabled() bool {
	return c.Check.Tests.Enabled == nil || *c.Check.Tests.Enabled
}

// CacheEnabled reports whether the result cache should be used.
func (c *Config) CacheEnabled() bool {
	return c.Cache.Enabled == nil || *c.Cache.Enabled
}

// ViolationLimit is the effective run-wide violation cap. 0 disables it.
func (c *Config) ViolationLimit() int {
	if c.Check.Limit == nil {
		return DefaultViolationLimit
	}
	return *c.Check.Limit
}

// EscapeScanTimeout is the effective per-file scan budget. Zero disables it.
func (c *Config) EscapeScanTimeout() time.Duration {
	if c.Check.Escapes.ScanTimeout == nil {
		return DefaultScanTimeout * time.Second
	}
	return time.Duration(*c.Check.Escapes.ScanTimeout) * time.Second
}

// ClocLimit is the effective non-blank line limit for a role. 0 disables it.
func (c *Config) ClocLimit(role Role) int {
	p, def := c.Check.Cloc.MaxLines, DefaultMaxLines
	if role == RoleTest {
		p, def = c.Check.Cloc.MaxLinesTest, DefaultMaxLinesTest
	}
	if p == nil {
		return def
	}
	return *p
}

// TestsTimeout is the effective test tool budget. Zero disables it.
func (c *Config) TestsTimeout() time.Duration {
	if c.Check.Tests.Timeout == nil {
		return DefaultTestsTimeout * time.Second
	}
	return time.Duration(*c.Check.Tests.Timeout) * time.Second
}

// PackageFor returns the workspace package owning the given root-relative
// path, or "" for the implicit root package. Longest prefix wins.
func (c *Config) PackageFor(relPath string) string {
	best := ""
	for _, pkg := range c.Project.Packages {
		if len(pkg) > len(best) && hasPathPrefix(relPath, pkg) {
			best = pkg
		}
	}
	return best
}

func hasPathPrefix(path, prefix string) bool {
	if len(path) < len(prefix) || path[:len(prefix)] != prefix {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}
