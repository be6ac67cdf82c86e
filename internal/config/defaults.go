package config

// Default limits applied when the config file leaves them unset. The numeric
// limits live behind pointer fields so an explicit zero (unlimited or no
// budget) is distinguishable from unset; the Config accessors resolve nil to
// these values.
const (
	DefaultViolationLimit = 15
	DefaultScanTimeout    = 5
	DefaultMaxLines       = 600
	DefaultMaxLinesTest   = 1000
	DefaultTestsTimeout   = 300
	DefaultCacheDir       = ".quench"
	DefaultComment        = "// JUSTIFIED:"

	// DefaultCoveragePattern matches summary lines like "coverage: 81.2%".
	DefaultCoveragePattern = `([0-9]+(?:\.[0-9]+)?)\s*%`
)

// defaultSourcePatterns are the per-lint-code justification patterns applied
// to the source role when the config does not define its own. User-provided
// patterns override per code; codes the user does not mention keep these.
func defaultSourcePatterns() map[string][]string {
	return map[string][]string{
		"dead_code": {
			"// KEEP UNTIL:",
			"// NOTE(compat):",
			"// NOTE(lifetime):",
		},
		"deprecated": {
			"// TODO(refactor):",
			"// NOTE(compat):",
		},
	}
}

// ApplyDefaults fills unset fields in place. Called by the loader after
// unmarshalling and by tests building configs by hand. Numeric limits are
// left nil here; their accessors resolve nil to the defaults, so explicit
// zeros from the file survive loading.
func (c *Config) ApplyDefaults() {
	if c.Cache.Dir == "" {
		c.Cache.Dir = DefaultCacheDir
	}
	if c.Suppress.Comment == "" {
		c.Suppress.Comment = DefaultComment
	}

	// Merge default source patterns: user codes win, unmentioned defaults stay.
	defaults := defaultSourcePatterns()
	if c.Suppress.Source.Patterns == nil {
		c.Suppress.Source.Patterns = defaults
	} else {
		for code, patterns := range defaults {
			if _, ok := c.Suppress.Source.Patterns[code]; !ok {
				c.Suppress.Source.Patterns[code] = patterns
			}
		}
	}
}
