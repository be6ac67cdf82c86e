package config

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError reports an invalid configuration value. It is fatal: the
// runner refuses to start checks with a config that failed validation.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Msg)
}

// Validate checks every policy level and numeric bound in the config.
func (c *Config) Validate() error {
	for field, p := range map[string]*int{
		"check.limit":                c.Check.Limit,
		"check.escapes.scan_timeout": c.Check.Escapes.ScanTimeout,
		"check.cloc.max_lines":       c.Check.Cloc.MaxLines,
		"check.cloc.max_lines_test":  c.Check.Cloc.MaxLinesTest,
		"check.tests.timeout":        c.Check.Tests.Timeout,
	} {
		if p != nil && *p < 0 {
			return &ValidationError{Field: field, Msg: "must be >= 0"}
		}
	}
	if c.Suppress.LookbackLimit < 0 {
		return &ValidationError{Field: "suppress.lookback_limit", Msg: "must be >= 0"}
	}
	if pat := c.Check.Tests.CoveragePattern; pat != "" {
		if _, err := regexp.Compile(pat); err != nil {
			return &ValidationError{Field: "check.tests.coverage_pattern", Msg: fmt.Sprintf("invalid pattern: %v", err)}
		}
	}

	if err := validatePolicy("suppress", &c.Suppress); err != nil {
		return err
	}
	for lang, lc := range c.Languages {
		if lc.Suppress != nil {
			if err := validatePolicy("languages."+lang+".suppress", lc.Suppress); err != nil {
				return err
			}
		}
	}
	for pkg, sc := range c.Packages {
		if sc.Suppress != nil {
			if err := validatePolicy("packages."+pkg+".suppress", sc.Suppress); err != nil {
				return err
			}
		}
	}

	for metric, tol := range c.Ratchet.Tolerance {
		if tol < 0 {
			return &ValidationError{Field: "ratchet.tolerance." + metric, Msg: "must be >= 0"}
		}
	}

	for _, pkg := range c.Project.Packages {
		if strings.HasPrefix(pkg, "/") || strings.Contains(pkg, "..") {
			return &ValidationError{Field: "project.packages", Msg: fmt.Sprintf("%q must be a relative path inside the project", pkg)}
		}
	}

	return nil
}

func validatePolicy(field string, p *SuppressPolicy) error {
	if err := validateLevel(field+".check", p.Check); err != nil {
		return err
	}
	if err := validateLevel(field+".source.check", p.Source.Check); err != nil {
		return err
	}
	return validateLevel(field+".test.check", p.Test.Check)
}

func validateLevel(field, level string) error {
	switch level {
	case "", LevelForbid, LevelComment, LevelAllow:
		return nil
	default:
		return &ValidationError{Field: field, Msg: fmt.Sprintf("unknown level %q (want forbid, comment or allow)", level)}
	}
}
