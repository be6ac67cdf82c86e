// Package adapter provides per-language capability data for classification
// and scanning. An adapter is pure data: classification globs, escape pattern
// tables and suppression directive syntax. All resolution logic lives in the
// policy and scan packages, shared across every language.
package adapter

import (
	"path"
	"regexp"
	"strings"

	"github.com/quench-dev/quench/internal/config"
)

// Action is the default handling for an escape pattern match.
type Action int

// Escape pattern actions.
const (
	// ActionCount only counts occurrences; counts feed metrics and the
	// ratchet, never direct violations.
	ActionCount Action = iota
	// ActionComment requires the pattern's sentinel justification comment.
	ActionComment
	// ActionForbid rejects every occurrence.
	ActionForbid
)

// EscapePattern describes one escape-hatch construct of a language.
type EscapePattern struct {
	// Name identifies the pattern in reports and metrics, e.g. "unsafe".
	Name string

	// Pattern matches the construct on a logical (continuation-joined) line.
	Pattern *regexp.Regexp

	// Action is the default handling for matches in source files.
	Action Action

	// Comment is the sentinel justification prefix for ActionComment,
	// e.g. "// SAFETY:".
	Comment string

	// MatchInComments keeps matches that fall inside a comment. Needed for
	// constructs that are spelled as comments (@ts-ignore, //go:linkname);
	// code-level patterns leave it false so prose mentioning them stays
	// clean.
	MatchInComments bool

	// Advice tells the user how to fix a violation.
	Advice string
}

// DirectiveSyntax describes how a language spells lint suppression.
// The scanner applies it; adapters only declare it.
type DirectiveSyntax struct {
	// Marker is a cheap substring filter run before the regex.
	Marker string

	// Matcher recognizes the directive. Capture group 1 is the lint code
	// list (may be empty for blanket suppressions); optional capture group 2
	// is an inline justification.
	Matcher *regexp.Regexp

	// Separator splits the code list, usually ",".
	Separator string
}

// ParseCodes extracts the lint codes and inline justification from a logical
// line. ok is false when the line carries no directive.
func (d *DirectiveSyntax) ParseCodes(line string) (codes []string, inline string, ok bool) {
	if d == nil || !strings.Contains(line, d.Marker) {
		return nil, "", false
	}
	m := d.Matcher.FindStringSubmatch(line)
	if m == nil {
		return nil, "", false
	}
	for _, code := range strings.Split(m[1], d.Separator) {
		code = strings.TrimSpace(code)
		if code != "" {
			codes = append(codes, code)
		}
	}
	if len(m) > 2 {
		inline = strings.TrimSpace(m[2])
	}
	return codes, inline, true
}

// Adapter is an immutable per-language capability bundle.
type Adapter struct {
	// Name is the stable language id, e.g. "rust".
	Name string

	// Extensions claimed by this adapter, without the dot.
	Extensions []string

	// Classification globs, evaluated exclude > test > source.
	SourceGlobs  []string
	TestGlobs    []string
	ExcludeGlobs []string

	// Escapes is the ordered escape pattern table.
	Escapes []EscapePattern

	// Directive is the suppression directive syntax, nil when the language
	// has none quench understands.
	Directive *DirectiveSyntax

	// CommentPrefixes are the line-comment markers used by the upward
	// justification lookback, most specific first.
	CommentPrefixes []string

	// Continuation is how physical lines join into logical ones before
	// matching. Treating a continuation as a fresh statement is a defect.
	Continuation ContinuationStyle
}

// ContinuationStyle selects the line-joining rule for a language.
type ContinuationStyle int

// Continuation styles.
const (
	// ContinuationNone: every physical line is a logical line.
	ContinuationNone ContinuationStyle = iota
	// ContinuationBackslash joins lines ending in a backslash (shell, python).
	ContinuationBackslash
	// ContinuationBracket joins lines while brackets opened on the first
	// line remain unbalanced (rust attributes, multi-line call heads).
	ContinuationBracket
)

// Claims reports whether this adapter owns the file. Adapters with
// extensions claim by extension alone; classification globs like tests/**
// never pull in another language's files. Extensionless adapters claim by
// glob.
func (a *Adapter) Claims(relPath string) bool {
	if len(a.Extensions) > 0 {
		ext := strings.TrimPrefix(path.Ext(relPath), ".")
		for _, e := range a.Extensions {
			if e == ext {
				return true
			}
		}
		return false
	}
	return MatchAny(a.SourceGlobs, relPath) || MatchAny(a.TestGlobs, relPath)
}

// Classify buckets a root-relative path, in fixed precedence:
// exclude > test > source > other.
func (a *Adapter) Classify(relPath string) config.Role {
	switch {
	case MatchAny(a.ExcludeGlobs, relPath):
		return config.RoleExcluded
	case MatchAny(a.TestGlobs, relPath):
		return config.RoleTest
	case MatchAny(a.SourceGlobs, relPath):
		return config.RoleSource
	default:
		return config.RoleOther
	}
}

// withConfig returns a copy with classification globs overridden from config.
// Resolution: language section, then project section, then adapter defaults.
func (a *Adapter) withConfig(cfg *config.Config) *Adapter {
	out := *a
	lang, hasLang := cfg.Languages[a.Name]

	pick := func(langPatterns, projectPatterns, defaults []string) []string {
		if hasLang && len(langPatterns) > 0 {
			return langPatterns
		}
		if len(projectPatterns) > 0 {
			return projectPatterns
		}
		return defaults
	}

	var ls, lt, le []string
	if hasLang {
		ls, lt, le = lang.Source, lang.Tests, lang.Exclude
	}
	out.SourceGlobs = pick(ls, cfg.Project.Source, a.SourceGlobs)
	out.TestGlobs = pick(lt, cfg.Project.Tests, a.TestGlobs)
	out.ExcludeGlobs = pick(le, cfg.Project.Exclude, a.ExcludeGlobs)
	return &out
}
