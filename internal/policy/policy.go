// Package policy resolves effective enforcement for suppression directives
// and escape hatches. One resolution algorithm serves every language; adapters
// contribute only pattern data.
package policy

import (
	"github.com/quench-dev/quench/internal/adapter"
	"github.com/quench-dev/quench/internal/config"
)

// Decision is the resolved enforcement for one match.
type Decision struct {
	// Level is forbid, comment or allow.
	Level string

	// Patterns are the accepted justification prefixes for Level == comment.
	// Empty means only the Fallback pattern applies.
	Patterns []string

	// Fallback is the global justification pattern, checked after Patterns.
	Fallback string

	// Lookback bounds the upward comment search. 0 means unbounded.
	Lookback int
}

// Resolver computes decisions against a fixed Config.
type Resolver struct {
	cfg *config.Config
}

// NewResolver builds a resolver over a validated config.
func NewResolver(cfg *config.Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// scopes returns the policy chain for a file, most specific first:
// package scope, language scope, root scope. Missing scopes are skipped.
func (r *Resolver) scopes(language, pkg string) []*config.SuppressPolicy {
	var out []*config.SuppressPolicy
	if pkg != "" {
		if sc, ok := r.cfg.Packages[pkg]; ok && sc.Suppress != nil {
			out = append(out, sc.Suppress)
		}
	}
	if lc, ok := r.cfg.Languages[language]; ok && lc.Suppress != nil {
		out = append(out, lc.Suppress)
	}
	return append(out, &r.cfg.Suppress)
}

// ResolveDirective computes the decision for a suppression directive carrying
// the given lint code. Descent order, each step falling through when unset:
//
//  1. Forbid and allow lists, which are unconditional at any scope.
//  2. Per-code justification patterns at the file's role scope.
//  3. The role-scoped check level. Read before any base level so a base
//     "allow" never weakens an explicit role requirement.
//  4. The base check level. Test files default to allow when their role
//     scope is silent; source files keep descending.
func (r *Resolver) ResolveDirective(language, pkg string, role config.Role, code string) Decision {
	scopes := r.scopes(language, pkg)
	d := Decision{
		Fallback: r.fallbackComment(scopes),
		Lookback: r.lookbackLimit(scopes),
	}

	for _, s := range scopes {
		rs := s.RoleScope(role)
		if contains(rs.Forbid, code) {
			d.Level = config.LevelForbid
			return d
		}
	}
	for _, s := range scopes {
		rs := s.RoleScope(role)
		if contains(rs.Allow, code) {
			d.Level = config.LevelAllow
			return d
		}
	}
	for _, s := range scopes {
		rs := s.RoleScope(role)
		if pats, ok := rs.Patterns[code]; ok && len(pats) > 0 {
			d.Level = config.LevelComment
			d.Patterns = pats
			return d
		}
	}
	for _, s := range scopes {
		if lvl := s.RoleScope(role).Check; lvl != "" {
			d.Level = lvl
			return d
		}
	}
	if role == config.RoleTest {
		d.Level = config.LevelAllow
		return d
	}
	for _, s := range scopes {
		if s.Check != "" {
			d.Level = s.Check
			return d
		}
	}
	d.Level = config.LevelComment
	return d
}

// ResolveEscape computes the decision for a bare escape-hatch match. The
// pattern's intrinsic action supplies the level; config lists and per-name
// patterns override it the same way they do for lint codes. Test files
// default to allow.
func (r *Resolver) ResolveEscape(language, pkg string, role config.Role, p *adapter.EscapePattern) Decision {
	scopes := r.scopes(language, pkg)
	d := Decision{
		Fallback: r.fallbackComment(scopes),
		Lookback: r.lookbackLimit(scopes),
	}

	for _, s := range scopes {
		rs := s.RoleScope(role)
		if contains(rs.Forbid, p.Name) {
			d.Level = config.LevelForbid
			return d
		}
	}
	for _, s := range scopes {
		rs := s.RoleScope(role)
		if contains(rs.Allow, p.Name) {
			d.Level = config.LevelAllow
			return d
		}
	}
	for _, s := range scopes {
		rs := s.RoleScope(role)
		if pats, ok := rs.Patterns[p.Name]; ok && len(pats) > 0 {
			d.Level = config.LevelComment
			d.Patterns = pats
			return d
		}
	}
	if role == config.RoleTest {
		d.Level = config.LevelAllow
		return d
	}

	switch p.Action {
	case adapter.ActionForbid:
		d.Level = config.LevelForbid
	case adapter.ActionComment:
		d.Level = config.LevelComment
		d.Patterns = []string{p.Comment}
	default:
		d.Level = config.LevelAllow
	}
	return d
}

func (r *Resolver) fallbackComment(scopes []*config.SuppressPolicy) string {
	for _, s := range scopes {
		if s.Comment != "" {
			return s.Comment
		}
	}
	return config.DefaultComment
}

func (r *Resolver) lookbackLimit(scopes []*config.SuppressPolicy) int {
	for _, s := range scopes {
		if s.LookbackLimit > 0 {
			return s.LookbackLimit
		}
	}
	return 0
}

func contains(list []string, v string) bool {
	for _, e := range list {
		if e == v {
			return true
		}
	}
	return false
}
