package policy

import "strings"

// Justified reports whether a recognized justification accompanies the match
// at lines[idx]. The search checks, in order:
//
//  1. The inline text already extracted from the match line, if any.
//  2. A trailing comment on the match line itself.
//  3. Upward through the contiguous comment block immediately above the
//     match. A blank line or a code line halts the search, as does the
//     lookback limit when positive.
//
// A pattern satisfies only at the start of a comment's content, never
// embedded mid-sentence, so "// VIOLATION: missing // SAFETY:" does not pass
// for "// SAFETY:".
func Justified(lines []string, idx int, inline string, d Decision, prefixes []string) bool {
	if idx < 0 || idx >= len(lines) {
		return false
	}
	if inline != "" && matchesAny(inline, d, prefixes) {
		return true
	}
	if c, ok := trailingComment(lines[idx], prefixes); ok && matchesAny(c, d, prefixes) {
		return true
	}

	steps := 0
	for i := idx - 1; i >= 0; i-- {
		if d.Lookback > 0 {
			steps++
			if steps > d.Lookback {
				return false
			}
		}
		t := strings.TrimSpace(lines[i])
		if t == "" || !isComment(t, prefixes) {
			return false
		}
		if matchesAny(t, d, prefixes) {
			return true
		}
	}
	return false
}

func matchesAny(text string, d Decision, prefixes []string) bool {
	for _, p := range d.Patterns {
		if startsWithPattern(text, p, prefixes) {
			return true
		}
	}
	return d.Fallback != "" && startsWithPattern(text, d.Fallback, prefixes)
}

// startsWithPattern strips comment markers from both sides and requires the
// pattern content at the start of the comment content.
func startsWithPattern(text, pattern string, prefixes []string) bool {
	return strings.HasPrefix(stripMarkers(text, prefixes), stripMarkers(pattern, prefixes))
}

func stripMarkers(s string, prefixes []string) string {
	t := strings.TrimSpace(s)
	for _, p := range prefixes {
		if rest, ok := strings.CutPrefix(t, p); ok {
			return strings.TrimSpace(rest)
		}
	}
	return t
}

func isComment(trimmed string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(trimmed, p) {
			return true
		}
	}
	return false
}

// trailingComment extracts a trailing line comment from a code line.
// Only the marker kinds the adapter declares are considered.
func trailingComment(line string, prefixes []string) (string, bool) {
	best := -1
	for _, p := range prefixes {
		// Block-continuation markers never open a trailing comment.
		if p == "*" {
			continue
		}
		if pos := strings.Index(line, p); pos > 0 && (best == -1 || pos < best) {
			if p == "#" && line[pos-1] != ' ' && line[pos-1] != '\t' {
				continue
			}
			best = pos
		}
	}
	if best == -1 {
		return "", false
	}
	return line[best:], true
}
