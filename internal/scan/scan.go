// Package scan turns file contents into raw escape and suppression matches
// using an adapter's pattern table. It never decides violations; the escapes
// check applies policy to its output.
package scan

import (
	"context"
	"strings"
	"time"

	"github.com/quench-dev/quench/internal/adapter"
)

// bracket-joined constructs are bounded so a malformed file cannot drag one
// logical line across the whole buffer.
const maxJoinedLines = 16

// deadline checks happen every deadlineStride logical lines.
const deadlineStride = 256

// Match is one raw pattern hit on a logical line.
type Match struct {
	// Line is the 1-based physical line where the logical line starts.
	Line int

	// Pattern is set for escape-hatch matches.
	Pattern *adapter.EscapePattern

	// Codes and Inline are set for suppression directive matches. Codes may
	// be empty for blanket suppressions.
	Codes  []string
	Inline string

	// Text is the joined logical line, kept for reporting.
	Text string
}

// FileScan is the raw scan output for one file.
type FileScan struct {
	// Lines are the physical lines, retained for justification lookback.
	Lines []string

	Escapes    []Match
	Directives []Match

	// TimedOut reports that the scan budget expired. Matches gathered before
	// expiry are discarded; a partial scan must never emit violations.
	TimedOut bool
}

// File scans one file's contents. The timeout is a wall-clock budget for this
// file alone; zero means no budget. Cancellation via ctx is honored at the
// same granularity.
func File(ctx context.Context, content []byte, a *adapter.Adapter, timeout time.Duration) *FileScan {
	out := &FileScan{Lines: splitLines(content)}
	if len(a.Escapes) == 0 && a.Directive == nil {
		return out
	}

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	logical := 0
	for i := 0; i < len(out.Lines); {
		logical++
		if logical%deadlineStride == 0 {
			if ctx.Err() != nil || (!deadline.IsZero() && time.Now().After(deadline)) {
				out.Escapes, out.Directives = nil, nil
				out.TimedOut = true
				return out
			}
		}

		text, consumed := joinLogical(out.Lines, i, a)
		matchLine(out, text, i+1, a)
		i += consumed
	}
	return out
}

func matchLine(out *FileScan, text string, lineNo int, a *adapter.Adapter) {
	commentStart := findCommentStart(text)

	for p := range a.Escapes {
		ep := &a.Escapes[p]
		loc := ep.Pattern.FindStringIndex(text)
		if loc == nil {
			continue
		}
		if !ep.MatchInComments && commentStart >= 0 && loc[0] >= commentStart {
			continue
		}
		out.Escapes = append(out.Escapes, Match{Line: lineNo, Pattern: ep, Text: text})
	}

	if codes, inline, ok := a.Directive.ParseCodes(text); ok {
		out.Directives = append(out.Directives, Match{
			Line:   lineNo,
			Codes:  codes,
			Inline: inline,
			Text:   text,
		})
	}
}

// joinLogical joins physical lines starting at idx into one logical line per
// the adapter's continuation style, returning the joined text and the number
// of physical lines consumed.
func joinLogical(lines []string, idx int, a *adapter.Adapter) (string, int) {
	line := lines[idx]
	switch a.Continuation {
	case adapter.ContinuationBackslash:
		consumed := 1
		for strings.HasSuffix(strings.TrimRight(line, " \t"), `\`) &&
			idx+consumed < len(lines) && consumed < maxJoinedLines {
			trimmed := strings.TrimRight(line, " \t")
			line = trimmed[:len(trimmed)-1] + " " + strings.TrimSpace(lines[idx+consumed])
			consumed++
		}
		return line, consumed

	case adapter.ContinuationBracket:
		// Only directive-shaped lines join on open brackets. Joining plain
		// code would swallow whole blocks into one logical line.
		if a.Directive == nil || !strings.HasPrefix(strings.TrimSpace(line), a.Directive.Marker) {
			return line, 1
		}
		consumed := 1
		for bracketDepth(line) > 0 && idx+consumed < len(lines) && consumed < maxJoinedLines {
			line = line + " " + strings.TrimSpace(lines[idx+consumed])
			consumed++
		}
		return line, consumed

	default:
		return line, 1
	}
}

// bracketDepth counts unclosed (, [ and { pairs, skipping string literals.
func bracketDepth(line string) int {
	depth := 0
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'', '`':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		}
	}
	return depth
}

// findCommentStart locates the first line-comment marker, or -1. The "#"
// marker only counts at line start or after whitespace so fragment strings
// like "a#b" stay code.
func findCommentStart(line string) int {
	slash := strings.Index(line, "//")
	hash := -1
	for pos := strings.IndexByte(line, '#'); pos >= 0; {
		if pos == 0 || line[pos-1] == ' ' || line[pos-1] == '\t' {
			hash = pos
			break
		}
		next := strings.IndexByte(line[pos+1:], '#')
		if next < 0 {
			break
		}
		pos += 1 + next
	}
	switch {
	case slash < 0:
		return hash
	case hash < 0:
		return slash
	case slash < hash:
		return slash
	default:
		return hash
	}
}

// splitLines splits on \n and tolerates \r\n endings.
func splitLines(content []byte) []string {
	lines := strings.Split(string(content), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}
