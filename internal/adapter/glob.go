package adapter

import (
	"path"
	"strings"
)

// MatchGlob matches a slash-separated relative path against a glob pattern.
//
// Pattern semantics:
//   - A pattern without a slash matches the file's base name anywhere in the
//     tree ("*_test.go" matches "internal/x/y_test.go").
//   - "**" matches any number of path segments, including zero.
//   - Every other segment uses path.Match syntax.
func MatchGlob(pattern, relPath string) bool {
	if !strings.Contains(pattern, "/") {
		ok, err := path.Match(pattern, path.Base(relPath))
		return err == nil && ok
	}
	return matchSegments(strings.Split(pattern, "/"), strings.Split(relPath, "/"))
}

// MatchAny reports whether any pattern in the set matches.
func MatchAny(patterns []string, relPath string) bool {
	for _, p := range patterns {
		if MatchGlob(p, relPath) {
			return true
		}
	}
	return false
}

func matchSegments(pattern, segs []string) bool {
	if len(pattern) == 0 {
		return len(segs) == 0
	}
	if pattern[0] == "**" {
		// Zero or more segments.
		for i := 0; i <= len(segs); i++ {
			if matchSegments(pattern[1:], segs[i:]) {
				return true
			}
		}
		return false
	}
	if len(segs) == 0 {
		return false
	}
	ok, err := path.Match(pattern[0], segs[0])
	if err != nil || !ok {
		return false
	}
	return matchSegments(pattern[1:], segs[1:])
}
