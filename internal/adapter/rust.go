package adapter

import "regexp"

// Rust: #[allow(code1, code2)] and #[expect(...)] attributes, including the
// inner #![...] form. Capture 1 is the code list.
var rustDirective = &DirectiveSyntax{
	Marker:    "#",
	Matcher:   regexp.MustCompile(`#!?\[(?:allow|expect)\(([^)]*)\)\]`),
	Separator: ",",
}

// newRustAdapter builds the Rust adapter.
//
// .unwrap() and .expect() are deliberately absent: clippy's unwrap_used and
// expect_used lints own those, and quench checks that their suppressions are
// justified instead of re-detecting the calls.
func newRustAdapter() *Adapter {
	return &Adapter{
		Name:       "rust",
		Extensions: []string{"rs"},
		SourceGlobs: []string{
			"**/*.rs",
		},
		TestGlobs: []string{
			"tests/**",
			"**/tests/**",
			"**/benches/**",
			"*_test.rs",
			"*_tests.rs",
		},
		ExcludeGlobs: []string{
			"target/**",
		},
		Escapes: []EscapePattern{
			{
				Name:    "unsafe",
				Pattern: regexp.MustCompile(`unsafe\s*\{`),
				Action:  ActionComment,
				Comment: "// SAFETY:",
				Advice:  "Add a // SAFETY: comment explaining the invariants.",
			},
			{
				Name:    "transmute",
				Pattern: regexp.MustCompile(`mem::transmute`),
				Action:  ActionComment,
				Comment: "// SAFETY:",
				Advice:  "Add a // SAFETY: comment explaining type compatibility.",
			},
		},
		Directive:       rustDirective,
		CommentPrefixes: []string{"///", "//!", "//", "/*", "*"},
		Continuation:    ContinuationBracket,
	}
}
