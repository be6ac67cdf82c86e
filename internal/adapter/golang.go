package adapter

import "regexp"

// Go: //nolint or //nolint:code1,code2, optionally followed by an inline
// reason (//nolint:errcheck // best effort close). Capture 1 is the code
// list, capture 2 the inline reason.
var goDirective = &DirectiveSyntax{
	Marker:    "//nolint",
	Matcher:   regexp.MustCompile(`//nolint:?([^ /]*)(?:\s*//\s*(.*))?$`),
	Separator: ",",
}

func newGoAdapter() *Adapter {
	return &Adapter{
		Name:       "go",
		Extensions: []string{"go"},
		SourceGlobs: []string{
			"**/*.go",
		},
		TestGlobs: []string{
			"*_test.go",
		},
		ExcludeGlobs: []string{
			"vendor/**",
		},
		Escapes: []EscapePattern{
			{
				Name:    "unsafe_pointer",
				Pattern: regexp.MustCompile(`unsafe\.Pointer`),
				Action:  ActionComment,
				Comment: "// SAFETY:",
				Advice:  "Add a // SAFETY: comment explaining pointer validity.",
			},
			{
				Name:            "go_linkname",
				Pattern:         regexp.MustCompile(`//go:linkname`),
				Action:          ActionComment,
				Comment:         "// LINKNAME:",
				MatchInComments: true,
				Advice:          "Add a // LINKNAME: comment explaining the external symbol dependency.",
			},
			{
				Name:            "go_noescape",
				Pattern:         regexp.MustCompile(`//go:noescape`),
				Action:          ActionComment,
				Comment:         "// NOESCAPE:",
				MatchInComments: true,
				Advice:          "Add a // NOESCAPE: comment explaining why escape analysis should be bypassed.",
			},
		},
		Directive:       goDirective,
		CommentPrefixes: []string{"//", "/*", "*"},
		Continuation:    ContinuationNone,
	}
}
