package adapter

import "regexp"

// Shell: # shellcheck disable=SC2034,SC2086. Capture 1 is the code list.
var shellDirective = &DirectiveSyntax{
	Marker:    "shellcheck",
	Matcher:   regexp.MustCompile(`#\s*shellcheck\s+disable=([A-Za-z0-9,]+)`),
	Separator: ",",
}

func newShellAdapter() *Adapter {
	return &Adapter{
		Name:       "shell",
		Extensions: []string{"sh", "bash"},
		SourceGlobs: []string{
			"**/*.sh",
			"**/*.bash",
		},
		TestGlobs: []string{
			"*_test.sh",
			"test_*.sh",
			"tests/**",
		},
		ExcludeGlobs: nil,
		Escapes: []EscapePattern{
			{
				Name:    "set_plus_e",
				Pattern: regexp.MustCompile(`set \+e`),
				Action:  ActionComment,
				Comment: "# OK:",
				Advice:  "Error checking was disabled with 'set +e'. If intentional, add a # OK: comment explaining why.",
			},
			{
				Name:    "eval",
				Pattern: regexp.MustCompile(`\beval\s`),
				Action:  ActionComment,
				Comment: "# OK:",
				Advice:  "eval can execute arbitrary code. If this usage is safe, add a # OK: comment explaining why.",
			},
		},
		Directive:       shellDirective,
		CommentPrefixes: []string{"#"},
		Continuation:    ContinuationBackslash,
	}
}
