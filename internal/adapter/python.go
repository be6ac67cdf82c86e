package adapter

import "regexp"

// Python: # noqa or # noqa: A101,B202. Capture 1 is the code list; noqa has
// no inline-reason form.
var pythonDirective = &DirectiveSyntax{
	Marker:    "noqa",
	Matcher:   regexp.MustCompile(`#\s*noqa:?\s*([A-Za-z0-9_,\s]*)$`),
	Separator: ",",
}

func newPythonAdapter() *Adapter {
	return &Adapter{
		Name:       "python",
		Extensions: []string{"py"},
		SourceGlobs: []string{
			"**/*.py",
		},
		TestGlobs: []string{
			"test_*.py",
			"*_test.py",
			"tests/**",
			"**/tests/**",
		},
		ExcludeGlobs: []string{
			".venv/**",
			"venv/**",
			"**/__pycache__/**",
		},
		Escapes: []EscapePattern{
			{
				Name:    "breakpoint",
				Pattern: regexp.MustCompile(`\bbreakpoint\s*\(`),
				Action:  ActionForbid,
				Advice:  "Remove breakpoint() before committing.",
			},
			{
				Name:    "pdb_set_trace",
				Pattern: regexp.MustCompile(`\bpdb\.set_trace\s*\(`),
				Action:  ActionForbid,
				Advice:  "Remove pdb.set_trace() before committing.",
			},
			{
				Name:    "eval",
				Pattern: regexp.MustCompile(`\beval\s*\(`),
				Action:  ActionComment,
				Comment: "# EVAL:",
				Advice:  "Add a # EVAL: comment explaining why eval is necessary.",
			},
			{
				Name:    "exec",
				Pattern: regexp.MustCompile(`\bexec\s*\(`),
				Action:  ActionComment,
				Comment: "# EXEC:",
				Advice:  "Add a # EXEC: comment explaining why exec is necessary.",
			},
			{
				Name:    "dynamic_import",
				Pattern: regexp.MustCompile(`\b__import__\s*\(`),
				Action:  ActionComment,
				Comment: "# DYNAMIC:",
				Advice:  "Add a # DYNAMIC: comment explaining why __import__ is necessary.",
			},
		},
		Directive:       pythonDirective,
		CommentPrefixes: []string{"#"},
		Continuation:    ContinuationBackslash,
	}
}
