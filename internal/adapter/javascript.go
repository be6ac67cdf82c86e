package adapter

import "regexp"

// JavaScript/TypeScript: eslint-disable family, optionally with a code list
// and an inline reason after " -- ". Capture 1 is the code list, capture 2
// the inline reason.
var jsDirective = &DirectiveSyntax{
	Marker:    "eslint-disable",
	Matcher:   regexp.MustCompile(`eslint-disable(?:-next-line|-line)?\s*([^*/]*?)(?:\s+--\s+(.*?))?\s*(?:\*/)?$`),
	Separator: ",",
}

func newJavaScriptAdapter() *Adapter {
	return &Adapter{
		Name:       "javascript",
		Extensions: []string{"js", "jsx", "ts", "tsx", "mjs", "cjs"},
		SourceGlobs: []string{
			"**/*.js", "**/*.jsx", "**/*.ts", "**/*.tsx", "**/*.mjs", "**/*.cjs",
		},
		TestGlobs: []string{
			"*.test.js", "*.test.jsx", "*.test.ts", "*.test.tsx",
			"*.spec.js", "*.spec.ts",
			"**/__tests__/**",
		},
		ExcludeGlobs: []string{
			"node_modules/**",
			"dist/**",
			"build/**",
			"*.d.ts",
		},
		Escapes: []EscapePattern{
			{
				Name:    "as_any",
				Pattern: regexp.MustCompile(`as\s+any\b`),
				Action:  ActionComment,
				Comment: "// CAST:",
				Advice:  "Add a // CAST: comment explaining why the type assertion is necessary.",
			},
			{
				Name:    "as_unknown",
				Pattern: regexp.MustCompile(`as\s+unknown\b`),
				Action:  ActionComment,
				Comment: "// CAST:",
				Advice:  "Add a // CAST: comment explaining why the type assertion is necessary.",
			},
			{
				Name:            "ts_ignore",
				Pattern:         regexp.MustCompile(`@ts-ignore`),
				Action:          ActionForbid,
				MatchInComments: true,
				Advice:          "@ts-ignore is forbidden. Use @ts-expect-error instead, which fails if the error is resolved.",
			},
			{
				Name:            "ts_nocheck",
				Pattern:         regexp.MustCompile(`@ts-nocheck`),
				Action:          ActionComment,
				Comment:         "// UNCHECKED:",
				MatchInComments: true,
				Advice:          "Add a // UNCHECKED: comment explaining why the whole file skips type checking.",
			},
		},
		Directive:       jsDirective,
		CommentPrefixes: []string{"//", "/*", "*"},
		Continuation:    ContinuationNone,
	}
}
