package adapter

// newGenericAdapter builds the fallback adapter for files no language
// claims. It carries no escape patterns and no directive syntax, so generic
// files are classified (for line counting and metrics) but never scanned.
func newGenericAdapter() *Adapter {
	return &Adapter{
		Name:       "generic",
		Extensions: nil,
		// Empty source globs: every unexcluded, untested file stays "other".
		SourceGlobs: nil,
		TestGlobs: []string{
			"tests/**",
			"test/**",
			"*_test.*",
			"*.test.*",
		},
		ExcludeGlobs: []string{
			".git/**",
			"node_modules/**",
			"target/**",
			"vendor/**",
		},
		CommentPrefixes: []string{"//", "#"},
		Continuation:    ContinuationNone,
	}
}
