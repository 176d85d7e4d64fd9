// Package internal provides the lint engine that checks files of search queries.
//
// A query file holds one query per line. Blank lines are skipped and lines
// starting with '#' are comments, which may carry nolint directives for the
// query that follows them.
//
// Key components:
//
// Engine: The main linting engine. It holds the enabled syntax rules in
// evaluation order and reports at most one issue per query, for the first
// rule the query violates.
//
// LintRule: An interface wrapping a query syntax rule with the severity and
// suggestion the engine attaches to its issues.
//
// SourceCode: The lines of a query file, with the byte offset of each line.
//
// Cache: An on-disk cache of lint results, invalidated when a file or the
// configuration changes.
//
// Usage:
//
//	engine, err := internal.NewEngine("path/to/root/dir", nil)
//	if err != nil {
//	    // handle error
//	}
//
//	issues, err := engine.Run("path/to/saved.query")
//	if err != nil {
//	    // handle error
//	}
//
//	// Process the found issues
//	for _, issue := range issues {
//	    fmt.Printf("Found issue: %s at %s\n", issue.Message, issue.Start)
//	}
//
// This package is intended for internal use within the linting tool and should not be
// imported by external packages.
package internal
