// Package search aggregates best-effort results from every searchable
// provider in parallel. Completeness beats latency here: all providers
// are awaited, and a provider that errors, times out, or matches
// nothing still contributes a deterministic fallback entry pointing at
// its own search page.
package search

import (
	"strings"
	"unicode"

	"github.com/apkfetch/apkfetch/internal/resolve"
)

// isSeparator matches the separators used to tokenize app names: any
// whitespace plus the usual title punctuation.
func isSeparator(r rune) bool {
	switch r {
	case ':', ',', '.', '-':
		return true
	}
	return unicode.IsSpace(r)
}

// minTokenLen drops short connective words from the app name before
// matching.
const minTokenLen = 3

// Relevant decides whether a provider result title concerns the
// requested app. The title is accepted when any app-name token of at
// least minTokenLen characters appears in it, or when the last
// dot-separated segment of the package id does.
//
// The package-tail fallback can match unrelated titles when a package
// ends in a generic word ("pro", "app"). That looseness is inherited
// behavior, covered by an explicit test rather than tightened here.
func Relevant(title, appName, packageID string) bool {
	if title == "" {
		return false
	}
	t := strings.ToLower(title)

	for _, tok := range strings.FieldsFunc(strings.ToLower(appName), isSeparator) {
		if len(tok) >= minTokenLen && strings.Contains(t, tok) {
			return true
		}
	}
	if packageID != "" && strings.Contains(t, strings.ToLower(resolve.PackageTail(packageID))) {
		return true
	}
	return false
}
