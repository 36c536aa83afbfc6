// Package resolve turns a package id into a candidate download URL by
// racing content providers in priority tiers. Tier 1 sources are cheap
// direct-CDN existence checks raced first-success-wins; tier 2 sources
// are heavier page scrapes that are all awaited, with ties broken by
// provider declaration order so resolution is deterministic.
//
// A probe that finds nothing returns (nil, nil): absence is a normal
// value, not an error. Probe errors are absorbed per provider and
// aggregated into the NotFoundError for diagnostics; they never abort
// a sibling's work.
package resolve

import (
	"context"
	"fmt"
	"regexp"
)

// Candidate is a provider-asserted URL believed to lead to (or
// directly be) the artifact. Consumed once by the hop resolver.
type Candidate struct {
	URL    string
	Source string
}

// Prober checks one provider for a candidate. Implementations return
// (nil, nil) when the provider has no candidate for the package.
type Prober interface {
	Name() string
	Probe(ctx context.Context, packageID string) (*Candidate, error)
}

// NotFoundError reports that no tier yielded a candidate. Causes
// carries the absorbed per-provider errors, if any, for logging.
type NotFoundError struct {
	Package string
	Causes  error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no provider has an artifact for %q", e.Package)
}

// Unwrap exposes the aggregated probe errors to errors.Is/As.
func (e *NotFoundError) Unwrap() error {
	return e.Causes
}

// packageIDPattern validates package ids: alphanumeric/underscore
// segments joined by single dots.
var packageIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+(\.[a-zA-Z0-9_]+)+$`)

// ValidPackageID reports whether id is a well-formed package
// identifier.
func ValidPackageID(id string) bool {
	return packageIDPattern.MatchString(id)
}

// PackageTail returns the last dot-separated segment of a package id,
// e.g. "whatsapp" for "com.whatsapp".
func PackageTail(id string) string {
	for i := len(id) - 1; i >= 0; i-- {
		if id[i] == '.' {
			return id[i+1:]
		}
	}
	return id
}
