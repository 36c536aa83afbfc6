// Package hop follows a chain of landing pages from a candidate URL to
// the final artifact response. Each hop fetches the current address,
// classifies the response, and either emits the live binary stream or
// extracts the next address to visit, bounded by a fixed hop limit.
package hop

import "strings"

// Class is the outcome of classifying one response.
type Class int

const (
	// ClassBinary is a terminal artifact response; no further hops.
	ClassBinary Class = iota

	// ClassLanding is an HTML page expected to contain a link onward.
	ClassLanding

	// ClassUnexpected is anything else and fails the resolution.
	ClassUnexpected
)

func (c Class) String() string {
	switch c {
	case ClassBinary:
		return "binary"
	case ClassLanding:
		return "landing"
	default:
		return "unexpected"
	}
}

// binarySizeThreshold distinguishes a real artifact from an error or
// placeholder page when a provider labels the response with a vague
// application/* content type. Misdelivered pages stay well under it;
// APKs are megabytes.
const binarySizeThreshold = 100_000

// Classify is a pure function of response metadata. Android-package
// and octet-stream types are binary outright; any other non-HTML
// application type counts as binary only when the declared length
// clears the size threshold. HTML (including XHTML) is a landing page.
// An unknown length never satisfies the size rule.
func Classify(contentType string, contentLength int64) Class {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "android"), strings.Contains(ct, "octet-stream"):
		return ClassBinary
	case strings.Contains(ct, "application") && !strings.Contains(ct, "html") && contentLength > binarySizeThreshold:
		return ClassBinary
	case strings.Contains(ct, "html"):
		return ClassLanding
	default:
		return ClassUnexpected
	}
}
