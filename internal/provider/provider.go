// Package provider holds the declarative descriptions of the content
// sources apkfetch consults. A Descriptor is pure data: where a source
// lives, how to probe or search it, and which extraction rules apply to
// its landing pages. Descriptors are loaded once at startup and shared
// read-only across all concurrent operations.
package provider

import (
	"strings"

	"github.com/apkfetch/apkfetch/internal/scrape"
)

// Download tiers. Tier 1 sources are cheap existence checks against
// direct content-delivery URLs and are raced first-success-wins. Tier 2
// sources require a page fetch and scrape, and are only consulted when
// tier 1 yields nothing.
const (
	TierNone = 0 // search-only source
	TierCDN  = 1
	TierPage = 2
)

// Descriptor describes one content source. Immutable after load.
type Descriptor struct {
	// Name identifies the source in responses and logs.
	Name string `toml:"name"`

	// Icon is a short display tag attached to search results.
	Icon string `toml:"icon"`

	// BaseURL is the source's origin, used to absolutize scraped
	// links and as the Referer on search requests.
	BaseURL string `toml:"base_url"`

	// Tier places the source in the download-resolution order.
	// TierNone sources only participate in search aggregation.
	Tier int `toml:"tier"`

	// ProbeURL is the direct artifact template for TierCDN sources.
	// {pkg} expands to the package id.
	ProbeURL string `toml:"probe_url"`

	// ProbeReferer overrides the Referer sent with TierCDN probes.
	// Some CDNs only serve requests referred by their storefront.
	ProbeReferer string `toml:"probe_referer"`

	// PageURL is the TierPage lookup template. {pkg} expands to the
	// package id, {query} to its URL-escaped form.
	PageURL string `toml:"page_url"`

	// CandidateRule selects the app link on a TierPage lookup result.
	// {tail} in Contains expands to the last dot-separated segment of
	// the package id at probe time.
	CandidateRule scrape.LinkRule `toml:"-"`

	// CandidateSuffix is appended to the absolutized app link to form
	// the candidate download URL.
	CandidateSuffix string `toml:"candidate_suffix"`

	// HostMarker identifies landing pages this source owns: a landing
	// URL whose host contains the marker is extracted with
	// LandingRules before the generic fallbacks.
	HostMarker string `toml:"host_marker"`

	// LandingRules are the ordered provider-specific extraction rules.
	LandingRules []scrape.LinkRule `toml:"-"`

	// SearchURL is the search template for the aggregator. {query}
	// expands to the URL-escaped query term, {pkg} to the package id.
	SearchURL string `toml:"search_url"`

	// ItemSelector selects result items on the search page.
	ItemSelector string `toml:"item_selector"`

	// TitleSelectors are tried in order inside each item; the first
	// non-empty text wins.
	TitleSelectors []string `toml:"title_selectors"`
}

// Searchable reports whether the source participates in search
// aggregation.
func (d *Descriptor) Searchable() bool {
	return d.SearchURL != ""
}

// Set is an ordered, immutable collection of descriptors. Order is
// declaration order and determines aggregate result order.
type Set struct {
	descriptors []Descriptor
}

// NewSet builds a Set preserving declaration order.
func NewSet(descriptors []Descriptor) *Set {
	return &Set{descriptors: descriptors}
}

// All returns the descriptors in declaration order. Callers must not
// mutate the returned slice.
func (s *Set) All() []Descriptor {
	return s.descriptors
}

// Tier returns the descriptors in the given download tier, in
// declaration order.
func (s *Set) Tier(tier int) []Descriptor {
	var out []Descriptor
	for _, d := range s.descriptors {
		if d.Tier == tier {
			out = append(out, d)
		}
	}
	return out
}

// Searchable returns the sources with search capability, in
// declaration order.
func (s *Set) Searchable() []Descriptor {
	var out []Descriptor
	for _, d := range s.descriptors {
		if d.Searchable() {
			out = append(out, d)
		}
	}
	return out
}

// ForHost returns the descriptor owning landing pages on host, or nil.
// Ownership is marker containment, matching how the original sources
// spread landing chains across host variants (www., mirror hosts).
func (s *Set) ForHost(host string) *Descriptor {
	for i := range s.descriptors {
		d := &s.descriptors[i]
		if d.HostMarker != "" && strings.Contains(host, d.HostMarker) {
			return d
		}
	}
	return nil
}
