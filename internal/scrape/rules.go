// Package scrape implements declarative link extraction over parsed
// HTML. Provider-specific scraping knowledge is expressed as LinkRule
// values, not code: a CSS selector plus optional substring and pattern
// constraints on the href. Rules are applied in order and the first
// non-empty match wins.
package scrape

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// LinkRule selects one link target from a document.
type LinkRule struct {
	// Selector is the CSS selector scanned for candidate anchors.
	Selector string

	// Contains, when non-empty, requires the href to contain the
	// substring.
	Contains string

	// Exclude, when non-empty, rejects hrefs containing the substring.
	Exclude string

	// Pattern, when non-nil, requires the href to match.
	Pattern *regexp.Regexp
}

// Apply returns the href of the first anchor satisfying the rule, or ""
// if nothing matches.
func (r LinkRule) Apply(doc *goquery.Document) string {
	var found string
	doc.Find(r.Selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return true
		}
		if r.Contains != "" && !strings.Contains(href, r.Contains) {
			return true
		}
		if r.Exclude != "" && strings.Contains(href, r.Exclude) {
			return true
		}
		if r.Pattern != nil && !r.Pattern.MatchString(href) {
			return true
		}
		found = href
		return false
	})
	return found
}

// FirstMatch applies rules in order and returns the first non-empty
// href, or "" if no rule matched.
func FirstMatch(doc *goquery.Document, rules []LinkRule) string {
	for _, r := range rules {
		if href := r.Apply(doc); href != "" {
			return href
		}
	}
	return ""
}

// apkHref matches direct artifact links: path ends in .apk, optionally
// followed by a query string. The xapk bundle variant is excluded
// separately since it is not directly installable.
var apkHref = regexp.MustCompile(`(?i)\.apk($|\?)`)

// GenericRules returns the fallback rules applied when no
// provider-specific rule matches a landing page: any direct .apk link
// first, then any anchor carrying a conventional download affordance.
func GenericRules() []LinkRule {
	return []LinkRule{
		{Selector: "a", Pattern: apkHref, Exclude: "xapk"},
		{Selector: "a.download-button, a.download-btn, a[download]"},
	}
}
