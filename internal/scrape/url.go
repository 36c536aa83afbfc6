package scrape

import (
	"net/url"
	"strings"
)

// Absolutize resolves href against the page it was found on. Absolute
// hrefs pass through unchanged; root-relative and path-relative forms
// are resolved using the page URL's scheme and host. Returns "" when
// the page URL is unusable.
func Absolutize(href, pageURL string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	base, err := url.Parse(pageURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return ""
	}
	origin := base.Scheme + "://" + base.Host
	if strings.HasPrefix(href, "//") {
		return base.Scheme + ":" + href
	}
	if strings.HasPrefix(href, "/") {
		return origin + href
	}
	return origin + "/" + href
}
