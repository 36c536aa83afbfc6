// Package playstore looks up package metadata on the Google Play
// storefront: canonical id extraction from store URLs, free-text name
// search, and per-app display info. The resolution pipeline consumes
// these as opaque collaborators; failures degrade to bare package ids
// rather than propagating.
package playstore

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/apkfetch/apkfetch/internal/httputil"
	"github.com/apkfetch/apkfetch/internal/scrape"
)

// readLimit bounds how much of a store page is parsed.
const readLimit = 2_000_000

var idParam = regexp.MustCompile(`[?&]id=([a-zA-Z0-9._]+)`)

// ExtractPackageID pulls the package id out of a store URL's id query
// parameter. Returns "" when none is present.
func ExtractPackageID(rawURL string) string {
	m := idParam.FindStringSubmatch(rawURL)
	if m == nil {
		return ""
	}
	return m[1]
}

// IsStoreURL reports whether input looks like a store address rather
// than a free-text app name.
func IsStoreURL(input string) bool {
	return strings.Contains(input, "play.google.com") || strings.Contains(input, "id=")
}

// StoreURL returns the canonical details address for a package id.
func StoreURL(packageID string) string {
	return "https://play.google.com/store/apps/details?id=" + packageID
}

// AppInfo is per-app display metadata. Always populated: lookups that
// fail fall back to the bare package id so callers retain display
// context.
type AppInfo struct {
	Name      string `json:"name"`
	PackageID string `json:"packageId"`
	Icon      string `json:"icon"`
}

// Client queries the storefront.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// ClientOptions configures a storefront client.
type ClientOptions struct {
	// HTTPClient for store requests. If nil, a probe-profile client
	// is constructed.
	HTTPClient *http.Client

	// BaseURL overrides the storefront origin, for tests.
	BaseURL string
}

// NewClient builds a storefront client.
func NewClient(opts ClientOptions) *Client {
	c := &Client{httpClient: opts.HTTPClient, baseURL: opts.BaseURL}
	if c.httpClient == nil {
		c.httpClient = httputil.NewClient(httputil.ProbeOptions())
	}
	if c.baseURL == "" {
		c.baseURL = "https://play.google.com"
	}
	return c
}

func (c *Client) get(ctx context.Context, target string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	httputil.BrowserHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("store status %d", resp.StatusCode)
	}
	return scrape.ParseBounded(resp.Body, readLimit)
}

// Search resolves a free-text app name to the best-guess package id.
// Returns "" when the store has no match.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	target := fmt.Sprintf("%s/store/search?q=%s&c=apps&hl=en", c.baseURL, url.QueryEscape(query))
	doc, err := c.get(ctx, target)
	if err != nil {
		return "", err
	}

	var found string
	doc.Find(`a[href*="/store/apps/details?id="]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if id := ExtractPackageID(href); id != "" {
			found = id
			return false
		}
		return true
	})
	return found, nil
}

// FetchAppInfo retrieves display metadata for a package id. Never
// returns an error: on any failure the bare id stands in for the name.
func (c *Client) FetchAppInfo(ctx context.Context, packageID string) AppInfo {
	info := AppInfo{Name: packageID, PackageID: packageID}

	doc, err := c.get(ctx, fmt.Sprintf("%s/store/apps/details?id=%s&hl=en", c.baseURL, packageID))
	if err != nil {
		return info
	}

	if name := scrape.CollapseText(doc.Find("h1 span").First()); name != "" {
		info.Name = name
	}
	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		if !strings.Contains(src, "play-lh.googleusercontent.com") {
			return true
		}
		// Normalize the CDN sizing suffix to a display thumbnail.
		info.Icon = strings.SplitN(src, "=", 2)[0] + "=w240-h240-rw"
		return false
	})
	return info
}
