package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/apkfetch/apkfetch/internal/httputil"
	"github.com/apkfetch/apkfetch/internal/log"
	"github.com/apkfetch/apkfetch/internal/provider"
	"github.com/apkfetch/apkfetch/internal/scrape"
)

const (
	// DefaultTimeout bounds each provider search request.
	DefaultTimeout = 10 * time.Second

	// maxItems caps how many result items are considered per provider.
	maxItems = 3

	// titleLimit caps result title length.
	titleLimit = 60

	// pageReadLimit bounds how much of a search page is parsed.
	pageReadLimit = 500_000
)

// Result is one provider's contribution to an aggregate search. When
// Found is false, URL carries the provider's own search page so the
// caller always has a usable fallback link.
type Result struct {
	Provider string `json:"name"`
	Icon     string `json:"icon"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Found    bool   `json:"found"`
}

// Aggregator fans a query out to every searchable provider.
type Aggregator struct {
	providers []provider.Descriptor
	client    *http.Client
	timeout   time.Duration
	logger    log.Logger
}

// AggregatorOptions configures an Aggregator.
type AggregatorOptions struct {
	// HTTPClient for search requests. If nil, a probe-profile client
	// is constructed.
	HTTPClient *http.Client

	// Timeout bounds each provider request. Default: DefaultTimeout.
	Timeout time.Duration

	// Logger for per-provider outcomes. If nil, uses log.Default().
	Logger log.Logger
}

// NewAggregator builds an aggregator over the searchable providers of
// set, in declaration order.
func NewAggregator(set *provider.Set, opts AggregatorOptions) *Aggregator {
	a := &Aggregator{
		providers: set.Searchable(),
		client:    opts.HTTPClient,
		timeout:   opts.Timeout,
		logger:    opts.Logger,
	}
	if a.client == nil {
		a.client = httputil.NewClient(httputil.ProbeOptions())
	}
	if a.timeout <= 0 {
		a.timeout = DefaultTimeout
	}
	if a.logger == nil {
		a.logger = log.Default()
	}
	return a
}

// SearchAll queries every provider concurrently and returns one Result
// per provider in declaration order, regardless of completion order.
// The returned slice length always equals the provider count.
func (a *Aggregator) SearchAll(ctx context.Context, appName, packageID string) []Result {
	results := make([]Result, len(a.providers))

	var g errgroup.Group
	for i, d := range a.providers {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()

			hit, err := a.searchOne(pctx, d, appName, packageID)
			if err != nil {
				a.logger.Debug("provider search failed", "provider", d.Name, "error", err)
			}
			if hit != nil {
				results[i] = *hit
				return nil
			}
			results[i] = fallbackResult(d, appName, packageID)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; misses become fallbacks

	return results
}

// searchOne fetches a provider's search page and returns its first
// relevant item, or nil on miss.
func (a *Aggregator) searchOne(ctx context.Context, d provider.Descriptor, appName, packageID string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL(d, appName, packageID), nil)
	if err != nil {
		return nil, err
	}
	httputil.BrowserHeaders(req)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Referer", d.BaseURL)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search status %d", resp.StatusCode)
	}

	doc, err := scrape.ParseBounded(resp.Body, pageReadLimit)
	if err != nil {
		return nil, err
	}

	var hit *Result
	doc.Find(d.ItemSelector).EachWithBreak(func(i int, item *goquery.Selection) bool {
		if i >= maxItems {
			return false
		}
		title := itemTitle(item, d.TitleSelectors)
		link, _ := item.Find("a").First().Attr("href")
		link = scrape.Absolutize(link, d.BaseURL+"/")

		if title == "" || link == "" || !Relevant(title, appName, packageID) {
			return true
		}
		title = truncateTitle(title, titleLimit)
		hit = &Result{Provider: d.Name, Icon: d.Icon, Title: title, URL: link, Found: true}
		return false
	})
	return hit, nil
}

// itemTitle tries the descriptor's title selectors in order and
// returns the first non-empty text.
func itemTitle(item *goquery.Selection, selectors []string) string {
	for _, sel := range selectors {
		if title := scrape.CollapseText(item.Find(sel).First()); title != "" {
			return title
		}
	}
	return ""
}

// searchURL expands a descriptor's search template for the query term.
// The display name is preferred over the raw package id.
func searchURL(d provider.Descriptor, appName, packageID string) string {
	term := appName
	if term == "" {
		term = packageID
	}
	out := strings.ReplaceAll(d.SearchURL, "{query}", url.QueryEscape(term))
	return strings.ReplaceAll(out, "{pkg}", packageID)
}

// truncateTitle caps a title at limit bytes without splitting a rune.
func truncateTitle(title string, limit int) string {
	if len(title) <= limit {
		return title
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(title[cut]) {
		cut--
	}
	return title[:cut]
}

func fallbackResult(d provider.Descriptor, appName, packageID string) Result {
	return Result{
		Provider: d.Name,
		Icon:     d.Icon,
		Title:    "Search on " + d.Name,
		URL:      searchURL(d, appName, packageID),
		Found:    false,
	}
}
