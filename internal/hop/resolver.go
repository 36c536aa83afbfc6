package hop

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/apkfetch/apkfetch/internal/httputil"
	"github.com/apkfetch/apkfetch/internal/log"
	"github.com/apkfetch/apkfetch/internal/provider"
	"github.com/apkfetch/apkfetch/internal/scrape"
)

const (
	// maxHops bounds the fetch-classify-extract cycles per resolution.
	maxHops = 8

	// maxFetchAttempts bounds retries of a single hop address on
	// transport failure.
	maxFetchAttempts = 2

	// landingReadLimit caps how much of a landing page body is read
	// for extraction.
	landingReadLimit = 500_000
)

// ErrTooManyHops is returned when a landing chain exceeds maxHops
// without reaching a binary response.
var ErrTooManyHops = errors.New("hop limit exceeded while chasing landing pages")

// ExtractionError reports a landing page that yielded no next address.
type ExtractionError struct {
	URL string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("no download link found on %s", e.URL)
}

// ContentError reports a response that is neither binary nor a landing
// page.
type ContentError struct {
	URL         string
	ContentType string
}

func (e *ContentError) Error() string {
	return fmt.Sprintf("unexpected content type %q from %s", e.ContentType, e.URL)
}

// TransportError reports a hop address that could not be fetched after
// bounded retries.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Result is a terminal binary response. Response.Body is live and
// unconsumed; the caller owns it and must close it.
type Result struct {
	Response *http.Response
	FinalURL string
	Hops     int
}

// Resolver follows landing chains. One Follow invocation owns its hop
// state exclusively; the Resolver itself is safe for concurrent use.
type Resolver struct {
	client    *http.Client
	providers *provider.Set
	logger    log.Logger
}

// Options configures a Resolver.
type Options struct {
	// Client performs hop fetches. If nil, a download-profile client
	// is constructed.
	Client *http.Client

	// Providers supplies host-matched landing extraction rules.
	// If nil, the built-in defaults are used.
	Providers *provider.Set

	// Logger for hop transitions. If nil, uses log.Default().
	Logger log.Logger
}

// NewResolver builds a hop resolver.
func NewResolver(opts Options) *Resolver {
	r := &Resolver{
		client:    opts.Client,
		providers: opts.Providers,
		logger:    opts.Logger,
	}
	if r.client == nil {
		r.client = httputil.NewClient(httputil.DownloadOptions())
	}
	if r.providers == nil {
		r.providers = provider.Defaults()
	}
	if r.logger == nil {
		r.logger = log.Default()
	}
	return r
}

// Follow chases landing pages from startURL until it reaches a binary
// response or fails. On success the returned response body has not
// been read; the caller streams it onward.
func (r *Resolver) Follow(ctx context.Context, startURL string) (*Result, error) {
	current := startURL
	for hops := 0; ; hops++ {
		resp, err := r.fetch(ctx, current)
		if err != nil {
			return nil, err
		}

		ct := resp.Header.Get("Content-Type")
		class := Classify(ct, resp.ContentLength)
		r.logger.Debug("hop classified", "url", current, "class", class.String(), "content_type", ct, "hops", hops)

		switch class {
		case ClassBinary:
			return &Result{Response: resp, FinalURL: current, Hops: hops}, nil

		case ClassLanding:
			next := r.extractNext(resp, current)
			resp.Body.Close()
			if next == "" {
				return nil, &ExtractionError{URL: current}
			}
			if hops+1 >= maxHops {
				return nil, ErrTooManyHops
			}
			r.logger.Debug("hop extracted", "from", current, "to", next)
			current = next

		default:
			resp.Body.Close()
			return nil, &ContentError{URL: current, ContentType: ct}
		}
	}
}

// fetch issues a GET with browser headers and an origin Referer,
// retrying transport failures on the same address a bounded number of
// times. A non-2xx status after the client's own redirect following
// counts as a transport failure.
func (r *Resolver) fetch(ctx context.Context, target string) (*http.Response, error) {
	var lastErr error
	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, &TransportError{URL: target, Err: err}
		}
		httputil.BrowserHeaders(req)
		if ref := httputil.Referer(target); ref != "" {
			req.Header.Set("Referer", ref)
		}

		resp, err := r.client.Do(req)
		if err != nil {
			lastErr = err
		} else if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
		} else {
			return resp, nil
		}

		if ctx.Err() != nil {
			break
		}
		r.logger.Warn("hop fetch retry", "url", target, "attempt", attempt, "error", lastErr)
	}
	return nil, &TransportError{URL: target, Err: lastErr}
}

// extractNext reads a bounded prefix of a landing body and applies
// extraction rules in precedence order: provider rules matched by the
// current host, then the generic artifact-extension and
// download-affordance rules. Returns "" when nothing matches.
func (r *Resolver) extractNext(resp *http.Response, current string) string {
	doc, err := scrape.ParseBounded(resp.Body, landingReadLimit)
	if err != nil {
		r.logger.Warn("landing parse failed", "url", current, "error", err)
		return ""
	}

	var rules []scrape.LinkRule
	if u, err := url.Parse(current); err == nil {
		if d := r.providers.ForHost(u.Host); d != nil {
			rules = append(rules, d.LandingRules...)
		}
	}
	rules = append(rules, scrape.GenericRules()...)

	return scrape.Absolutize(scrape.FirstMatch(doc, rules), current)
}
