package resolve

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/apkfetch/apkfetch/internal/httputil"
	"github.com/apkfetch/apkfetch/internal/provider"
	"github.com/apkfetch/apkfetch/internal/scrape"
)

// cdnProber performs a bounded HEAD against a direct artifact URL
// template. Any status below 400 counts as an existing artifact.
type cdnProber struct {
	desc   provider.Descriptor
	client *http.Client
}

// NewCDNProber builds a tier-1 prober for a TierCDN descriptor.
func NewCDNProber(desc provider.Descriptor, client *http.Client) Prober {
	return &cdnProber{desc: desc, client: client}
}

func (p *cdnProber) Name() string { return p.desc.Name }

func (p *cdnProber) Probe(ctx context.Context, packageID string) (*Candidate, error) {
	target := strings.ReplaceAll(p.desc.ProbeURL, "{pkg}", packageID)

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build probe request: %w", p.desc.Name, err)
	}
	httputil.BrowserHeaders(req)
	if p.desc.ProbeReferer != "" {
		req.Header.Set("Referer", p.desc.ProbeReferer)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: probe: %w", p.desc.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, nil
	}
	return &Candidate{URL: target, Source: p.desc.Name}, nil
}

// pageProber fetches a provider lookup page and scrapes an app link
// from it with the descriptor's candidate rule.
type pageProber struct {
	desc   provider.Descriptor
	client *http.Client
}

// NewPageProber builds a tier-2 prober for a TierPage descriptor.
func NewPageProber(desc provider.Descriptor, client *http.Client) Prober {
	return &pageProber{desc: desc, client: client}
}

func (p *pageProber) Name() string { return p.desc.Name }

// lookupReadLimit bounds how much of a provider lookup page is parsed.
const lookupReadLimit = 500_000

func (p *pageProber) Probe(ctx context.Context, packageID string) (*Candidate, error) {
	target := strings.ReplaceAll(p.desc.PageURL, "{query}", url.QueryEscape(packageID))
	target = strings.ReplaceAll(target, "{pkg}", packageID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: build lookup request: %w", p.desc.Name, err)
	}
	httputil.BrowserHeaders(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: lookup: %w", p.desc.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: lookup status %d", p.desc.Name, resp.StatusCode)
	}

	doc, err := scrape.ParseBounded(resp.Body, lookupReadLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: parse lookup page: %w", p.desc.Name, err)
	}

	rule := p.desc.CandidateRule
	rule.Contains = strings.ReplaceAll(rule.Contains, "{tail}", PackageTail(packageID))
	rule.Contains = strings.ReplaceAll(rule.Contains, "{pkg}", packageID)

	link := rule.Apply(doc)
	if link == "" {
		return nil, nil
	}
	link = scrape.Absolutize(link, p.desc.BaseURL+"/")

	if suffix := p.desc.CandidateSuffix; suffix != "" {
		if !strings.HasSuffix(link, "/") {
			link += "/"
		}
		link += suffix
	}
	return &Candidate{URL: link, Source: p.desc.Name}, nil
}

// ProbersForTier wraps the descriptors of a download tier in their
// prober implementations, preserving declaration order.
func ProbersForTier(set *provider.Set, tier int, client *http.Client) []Prober {
	var out []Prober
	for _, d := range set.Tier(tier) {
		switch tier {
		case provider.TierCDN:
			out = append(out, NewCDNProber(d, client))
		case provider.TierPage:
			out = append(out, NewPageProber(d, client))
		}
	}
	return out
}
