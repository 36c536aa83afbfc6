package resolve

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/apkfetch/apkfetch/internal/provider"
	"github.com/apkfetch/apkfetch/internal/scrape"
)

func TestCDNProberHit(t *testing.T) {
	var gotReferer string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s, want HEAD", r.Method)
		}
		gotReferer = r.Header.Get("Referer")
		if r.URL.Path != "/b/APK/com.whatsapp" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	desc := provider.Descriptor{
		Name:         "APKPure CDN",
		Tier:         provider.TierCDN,
		ProbeURL:     server.URL + "/b/APK/{pkg}?version=latest",
		ProbeReferer: "https://apkpure.com/",
	}
	p := NewCDNProber(desc, server.Client())

	got, err := p.Probe(context.Background(), "com.whatsapp")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if got == nil || got.Source != "APKPure CDN" {
		t.Fatalf("candidate = %+v", got)
	}
	if gotReferer != "https://apkpure.com/" {
		t.Errorf("referer = %q", gotReferer)
	}
}

func TestCDNProberMissIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(http.NotFound))
	defer server.Close()

	desc := provider.Descriptor{Name: "cdn", Tier: provider.TierCDN, ProbeURL: server.URL + "/{pkg}"}
	got, err := NewCDNProber(desc, server.Client()).Probe(context.Background(), "com.example.app")
	if err != nil {
		t.Fatalf("miss must not be an error: %v", err)
	}
	if got != nil {
		t.Errorf("candidate = %+v, want nil", got)
	}
}

func TestPageProberScrapesCandidate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>
			<a href="/unrelated/game/">other</a>
			<a href="/whatsapp-messenger/com.whatsapp/">WhatsApp</a>
		</body></html>`))
	}))
	defer server.Close()

	desc := provider.Descriptor{
		Name:            "APKCombo",
		Tier:            provider.TierPage,
		BaseURL:         server.URL,
		PageURL:         server.URL + "/search/{query}/",
		CandidateRule:   scrape.LinkRule{Selector: "a", Contains: "{tail}"},
		CandidateSuffix: "download/apk",
	}

	got, err := NewPageProber(desc, server.Client()).Probe(context.Background(), "com.whatsapp")
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	want := server.URL + "/whatsapp-messenger/com.whatsapp/download/apk"
	if got == nil || got.URL != want {
		t.Fatalf("candidate = %+v, want URL %q", got, want)
	}
}

func TestPageProberNoLinkIsAMiss(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><p>no results</p></body></html>`))
	}))
	defer server.Close()

	desc := provider.Descriptor{
		Name:          "APKMirror",
		Tier:          provider.TierPage,
		BaseURL:       server.URL,
		PageURL:       server.URL + "/?s={query}",
		CandidateRule: scrape.LinkRule{Selector: ".appRow a.fontBlack"},
	}
	got, err := NewPageProber(desc, server.Client()).Probe(context.Background(), "com.example.app")
	if err != nil {
		t.Fatalf("miss must not be an error: %v", err)
	}
	if got != nil {
		t.Errorf("candidate = %+v, want nil", got)
	}
}

func TestProbersForTierOrder(t *testing.T) {
	set := provider.Defaults()
	tier2 := ProbersForTier(set, provider.TierPage, http.DefaultClient)
	if len(tier2) != 2 || tier2[0].Name() != "APKCombo" || tier2[1].Name() != "APKMirror" {
		names := make([]string, len(tier2))
		for i, p := range tier2 {
			names[i] = p.Name()
		}
		t.Errorf("tier 2 probers = %v, want [APKCombo APKMirror]", names)
	}
}
