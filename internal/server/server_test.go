package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apkfetch/apkfetch/internal/playstore"
	"github.com/apkfetch/apkfetch/internal/provider"
)

const apkPayload = "PK\x03\x04 fake apk bytes for streaming"

// newWorld stands up one upstream fixture playing storefront, CDN, and
// mod site at once, plus an apkfetch server wired against it.
func newWorld(t *testing.T) (*httptest.Server, *httptest.Server) {
	t.Helper()

	upstream := httptest.NewServer(worldHandler(t))
	t.Cleanup(upstream.Close)

	set := provider.NewSet([]provider.Descriptor{
		{
			Name:     "Fixture CDN",
			Tier:     provider.TierCDN,
			BaseURL:  upstream.URL,
			ProbeURL: upstream.URL + "/cdn/{pkg}?version=latest",
		},
		{
			Name:           "FixtureMods",
			Icon:           "fm",
			BaseURL:        upstream.URL,
			SearchURL:      upstream.URL + "/mods/?s={query}",
			ItemSelector:   "article",
			TitleSelectors: []string{"h2 a"},
		},
	})

	srv := New(Options{
		Providers:      set,
		ProbeClient:    upstream.Client(),
		DownloadClient: upstream.Client(),
		Store: playstore.NewClient(playstore.ClientOptions{
			HTTPClient: upstream.Client(),
			BaseURL:    upstream.URL,
		}),
	})
	api := httptest.NewServer(srv.Handler())
	t.Cleanup(api.Close)

	return upstream, api
}

func worldHandler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/store/apps/details", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") != "com.whatsapp" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, `<html><body>
			<h1><span>WhatsApp</span></h1>
			<img src="https://play-lh.googleusercontent.com/icon=s48">
		</body></html>`)
	})

	mux.HandleFunc("/store/search", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if strings.Contains(r.URL.Query().Get("q"), "whats") {
			_, _ = io.WriteString(w, `<html><body><a href="/store/apps/details?id=com.whatsapp">WhatsApp</a></body></html>`)
			return
		}
		_, _ = io.WriteString(w, `<html><body><p>no results</p></body></html>`)
	})

	mux.HandleFunc("/cdn/com.whatsapp", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.android.package-archive")
		w.Header().Set("Content-Length", fmt.Sprint(len(apkPayload)))
		if r.Method == http.MethodHead {
			return
		}
		_, _ = io.WriteString(w, apkPayload)
	})
	mux.HandleFunc("/cdn/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	mux.HandleFunc("/mods/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, `<html><body>
			<article><h2><a href="/mods/whatsapp-plus/">WhatsApp Plus Mod</a></h2></article>
		</body></html>`)
	})

	return mux
}

func postDownload(t *testing.T, api *httptest.Server, input string) *http.Response {
	t.Helper()
	body := strings.NewReader(fmt.Sprintf(`{"url": %q}`, input))
	resp, err := api.Client().Post(api.URL+"/api/download", "application/json", body)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestDownloadByStoreURL(t *testing.T) {
	_, api := newWorld(t)

	resp := postDownload(t, api, "https://play.google.com/store/apps/details?id=com.whatsapp")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got downloadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))

	assert.Equal(t, "WhatsApp", got.Name)
	assert.Equal(t, "com.whatsapp", got.PackageID)
	assert.Equal(t, "https://play.google.com/store/apps/details?id=com.whatsapp", got.PlayStoreURL)
	assert.Contains(t, got.DownloadURL, "/cdn/com.whatsapp")
	assert.Equal(t, "Fixture CDN", got.Source)
	require.Len(t, got.ModInfo.Sites, 1)
	assert.True(t, got.ModInfo.Sites[0].Found)
	assert.Equal(t, "WhatsApp Plus Mod", got.ModInfo.Sites[0].Title)
}

func TestDownloadByFreeText(t *testing.T) {
	_, api := newWorld(t)

	resp := postDownload(t, api, "whatsapp messenger")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got downloadResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "com.whatsapp", got.PackageID)
}

func TestDownloadUnknownNameIsHardNotFound(t *testing.T) {
	_, api := newWorld(t)

	resp := postDownload(t, api, "my cool app that does not exist")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var got map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Contains(t, got["error"], "Could not find")
}

func TestDownloadNoCandidateReturnsPartialResponse(t *testing.T) {
	_, api := newWorld(t)

	// Resolvable on the store, but no provider carries it: the CDN
	// fixture only knows com.whatsapp.
	resp := postDownload(t, api, "https://play.google.com/store/apps/details?id=com.unknown.zzz")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var got notFoundResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))

	assert.Contains(t, got.Error, "not found")
	assert.Equal(t, "com.unknown.zzz", got.AppInfo.PackageID)
	assert.Equal(t, "com.unknown.zzz", got.AppInfo.Name, "app info degrades to the bare id")
	assert.Equal(t, playstore.StoreURL("com.unknown.zzz"), got.AppInfo.PlayStoreURL)
	require.Len(t, got.ModInfo.Sites, 1, "aggregate length equals provider count even on failure")
	// The fixture mod result is unrelated to com.unknown.zzz, so it
	// is filtered out and the provider falls back.
	assert.False(t, got.ModInfo.Sites[0].Found)
	assert.Contains(t, got.ModInfo.Sites[0].URL, "/mods/")
}

func TestDownloadValidation(t *testing.T) {
	_, api := newWorld(t)

	tests := []struct {
		name  string
		input string
	}{
		{"empty input", "   "},
		{"store url without id", "https://play.google.com/store/apps"},
		{"malformed package id", "https://play.google.com/store/apps/details?id=singleword"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := postDownload(t, api, tc.input)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestDownloadAPKStreamsArtifact(t *testing.T) {
	upstream, api := newWorld(t)

	resp, err := api.Client().Get(api.URL + "/api/download-apk?url=" +
		upstream.URL + "/cdn/com.whatsapp&name=WhatsApp&packageId=com.whatsapp")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/vnd.android.package-archive", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="WhatsApp.apk"`, resp.Header.Get("Content-Disposition"))
	assert.Equal(t, fmt.Sprint(len(apkPayload)), resp.Header.Get("Content-Length"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, apkPayload, string(body))
}

func TestDownloadAPKFailsBeforeStreamingWithJSON(t *testing.T) {
	_, api := newWorld(t)

	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer dead.Close()

	resp, err := api.Client().Get(api.URL + "/api/download-apk?url=" + dead.URL + "/gone.apk")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
}

func TestDownloadAPKRequiresURL(t *testing.T) {
	_, api := newWorld(t)

	resp, err := api.Client().Get(api.URL + "/api/download-apk")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDownloadAPKTruncatedUpstream(t *testing.T) {
	_, api := newWorld(t)

	// Upstream declares a length it never delivers.
	liar := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("Content-Length", "1000000")
		_, _ = io.WriteString(w, "short")
	}))
	defer liar.Close()

	resp, err := api.Client().Get(api.URL + "/api/download-apk?url=" + liar.URL + "/big.apk")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode, "headers were already committed")
	_, err = io.ReadAll(resp.Body)
	assert.Error(t, err, "caller must observe a truncated transfer, not a clean EOF")
}

func TestHealth(t *testing.T) {
	_, api := newWorld(t)

	resp, err := api.Client().Get(api.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.True(t, got["ok"])
}

func TestArtifactFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"WhatsApp", "WhatsApp.apk"},
		{"My Cool App!", "My_Cool_App_.apk"},
		{"com.whatsapp", "com.whatsapp.apk"},
		{"already.apk", "already.apk"},
		{"", "app.apk"},
	}
	for _, tc := range tests {
		if got := artifactFilename(tc.in); got != tc.want {
			t.Errorf("artifactFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
