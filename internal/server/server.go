// Package server exposes the resolution pipeline over HTTP: candidate
// resolution plus search aggregation on POST /api/download, and the
// hop-following streaming proxy on GET /api/download-apk.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/klauspost/compress/gzhttp"

	"github.com/apkfetch/apkfetch/internal/config"
	"github.com/apkfetch/apkfetch/internal/hop"
	"github.com/apkfetch/apkfetch/internal/httputil"
	"github.com/apkfetch/apkfetch/internal/log"
	"github.com/apkfetch/apkfetch/internal/playstore"
	"github.com/apkfetch/apkfetch/internal/provider"
	"github.com/apkfetch/apkfetch/internal/resolve"
	"github.com/apkfetch/apkfetch/internal/search"
)

// Server wires the pipeline components behind the HTTP API.
type Server struct {
	cfg         *config.Config
	store       *playstore.Client
	coordinator *resolve.Coordinator
	hops        *hop.Resolver
	aggregator  *search.Aggregator
	logger      log.Logger
}

// Options configures a Server. Zero-value fields get production
// defaults; tests inject fixtures.
type Options struct {
	Config    *config.Config
	Providers *provider.Set

	// ProbeClient serves probes, store lookups, and searches.
	ProbeClient *http.Client

	// DownloadClient serves hop fetches and artifact streams.
	DownloadClient *http.Client

	// Store overrides the storefront client, for tests.
	Store *playstore.Client

	Logger log.Logger
}

// New builds a Server and its pipeline components.
func New(opts Options) *Server {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	set := opts.Providers
	if set == nil {
		set = provider.Defaults()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	probeClient := opts.ProbeClient
	if probeClient == nil {
		probeClient = httputil.NewClient(httputil.ClientOptions{Timeout: cfg.ProbeTimeout})
	}
	downloadClient := opts.DownloadClient
	if downloadClient == nil {
		downloadClient = httputil.NewClient(httputil.DownloadOptions())
	}

	store := opts.Store
	if store == nil {
		store = playstore.NewClient(playstore.ClientOptions{HTTPClient: probeClient})
	}

	tiers := [][]resolve.Prober{
		resolve.ProbersForTier(set, provider.TierCDN, probeClient),
		resolve.ProbersForTier(set, provider.TierPage, probeClient),
	}

	return &Server{
		cfg:         cfg,
		store:       store,
		coordinator: resolve.NewCoordinator(tiers, resolve.CoordinatorOptions{Logger: logger}),
		hops: hop.NewResolver(hop.Options{
			Client:    downloadClient,
			Providers: set,
			Logger:    logger,
		}),
		aggregator: search.NewAggregator(set, search.AggregatorOptions{
			HTTPClient: probeClient,
			Timeout:    cfg.SearchTimeout,
			Logger:     logger,
		}),
		logger: logger,
	}
}

// Handler returns the fully assembled HTTP handler: routes, request
// logging, and transparent compression for text responses. Artifact
// streams are exempt from compression by content type.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/download", s.handleDownload)
	mux.HandleFunc("GET /api/download-apk", s.handleDownloadAPK)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	if s.cfg.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.cfg.StaticDir)))
	}

	wrapper, err := gzhttp.NewWrapper(gzhttp.ContentTypes([]string{
		"application/json",
		"text/html",
		"text/css",
		"application/javascript",
	}))
	if err != nil {
		// Static option values; only a programming error can land here.
		panic(fmt.Sprintf("gzip wrapper: %v", err))
	}
	return s.withRequestLog(wrapper(mux))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
