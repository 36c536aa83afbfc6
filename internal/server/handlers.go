package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/apkfetch/apkfetch/internal/hop"
	"github.com/apkfetch/apkfetch/internal/playstore"
	"github.com/apkfetch/apkfetch/internal/resolve"
	"github.com/apkfetch/apkfetch/internal/search"
)

type downloadRequest struct {
	URL string `json:"url"`
}

// modInfo is the aggregate search block attached to download
// responses.
type modInfo struct {
	AppName string          `json:"appName"`
	Sites   []search.Result `json:"sites"`
}

type downloadResponse struct {
	Name         string  `json:"name"`
	PackageID    string  `json:"packageId"`
	Icon         string  `json:"icon"`
	PlayStoreURL string  `json:"playStoreUrl"`
	DownloadURL  string  `json:"downloadUrl"`
	Source       string  `json:"source"`
	ModInfo      modInfo `json:"modInfo"`
}

// appInfo is the metadata block attached to partial-failure
// responses; it carries the store URL alongside the scraped fields.
type appInfo struct {
	Name         string `json:"name"`
	PackageID    string `json:"packageId"`
	Icon         string `json:"icon"`
	PlayStoreURL string `json:"playStoreUrl"`
}

type notFoundResponse struct {
	Error   string  `json:"error"`
	AppInfo appInfo `json:"appInfo"`
	ModInfo modInfo `json:"modInfo"`
}

// handleDownload resolves an app (store URL or free-text name) to a
// candidate download URL plus aggregate search results.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	var body downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	input := strings.TrimSpace(body.URL)
	if input == "" {
		writeError(w, http.StatusBadRequest, "Please enter an app name or Play Store URL")
		return
	}

	ctx := r.Context()
	logger := requestLogger(ctx, s.logger)

	var packageID string
	if playstore.IsStoreURL(input) {
		packageID = playstore.ExtractPackageID(input)
		if packageID == "" || !resolve.ValidPackageID(packageID) {
			writeError(w, http.StatusBadRequest, "Invalid Play Store URL")
			return
		}
	} else {
		id, err := s.store.Search(ctx, input)
		if err != nil {
			logger.Warn("store search failed", "query", input, "error", err)
		}
		if id == "" {
			writeError(w, http.StatusNotFound,
				fmt.Sprintf("Could not find %q on Play Store. Try a different name.", input))
			return
		}
		packageID = id
	}

	// App metadata and candidate resolution are independent; run them
	// concurrently. The aggregator needs the display name, so it runs
	// after.
	var (
		wg         sync.WaitGroup
		info       playstore.AppInfo
		candidate  *resolve.Candidate
		resolveErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		info = s.store.FetchAppInfo(ctx, packageID)
	}()
	go func() {
		defer wg.Done()
		candidate, resolveErr = s.coordinator.Resolve(ctx, packageID)
	}()
	wg.Wait()

	mods := modInfo{
		AppName: info.Name,
		Sites:   s.aggregator.SearchAll(ctx, info.Name, packageID),
	}

	if resolveErr != nil {
		var nf *resolve.NotFoundError
		if !errors.As(resolveErr, &nf) {
			logger.Error("resolution failed", "package", packageID, "error", resolveErr)
		}
		writeJSON(w, http.StatusNotFound, notFoundResponse{
			Error: "APK not found. Try a more popular app.",
			AppInfo: appInfo{
				Name:         info.Name,
				PackageID:    info.PackageID,
				Icon:         info.Icon,
				PlayStoreURL: playstore.StoreURL(packageID),
			},
			ModInfo: mods,
		})
		return
	}

	writeJSON(w, http.StatusOK, downloadResponse{
		Name:         info.Name,
		PackageID:    packageID,
		Icon:         info.Icon,
		PlayStoreURL: playstore.StoreURL(packageID),
		DownloadURL:  candidate.URL,
		Source:       candidate.Source,
		ModInfo:      mods,
	})
}

// handleDownloadAPK follows the landing chain from a candidate URL and
// streams the artifact to the caller.
func (s *Server) handleDownloadAPK(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	target := q.Get("url")
	if target == "" {
		writeError(w, http.StatusBadRequest, "URL required")
		return
	}

	name := q.Get("name")
	if name == "" {
		name = q.Get("packageId")
	}
	filename := artifactFilename(name)

	logger := requestLogger(r.Context(), s.logger)
	res, err := s.hops.Follow(r.Context(), target)
	if err != nil {
		logger.Warn("hop resolution failed", "url", target, "error", err)
		writeError(w, hopErrorStatus(err), err.Error())
		return
	}
	defer res.Response.Body.Close()

	logger.Info("streaming artifact",
		"url", res.FinalURL, "hops", res.Hops,
		"length", res.Response.ContentLength, "filename", filename)
	s.streamArtifact(w, res.Response, filename, logger)
}

func hopErrorStatus(err error) int {
	var te *hop.TransportError
	if errors.As(err, &te) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
