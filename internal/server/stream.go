package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/apkfetch/apkfetch/internal/log"
)

// artifactContentType overrides whatever the upstream declared.
// Upstream labeling is unreliable; classification already decided this
// is the artifact.
const artifactContentType = "application/vnd.android.package-archive"

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

// artifactFilename builds a download filename from the display name or
// package id, sanitized to a conservative character set, with a forced
// .apk suffix.
func artifactFilename(name string) string {
	if name == "" {
		name = "app"
	}
	name = unsafeFilenameChars.ReplaceAllString(name, "_")
	return strings.TrimSuffix(name, ".apk") + ".apk"
}

// streamArtifact relays the upstream body to the caller without
// buffering. The first chunk is read before any header is written so
// an immediate upstream failure can still produce a structured error;
// once bytes are on the wire the only option left on failure is to
// abort the connection.
func (s *Server) streamArtifact(w http.ResponseWriter, upstream *http.Response, filename string, logger log.Logger) {
	buf := make([]byte, 32*1024)
	n, readErr := io.ReadFull(upstream.Body, buf)
	if readErr != nil && !errors.Is(readErr, io.EOF) && !errors.Is(readErr, io.ErrUnexpectedEOF) {
		logger.Error("upstream failed before streaming", "error", readErr)
		writeError(w, http.StatusBadGateway, "upstream connection failed")
		return
	}

	w.Header().Set("Content-Type", artifactContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Cache-Control", "no-cache")
	if upstream.ContentLength > 0 {
		w.Header().Set("Content-Length", fmt.Sprint(upstream.ContentLength))
	}
	w.WriteHeader(http.StatusOK)

	if n > 0 {
		if _, err := w.Write(buf[:n]); err != nil {
			// Caller went away; nothing to clean up.
			return
		}
	}
	if readErr != nil {
		// Upstream ended within the first chunk.
		return
	}

	if _, err := io.Copy(w, upstream.Body); err != nil {
		// Bytes are already on the wire: a retry is impossible and a
		// trailing error document would corrupt the artifact. Abort
		// the connection so the client sees a truncated transfer.
		logger.Error("stream interrupted", "filename", filename, "error", err)
		panic(http.ErrAbortHandler)
	}
}
