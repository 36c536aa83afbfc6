package server

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/apkfetch/apkfetch/internal/log"
)

type contextKey struct{ name string }

var requestIDKey = contextKey{"request-id"}

// requestLogger returns the base logger annotated with the request id,
// when one is present in ctx.
func requestLogger(ctx context.Context, base log.Logger) log.Logger {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return base.With("request_id", id)
	}
	return base
}

// statusRecorder captures the response status for the access log while
// staying transparent to streaming (Flush unwraps through the
// ResponseController).
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// withRequestLog assigns each request an id and writes one access log
// entry per request.
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey, id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		defer func() {
			s.logger.Info("request",
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start).Round(time.Millisecond).String(),
			)
		}()

		next.ServeHTTP(rec, r.WithContext(ctx))
	})
}
