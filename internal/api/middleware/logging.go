package middleware

import (
	"net/http"
	"time"

	"podcast-notes-go/internal/logger"
)

type wrappedWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *wrappedWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// silentPaths are polled endpoints that are only logged on errors (status >= 400).
var silentPaths = map[string]bool{
	"/healthz": true,
}

// Logger writes one access log line per request.
func Logger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &wrappedWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)
			if silentPaths[r.URL.Path] && wrapped.statusCode < 400 {
				return
			}
			log.WithRequest(r).
				WithField("status", wrapped.statusCode).
				WithField("latency_ms", time.Since(start).Milliseconds()).
				Info("request completed")
		})
	}
}
