package webui

import (
	"net/http"
	"time"

	"go_imagegen/logging"

	"go.uber.org/zap"
)

// LoggingMiddleware logs every HTTP request with method, path, status code,
// duration, and client address.
//
// Thread-safe for concurrent HTTP requests.
type LoggingMiddleware struct {
	logger *logging.Logger

	// skipPaths are paths to skip logging (e.g., health checks)
	skipPaths map[string]bool
}

// NewLoggingMiddleware creates request logging middleware. Paths in
// skipPaths produce no log entries; use this for high-frequency probes.
func NewLoggingMiddleware(logger *logging.Logger, skipPaths ...string) *LoggingMiddleware {
	if logger == nil {
		logger = logging.NewTestLogger()
	}
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}
	return &LoggingMiddleware{logger: logger, skipPaths: skip}
}

// Handler wraps an http.Handler with request logging.
func (m *LoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		m.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("remote_addr", r.RemoteAddr))
	})
}

// statusRecorder captures the response status code for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
