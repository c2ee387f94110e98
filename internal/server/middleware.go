package server

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pdfcast/pdfcast-go/internal/logging"
)

// requestLogger is an [http.Handler] middleware that:
//  1. Generates a unique request_id for every inbound request.
//  2. Injects a child [*slog.Logger] carrying that ID into the request context.
//  3. Logs method, path, status code, and latency on completion.
func requestLogger(base *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := newRequestID()

		log := base.With(
			slog.String("request_id", reqID),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)

		ctx := logging.WithLogger(r.Context(), log)
		r = r.WithContext(ctx)

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		start := time.Now()
		next.ServeHTTP(rw, r)
		elapsed := time.Since(start)

		log.Info("request",
			slog.Int("status", rw.status),
			slog.Duration("duration", elapsed),
		)
	})
}

// httpMetrics is an [http.Handler] middleware that records the request
// counter and latency histogram for every request, labelled by the logical
// handler name rather than the raw path to keep label cardinality bounded.
func (s *Server) httpMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		handler := handlerLabel(r.URL.Path)

		start := time.Now()
		next.ServeHTTP(rw, r)
		elapsed := time.Since(start)

		s.metrics.httpRequestsTotal.WithLabelValues(
			r.Method, handler, strconv.Itoa(rw.status)).Inc()
		s.metrics.httpDurationSeconds.WithLabelValues(
			r.Method, handler).Observe(elapsed.Seconds())
	})
}

// handlerLabel maps a request path to the logical endpoint name used as the
// "handler" metric label. Path parameters collapse to their route pattern so
// every podcast id or collection name shares one label value.
func handlerLabel(path string) string {
	switch {
	case path == "/api/podcast/generate":
		return "podcast_generate"
	case strings.HasPrefix(path, "/api/podcast/"):
		return "podcast_get"
	case path == "/api/podcasts":
		return "podcast_list"
	case path == "/api/voices":
		return "voices"
	case path == "/api/collections":
		return "collection_create"
	case strings.HasPrefix(path, "/api/collections/") && strings.HasSuffix(path, "/search"):
		return "collection_search"
	case strings.HasPrefix(path, "/api/collections/"):
		return "collection"
	case path == "/api/health":
		return "health"
	case path == "/api/ready":
		return "ready"
	case path == "/metrics":
		return "metrics"
	case strings.HasPrefix(path, "/audio/"):
		return "audio"
	default:
		return "other"
	}
}

// responseWriter wraps [http.ResponseWriter] to capture the status code
// written by the handler so the middleware can log it.
type responseWriter struct {
	http.ResponseWriter
	// status is the HTTP status code sent to the client.
	status int
}

// WriteHeader captures the status code before delegating to the underlying writer.
func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// newRequestID returns a 16-byte cryptographically random hex string.
// Falls back to a zero-filled ID on the (impossible in practice) error path.
func newRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "0000000000000000"
	}
	return hex.EncodeToString(b)
}
