// Package server implements the HTTP server that exposes podcast generation
// and vector-collection administration over a REST API.
// The server is started by the `pdfcast serve` CLI command.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pdfcast/pdfcast-go/internal/logging"
	"github.com/pdfcast/pdfcast-go/internal/podcast"
	"github.com/pdfcast/pdfcast-go/internal/store"
	"github.com/pdfcast/pdfcast-go/internal/vectorindex"
	"github.com/pdfcast/pdfcast-go/internal/voice"
)

// defaultListLimit caps GET /api/podcasts when no limit query parameter is
// supplied.
const defaultListLimit = 50

// New constructs a Server from the orchestrator, the optional podcast store,
// the vector index, and the config.
func New(orc *podcast.Orchestrator, podcasts store.PodcastStore, index vectorindex.Index, cfg *Config) (*Server, error) {
	if orc == nil {
		return nil, fmt.Errorf("server: orchestrator must not be nil")
	}
	if index == nil {
		return nil, fmt.Errorf("server: vector index must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// WriteTimeout must cover a full generation run: ingestion, one
		// model call per turn, and narration.
		cfg.WriteTimeout = 20 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.GenerateTimeout == 0 {
		cfg.GenerateTimeout = 15 * time.Minute
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New()
	}
	if cfg.MetricsRegistry == nil {
		cfg.MetricsRegistry = prometheus.DefaultRegisterer
	}
	if cfg.MetricsGatherer == nil {
		cfg.MetricsGatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		generator: orc,
		podcasts:  podcasts,
		index:     index,
		cfg:       cfg,
		log:       cfg.Logger,
		pingers:   cfg.Pingers,
		voices:    cfg.Voices,
		metrics:   newServerMetrics(cfg.MetricsRegistry),
	}

	if cfg.APIKey == "" {
		s.log.Warn("server: API key not configured — authentication disabled")
	}

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, s.log)
	s.stopRL = stopRL

	// protected applies Bearer auth; generation is additionally rate limited
	// because each request drives paid model and TTS calls.
	protected := func(h http.Handler) http.Handler {
		return authMiddleware(cfg.APIKey, h)
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/podcast/generate",
		protected(rl.middleware(http.HandlerFunc(s.handleGenerate))))
	mux.Handle("GET /api/podcast/{id}", protected(http.HandlerFunc(s.handleGetPodcast)))
	mux.Handle("GET /api/podcasts", protected(http.HandlerFunc(s.handleListPodcasts)))
	mux.Handle("GET /api/voices", protected(http.HandlerFunc(s.handleListVoices)))
	mux.Handle("POST /api/collections", protected(http.HandlerFunc(s.handleCreateCollection)))
	mux.Handle("GET /api/collections/{name}", protected(http.HandlerFunc(s.handleCollectionInfo)))
	mux.Handle("POST /api/collections/{name}/search",
		protected(rl.middleware(http.HandlerFunc(s.handleSearchCollection))))
	mux.Handle("DELETE /api/collections/{name}", protected(http.HandlerFunc(s.handleDeleteCollection)))
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.HandlerFor(cfg.MetricsGatherer, promhttp.HandlerOpts{}))
	if cfg.AudioDir != "" {
		mux.Handle("GET /audio/",
			http.StripPrefix("/audio/", http.FileServer(http.Dir(cfg.AudioDir))))
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      requestLogger(s.log, s.httpMetrics(mux)),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("server listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.stopRL()
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		s.stopRL()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// handleGenerate handles POST /api/podcast/generate. It runs the full
// generation flow synchronously and returns the completed podcast, or the
// partial step log alongside the failure.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Document == "" {
		http.Error(w, "document is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.GenerateTimeout)
	defer cancel()

	s.metrics.generateActiveRuns.Inc()
	defer s.metrics.generateActiveRuns.Dec()

	start := time.Now()
	pod, err := s.generator.Generate(ctx, req.Document, req.Query, req.Agents)
	elapsed := time.Since(start)

	if err != nil {
		outcome := "error"
		status := http.StatusInternalServerError
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			outcome = "timeout"
			status = http.StatusGatewayTimeout
		}
		s.metrics.generateRequestsTotal.WithLabelValues(outcome).Inc()
		s.metrics.generateDurationSeconds.WithLabelValues(outcome).Observe(elapsed.Seconds())

		writeJSON(w, r, status, generateErrorResponse{
			Error:   err.Error(),
			Podcast: pod,
		})
		return
	}

	s.metrics.generateRequestsTotal.WithLabelValues("ok").Inc()
	s.metrics.generateDurationSeconds.WithLabelValues("ok").Observe(elapsed.Seconds())

	writeJSON(w, r, http.StatusOK, pod)
}

// handleGetPodcast handles GET /api/podcast/{id}. Returns 404 for unknown
// ids and 503 when persistence is disabled.
func (s *Server) handleGetPodcast(w http.ResponseWriter, r *http.Request) {
	if s.podcasts == nil {
		http.Error(w, "persistence is disabled", http.StatusServiceUnavailable)
		return
	}

	id := r.PathValue("id")
	rec, err := s.podcasts.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "podcast not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load podcast", http.StatusInternalServerError)
		return
	}

	writeJSON(w, r, http.StatusOK, rec)
}

// handleListPodcasts handles GET /api/podcasts. The optional ?limit query
// parameter caps the result count.
func (s *Server) handleListPodcasts(w http.ResponseWriter, r *http.Request) {
	if s.podcasts == nil {
		http.Error(w, "persistence is disabled", http.StatusServiceUnavailable)
		return
	}

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	recs, err := s.podcasts.List(r.Context(), limit)
	if err != nil {
		http.Error(w, "failed to list podcasts", http.StatusInternalServerError)
		return
	}
	if recs == nil {
		recs = []*store.Record{}
	}

	writeJSON(w, r, http.StatusOK, listPodcastsResponse{Podcasts: recs, Count: len(recs)})
}

// handleListVoices handles GET /api/voices, listing the narration voices
// available to the configured TTS backend. Returns 503 when narration is
// not configured.
func (s *Server) handleListVoices(w http.ResponseWriter, r *http.Request) {
	if s.voices == nil {
		http.Error(w, "narration is disabled", http.StatusServiceUnavailable)
		return
	}

	voices, err := s.voices.Voices(r.Context())
	if err != nil {
		s.log.Error("voice listing failed", slog.Any("error", err))
		http.Error(w, "failed to list voices", http.StatusBadGateway)
		return
	}
	if voices == nil {
		voices = []voice.Voice{}
	}

	writeJSON(w, r, http.StatusOK, listVoicesResponse{Voices: voices, Count: len(voices)})
}

// handleHealth handles GET /api/health for liveness checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes v as a JSON response with the given status code.
// Encoding failures are logged, not surfaced — headers are already written.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("response encode error", slog.Any("error", err))
	}
}
