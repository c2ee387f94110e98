package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pdfcast/pdfcast-go/internal/dialogue"
	"github.com/pdfcast/pdfcast-go/internal/podcast"
	"github.com/pdfcast/pdfcast-go/internal/store"
	"github.com/pdfcast/pdfcast-go/internal/vectorindex"
	"github.com/pdfcast/pdfcast-go/internal/voice"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// GenerateTimeout bounds a single POST /api/podcast/generate run,
	// covering ingestion, synthesis, and narration. Defaults to 15 minutes.
	GenerateTimeout time.Duration
	// AudioDir is the directory served under /audio/ for narrated segments.
	// If empty, the /audio/ route is not registered.
	AudioDir string
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// MetricsRegistry receives the server's Prometheus metric registrations.
	// Defaults to prometheus.DefaultRegisterer.
	MetricsRegistry prometheus.Registerer
	// MetricsGatherer backs the GET /metrics endpoint.
	// Defaults to prometheus.DefaultGatherer.
	MetricsGatherer prometheus.Gatherer
	// Voices backs GET /api/voices. Nil when narration is not configured;
	// the route then reports narration as disabled.
	Voices VoiceLister
}

// VoiceLister lists the narration voices available to the configured TTS
// backend. *voice.ElevenLabsTTS satisfies it.
type VoiceLister interface {
	Voices(ctx context.Context) ([]voice.Voice, error)
}

// generator is the interface handleGenerate calls to run a full podcast
// generation. *podcast.Orchestrator satisfies it; tests inject a fake.
type generator interface {
	// Generate runs the end-to-end flow for the document at locator.
	// A non-nil *Podcast may accompany an error, carrying the partial
	// step log of the failed run.
	Generate(ctx context.Context, locator, query string, agentConfigs []dialogue.AgentConfig) (*podcast.Podcast, error)
}

// Server is the HTTP server that exposes podcast generation, podcast
// retrieval, and vector-collection administration.
type Server struct {
	// generator runs generation requests; set to the orchestrator in
	// production, overridden by a fake in tests.
	generator generator
	// podcasts is the persistence layer behind GET /api/podcast/{id} and
	// GET /api/podcasts. Nil when persistence is disabled.
	podcasts store.PodcastStore
	// index backs the /api/collections routes.
	index vectorindex.Index
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// voices backs GET /api/voices. Nil when narration is not configured.
	voices VoiceLister
	// metrics holds this server's Prometheus metric instances.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// generateRequest is the JSON body for POST /api/podcast/generate.
type generateRequest struct {
	// Document is the path or URL of the document to turn into a podcast.
	Document string `json:"document"`
	// Query steers the conversation topic. Optional.
	Query string `json:"query,omitempty"`
	// Agents overrides the default cast. Optional.
	Agents []dialogue.AgentConfig `json:"agents,omitempty"`
}

// generateErrorResponse is the JSON body returned when a generation run
// fails. Podcast carries the partial step log when available.
type generateErrorResponse struct {
	// Error is the failure description.
	Error string `json:"error"`
	// Podcast is the partial run result, including the step that failed
	// and the steps never reached. Omitted when nothing ran at all.
	Podcast *podcast.Podcast `json:"podcast,omitempty"`
}

// listVoicesResponse is the JSON body for GET /api/voices.
type listVoicesResponse struct {
	// Voices is the available narration voices.
	Voices []voice.Voice `json:"voices"`
	// Count is len(Voices).
	Count int `json:"count"`
}

// listPodcastsResponse is the JSON body for GET /api/podcasts.
type listPodcastsResponse struct {
	// Podcasts is the stored runs, newest first.
	Podcasts []*store.Record `json:"podcasts"`
	// Count is len(Podcasts).
	Count int `json:"count"`
}

// createCollectionRequest is the JSON body for POST /api/collections.
type createCollectionRequest struct {
	// CollectionName is the name of the collection to create.
	CollectionName string `json:"collection_name"`
	// VectorSize is the embedding dimension every point must have.
	VectorSize uint64 `json:"vector_size"`
	// DistanceMetric selects the similarity metric: cosine, euclidean, or
	// dot. Defaults to cosine.
	DistanceMetric string `json:"distance_metric,omitempty"`
}

// createCollectionResponse is the JSON body returned on 201 Created.
type createCollectionResponse struct {
	// Status is always "success".
	Status string `json:"status"`
	// CollectionName echoes the created collection's name.
	CollectionName string `json:"collection_name"`
}

// searchCollectionRequest is the JSON body for
// POST /api/collections/{name}/search.
type searchCollectionRequest struct {
	// QueryVector is the embedding to search with. Required.
	QueryVector []float32 `json:"query_vector"`
	// Limit caps the number of results. Defaults to 5.
	Limit int `json:"limit,omitempty"`
	// Filter restricts hits to points whose payload exactly matches every
	// entry. Optional.
	Filter map[string]string `json:"filter,omitempty"`
}

// searchHit is one ranked result in a search response.
type searchHit struct {
	// ID is the matched point id.
	ID string `json:"id"`
	// Score is the similarity score, higher is better.
	Score float32 `json:"score"`
	// Payload is the stored chunk metadata.
	Payload vectorindex.Payload `json:"payload"`
}

// searchCollectionResponse is the JSON body returned by a search.
type searchCollectionResponse struct {
	// Results is the ranked hit list, descending by score.
	Results []searchHit `json:"results"`
	// Count is len(Results).
	Count int `json:"count"`
}

// statusMessageResponse is the generic JSON body for admin operations that
// have no richer payload, e.g. collection deletion.
type statusMessageResponse struct {
	// Status is "success" on the happy path.
	Status string `json:"status"`
	// Message is a human-readable description of what happened.
	Message string `json:"message"`
}
