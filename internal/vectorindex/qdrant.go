package vectorindex

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/pdfcast/pdfcast-go/internal/logging"
)

// QdrantConfig holds connection parameters for a Qdrant instance.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// DefaultCollection is the collection ensured by InitializeDefault and
	// used by the retrieval context builder (default: podcast_chunks).
	DefaultCollection string

	// APIKey is the optional Qdrant API key for authenticated clusters.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool
}

// QdrantIndex implements Index backed by a Qdrant instance.
type QdrantIndex struct {
	// client is the underlying Qdrant gRPC client.
	client *qdrant.Client

	// cfg holds the resolved configuration for this index.
	cfg *QdrantConfig
}

// NewQdrantIndex creates a QdrantIndex. No collection is created here —
// collections are created explicitly via Create or lazily via
// InitializeDefault.
func NewQdrantIndex(cfg *QdrantConfig) (*QdrantIndex, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	if cfg.DefaultCollection == "" {
		cfg.DefaultCollection = "podcast_chunks"
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to create client: %w", err)
	}

	return &QdrantIndex{client: client, cfg: cfg}, nil
}

// DefaultCollection returns the configured default collection name.
func (s *QdrantIndex) DefaultCollection() string {
	return s.cfg.DefaultCollection
}

// Client exposes the underlying gRPC client for health probes.
func (s *QdrantIndex) Client() *qdrant.Client {
	return s.client
}

// qdrantDistance maps a Distance to the Qdrant wire enum.
// Unknown values fall back to cosine.
func qdrantDistance(d Distance) qdrant.Distance {
	switch d {
	case DistanceEuclid:
		return qdrant.Distance_Euclid
	case DistanceDot:
		return qdrant.Distance_Dot
	default:
		return qdrant.Distance_Cosine
	}
}

// Create creates a named collection with the given dimension and metric.
// Returns ErrCollectionExists when the name is already taken.
func (s *QdrantIndex) Create(ctx context.Context, cfg CollectionConfig) error {
	if cfg.Name == "" {
		return fmt.Errorf("qdrant: collection name must not be empty")
	}
	if cfg.VectorSize == 0 {
		return fmt.Errorf("qdrant: vector size must be > 0")
	}

	if s.Exists(ctx, cfg.Name) {
		return fmt.Errorf("qdrant: create %q: %w", cfg.Name, ErrCollectionExists)
	}

	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: cfg.Name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     cfg.VectorSize,
			Distance: qdrantDistance(cfg.Metric),
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: failed to create collection %q: %w", cfg.Name, ErrUnavailable)
	}

	return nil
}

// Exists reports whether the named collection exists. Connectivity failure
// is reported as false, never as an error.
func (s *QdrantIndex) Exists(ctx context.Context, name string) bool {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		logging.FromContext(ctx).Warn("qdrant: existence check failed",
			slog.String("collection", name),
			slog.Any("error", err),
		)
		return false
	}
	return exists
}

// Upsert stores one point per chunk, keyed by a freshly generated UUID.
// Every embedding is validated against the collection dimension first so a
// mixed batch fails whole rather than partially.
func (s *QdrantIndex) Upsert(ctx context.Context, name string, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	info, err := s.Info(ctx, name)
	if err != nil {
		return fmt.Errorf("qdrant: upsert into %q: %w", name, err)
	}
	if err := validateDimensions(chunks, name, info.VectorSize); err != nil {
		return err
	}

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for _, c := range chunks {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(uuid.NewString()),
			Vectors: qdrant.NewVectors(c.Embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				"document_id": c.Payload.DocumentID,
				"content":     c.Payload.Content,
				"page_number": int64(c.Payload.PageNumber),
				"source":      c.Payload.Source,
				"chunk_index": int64(c.Payload.ChunkIndex),
			}),
		})
	}

	if _, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: name,
		Points:         points,
	}); err != nil {
		return fmt.Errorf("qdrant: upsert into %q failed: %w", name, ErrUnavailable)
	}

	return nil
}

// validateDimensions checks every chunk embedding against the collection
// dimension. The first mismatch fails the whole batch with
// ErrDimensionMismatch.
func validateDimensions(chunks []Chunk, name string, size uint64) error {
	for _, c := range chunks {
		if uint64(len(c.Embedding)) != size {
			return fmt.Errorf("qdrant: chunk %s has %d-dimensional embedding, collection %q expects %d: %w",
				c.ID, len(c.Embedding), name, size, ErrDimensionMismatch)
		}
	}
	return nil
}

// Search returns up to limit results ranked by similarity under the
// collection's metric, descending. A missing collection or unreachable
// backend yields an empty slice — retrieval failure must never abort
// conversation generation.
func (s *QdrantIndex) Search(ctx context.Context, name string, queryVector []float32, limit int, filter Filter) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 5
	}
	if !s.Exists(ctx, name) {
		return nil, nil
	}

	lim := uint64(limit)
	query := &qdrant.QueryPoints{
		CollectionName: name,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          &lim,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if len(filter) > 0 {
		conditions := make([]*qdrant.Condition, 0, len(filter))
		for field, value := range filter {
			conditions = append(conditions, qdrant.NewMatch(field, value))
		}
		query.Filter = &qdrant.Filter{Must: conditions}
	}

	points, err := s.client.Query(ctx, query)
	if err != nil {
		logging.FromContext(ctx).Warn("qdrant: search failed",
			slog.String("collection", name),
			slog.Any("error", err),
		)
		return nil, nil
	}

	results := make([]SearchResult, 0, len(points))
	for _, p := range points {
		results = append(results, SearchResult{
			ID:      p.Id.GetUuid(),
			Score:   p.Score,
			Payload: payloadFromValues(p.Payload),
		})
	}

	return results, nil
}

// payloadFromValues decodes a Qdrant value map into a typed Payload.
// Missing keys leave zero values.
func payloadFromValues(values map[string]*qdrant.Value) Payload {
	var p Payload
	if values == nil {
		return p
	}
	if v, ok := values["document_id"]; ok {
		p.DocumentID = v.GetStringValue()
	}
	if v, ok := values["content"]; ok {
		p.Content = v.GetStringValue()
	}
	if v, ok := values["page_number"]; ok {
		p.PageNumber = int(v.GetIntegerValue())
	}
	if v, ok := values["source"]; ok {
		p.Source = v.GetStringValue()
	}
	if v, ok := values["chunk_index"]; ok {
		p.ChunkIndex = int(v.GetIntegerValue())
	}
	return p
}

// Info returns the collection summary, ErrNotFound if the collection is
// absent, or ErrUnavailable if the backend cannot be reached.
func (s *QdrantIndex) Info(ctx context.Context, name string) (*CollectionInfo, error) {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("qdrant: info for %q: %w", name, ErrUnavailable)
	}
	if !exists {
		return nil, fmt.Errorf("qdrant: info for %q: %w", name, ErrNotFound)
	}

	info, err := s.client.GetCollectionInfo(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("qdrant: info for %q: %w", name, ErrUnavailable)
	}

	out := &CollectionInfo{
		Name:         name,
		VectorsCount: info.GetIndexedVectorsCount(),
		PointsCount:  info.GetPointsCount(),
	}
	if params := info.GetConfig().GetParams().GetVectorsConfig().GetParams(); params != nil {
		out.VectorSize = params.GetSize()
		switch params.GetDistance() {
		case qdrant.Distance_Euclid:
			out.Metric = DistanceEuclid
		case qdrant.Distance_Dot:
			out.Metric = DistanceDot
		default:
			out.Metric = DistanceCosine
		}
	}

	return out, nil
}

// Delete removes the named collection. Deleting an absent collection is a
// no-op, not an error.
func (s *QdrantIndex) Delete(ctx context.Context, name string) error {
	if !s.Exists(ctx, name) {
		return nil
	}
	if err := s.client.DeleteCollection(ctx, name); err != nil {
		return fmt.Errorf("qdrant: delete %q failed: %w", name, ErrUnavailable)
	}
	return nil
}

// InitializeDefault ensures the default collection exists, inferring the
// vector dimension from one sample embedding when creation is needed.
// It is a no-op if the collection is already present.
func (s *QdrantIndex) InitializeDefault(ctx context.Context, embedder Embedder) (string, error) {
	name := s.cfg.DefaultCollection
	if s.Exists(ctx, name) {
		return name, nil
	}

	sample, err := embedder.Embed(ctx, []string{"sample text"})
	if err != nil {
		return "", fmt.Errorf("qdrant: sample embedding for default collection: %w", err)
	}
	if len(sample) == 0 || len(sample[0]) == 0 {
		return "", fmt.Errorf("qdrant: embedder returned empty sample embedding")
	}

	err = s.Create(ctx, CollectionConfig{
		Name:       name,
		VectorSize: uint64(len(sample[0])),
		Metric:     DistanceCosine,
	})
	if err != nil {
		return "", fmt.Errorf("qdrant: initialise default collection: %w", err)
	}

	logging.FromContext(ctx).Info("qdrant: created default collection",
		slog.String("collection", name),
		slog.Int("dimension", len(sample[0])),
	)
	return name, nil
}

// Close closes the underlying Qdrant gRPC connection.
func (s *QdrantIndex) Close() error {
	return s.client.Close()
}
