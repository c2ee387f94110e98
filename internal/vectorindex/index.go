// Package vectorindex defines the vector index abstraction used for
// retrieval-augmented podcast generation: named collections of embedded
// document chunks with nearest-neighbor search. The Qdrant implementation
// satisfies the Index interface so the dialogue and ingestion layers never
// depend on a specific backend.
package vectorindex

import (
	"context"
	"errors"
)

// Sentinel errors returned by Index operations. Callers distinguish fatal
// validation failures (ErrDimensionMismatch, ErrCollectionExists) from
// degradable backend failures (ErrUnavailable) with errors.Is.
var (
	// ErrDimensionMismatch is returned by Upsert when a chunk's embedding
	// length does not match the collection's configured vector dimension.
	ErrDimensionMismatch = errors.New("vectorindex: embedding dimension mismatch")

	// ErrCollectionExists is returned by Create when the collection name is
	// already taken. Create is not idempotent; use Exists first or
	// InitializeDefault for ensure-style semantics.
	ErrCollectionExists = errors.New("vectorindex: collection already exists")

	// ErrNotFound is returned by Info when the collection does not exist.
	ErrNotFound = errors.New("vectorindex: collection not found")

	// ErrUnavailable wraps connectivity and backend failures. Read paths
	// degrade to empty results on it; write paths surface it to the caller.
	ErrUnavailable = errors.New("vectorindex: backend unavailable")
)

// Distance enumerates the similarity metrics a collection can be created with.
type Distance string

const (
	// DistanceCosine ranks by cosine similarity (default).
	DistanceCosine Distance = "cosine"
	// DistanceEuclid ranks by inverse Euclidean distance.
	DistanceEuclid Distance = "euclidean"
	// DistanceDot ranks by dot product.
	DistanceDot Distance = "dot"
)

// Payload is the typed chunk metadata stored alongside each vector.
// Field names mirror the persisted payload keys so stored data remains
// readable by other consumers of the collection.
type Payload struct {
	// DocumentID identifies the source document this chunk was cut from.
	DocumentID string `json:"document_id"`
	// Content is the raw chunk text.
	Content string `json:"content"`
	// PageNumber is the approximate 1-based page the chunk came from.
	PageNumber int `json:"page_number"`
	// Source is the original document name or locator.
	Source string `json:"source"`
	// ChunkIndex is the 0-based position of the chunk within its document.
	ChunkIndex int `json:"chunk_index"`
}

// Chunk is an embeddable unit of document text. Created by the segmenter,
// embedding populated by the embedder, immutable once upserted.
type Chunk struct {
	// ID is the chunk's unique identifier, assigned at segmentation time.
	ID string
	// Embedding is the dense vector for Content. Must be populated and match
	// the target collection's dimension before Upsert.
	Embedding []float32
	// Payload carries the chunk text and traceability metadata.
	Payload Payload
}

// SearchResult is a single ranked hit from a similarity search.
// Ephemeral — produced per query, never persisted.
type SearchResult struct {
	// ID is the point id of the matched chunk.
	ID string
	// Score is the similarity under the collection's metric (higher is better).
	Score float32
	// Payload is the stored chunk metadata.
	Payload Payload
	// Vector is the stored embedding, populated only when requested.
	Vector []float32
}

// CollectionConfig describes a named collection at creation time.
type CollectionConfig struct {
	// Name is the collection name. At most one collection exists per name.
	Name string
	// VectorSize is the dimensionality every upserted embedding must have.
	VectorSize uint64
	// Metric is the similarity metric used for search ranking.
	Metric Distance
}

// CollectionInfo is the point-in-time collection summary returned by Info.
type CollectionInfo struct {
	// Name is the collection name.
	Name string `json:"name"`
	// VectorsCount is the number of stored vectors.
	VectorsCount uint64 `json:"vectors_count"`
	// PointsCount is the number of stored points.
	PointsCount uint64 `json:"points_count"`
	// VectorSize is the configured embedding dimension.
	VectorSize uint64 `json:"vector_size"`
	// Metric is the configured similarity metric.
	Metric Distance `json:"distance_metric"`
}

// Filter restricts search results to points whose payload fields exactly
// match every entry. A nil or empty filter matches all points.
type Filter map[string]string

// Index is the interface for vector collection management and search.
// Implementations must be safe to call from multiple goroutines; concurrent
// upserts into the same collection are last-writer-wins per point id.
type Index interface {
	// Create creates a named collection. Returns ErrCollectionExists when the
	// name is already taken.
	Create(ctx context.Context, cfg CollectionConfig) error

	// Exists reports whether the named collection exists. It never returns
	// an error — connectivity failure is reported as false.
	Exists(ctx context.Context, name string) bool

	// Upsert stores one point per chunk, keyed by a fresh identifier.
	// Returns ErrDimensionMismatch if any embedding length differs from the
	// collection dimension, ErrUnavailable on backend failure.
	Upsert(ctx context.Context, name string, chunks []Chunk) error

	// Search returns up to limit results ranked by similarity, descending.
	// A missing collection yields an empty slice and nil error.
	Search(ctx context.Context, name string, queryVector []float32, limit int, filter Filter) ([]SearchResult, error)

	// Info returns the collection summary, or ErrNotFound if absent.
	Info(ctx context.Context, name string) (*CollectionInfo, error)

	// Delete removes the named collection. Deleting an absent collection is
	// not an error.
	Delete(ctx context.Context, name string) error

	// Close releases any resources held by the index.
	Close() error
}

// Embedder is the interface for converting text into dense vector embeddings.
// The returned slice is parallel to the input. Implementations must be safe
// to call from multiple goroutines and deterministic for identical input.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
