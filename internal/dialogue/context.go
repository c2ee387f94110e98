package dialogue

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pdfcast/pdfcast-go/internal/logging"
	"github.com/pdfcast/pdfcast-go/internal/vectorindex"
)

// defaultContextLimit is the number of chunks retrieved per query when the
// builder is constructed with limit 0.
const defaultContextLimit = 5

// ContextBuilder fetches the top-K chunks most similar to a query and
// concatenates them into a grounding context string for dialogue prompts.
type ContextBuilder struct {
	// embedder converts the query text into a vector.
	embedder vectorindex.Embedder
	// index performs the similarity search.
	index vectorindex.Index
	// collection is the collection searched for context chunks.
	collection string
	// limit is the number of chunks concatenated per query.
	limit int
}

// NewContextBuilder constructs a ContextBuilder over the given collection.
// limit falls back to 5 when zero.
func NewContextBuilder(embedder vectorindex.Embedder, index vectorindex.Index, collection string, limit int) (*ContextBuilder, error) {
	if embedder == nil {
		return nil, fmt.Errorf("dialogue: embedder must not be nil")
	}
	if index == nil {
		return nil, fmt.Errorf("dialogue: index must not be nil")
	}
	if collection == "" {
		return nil, fmt.Errorf("dialogue: collection must not be empty")
	}
	if limit <= 0 {
		limit = defaultContextLimit
	}
	return &ContextBuilder{
		embedder:   embedder,
		index:      index,
		collection: collection,
		limit:      limit,
	}, nil
}

// BuildContext returns a retrieval-grounded context string for the given
// document and query. Retrieval failure never aborts conversation
// generation: on a missing query, an embedding failure, or an empty search
// result the builder degrades to a generic placeholder naming the document.
func (b *ContextBuilder) BuildContext(ctx context.Context, documentID string, query string) string {
	if query == "" {
		return fallbackContext(documentID)
	}

	embeddings, err := b.embedder.Embed(ctx, []string{query})
	if err != nil || len(embeddings) == 0 {
		logging.FromContext(ctx).Warn("dialogue: query embedding failed, using fallback context",
			slog.String("document_id", documentID),
			slog.Any("error", err),
		)
		return fallbackContext(documentID)
	}

	// Restrict results to the requested document so a shared collection
	// never leaks another document's chunks into the conversation.
	filter := vectorindex.Filter{"document_id": documentID}
	results, err := b.index.Search(ctx, b.collection, embeddings[0], b.limit, filter)
	if err != nil || len(results) == 0 {
		if err != nil {
			logging.FromContext(ctx).Warn("dialogue: context search failed, using fallback context",
				slog.String("document_id", documentID),
				slog.Any("error", err),
			)
		}
		return fallbackContext(documentID)
	}

	parts := make([]string, 0, len(results))
	for _, r := range results {
		parts = append(parts, r.Payload.Content)
	}
	return strings.Join(parts, "\n\n")
}

// fallbackContext is the degraded context used when retrieval is impossible.
// It references the document so the generation prompt still names its topic.
func fallbackContext(documentID string) string {
	return fmt.Sprintf("Context from document %s about various topics.", documentID)
}
