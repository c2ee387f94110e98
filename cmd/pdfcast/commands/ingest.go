package commands

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdfcast/pdfcast-go/internal/extract"
	"github.com/pdfcast/pdfcast-go/internal/ingestion"
	"github.com/pdfcast/pdfcast-go/internal/logging"
)

// NewIngestCmd constructs the `pdfcast ingest` command, which runs the
// document ingestion pipeline to populate the vector index without
// generating a podcast.
func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [document...]",
		Short: "Ingest documents into the vector index",
		Long: `Extract, chunk, embed, and store one or more documents in the Qdrant
vector index. Each document receives a fresh document ID; re-ingesting the
same file adds new chunks rather than replacing earlier ones.

Documents may be local text or markdown files, or http(s) URLs.

Required environment variables:
  QDRANT_HOST          Qdrant server hostname (default: localhost)
  QDRANT_PORT          Qdrant gRPC port (default: 6334)
  QDRANT_COLLECTION    Collection name (default: podcast_chunks)
  QDRANT_API_KEY       Optional API key for authenticated clusters
  EMBEDDING_PROVIDER   Embedding backend: ollama, openai, azure (default: ollama)
  EMBEDDING_*          Provider-specific overrides (see README)

Examples:
  pdfcast ingest ./papers/attention.txt
  pdfcast ingest https://example.com/whitepaper.md ./notes.md`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			emb, err := buildEmbedder(log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			idx, err := buildIndex()
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer func() { _ = idx.Close() }()

			collection, err := idx.InitializeDefault(ctx, emb)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			log.Info("vector index ready", slog.String("collection", collection))

			pipeline, err := ingestion.NewPipeline(extract.NewTextExtractor(nil), emb, idx, &ingestion.Config{
				Collection: collection,
			})
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			for _, locator := range args {
				result, err := pipeline.Ingest(ctx, locator, func(msg string) {
					log.Info(msg)
				})
				if err != nil {
					return fmt.Errorf("ingest: %s: %w", locator, err)
				}
				fmt.Printf("ingested %s: document_id=%s chunks=%d pages=%d (%s)\n",
					result.Source, result.DocumentID, result.ChunkCount, result.PageCount,
					result.Elapsed.Round(time.Millisecond))
			}

			return nil
		},
	}

	return cmd
}
