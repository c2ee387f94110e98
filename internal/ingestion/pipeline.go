// Package ingestion implements the document ingestion pipeline.
// It extracts a document's text, chunks the content, embeds each chunk,
// and upserts the results into the vector index. The pipeline is invoked
// by the `pdfcast ingest` CLI command and by the podcast orchestrator.
package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pdfcast/pdfcast-go/internal/extract"
	"github.com/pdfcast/pdfcast-go/internal/segmenter"
	"github.com/pdfcast/pdfcast-go/internal/vectorindex"
)

// Config holds the configuration for the ingestion pipeline.
type Config struct {
	// Collection is the vector collection receiving the chunks.
	Collection string

	// ChunkSize is the maximum number of characters per chunk.
	// Defaults to segmenter.DefaultMaxChars if zero.
	ChunkSize int

	// EmbedBatchSize is the number of chunks embedded per backend call.
	// Defaults to 32 if zero.
	EmbedBatchSize int
}

// Result summarizes one ingested document.
type Result struct {
	// DocumentID is the identifier assigned to the document.
	DocumentID string
	// Source is the display label inferred from the locator.
	Source string
	// ChunkCount is the number of chunks stored.
	ChunkCount int
	// PageCount is the heuristic page count derived from the chunk count.
	PageCount int
	// Elapsed is the wall-clock duration of the ingestion.
	Elapsed time.Duration
}

// Pipeline orchestrates the extract → chunk → embed → upsert flow for a
// single document.
type Pipeline struct {
	// extractor converts a locator into plain text.
	extractor extract.Extractor

	// embedder converts text chunks into dense vector embeddings.
	embedder vectorindex.Embedder

	// index persists the embedded chunks.
	index vectorindex.Index

	// cfg holds the resolved pipeline configuration.
	cfg *Config
}

// NewPipeline constructs a Pipeline from the provided dependencies and config.
func NewPipeline(extractor extract.Extractor, embedder vectorindex.Embedder, index vectorindex.Index, cfg *Config) (*Pipeline, error) {
	if extractor == nil {
		return nil, fmt.Errorf("ingestion: extractor must not be nil")
	}
	if embedder == nil {
		return nil, fmt.Errorf("ingestion: embedder must not be nil")
	}
	if index == nil {
		return nil, fmt.Errorf("ingestion: index must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("ingestion: collection must not be empty")
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = segmenter.DefaultMaxChars
	}
	if cfg.EmbedBatchSize <= 0 {
		cfg.EmbedBatchSize = 32
	}

	return &Pipeline{
		extractor: extractor,
		embedder:  embedder,
		index:     index,
		cfg:       cfg,
	}, nil
}

// Ingest extracts, chunks, embeds, and stores the document at locator under
// a freshly assigned document ID. Progress is reported via the optional
// progress callback. Stored chunks are not rolled back on a later failure;
// re-running the ingestion appends new points rather than replacing them.
func (p *Pipeline) Ingest(ctx context.Context, locator string, progress func(msg string)) (*Result, error) {
	if progress == nil {
		progress = func(string) {}
	}
	start := time.Now()

	documentID := uuid.NewString()
	source := extract.InferMetadata(locator).Source

	progress(fmt.Sprintf("extracting %s", locator))
	text, err := p.extractor.Extract(ctx, locator)
	if err != nil {
		return nil, fmt.Errorf("ingestion: extraction failed for %s: %w", locator, err)
	}

	texts := segmenter.Chunk(text, p.cfg.ChunkSize)
	if len(texts) == 0 {
		return nil, fmt.Errorf("ingestion: %s produced no chunks", locator)
	}
	progress(fmt.Sprintf("chunked %s into %d chunks", locator, len(texts)))

	chunks := make([]vectorindex.Chunk, 0, len(texts))
	for batchStart := 0; batchStart < len(texts); batchStart += p.cfg.EmbedBatchSize {
		batchEnd := batchStart + p.cfg.EmbedBatchSize
		if batchEnd > len(texts) {
			batchEnd = len(texts)
		}

		embeddings, err := p.embedder.Embed(ctx, texts[batchStart:batchEnd])
		if err != nil {
			return nil, fmt.Errorf("ingestion: embedding failed for %s: %w", locator, err)
		}
		if len(embeddings) != batchEnd-batchStart {
			return nil, fmt.Errorf("ingestion: embedder returned %d vectors for %d chunks", len(embeddings), batchEnd-batchStart)
		}

		for i, emb := range embeddings {
			idx := batchStart + i
			chunks = append(chunks, vectorindex.Chunk{
				ID:        fmt.Sprintf("%s#%d", documentID, idx),
				Embedding: emb,
				Payload: vectorindex.Payload{
					DocumentID: documentID,
					Content:    texts[idx],
					PageNumber: segmenter.PageNumber(idx),
					Source:     source,
					ChunkIndex: idx,
				},
			})
		}
	}

	if err := p.index.Upsert(ctx, p.cfg.Collection, chunks); err != nil {
		return nil, fmt.Errorf("ingestion: upsert failed for %s: %w", locator, err)
	}
	progress(fmt.Sprintf("ingested %d chunks from %s", len(chunks), locator))

	return &Result{
		DocumentID: documentID,
		Source:     source,
		ChunkCount: len(chunks),
		PageCount:  segmenter.PageCount(len(chunks)),
		Elapsed:    time.Since(start),
	}, nil
}
