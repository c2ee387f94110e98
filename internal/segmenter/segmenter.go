// Package segmenter splits raw document text into bounded-size chunks
// suitable for embedding. Chunk boundaries always fall on word boundaries:
// words are accumulated greedily until adding the next word would push the
// chunk over the character limit.
package segmenter

import (
	"strings"
)

// DefaultMaxChars is the chunk size used when the caller passes 0.
// 1000 characters keeps chunks comfortably within embedding model input
// limits while remaining large enough to carry useful context.
const DefaultMaxChars = 1000

// ChunksPerPage is the number of chunks attributed to a single page when
// estimating page numbers. Extracted text carries no page boundaries, so
// PageNumber is an index-based approximation — callers must not treat it
// as an authoritative page mapping.
const ChunksPerPage = 5

// Chunk splits text into word-aligned chunks of at most maxChars characters.
// Joining the returned chunks with single spaces reproduces the
// whitespace-normalized input exactly — no characters are dropped or
// duplicated. A single word longer than maxChars is emitted alone in its own
// over-length chunk; words are never split.
func Chunk(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	var current strings.Builder

	for _, word := range words {
		if current.Len() == 0 {
			current.WriteString(word)
			continue
		}
		// +1 for the joining space.
		if current.Len()+1+len(word) <= maxChars {
			current.WriteByte(' ')
			current.WriteString(word)
			continue
		}
		chunks = append(chunks, current.String())
		current.Reset()
		current.WriteString(word)
	}

	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}

// PageNumber returns the estimated 1-based page number for the chunk at the
// given index, assuming ChunksPerPage chunks per page.
func PageNumber(chunkIndex int) int {
	if chunkIndex < 0 {
		return 1
	}
	return chunkIndex/ChunksPerPage + 1
}

// PageCount returns the estimated total page count for a document that
// produced totalChunks chunks. Like PageNumber this is an approximation,
// not a ground-truth page mapping.
func PageCount(totalChunks int) int {
	if totalChunks <= 0 {
		return 0
	}
	return totalChunks/ChunksPerPage + 1
}
