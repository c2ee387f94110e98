package vectorindex

import (
	"errors"
	"strings"
	"testing"

	"github.com/qdrant/go-client/qdrant"
)

func Test_QdrantDistanceMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   Distance
		want qdrant.Distance
	}{
		{DistanceCosine, qdrant.Distance_Cosine},
		{DistanceEuclid, qdrant.Distance_Euclid},
		{DistanceDot, qdrant.Distance_Dot},
		{Distance("bogus"), qdrant.Distance_Cosine},
		{Distance(""), qdrant.Distance_Cosine},
	}
	for _, tc := range cases {
		if got := qdrantDistance(tc.in); got != tc.want {
			t.Errorf("qdrantDistance(%q): want %v, got %v", tc.in, tc.want, got)
		}
	}
}

func Test_ValidateDimensions(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		chunks    []Chunk
		size      uint64
		wantErr   bool
		wantChunk string
	}{
		{
			name: "all match",
			chunks: []Chunk{
				{ID: "c1", Embedding: []float32{0.1, 0.2, 0.3, 0.4}},
				{ID: "c2", Embedding: []float32{0.5, 0.6, 0.7, 0.8}},
			},
			size: 4,
		},
		{
			name: "short embedding rejected",
			chunks: []Chunk{
				{ID: "c1", Embedding: []float32{0.1, 0.2, 0.3, 0.4}},
				{ID: "c2", Embedding: []float32{0.5, 0.6, 0.7}},
			},
			size:      4,
			wantErr:   true,
			wantChunk: "c2",
		},
		{
			name:      "empty embedding rejected",
			chunks:    []Chunk{{ID: "c1", Embedding: nil}},
			size:      4,
			wantErr:   true,
			wantChunk: "c1",
		},
		{
			name:   "empty batch passes",
			chunks: nil,
			size:   4,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := validateDimensions(tc.chunks, "podcast_chunks", tc.size)
			if !tc.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrDimensionMismatch) {
				t.Fatalf("want ErrDimensionMismatch, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.wantChunk) {
				t.Errorf("error should name chunk %s: %v", tc.wantChunk, err)
			}
		})
	}
}

func Test_PayloadFromValues(t *testing.T) {
	t.Parallel()

	values := qdrant.NewValueMap(map[string]any{
		"document_id": "doc-1",
		"content":     "chunk text",
		"page_number": int64(3),
		"source":      "report.pdf",
		"chunk_index": int64(14),
	})

	p := payloadFromValues(values)

	if p.DocumentID != "doc-1" {
		t.Errorf("DocumentID: want doc-1, got %q", p.DocumentID)
	}
	if p.Content != "chunk text" {
		t.Errorf("Content: want chunk text, got %q", p.Content)
	}
	if p.PageNumber != 3 {
		t.Errorf("PageNumber: want 3, got %d", p.PageNumber)
	}
	if p.Source != "report.pdf" {
		t.Errorf("Source: want report.pdf, got %q", p.Source)
	}
	if p.ChunkIndex != 14 {
		t.Errorf("ChunkIndex: want 14, got %d", p.ChunkIndex)
	}
}

func Test_PayloadFromValues_MissingKeys(t *testing.T) {
	t.Parallel()

	p := payloadFromValues(nil)
	if p != (Payload{}) {
		t.Errorf("want zero payload for nil values, got %+v", p)
	}

	p = payloadFromValues(qdrant.NewValueMap(map[string]any{"content": "only content"}))
	if p.Content != "only content" || p.PageNumber != 0 || p.Source != "" {
		t.Errorf("partial payload decoded incorrectly: %+v", p)
	}
}
