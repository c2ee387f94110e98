package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pdfcast/pdfcast-go/internal/vectorindex"
)

// ---------------------------------------------------------------------------
// Fake vector index for collection handler tests
// ---------------------------------------------------------------------------

// fakeIndex implements vectorindex.Index for tests. Behavior is driven by
// the configured fields; calls are recorded for assertion.
type fakeIndex struct {
	// createErr is returned by Create.
	createErr error
	// info is returned by Info when non-nil, otherwise ErrNotFound.
	info *vectorindex.CollectionInfo
	// results is returned by Search.
	results []vectorindex.SearchResult
	// searchErr is returned by Search when non-nil.
	searchErr error
	// deleteErr is returned by Delete.
	deleteErr error

	// lastCreate, lastLimit, and deleted record the most recent calls.
	lastCreate vectorindex.CollectionConfig
	lastLimit  int
	deleted    []string
}

func (f *fakeIndex) Create(_ context.Context, cfg vectorindex.CollectionConfig) error {
	f.lastCreate = cfg
	return f.createErr
}

func (f *fakeIndex) Exists(_ context.Context, _ string) bool { return f.info != nil }

func (f *fakeIndex) Upsert(_ context.Context, _ string, _ []vectorindex.Chunk) error {
	return nil
}

func (f *fakeIndex) Search(_ context.Context, _ string, _ []float32, limit int, _ vectorindex.Filter) ([]vectorindex.SearchResult, error) {
	f.lastLimit = limit
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.results, nil
}

func (f *fakeIndex) Info(_ context.Context, _ string) (*vectorindex.CollectionInfo, error) {
	if f.info == nil {
		return nil, vectorindex.ErrNotFound
	}
	return f.info, nil
}

func (f *fakeIndex) Delete(_ context.Context, name string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, name)
	return nil
}

func (f *fakeIndex) Close() error { return nil }

// collectionsMux dispatches through a mux so r.PathValue("name") is populated.
func collectionsMux(s *Server) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/collections", s.handleCreateCollection)
	mux.HandleFunc("GET /api/collections/{name}", s.handleCollectionInfo)
	mux.HandleFunc("POST /api/collections/{name}/search", s.handleSearchCollection)
	mux.HandleFunc("DELETE /api/collections/{name}", s.handleDeleteCollection)
	return mux
}

// ---------------------------------------------------------------------------
// POST /api/collections
// ---------------------------------------------------------------------------

func TestHandleCreateCollection_Created(t *testing.T) {
	t.Parallel()

	idx := &fakeIndex{}
	s := newTestServer()
	s.index = idx

	req := httptest.NewRequest(http.MethodPost, "/api/collections",
		strings.NewReader(`{"collection_name":"notes","vector_size":768,"distance_metric":"cosine"}`))
	w := httptest.NewRecorder()

	collectionsMux(s).ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d — body: %s", w.Code, w.Body.String())
	}
	if idx.lastCreate.Name != "notes" {
		t.Errorf("name: got %q", idx.lastCreate.Name)
	}
	if idx.lastCreate.VectorSize != 768 {
		t.Errorf("vector size: got %d", idx.lastCreate.VectorSize)
	}
	if idx.lastCreate.Metric != vectorindex.DistanceCosine {
		t.Errorf("metric: got %q", idx.lastCreate.Metric)
	}

	var resp createCollectionResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "success" || resp.CollectionName != "notes" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestHandleCreateCollection_Validation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
		want int
	}{
		{name: "missing name", body: `{"vector_size":768}`, want: http.StatusBadRequest},
		{name: "zero vector size", body: `{"collection_name":"notes"}`, want: http.StatusBadRequest},
		{name: "unknown metric", body: `{"collection_name":"notes","vector_size":8,"distance_metric":"manhattan"}`, want: http.StatusBadRequest},
		{name: "invalid json", body: `{`, want: http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s := newTestServer()
			req := httptest.NewRequest(http.MethodPost, "/api/collections",
				strings.NewReader(tc.body))
			w := httptest.NewRecorder()

			collectionsMux(s).ServeHTTP(w, req)

			if w.Code != tc.want {
				t.Errorf("expected %d, got %d", tc.want, w.Code)
			}
		})
	}
}

func TestHandleCreateCollection_AlreadyExists(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	s.index = &fakeIndex{createErr: vectorindex.ErrCollectionExists}

	req := httptest.NewRequest(http.MethodPost, "/api/collections",
		strings.NewReader(`{"collection_name":"notes","vector_size":768}`))
	w := httptest.NewRecorder()

	collectionsMux(s).ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

// ---------------------------------------------------------------------------
// GET /api/collections/{name}
// ---------------------------------------------------------------------------

func TestHandleCollectionInfo_Found(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	s.index = &fakeIndex{info: &vectorindex.CollectionInfo{
		Name:        "podcast_chunks",
		PointsCount: 42,
		VectorSize:  768,
		Metric:      vectorindex.DistanceCosine,
	}}

	req := httptest.NewRequest(http.MethodGet, "/api/collections/podcast_chunks", nil)
	w := httptest.NewRecorder()

	collectionsMux(s).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d — body: %s", w.Code, w.Body.String())
	}
	var info vectorindex.CollectionInfo
	if err := json.NewDecoder(w.Body).Decode(&info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Name != "podcast_chunks" || info.PointsCount != 42 {
		t.Errorf("unexpected info: %+v", info)
	}
}

func TestHandleCollectionInfo_NotFound(t *testing.T) {
	t.Parallel()

	s := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/collections/absent", nil)
	w := httptest.NewRecorder()

	collectionsMux(s).ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

// ---------------------------------------------------------------------------
// POST /api/collections/{name}/search
// ---------------------------------------------------------------------------

func TestHandleSearchCollection_ReturnsHits(t *testing.T) {
	t.Parallel()

	idx := &fakeIndex{results: []vectorindex.SearchResult{
		{ID: "p1", Score: 0.92, Payload: vectorindex.Payload{Content: "first chunk", DocumentID: "doc-1"}},
		{ID: "p2", Score: 0.81, Payload: vectorindex.Payload{Content: "second chunk", DocumentID: "doc-1"}},
	}}
	s := newTestServer()
	s.index = idx

	req := httptest.NewRequest(http.MethodPost, "/api/collections/podcast_chunks/search",
		strings.NewReader(`{"query_vector":[0.1,0.2,0.3]}`))
	w := httptest.NewRecorder()

	collectionsMux(s).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d — body: %s", w.Code, w.Body.String())
	}
	if idx.lastLimit != 5 {
		t.Errorf("expected default limit 5, got %d", idx.lastLimit)
	}

	var resp searchCollectionResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 2 || len(resp.Results) != 2 {
		t.Fatalf("expected 2 hits, got count=%d len=%d", resp.Count, len(resp.Results))
	}
	if resp.Results[0].ID != "p1" || resp.Results[0].Payload.Content != "first chunk" {
		t.Errorf("unexpected first hit: %+v", resp.Results[0])
	}
}

func TestHandleSearchCollection_MissingVector(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/collections/podcast_chunks/search",
		strings.NewReader(`{"limit":3}`))
	w := httptest.NewRecorder()

	collectionsMux(s).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestHandleSearchCollection_NoResults(t *testing.T) {
	t.Parallel()

	s := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/api/collections/absent/search",
		strings.NewReader(`{"query_vector":[0.5],"limit":2}`))
	w := httptest.NewRecorder()

	collectionsMux(s).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d — body: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"results":[]`) {
		t.Errorf("expected empty results array, got: %s", w.Body.String())
	}
}

// ---------------------------------------------------------------------------
// DELETE /api/collections/{name}
// ---------------------------------------------------------------------------

func TestHandleDeleteCollection_Success(t *testing.T) {
	t.Parallel()

	idx := &fakeIndex{}
	s := newTestServer()
	s.index = idx

	req := httptest.NewRequest(http.MethodDelete, "/api/collections/notes", nil)
	w := httptest.NewRecorder()

	collectionsMux(s).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d — body: %s", w.Code, w.Body.String())
	}
	if len(idx.deleted) != 1 || idx.deleted[0] != "notes" {
		t.Errorf("expected delete of notes, got %v", idx.deleted)
	}
	if !strings.Contains(w.Body.String(), "collection notes deleted") {
		t.Errorf("expected deletion message, got: %s", w.Body.String())
	}
}
