package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pdfcast/pdfcast-go/internal/logging"
	"github.com/pdfcast/pdfcast-go/internal/vectorindex"
)

// handleCreateCollection handles POST /api/collections. Returns 201 on
// success, 409 when the name is already taken.
func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var req createCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.CollectionName == "" {
		http.Error(w, "collection_name is required", http.StatusBadRequest)
		return
	}
	if req.VectorSize == 0 {
		http.Error(w, "vector_size must be a positive integer", http.StatusBadRequest)
		return
	}

	metric, err := parseDistance(req.DistanceMetric)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = s.index.Create(r.Context(), vectorindex.CollectionConfig{
		Name:       req.CollectionName,
		VectorSize: req.VectorSize,
		Metric:     metric,
	})
	if err != nil {
		if errors.Is(err, vectorindex.ErrCollectionExists) {
			http.Error(w, "collection already exists", http.StatusConflict)
			return
		}
		logging.FromContext(r.Context()).Error("collection create failed",
			slog.String("collection", req.CollectionName),
			slog.Any("error", err),
		)
		http.Error(w, "failed to create collection", http.StatusInternalServerError)
		return
	}

	writeJSON(w, r, http.StatusCreated, createCollectionResponse{
		Status:         "success",
		CollectionName: req.CollectionName,
	})
}

// handleCollectionInfo handles GET /api/collections/{name}.
func (s *Server) handleCollectionInfo(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	info, err := s.index.Info(r.Context(), name)
	if err != nil {
		if errors.Is(err, vectorindex.ErrNotFound) {
			http.Error(w, "collection not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to get collection info", http.StatusInternalServerError)
		return
	}

	writeJSON(w, r, http.StatusOK, info)
}

// handleSearchCollection handles POST /api/collections/{name}/search.
// A missing collection yields an empty result list, matching the index's
// degrade-to-empty search contract.
func (s *Server) handleSearchCollection(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req searchCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.QueryVector) == 0 {
		http.Error(w, "query_vector is required", http.StatusBadRequest)
		return
	}
	if req.Limit <= 0 {
		req.Limit = 5
	}

	results, err := s.index.Search(r.Context(), name, req.QueryVector, req.Limit, req.Filter)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	hits := make([]searchHit, 0, len(results))
	for _, res := range results {
		hits = append(hits, searchHit{ID: res.ID, Score: res.Score, Payload: res.Payload})
	}

	writeJSON(w, r, http.StatusOK, searchCollectionResponse{Results: hits, Count: len(hits)})
}

// handleDeleteCollection handles DELETE /api/collections/{name}. Deleting an
// absent collection succeeds, matching the index's idempotent delete.
func (s *Server) handleDeleteCollection(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	if err := s.index.Delete(r.Context(), name); err != nil {
		logging.FromContext(r.Context()).Error("collection delete failed",
			slog.String("collection", name),
			slog.Any("error", err),
		)
		http.Error(w, "failed to delete collection", http.StatusInternalServerError)
		return
	}

	writeJSON(w, r, http.StatusOK, statusMessageResponse{
		Status:  "success",
		Message: fmt.Sprintf("collection %s deleted", name),
	})
}

// parseDistance maps a request metric string to a Distance. An empty string
// selects cosine.
func parseDistance(s string) (vectorindex.Distance, error) {
	switch strings.ToLower(s) {
	case "", string(vectorindex.DistanceCosine):
		return vectorindex.DistanceCosine, nil
	case string(vectorindex.DistanceEuclid):
		return vectorindex.DistanceEuclid, nil
	case string(vectorindex.DistanceDot):
		return vectorindex.DistanceDot, nil
	default:
		return "", fmt.Errorf("unknown distance metric %q", s)
	}
}
