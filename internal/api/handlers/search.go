package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arielvoskov/reviewlens/internal/domain/retrieval"
	"github.com/arielvoskov/reviewlens/internal/domain/review"
)

// ReviewSearcher is the search capability consumed by the HTTP layer.
type ReviewSearcher interface {
	Search(ctx context.Context, q retrieval.Query) ([]review.Candidate, error)
	FindSimilarToStored(ctx context.Context, reviewID string, q retrieval.Query) ([]review.Candidate, error)
}

// SearchHandler serves similarity search over the review corpus.
type SearchHandler struct {
	searcher ReviewSearcher
}

func NewSearchHandler(searcher ReviewSearcher) *SearchHandler {
	return &SearchHandler{searcher: searcher}
}

type searchRequest struct {
	Query     string  `json:"query"`
	AppID     string  `json:"appId,omitempty"`
	Platform  string  `json:"platform,omitempty"`
	Limit     int     `json:"limit,omitempty"`
	Threshold float64 `json:"threshold,omitempty"`
	Provider  string  `json:"provider,omitempty"`
}

type searchResponse struct {
	Results []review.Candidate `json:"results"`
	Count   int                `json:"count"`
}

// Search handles POST /api/v1/reviews/search.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	results, err := h.searcher.Search(r.Context(), retrieval.Query{
		Text:       req.Query,
		AppID:      req.AppID,
		Platform:   req.Platform,
		Limit:      clampLimit(req.Limit),
		Threshold:  req.Threshold,
		ProviderID: req.Provider,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if results == nil {
		results = []review.Candidate{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: results, Count: len(results)})
}

// Similar handles GET /api/v1/reviews/{id}/similar.
func (h *SearchHandler) Similar(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "review id is required")
		return
	}

	results, err := h.searcher.FindSimilarToStored(r.Context(), id, retrieval.Query{
		AppID:     r.URL.Query().Get("appId"),
		Platform:  r.URL.Query().Get("platform"),
		Limit:     clampLimit(queryInt(r, "limit")),
		Threshold: queryFloat(r, "threshold", 0),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if results == nil {
		results = []review.Candidate{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Results: results, Count: len(results)})
}
