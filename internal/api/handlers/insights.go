package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/arielvoskov/reviewlens/internal/domain/insights"
	"github.com/arielvoskov/reviewlens/internal/domain/retrieval"
)

// InsightsHandler computes aggregate statistics over search results.
type InsightsHandler struct {
	searcher ReviewSearcher
}

func NewInsightsHandler(searcher ReviewSearcher) *InsightsHandler {
	return &InsightsHandler{searcher: searcher}
}

type insightsResponse struct {
	Themes    insights.Themes    `json:"themes"`
	Sentiment insights.Sentiment `json:"sentiment"`
}

// Build handles POST /api/v1/insights. The request body is the same as
// the search endpoint; the matched candidates feed the extractors.
func (h *InsightsHandler) Build(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	candidates, err := h.searcher.Search(r.Context(), retrieval.Query{
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

	writeJSON(w, http.StatusOK, insightsResponse{
		Themes:    insights.ExtractThemes(candidates),
		Sentiment: insights.ExtractSentiment(candidates),
	})
}
