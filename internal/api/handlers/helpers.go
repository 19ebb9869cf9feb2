// Handler helper functions shared across endpoints.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/arielvoskov/reviewlens/internal/domain/retrieval"
	"github.com/arielvoskov/reviewlens/internal/infra/embed"
	"github.com/arielvoskov/reviewlens/internal/infra/vectorstore"
)

const headerContentType = "Content-Type"

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(headerContentType, "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeDomainError maps pipeline errors to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, vectorstore.ErrNotFound):
		writeError(w, http.StatusNotFound, "review not found")
	case errors.Is(err, retrieval.ErrNoEmbedding):
		writeError(w, http.StatusUnprocessableEntity, "review has no embedding")
	case errors.Is(err, vectorstore.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "vector store unavailable")
	case errors.Is(err, embed.ErrMissingAPIKey):
		writeError(w, http.StatusBadGateway, "embedding provider not configured")
	case errors.Is(err, embed.ErrUpstream):
		writeError(w, http.StatusBadGateway, "embedding provider error")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// clampLimit parses a limit with a default and an upper bound.
func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultSearchLimit
	}
	if limit > maxSearchLimit {
		return maxSearchLimit
	}
	return limit
}

// queryInt parses an integer query parameter, returning 0 when absent
// or malformed.
func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return v
}

// queryFloat parses a float query parameter, returning fallback when
// absent or malformed.
func queryFloat(r *http.Request, key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(r.URL.Query().Get(key), 64)
	if err != nil {
		return fallback
	}
	return v
}
