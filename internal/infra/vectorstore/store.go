// Package vectorstore provides read access to the external review vector
// index. Reviews are ingested by a separate pipeline; this service only
// queries and fetches points.
package vectorstore

import (
	"context"
	"errors"

	"github.com/arielvoskov/reviewlens/internal/domain/review"
)

// Sentinel errors for classification by callers.
var (
	// ErrUnavailable means the vector store could not be reached or
	// returned a server error.
	ErrUnavailable = errors.New("vector store unavailable")

	// ErrNotFound means the requested point does not exist.
	ErrNotFound = errors.New("review not found in vector store")
)

// Filter narrows a nearest-neighbor query. Zero-value fields are ignored.
type Filter struct {
	AppID    string
	Platform string
}

// Match is a single nearest-neighbor result. Distance is the raw cosine
// distance in [0, 2]; lower means closer. Results are ordered by
// ascending distance.
type Match struct {
	Review   review.Review
	Distance float64
}

// Store is the read-side contract over the vector index.
type Store interface {
	// Query returns up to limit nearest neighbors of vector, ordered by
	// ascending distance, restricted by the filter.
	Query(ctx context.Context, vector []float32, filter Filter, limit int) ([]Match, error)

	// GetReview fetches a stored review and its embedding by id.
	// Returns ErrNotFound if the point does not exist.
	GetReview(ctx context.Context, id string) (review.Review, []float32, error)

	// HealthCheck returns nil if the store is reachable.
	HealthCheck(ctx context.Context) error
}
