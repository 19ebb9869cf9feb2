// Package retrieval implements similarity search over the review corpus
// and budget-bounded context assembly for grounded answers.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/arielvoskov/reviewlens/internal/domain/review"
	"github.com/arielvoskov/reviewlens/internal/infra/embed"
	"github.com/arielvoskov/reviewlens/internal/infra/vectorstore"
)

// ErrNoEmbedding means a stored review has no vector attached and cannot
// seed a similarity query.
var ErrNoEmbedding = errors.New("stored review has no embedding")

// Query describes one similarity search.
type Query struct {
	Text       string
	AppID      string
	Platform   string
	Limit      int
	Threshold  float64 // candidates must score strictly above this
	ProviderID string  // embedding provider id, empty selects the default
}

// Searcher embeds queries and ranks nearest stored reviews.
type Searcher struct {
	embedders *embed.Registry
	store     vectorstore.Store
	logger    *logrus.Logger
}

// NewSearcher creates a Searcher.
func NewSearcher(embedders *embed.Registry, store vectorstore.Store, logger *logrus.Logger) *Searcher {
	if logger == nil {
		logger = logrus.New()
	}
	return &Searcher{embedders: embedders, store: store, logger: logger}
}

// Search embeds q.Text and returns up to q.Limit candidates scoring
// strictly above q.Threshold, in descending similarity order. Equal
// similarities are ordered by review id ascending so results are
// reproducible.
func (s *Searcher) Search(ctx context.Context, q Query) ([]review.Candidate, error) {
	embedder, err := s.embedders.Resolve(q.ProviderID)
	if err != nil {
		return nil, err
	}
	vector, err := embedder.EmbedOne(ctx, q.Text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return s.searchByVector(ctx, vector, q, "")
}

// FindSimilarToStored uses a stored review's own embedding as the query
// vector. The seed review never appears in its own results. Returns
// vectorstore.ErrNotFound for unknown ids and ErrNoEmbedding when the
// stored point carries no vector.
func (s *Searcher) FindSimilarToStored(ctx context.Context, reviewID string, q Query) ([]review.Candidate, error) {
	_, vector, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("review %q: %w", reviewID, ErrNoEmbedding)
	}
	return s.searchByVector(ctx, vector, q, reviewID)
}

func (s *Searcher) searchByVector(ctx context.Context, vector []float32, q Query, excludeID string) ([]review.Candidate, error) {
	fetchLimit := q.Limit
	if excludeID != "" {
		// The seed review is its own nearest neighbor.
		fetchLimit++
	}
	matches, err := s.store.Query(ctx, vector, vectorstore.Filter{
		AppID:    q.AppID,
		Platform: q.Platform,
	}, fetchLimit)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}

	candidates := make([]review.Candidate, 0, len(matches))
	for _, m := range matches {
		if m.Review.ID == excludeID {
			continue
		}
		sim := clampSimilarity(1 - m.Distance)
		if sim <= q.Threshold {
			continue
		}
		candidates = append(candidates, review.Candidate{Review: m.Review, Similarity: sim})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Similarity != candidates[j].Similarity {
			return candidates[i].Similarity > candidates[j].Similarity
		}
		return candidates[i].Review.ID < candidates[j].Review.ID
	})

	if len(candidates) > q.Limit {
		candidates = candidates[:q.Limit]
	}

	s.logger.WithFields(logrus.Fields{
		"app_id":     q.AppID,
		"candidates": len(candidates),
		"threshold":  q.Threshold,
	}).Debug("Similarity search complete")
	return candidates, nil
}

func clampSimilarity(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
