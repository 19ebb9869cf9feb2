package retrieval

import (
	"context"

	"github.com/arielvoskov/reviewlens/internal/domain/review"
)

// Cutoff explains why context packing stopped.
type Cutoff string

const (
	// CutoffExhausted means every fetched candidate was considered.
	CutoffExhausted Cutoff = "exhausted"
	// CutoffMaxReviews means the review count limit was reached.
	CutoffMaxReviews Cutoff = "max_reviews"
)

// Budget bounds the assembled context.
type Budget struct {
	MaxReviews int
	MaxChars   int // title + content characters across accepted reviews
}

// Context is the packed retrieval result for one question.
type Context struct {
	Query             string
	Candidates        []Candidate
	AvgSimilarity     float64
	Cutoff            Cutoff
	SkippedOverBudget int
}

// Candidate aliases the review candidate for callers of this package.
type Candidate = review.Candidate

// Empty reports whether no candidate survived packing. An empty context
// is a valid outcome, not an error.
func (c Context) Empty() bool {
	return len(c.Candidates) == 0
}

// ContextBuilder assembles a budget-bounded context from search results.
type ContextBuilder struct {
	searcher *Searcher
}

// NewContextBuilder creates a ContextBuilder over a Searcher.
func NewContextBuilder(searcher *Searcher) *ContextBuilder {
	return &ContextBuilder{searcher: searcher}
}

// Assemble fetches twice the budgeted review count to leave room for
// size-based rejection, then greedily packs candidates in descending
// similarity order. A candidate whose title+content would overflow the
// character budget is skipped and the scan continues; this is best
// effort packing, not an optimal fit.
func (b *ContextBuilder) Assemble(ctx context.Context, q Query, budget Budget) (Context, error) {
	fetch := q
	fetch.Limit = budget.MaxReviews * 2
	ranked, err := b.searcher.Search(ctx, fetch)
	if err != nil {
		return Context{}, err
	}
	return pack(q.Text, ranked, budget), nil
}

// AssembleSimilar is the stored-seed variant of Assemble.
func (b *ContextBuilder) AssembleSimilar(ctx context.Context, reviewID string, q Query, budget Budget) (Context, error) {
	fetch := q
	fetch.Limit = budget.MaxReviews * 2
	ranked, err := b.searcher.FindSimilarToStored(ctx, reviewID, fetch)
	if err != nil {
		return Context{}, err
	}
	return pack(q.Text, ranked, budget), nil
}

func pack(queryText string, ranked []Candidate, budget Budget) Context {
	out := Context{Query: queryText, Cutoff: CutoffExhausted}
	usedChars := 0
	for _, cand := range ranked {
		if len(out.Candidates) >= budget.MaxReviews {
			out.Cutoff = CutoffMaxReviews
			break
		}
		size := len(cand.Review.Title) + len(cand.Review.Content)
		if budget.MaxChars > 0 && usedChars+size > budget.MaxChars {
			out.SkippedOverBudget++
			continue
		}
		usedChars += size
		out.Candidates = append(out.Candidates, cand)
	}
	if len(out.Candidates) == budget.MaxReviews && out.Cutoff != CutoffMaxReviews {
		out.Cutoff = CutoffMaxReviews
	}

	if len(out.Candidates) > 0 {
		sum := 0.0
		for _, cand := range out.Candidates {
			sum += cand.Similarity
		}
		out.AvgSimilarity = sum / float64(len(out.Candidates))
	}
	return out
}
