// Package insights computes aggregate statistics over a set of review
// candidates: rating distribution, version and platform mix, and a
// sentiment breakdown derived from ratings. All functions are pure.
package insights

import (
	"math"

	"github.com/arielvoskov/reviewlens/internal/domain/review"
)

// Themes summarizes the thematic shape of a candidate set.
type Themes struct {
	Count           int            `json:"count"`
	AvgRating       float64        `json:"avgRating"`
	RatingHistogram map[int]int    `json:"ratingHistogram"` // keyed 1..5, always fully populated
	TopVersions     []string       `json:"topVersions"`     // at most 3, by descending frequency
	PlatformCounts  map[string]int `json:"platformCounts"`
}

// Sentiment buckets candidates by rating. Ratings of 4 and 5 count as
// positive, exactly 3 as neutral, 1 and 2 as negative.
type Sentiment struct {
	Positive    int     `json:"positive"`
	Neutral     int     `json:"neutral"`
	Negative    int     `json:"negative"`
	PositivePct float64 `json:"positivePct"`
	NeutralPct  float64 `json:"neutralPct"`
	NegativePct float64 `json:"negativePct"`
}

// ExtractThemes traverses candidates once and fills every histogram
// bucket, including zero counts. Version ranking breaks frequency ties
// by first appearance so the output is deterministic.
func ExtractThemes(candidates []review.Candidate) Themes {
	t := Themes{
		Count:           len(candidates),
		RatingHistogram: make(map[int]int, review.MaxRating),
		PlatformCounts:  make(map[string]int),
	}
	for r := review.MinRating; r <= review.MaxRating; r++ {
		t.RatingHistogram[r] = 0
	}

	versionFreq := make(map[string]int)
	var versionOrder []string
	ratingSum := 0
	for _, c := range candidates {
		r := c.Review
		if r.Rating >= review.MinRating && r.Rating <= review.MaxRating {
			t.RatingHistogram[r.Rating]++
		}
		ratingSum += r.Rating
		if r.Platform != "" {
			t.PlatformCounts[r.Platform]++
		}
		if r.Version != "" {
			if _, seen := versionFreq[r.Version]; !seen {
				versionOrder = append(versionOrder, r.Version)
			}
			versionFreq[r.Version]++
		}
	}

	if t.Count > 0 {
		t.AvgRating = float64(ratingSum) / float64(t.Count)
	}
	t.TopVersions = topVersions(versionOrder, versionFreq, 3)
	return t
}

// topVersions selects up to max versions by descending frequency. Order
// of first appearance wins ties, so a stable selection sort over the
// first-seen list is enough.
func topVersions(order []string, freq map[string]int, max int) []string {
	remaining := append([]string(nil), order...)
	var out []string
	for len(out) < max && len(remaining) > 0 {
		best := 0
		for i := 1; i < len(remaining); i++ {
			if freq[remaining[i]] > freq[remaining[best]] {
				best = i
			}
		}
		out = append(out, remaining[best])
		remaining = append(remaining[:best], remaining[best+1:]...)
	}
	return out
}

// ExtractSentiment buckets candidates by rating and derives percentages
// rounded to one decimal place. Defined for empty input: all zeros.
func ExtractSentiment(candidates []review.Candidate) Sentiment {
	var s Sentiment
	for _, c := range candidates {
		switch {
		case c.Review.Rating >= 4:
			s.Positive++
		case c.Review.Rating == 3:
			s.Neutral++
		default:
			s.Negative++
		}
	}
	total := len(candidates)
	if total == 0 {
		return s
	}
	s.PositivePct = pct(s.Positive, total)
	s.NeutralPct = pct(s.Neutral, total)
	s.NegativePct = pct(s.Negative, total)
	return s
}

func pct(n, total int) float64 {
	return math.Round(float64(n)/float64(total)*1000) / 10
}
