// Package review defines the read model for corpus records: user reviews
// retrieved from the vector store. Reviews are written by the ingestion
// pipeline (out of process); this service only reads them.
package review

import "time"

// Review is a single user review as stored in the corpus.
type Review struct {
	ID                string    `json:"id"`
	AppID             string    `json:"appId"`
	Platform          string    `json:"platform"`
	Author            string    `json:"author"`
	Rating            int       `json:"rating"` // 1..5
	Title             string    `json:"title"`
	Content           string    `json:"content"`
	Date              time.Time `json:"date"`
	Version           string    `json:"version,omitempty"`
	EmbeddingProvider string    `json:"embeddingProvider,omitempty"`
}

// Candidate pairs a review with its similarity to a query.
// Produced per search, never persisted.
type Candidate struct {
	Review     Review  `json:"review"`
	Similarity float64 `json:"similarity"` // 1 - cosine distance, in [0,1]
}

// MinRating and MaxRating bound the rating domain used by this pipeline.
const (
	MinRating = 1
	MaxRating = 5
)
