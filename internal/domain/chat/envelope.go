package chat

import (
	"context"
	"errors"

	"github.com/arielvoskov/reviewlens/internal/domain/insights"
	"github.com/arielvoskov/reviewlens/internal/domain/retrieval"
	"github.com/arielvoskov/reviewlens/internal/infra/embed"
	"github.com/arielvoskov/reviewlens/internal/infra/llm"
	"github.com/arielvoskov/reviewlens/internal/infra/vectorstore"
)

// EnvelopeType discriminates the stream envelope union.
type EnvelopeType string

const (
	EnvelopeMetadata EnvelopeType = "metadata"
	EnvelopeText     EnvelopeType = "text"
	EnvelopeDone     EnvelopeType = "done"
	EnvelopeError    EnvelopeType = "error"
)

// Envelope is one message on a chat turn stream. Exactly one of the
// optional fields is set, matching Type.
type Envelope struct {
	Type     EnvelopeType `json:"type"`
	Metadata *Metadata    `json:"metadata,omitempty"`
	Text     string       `json:"text,omitempty"`
	Done     *DoneInfo    `json:"done,omitempty"`
	Error    *ErrorInfo   `json:"error,omitempty"`
}

// Metadata carries retrieval stats and the grounding reviews, sent once
// per turn before any text.
type Metadata struct {
	TurnID        string             `json:"turnId"`
	Model         string             `json:"model"`
	ReviewCount   int                `json:"reviewCount"`
	AvgSimilarity float64            `json:"avgSimilarity"`
	Sentiment     insights.Sentiment `json:"sentiment"`
	Themes        insights.Themes    `json:"themes"`
	Reviews       []ReviewRef        `json:"reviews"`
}

// ReviewRef identifies one grounding review by its prompt ordinal.
type ReviewRef struct {
	Index      int     `json:"index"` // 1-based, matches the prompt blocks
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Rating     int     `json:"rating"`
	Similarity float64 `json:"similarity"`
}

// DoneInfo closes a successful turn.
type DoneInfo struct {
	StopReason string `json:"stopReason"`
}

// ErrorInfo closes a failed turn.
type ErrorInfo struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Error kinds surfaced to clients.
const (
	ErrKindCredential    = "credential_error"
	ErrKindUpstream      = "upstream_error"
	ErrKindStoreDown     = "store_unavailable"
	ErrKindNotFound      = "not_found"
	ErrKindNoEmbedding   = "missing_embedding"
	ErrKindStreamAborted = "stream_aborted"
	ErrKindCanceled      = "canceled"
	ErrKindInternal      = "internal_error"
)

// classifyError maps pipeline errors onto client-facing kinds. Unknown
// errors degrade to internal_error.
func classifyError(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrKindCanceled
	case errors.Is(err, embed.ErrMissingAPIKey), errors.Is(err, llm.ErrMissingAPIKey):
		return ErrKindCredential
	case errors.Is(err, vectorstore.ErrUnavailable):
		return ErrKindStoreDown
	case errors.Is(err, vectorstore.ErrNotFound):
		return ErrKindNotFound
	case errors.Is(err, retrieval.ErrNoEmbedding):
		return ErrKindNoEmbedding
	case errors.Is(err, llm.ErrStreamAborted):
		return ErrKindStreamAborted
	case errors.Is(err, embed.ErrUpstream), errors.Is(err, llm.ErrUpstream):
		return ErrKindUpstream
	default:
		return ErrKindInternal
	}
}
