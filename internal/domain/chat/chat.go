// Package chat drives one grounded chat turn end to end: retrieve
// context, extract insights, build the prompt, stream the generation,
// and emit a strictly ordered envelope stream.
//
// Stream contract: exactly one metadata envelope first (on the happy
// path), then zero or more text envelopes in generation order, then
// exactly one terminal envelope (done or error, never both). Nothing
// follows a terminal envelope. A retrieval failure produces a single
// error envelope with no metadata.
package chat

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arielvoskov/reviewlens/internal/domain/insights"
	"github.com/arielvoskov/reviewlens/internal/domain/retrieval"
	"github.com/arielvoskov/reviewlens/internal/infra/eventbus"
	"github.com/arielvoskov/reviewlens/internal/infra/llm"
	"github.com/arielvoskov/reviewlens/internal/infra/remotecfg"
	"github.com/arielvoskov/reviewlens/pkg/uuid"
)

// ContextAssembler packs retrieval results under a budget.
type ContextAssembler interface {
	Assemble(ctx context.Context, q retrieval.Query, budget retrieval.Budget) (retrieval.Context, error)
}

// ModelResolver picks the provider and model for a requested model id.
type ModelResolver interface {
	Resolve(modelID string) (llm.ChatProvider, string)
}

// SettingsSource supplies the current pipeline settings.
type SettingsSource interface {
	Get(ctx context.Context) remotecfg.Settings
}

// TurnInput is one caller question with optional prior turns.
type TurnInput struct {
	AppID    string
	Platform string
	Question string
	// History is passed to the model verbatim, between the system
	// prompt and the grounded question.
	History []llm.Message
	// Model overrides the configured chat model when non-empty.
	Model string
	// MaxChars bounds the packed context; 0 uses defaultMaxChars.
	MaxChars int
}

const (
	defaultMaxChars   = 6000
	streamBufferSize  = 32
	generationTimeout = 2 * time.Minute
)

// Service orchestrates chat turns.
type Service struct {
	assembler ContextAssembler
	models    ModelResolver
	settings  SettingsSource
	bus       eventbus.EventBus
	logger    *logrus.Logger
}

// NewService creates a chat Service. bus may be nil when no metrics
// consumer is wired.
func NewService(assembler ContextAssembler, models ModelResolver, settings SettingsSource, bus eventbus.EventBus, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{assembler: assembler, models: models, settings: settings, bus: bus, logger: logger}
}

// Stream runs one turn in the background and returns its envelope
// stream. The channel is closed after the terminal envelope. Canceling
// ctx aborts the turn; the stream still closes with a terminal error
// envelope when cancellation interrupts generation. Every send gives
// up once ctx is canceled, so a consumer that stops reading never
// strands the producer goroutine on a full buffer.
func (s *Service) Stream(ctx context.Context, in TurnInput) <-chan Envelope {
	out := make(chan Envelope, streamBufferSize)
	go s.run(ctx, in, out)
	return out
}

func (s *Service) run(ctx context.Context, in TurnInput, out chan<- Envelope) {
	defer close(out)

	turnID := uuid.NewString()
	s.publish(eventbus.TopicTurnStarted, eventbus.TurnStarted{TurnID: turnID, AppID: in.AppID})

	cfg := s.settings.Get(ctx)
	maxChars := in.MaxChars
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}

	retrieveStart := time.Now()
	rc, err := s.assembler.Assemble(ctx, retrieval.Query{
		Text:       in.Question,
		AppID:      in.AppID,
		Platform:   in.Platform,
		Threshold:  cfg.SimilarityThreshold,
		ProviderID: cfg.EmbeddingProvider,
	}, retrieval.Budget{MaxReviews: cfg.MaxReviews, MaxChars: maxChars})
	if err != nil {
		// Retrieval failed before anything was sent: one error
		// envelope, no metadata.
		s.fail(ctx, out, turnID, err)
		return
	}
	s.publish(eventbus.TopicTurnRetrieved, eventbus.TurnRetrieved{
		TurnID:      turnID,
		ReviewCount: len(rc.Candidates),
		DurationMS:  float64(time.Since(retrieveStart).Milliseconds()),
	})

	modelID := in.Model
	if modelID == "" {
		modelID = cfg.ChatModel
	}
	provider, resolvedModel := s.models.Resolve(modelID)

	if !send(ctx, out, Envelope{Type: EnvelopeMetadata, Metadata: buildMetadata(turnID, resolvedModel, rc)}) {
		s.abandon(turnID)
		return
	}

	prompt := BuildPrompt(rc, cfg.SystemInstructions)
	messages := make([]llm.Message, 0, len(in.History)+2)
	messages = append(messages, llm.Message{Role: "system", Content: prompt.System})
	messages = append(messages, in.History...)
	messages = append(messages, llm.Message{Role: "user", Content: prompt.User})

	genCtx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()

	resp, err := provider.ChatCompletionStream(genCtx, llm.ChatRequest{
		Model:       resolvedModel,
		Messages:    messages,
		Temperature: cfg.Temperature,
	}, func(delta string) error {
		select {
		case out <- Envelope{Type: EnvelopeText, Text: delta}:
			return nil
		case <-genCtx.Done():
			return genCtx.Err()
		}
	})
	if err != nil {
		// Metadata and possibly text were already delivered; the
		// stream must still close with a terminal error envelope.
		s.fail(ctx, out, turnID, err)
		return
	}

	if !send(ctx, out, Envelope{Type: EnvelopeDone, Done: &DoneInfo{StopReason: resp.StopReason}}) {
		s.abandon(turnID)
		return
	}
	s.publish(eventbus.TopicTurnFinished, eventbus.TurnFinished{TurnID: turnID, Outcome: "done"})
	s.logger.WithFields(logrus.Fields{
		"turn_id": turnID,
		"model":   resolvedModel,
		"reviews": len(rc.Candidates),
	}).Info("Chat turn complete")
}

// send delivers env unless ctx is canceled first. A false return means
// the consumer is gone and the turn must stop.
func send(ctx context.Context, out chan<- Envelope, env Envelope) bool {
	select {
	case out <- env:
		return true
	case <-ctx.Done():
		return false
	}
}

// abandon records a turn whose consumer went away before the terminal
// envelope could be delivered.
func (s *Service) abandon(turnID string) {
	s.publish(eventbus.TopicTurnFinished, eventbus.TurnFinished{TurnID: turnID, Outcome: "canceled", ErrorKind: ErrKindCanceled})
	s.logger.WithField("turn_id", turnID).Debug("Chat turn abandoned before completion")
}

func (s *Service) fail(ctx context.Context, out chan<- Envelope, turnID string, err error) {
	kind := classifyError(err)
	send(ctx, out, Envelope{Type: EnvelopeError, Error: &ErrorInfo{Kind: kind, Message: err.Error()}})

	outcome := "error"
	if kind == ErrKindCanceled {
		outcome = "canceled"
	}
	s.publish(eventbus.TopicTurnFinished, eventbus.TurnFinished{TurnID: turnID, Outcome: outcome, ErrorKind: kind})
	s.logger.WithError(err).WithFields(logrus.Fields{
		"turn_id": turnID,
		"kind":    kind,
	}).Warn("Chat turn failed")
}

func (s *Service) publish(topic string, payload any) {
	if s.bus != nil {
		s.bus.Publish(topic, payload)
	}
}

func buildMetadata(turnID, model string, rc retrieval.Context) *Metadata {
	refs := make([]ReviewRef, len(rc.Candidates))
	for i, cand := range rc.Candidates {
		refs[i] = ReviewRef{
			Index:      i + 1,
			ID:         cand.Review.ID,
			Title:      cand.Review.Title,
			Rating:     cand.Review.Rating,
			Similarity: cand.Similarity,
		}
	}
	return &Metadata{
		TurnID:        turnID,
		Model:         model,
		ReviewCount:   len(rc.Candidates),
		AvgSimilarity: rc.AvgSimilarity,
		Sentiment:     insights.ExtractSentiment(rc.Candidates),
		Themes:        insights.ExtractThemes(rc.Candidates),
		Reviews:       refs,
	}
}
