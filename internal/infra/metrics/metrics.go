// Package metrics exposes Prometheus instrumentation for the answer
// pipeline. The Recorder consumes turn lifecycle events from the event
// bus so the chat service never touches Prometheus types directly.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arielvoskov/reviewlens/internal/infra/eventbus"
)

// Recorder holds the pipeline metric series and feeds them from bus events.
type Recorder struct {
	registry *prometheus.Registry

	turnsTotal       *prometheus.CounterVec
	turnErrorsTotal  *prometheus.CounterVec
	retrievedReviews prometheus.Histogram
	retrievalSeconds prometheus.Histogram
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reviewlens_chat_turns_total",
			Help: "Chat turns by terminal outcome.",
		}, []string{"outcome"}),
		turnErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reviewlens_chat_turn_errors_total",
			Help: "Failed chat turns by error kind.",
		}, []string{"kind"}),
		retrievedReviews: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "reviewlens_retrieval_reviews",
			Help:    "Reviews packed into context per turn.",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21},
		}),
		retrievalSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "reviewlens_retrieval_duration_seconds",
			Help:    "Wall time of the retrieval phase.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	r.registry.MustRegister(r.turnsTotal, r.turnErrorsTotal, r.retrievedReviews, r.retrievalSeconds)
	return r
}

// Handler returns the /metrics HTTP handler for this recorder's registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Run consumes bus events until ctx is canceled. Intended to run in its
// own goroutine.
func (r *Recorder) Run(ctx context.Context, bus eventbus.EventBus) {
	retrieved := bus.Subscribe(eventbus.TopicTurnRetrieved)
	finished := bus.Subscribe(eventbus.TopicTurnFinished)

	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-retrieved:
			if p, ok := evt.Payload.(eventbus.TurnRetrieved); ok {
				r.retrievedReviews.Observe(float64(p.ReviewCount))
				r.retrievalSeconds.Observe(p.DurationMS / 1000)
			}
		case evt := <-finished:
			if p, ok := evt.Payload.(eventbus.TurnFinished); ok {
				r.turnsTotal.WithLabelValues(p.Outcome).Inc()
				if p.Outcome == "error" && p.ErrorKind != "" {
					r.turnErrorsTotal.WithLabelValues(p.ErrorKind).Inc()
				}
			}
		}
	}
}
