package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/arielvoskov/reviewlens/internal/infra/eventbus"
)

func TestRecorder_CountsTurnOutcomes(t *testing.T) {
	t.Parallel()

	bus := eventbus.New()
	rec := NewRecorder()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go rec.Run(ctx, bus)

	// Subscribe happens inside Run; give it a moment before publishing.
	time.Sleep(10 * time.Millisecond)

	bus.Publish(eventbus.TopicTurnFinished, eventbus.TurnFinished{TurnID: "t1", Outcome: "done"})
	bus.Publish(eventbus.TopicTurnFinished, eventbus.TurnFinished{TurnID: "t2", Outcome: "done"})
	bus.Publish(eventbus.TopicTurnFinished, eventbus.TurnFinished{TurnID: "t3", Outcome: "error", ErrorKind: "upstream_error"})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if testutil.ToFloat64(rec.turnsTotal.WithLabelValues("done")) == 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	if got := testutil.ToFloat64(rec.turnsTotal.WithLabelValues("done")); got != 2 {
		t.Errorf("done turns = %v, want 2", got)
	}
	if got := testutil.ToFloat64(rec.turnsTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("error turns = %v, want 1", got)
	}
	if got := testutil.ToFloat64(rec.turnErrorsTotal.WithLabelValues("upstream_error")); got != 1 {
		t.Errorf("upstream errors = %v, want 1", got)
	}
}

func TestRecorder_HandlerServesRegistry(t *testing.T) {
	t.Parallel()

	rec := NewRecorder()
	if rec.Handler() == nil {
		t.Fatal("expected non-nil handler")
	}
}
