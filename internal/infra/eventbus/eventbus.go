// Package eventbus is an in-memory publish/subscribe bus. The chat
// service publishes turn lifecycle events on it; the metrics recorder
// subscribes and turns them into Prometheus series.
//
// Properties:
//   - Buffered channel per subscriber (buffer=100).
//   - Publish never blocks: if a subscriber's buffer is full the event
//     is dropped for that subscriber.
//   - Subscribe returns a read-only channel; the caller owns the
//     consumption loop.
//   - No persistence, events are fire-and-forget.
package eventbus

import "sync"

// Topics published by the chat pipeline.
const (
	TopicTurnStarted   = "chat.turn.started"
	TopicTurnRetrieved = "chat.turn.retrieved"
	TopicTurnFinished  = "chat.turn.finished"
)

// TurnStarted is published when a chat turn begins processing.
type TurnStarted struct {
	TurnID string
	AppID  string
}

// TurnRetrieved is published after context retrieval completes.
type TurnRetrieved struct {
	TurnID      string
	ReviewCount int
	DurationMS  float64
}

// TurnFinished is published when a turn reaches a terminal state.
// Outcome is "done", "error" or "canceled".
type TurnFinished struct {
	TurnID    string
	Outcome   string
	ErrorKind string
}

// Event is a single published message.
type Event struct {
	Topic   string
	Payload any
}

// EventBus is the interface for publishing and subscribing to topics.
type EventBus interface {
	Publish(topic string, payload any)
	Subscribe(topic string) <-chan Event
}

const defaultBufferSize = 100

// Bus is the in-memory implementation of EventBus.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]chan Event
}

// New returns a new in-memory Bus.
func New() *Bus {
	return &Bus{
		subscribers: make(map[string][]chan Event),
	}
}

// Subscribe registers a new subscriber for topic and returns a read-only
// channel. The caller must consume the channel to avoid dropped events.
func (b *Bus) Subscribe(topic string) <-chan Event {
	ch := make(chan Event, defaultBufferSize)
	b.mu.Lock()
	b.subscribers[topic] = append(b.subscribers[topic], ch)
	b.mu.Unlock()
	return ch
}

// Publish sends an Event to all subscribers of topic.
// If a subscriber's buffer is full the event is dropped for it.
func (b *Bus) Publish(topic string, payload any) {
	evt := Event{Topic: topic, Payload: payload}
	b.mu.RLock()
	subs := b.subscribers[topic]
	b.mu.RUnlock()
	for _, ch := range subs {
		select {
		case ch <- evt:
		default:
			// buffer full, drop
		}
	}
}
