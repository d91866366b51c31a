// Package broadcast fans contribution lifecycle events out to live story
// viewers. The hub is an explicit topic registry keyed by story id and is
// injected into handlers rather than living behind a package global.
//
// Delivery is best-effort and at-most-once: there is no durable queue, a
// slow subscriber has events dropped rather than blocking the publisher,
// and a disconnected client must re-fetch story state on resubscribe.
package broadcast

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// subscriberBuffer is the per-connection channel depth. A subscriber that
// falls this far behind starts losing events.
const subscriberBuffer = 16

type subscriber struct {
	id       string
	elevated bool
	ch       chan Event
}

// Hub routes published messages to the subscribers of each story topic
type Hub struct {
	mu     sync.RWMutex
	topics map[int64]map[string]*subscriber
	logger *zap.Logger
}

// NewHub creates an empty hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		topics: make(map[int64]map[string]*subscriber),
		logger: logger,
	}
}

// Subscribe registers a new subscriber on a story topic and returns its
// connection id and receive channel. The caller must Unsubscribe when done.
func (h *Hub) Subscribe(storyID int64, elevated bool) (string, <-chan Event) {
	sub := &subscriber{
		id:       uuid.NewString(),
		elevated: elevated,
		ch:       make(chan Event, subscriberBuffer),
	}

	h.mu.Lock()
	topic, ok := h.topics[storyID]
	if !ok {
		topic = make(map[string]*subscriber)
		h.topics[storyID] = topic
	}
	topic[sub.id] = sub
	h.mu.Unlock()

	return sub.id, sub.ch
}

// Unsubscribe removes a subscriber and closes its channel. Empty topics are
// dropped from the registry.
func (h *Hub) Unsubscribe(storyID int64, subscriberID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	topic, ok := h.topics[storyID]
	if !ok {
		return
	}
	sub, ok := topic[subscriberID]
	if !ok {
		return
	}

	delete(topic, subscriberID)
	if len(topic) == 0 {
		delete(h.topics, storyID)
	}
	close(sub.ch)
}

// Publish delivers a message to every subscriber of the story topic, in
// publish order per subscriber. Sends never block: if a subscriber's buffer
// is full the event is dropped for that subscriber.
func (h *Hub) Publish(storyID int64, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.topics[storyID] {
		evt := msg.Public
		if sub.elevated {
			evt = msg.Elevated
		}

		select {
		case sub.ch <- evt:
		default:
			h.logger.Warn("dropping event for slow subscriber",
				zap.Int64("story_id", storyID),
				zap.String("subscriber_id", sub.id),
				zap.String("event_type", evt.Type))
		}
	}
}

// SubscriberCount returns the number of live subscribers on a story topic
func (h *Hub) SubscriberCount(storyID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[storyID])
}
