package broadcast

import (
	"testing"

	"go.uber.org/zap"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	return NewHub(zap.NewNop())
}

func msg(eventType string, public, elevated interface{}) Message {
	return Message{
		Public:   Event{Type: eventType, Contribution: public},
		Elevated: Event{Type: eventType, Contribution: elevated},
	}
}

func TestPublishDeliversInOrder(t *testing.T) {
	hub := newTestHub(t)
	subID, events := hub.Subscribe(1, false)
	defer hub.Unsubscribe(1, subID)

	hub.Publish(1, msg(EventNewContribution, "first", "first"))
	hub.Publish(1, msg(EventContributionUpdated, "second", "second"))

	got := <-events
	if got.Type != EventNewContribution || got.Contribution != "first" {
		t.Errorf("first event: got %+v", got)
	}
	got = <-events
	if got.Type != EventContributionUpdated || got.Contribution != "second" {
		t.Errorf("second event: got %+v", got)
	}
}

func TestPublishRedactsByPrivilege(t *testing.T) {
	hub := newTestHub(t)
	regularID, regular := hub.Subscribe(1, false)
	defer hub.Unsubscribe(1, regularID)
	adminID, admin := hub.Subscribe(1, true)
	defer hub.Unsubscribe(1, adminID)

	hub.Publish(1, msg(EventNewContribution, "public-view", "elevated-view"))

	if got := <-regular; got.Contribution != "public-view" {
		t.Errorf("regular subscriber: got %v, want public-view", got.Contribution)
	}
	if got := <-admin; got.Contribution != "elevated-view" {
		t.Errorf("elevated subscriber: got %v, want elevated-view", got.Contribution)
	}
}

func TestPublishScopedToTopic(t *testing.T) {
	hub := newTestHub(t)
	subID, events := hub.Subscribe(1, false)
	defer hub.Unsubscribe(1, subID)

	hub.Publish(2, msg(EventNewContribution, "other-story", "other-story"))

	select {
	case evt := <-events:
		t.Errorf("unexpected event for other topic: %+v", evt)
	default:
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	hub := newTestHub(t)
	subID, events := hub.Subscribe(1, false)

	hub.Unsubscribe(1, subID)

	if _, ok := <-events; ok {
		t.Error("expected closed channel after unsubscribe")
	}
	if n := hub.SubscriberCount(1); n != 0 {
		t.Errorf("subscriber count: got %d, want 0", n)
	}

	// Double unsubscribe must be a no-op
	hub.Unsubscribe(1, subID)
}

func TestSlowSubscriberDropsEvents(t *testing.T) {
	hub := newTestHub(t)
	subID, events := hub.Subscribe(1, false)
	defer hub.Unsubscribe(1, subID)

	// Overfill the buffer without draining; Publish must never block
	for i := 0; i < subscriberBuffer+10; i++ {
		hub.Publish(1, msg(EventNewContribution, i, i))
	}

	received := 0
	for {
		select {
		case <-events:
			received++
			continue
		default:
		}
		break
	}

	if received != subscriberBuffer {
		t.Errorf("received %d events, want %d (rest dropped)", received, subscriberBuffer)
	}
}
