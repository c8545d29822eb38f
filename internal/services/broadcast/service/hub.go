// Package service fans ledger changes out to live subscribers
//
// Delivery is at most once: a send never blocks, a subscriber whose buffer is full
// misses the event, and nothing is replayed to late subscribers.
package service

import (
	"sync"
	"time"

	"lasrouter/internal/platform/metrics"
)

// EventType names a change
type EventType string

const (
	EventNewRequest     EventType = "new_request"
	EventRequestUpdated EventType = "request_updated"
	EventHealthUpdated  EventType = "health_updated"
)

// Event is one change notification
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
	At      time.Time `json:"at"`
}

// DefaultBuffer is used when Subscribe gets a non positive size
const DefaultBuffer = 32

// Hub is safe for concurrent use
type Hub struct {
	mu      sync.RWMutex
	subs    map[*Subscription]struct{}
	closed  bool
	metrics *metrics.Metrics
	now     func() time.Time
}

// New returns an empty hub
func New(m *metrics.Metrics) *Hub {
	return &Hub{subs: map[*Subscription]struct{}{}, metrics: m, now: time.Now}
}

// Subscription receives events on C until Close
type Subscription struct {
	C    <-chan Event
	ch   chan Event
	hub  *Hub
	once sync.Once
}

// Subscribe registers a new subscriber with the given buffer size
// on a closed hub the returned subscription is already closed
func (h *Hub) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	ch := make(chan Event, buffer)
	s := &Subscription{C: ch, ch: ch, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		s.once.Do(func() { close(ch) })
		return s
	}
	h.subs[s] = struct{}{}
	h.metrics.SubscriberAdded()
	return s
}

// Close unregisters the subscription and closes C; safe to call more than once
func (s *Subscription) Close() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		if _, ok := h.subs[s]; ok {
			delete(h.subs, s)
			h.metrics.SubscriberRemoved()
		}
		h.mu.Unlock()
		close(s.ch)
	})
}

// Publish delivers ev to every subscriber with room in its buffer
func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = h.now().UTC()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		select {
		case s.ch <- ev:
		default:
			h.metrics.EventDropped()
		}
	}
}

// Subscribers returns the number of live subscriptions
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close closes every subscription and rejects new ones
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	subs := make([]*Subscription, 0, len(h.subs))
	for s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()
	for _, s := range subs {
		s.Close()
	}
}
