package session

import (
	"log/slog"
	"sync"
)

// Subscriber receives updates synchronously on the delivering goroutine. The
// Manager delivers with no session lock held, so a subscriber may call back
// into it; updates caused by that call are delivered after the subscriber
// returns.
type Subscriber func(Update)

type subscription struct {
	id uint64
	fn Subscriber
}

// Hub fans updates out to per-session subscribers and to subscribers of every
// session. Nothing is retained after delivery.
type Hub struct {
	mu     sync.RWMutex
	nextID uint64
	bySess map[string][]subscription
	all    []subscription
}

func NewHub() *Hub {
	return &Hub{bySess: make(map[string][]subscription)}
}

// Subscribe registers fn for one session and returns its unsubscribe func.
func (h *Hub) Subscribe(sessionID string, fn Subscriber) func() {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.bySess[sessionID] = append(h.bySess[sessionID], subscription{id: id, fn: fn})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.bySess[sessionID] = without(h.bySess[sessionID], id)
			if len(h.bySess[sessionID]) == 0 {
				delete(h.bySess, sessionID)
			}
		})
	}
}

// SubscribeAll registers fn for updates of every session.
func (h *Hub) SubscribeAll(fn Subscriber) func() {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.all = append(h.all, subscription{id: id, fn: fn})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.all = without(h.all, id)
		})
	}
}

// Publish delivers u to every current subscriber in subscription order. A
// panicking subscriber is logged and skipped.
func (h *Hub) Publish(u Update) {
	h.mu.RLock()
	subs := make([]subscription, 0, len(h.bySess[u.SessionID])+len(h.all))
	subs = append(subs, h.bySess[u.SessionID]...)
	subs = append(subs, h.all...)
	h.mu.RUnlock()

	for _, sub := range subs {
		deliver(sub, u)
	}
}

// SubscriberCount reports how many subscribers watch sessionID specifically.
func (h *Hub) SubscriberCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.bySess[sessionID])
}

func deliver(sub subscription, u Update) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("update subscriber panicked", "session_id", u.SessionID, "update_type", u.Type, "subscription_id", sub.id, "panic", r)
		}
	}()
	sub.fn(u)
}

func without(subs []subscription, id uint64) []subscription {
	out := subs[:0:0]
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}
