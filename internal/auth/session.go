// Package auth carries the signed-in user on the request context, issues
// bearer tokens and broadcasts sign-in/sign-out events.
package auth

import (
	"context"
	"sync"
)

// Session 当前登录用户
type Session struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session stored on ctx, if any.
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	if !ok || s.UserID == "" {
		return Session{}, false
	}
	return s, true
}

// UserID is a shortcut for SessionFrom(ctx).UserID; empty when signed out.
func UserID(ctx context.Context) string {
	s, _ := SessionFrom(ctx)
	return s.UserID
}

// EventKind 会话变更类型
type EventKind string

const (
	SignedIn  EventKind = "signed_in"
	SignedOut EventKind = "signed_out"
)

// Event is delivered to every subscriber when a session changes.
type Event struct {
	Kind   EventKind
	UserID string
}

// Hub fans session events out to subscribers. Handlers run synchronously in
// registration order.
type Hub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(Event)
	order  []int
}

// NewHub 构造 Hub
func NewHub() *Hub {
	return &Hub{subs: make(map[int]func(Event))}
}

// OnSessionChange registers fn and returns a function that removes it.
func (h *Hub) OnSessionChange(fn func(Event)) (unsubscribe func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	h.order = append(h.order, id)
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs, id)
		for i, v := range h.order {
			if v == id {
				h.order = append(h.order[:i], h.order[i+1:]...)
				break
			}
		}
	}
}

// Notify delivers ev to all current subscribers.
func (h *Hub) Notify(ev Event) {
	h.mu.RLock()
	handlers := make([]func(Event), 0, len(h.order))
	for _, id := range h.order {
		handlers = append(handlers, h.subs[id])
	}
	h.mu.RUnlock()

	for _, fn := range handlers {
		fn(ev)
	}
}
