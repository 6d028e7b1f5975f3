// ABOUTME: TTL guard against duplicate activity delivery, keyed by conversation and activity id
// ABOUTME: Channels redeliver on timeout; the dialog stack must see each activity exactly once

package replay

import (
	"container/list"
	"sync"
	"time"
)

// seenEntry records when an activity was first seen and where its key sits in
// the eviction order.
type seenEntry struct {
	at      time.Time
	element *list.Element
}

// Guard tracks recently processed activities so duplicate deliveries can be
// dropped before they reach the dialog stack. It is size-bounded with oldest-
// first eviction and expires entries after a TTL.
type Guard struct {
	mu      sync.Mutex
	seen    map[string]*seenEntry
	order   *list.List // keys oldest-first
	ttl     time.Duration
	maxSize int
	done    chan struct{}
	closed  bool
}

// NewGuard creates a guard with the given TTL and maximum tracked entries.
// A background goroutine removes expired entries periodically.
func NewGuard(ttl time.Duration, maxSize int) *Guard {
	g := &Guard{
		seen:    make(map[string]*seenEntry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	go g.cleanupLoop()
	return g
}

// Seen atomically checks whether the (conversationID, activityID) pair was
// already processed within the TTL and records it if not. Returns true for a
// duplicate that should be dropped.
func (g *Guard) Seen(conversationID, activityID string) bool {
	key := conversationID + "\x00" + activityID

	g.mu.Lock()
	defer g.mu.Unlock()

	if e, ok := g.seen[key]; ok && time.Since(e.at) < g.ttl {
		return true
	}
	g.record(key)
	return false
}

// record marks key as seen, evicting the oldest entry at capacity.
// Must be called with mu held.
func (g *Guard) record(key string) {
	now := time.Now()

	if e, exists := g.seen[key]; exists {
		e.at = now
		g.order.MoveToBack(e.element)
		return
	}

	if len(g.seen) >= g.maxSize {
		if front := g.order.Front(); front != nil {
			oldest, _ := front.Value.(string)
			g.order.Remove(front)
			delete(g.seen, oldest)
		}
	}

	elem := g.order.PushBack(key)
	g.seen[key] = &seenEntry{at: now, element: elem}
}

// cleanupLoop periodically drops expired entries until Close.
func (g *Guard) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.expire()
		case <-g.done:
			return
		}
	}
}

// expire removes all entries older than the TTL.
func (g *Guard) expire() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	for key, e := range g.seen {
		if now.Sub(e.at) > g.ttl {
			g.order.Remove(e.element)
			delete(g.seen, key)
		}
	}
}

// Close stops the background cleanup goroutine. Safe to call multiple times.
func (g *Guard) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.closed {
		close(g.done)
		g.closed = true
	}
}
