// ABOUTME: Per-conversation exclusive locks so no two turns for one conversation overlap
// ABOUTME: Reference-counted so idle conversations don't accumulate mutexes

package runtime

import "sync"

// lockEntry is one conversation's mutex plus the number of holders/waiters.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// conversationLocks hands out an exclusive lock per conversation id. Distinct
// conversations proceed in parallel; turns within one conversation serialize.
type conversationLocks struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

func newConversationLocks() *conversationLocks {
	return &conversationLocks{
		locks: make(map[string]*lockEntry),
	}
}

// acquire blocks until the conversation's lock is held and returns the
// release function.
func (c *conversationLocks) acquire(conversationID string) func() {
	c.mu.Lock()
	e, ok := c.locks[conversationID]
	if !ok {
		e = &lockEntry{}
		c.locks[conversationID] = e
	}
	e.refs++
	c.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		c.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(c.locks, conversationID)
		}
		c.mu.Unlock()
	}
}
