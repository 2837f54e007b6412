package invalidation

import (
	"sync"
)

// Bus is an in-process mutation event bus. Write paths publish after their
// transaction commits; delivery is synchronous per subscriber but failures
// inside handlers never reach the publisher. Used in tests and
// single-process deployments; distributed deployments use the NATS
// subscriber instead.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

// NewBus creates a new in-process event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for all mutation events.
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	b.handlers = append(b.handlers, h)
	b.mu.Unlock()
}

// PublishPostMutated delivers a post mutation to all subscribers.
func (b *Bus) PublishPostMutated(ev PostMutated) {
	for _, h := range b.snapshot() {
		h.HandlePostMutated(ev)
	}
}

// PublishCommentMutated delivers a comment mutation to all subscribers.
func (b *Bus) PublishCommentMutated(ev CommentMutated) {
	for _, h := range b.snapshot() {
		h.HandleCommentMutated(ev)
	}
}

// PublishReactionMutated delivers a reaction mutation to all subscribers.
func (b *Bus) PublishReactionMutated(ev ReactionMutated) {
	for _, h := range b.snapshot() {
		h.HandleReactionMutated(ev)
	}
}

func (b *Bus) snapshot() []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	return handlers
}
