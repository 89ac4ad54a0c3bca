package service

import (
	"sync"

	"pahm/internal/modules/practice/domain"
)

// AttentionCounter is the live tally for the running session. Increments
// are applied in call order.
type AttentionCounter struct {
	mu    sync.Mutex
	tally domain.Tally
}

func NewAttentionCounter() *AttentionCounter {
	return &AttentionCounter{}
}

func (c *AttentionCounter) Reset() {
	c.mu.Lock()
	c.tally = domain.Tally{}
	c.mu.Unlock()
}

func (c *AttentionCounter) Increment(category domain.Category) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tally.Increment(category)
}

func (c *AttentionCounter) Snapshot() domain.Tally {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tally
}

// Restore replaces the live tally, used when a recovery offer is accepted.
func (c *AttentionCounter) Restore(t domain.Tally) {
	c.mu.Lock()
	c.tally = t
	c.mu.Unlock()
}
