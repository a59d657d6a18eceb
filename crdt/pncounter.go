package crdt

import "sync"

// PNCounter is a Positive-Negative counter CRDT.
// Supports both increment and decrement without conflicts.
type PNCounter struct {
	mu       sync.RWMutex
	positive map[string]int64 // nodeID → positive increments
	negative map[string]int64 // nodeID → negative decrements
}

// NewPNCounter creates a zeroed PN counter.
func NewPNCounter() *PNCounter {
	return &PNCounter{
		positive: make(map[string]int64),
		negative: make(map[string]int64),
	}
}

// Increment adds delta to this node's positive counter.
func (c *PNCounter) Increment(nodeID string, delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.positive[nodeID] += delta
}

// Decrement adds delta to this node's negative counter.
func (c *PNCounter) Decrement(nodeID string, delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.negative[nodeID] += delta
}

// Value returns the current counter value (sum of positives - sum of negatives).
func (c *PNCounter) Value() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var total int64
	for _, v := range c.positive {
		total += v
	}
	for _, v := range c.negative {
		total -= v
	}
	return total
}

// Merge merges another counter into this one (take max per component).
func (c *PNCounter) Merge(other *PNCounter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	other.mu.RLock()
	defer other.mu.RUnlock()

	for n, v := range other.positive {
		if v > c.positive[n] {
			c.positive[n] = v
		}
	}
	for n, v := range other.negative {
		if v > c.negative[n] {
			c.negative[n] = v
		}
	}
}

// Snapshot returns a copy of the counter's internal state, for persistence.
func (c *PNCounter) Snapshot() (positive, negative map[string]int64) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	positive = make(map[string]int64, len(c.positive))
	for k, v := range c.positive {
		positive[k] = v
	}
	negative = make(map[string]int64, len(c.negative))
	for k, v := range c.negative {
		negative[k] = v
	}
	return positive, negative
}

// Restore replaces the counter's internal state, used when loading from a
// persisted blob.
func (c *PNCounter) Restore(positive, negative map[string]int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.positive = make(map[string]int64, len(positive))
	for k, v := range positive {
		c.positive[k] = v
	}
	c.negative = make(map[string]int64, len(negative))
	for k, v := range negative {
		c.negative[k] = v
	}
}
