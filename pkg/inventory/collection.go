package inventory

import (
	"sync"
	"sync/atomic"

	domain "github.com/donaldgifford/pos-inventory-dashboard/pkg/types"
)

// Collection holds the most recently completed inventory snapshot. Loads
// publish independently and whichever completes last wins, but only within
// one epoch: Clear starts a new epoch and loads begun before it can no
// longer publish. Snapshots are never mutated after they are published.
type Collection struct {
	mu      sync.Mutex
	epoch   uint64
	current atomic.Pointer[domain.Snapshot]
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{}
}

// Epoch returns the token a load passes to Publish.
func (c *Collection) Epoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// Publish makes snap current if no Clear happened since epoch was read. It
// reports whether snap was published.
func (c *Collection) Publish(snap *domain.Snapshot, epoch uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return false
	}
	c.current.Store(snap)
	return true
}

// Replace publishes snap unconditionally.
func (c *Collection) Replace(snap *domain.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current.Store(snap)
}

// Current returns the current snapshot, or nil if nothing has loaded yet.
func (c *Collection) Current() *domain.Snapshot {
	return c.current.Load()
}

// Clear drops the current snapshot and invalidates in-flight loads.
func (c *Collection) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.current.Store(nil)
}
