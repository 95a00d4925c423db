package gen

import (
	"sync"
	"sync/atomic"
)

type ColumnKey struct {
	X int32
	Z int32
}

// ColumnCache memoizes column heights. Entries are never evicted and a stored
// value never changes. Safe for concurrent use; two goroutines missing the
// same key may both compute, and the first stored value wins.
type ColumnCache struct {
	mu      sync.RWMutex
	heights map[ColumnKey]float64

	computes atomic.Uint64
}

func NewColumnCache() *ColumnCache {
	return &ColumnCache{heights: map[ColumnKey]float64{}}
}

func (c *ColumnCache) GetOrCompute(x, z int32, compute func() float64) float64 {
	k := ColumnKey{X: x, Z: z}

	c.mu.RLock()
	h, ok := c.heights[k]
	c.mu.RUnlock()
	if ok {
		return h
	}

	// Compute outside the lock; it is pure and may be slow.
	h = compute()
	c.computes.Add(1)

	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.heights[k]; ok {
		return prev
	}
	c.heights[k] = h
	return h
}

// Lookup returns a cached height without computing.
func (c *ColumnCache) Lookup(x, z int32) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.heights[ColumnKey{X: x, Z: z}]
	return h, ok
}

func (c *ColumnCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.heights)
}

// Computes counts how many times a compute func has been invoked.
func (c *ColumnCache) Computes() uint64 { return c.computes.Load() }
