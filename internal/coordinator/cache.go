package coordinator

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"
)

// DefaultCacheEntries bounds a cache created with a non-positive size.
const DefaultCacheEntries = 64

// Cache is a thread-safe store of derived analysis values keyed by
// (kind, subset fingerprint, parameter hash). It holds at most maxEntries
// values and evicts the oldest first. Concurrent misses on the same key
// share a single computation.
type Cache struct {
	entries    map[string]cacheEntry
	mu         sync.RWMutex
	group      singleflight.Group
	maxEntries int
	stored     uint64
	metrics    *Metrics
}

type cacheEntry struct {
	value any
	order uint64
}

// NewCache creates a cache holding up to maxEntries values.
func NewCache(maxEntries int, metrics *Metrics) *Cache {
	if maxEntries <= 0 {
		maxEntries = DefaultCacheEntries
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Cache{
		entries:    make(map[string]cacheEntry),
		maxEntries: maxEntries,
		metrics:    metrics,
	}
}

func entryKey(kind Kind, key string) string {
	return string(kind) + "/" + key
}

// Get returns the cached value for key.
func (c *Cache) Get(kind Kind, key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[entryKey(kind, key)]
	return e.value, ok
}

// Put stores a value and rotates out the oldest entries above the limit.
func (c *Cache) Put(kind Kind, key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stored++
	c.entries[entryKey(kind, key)] = cacheEntry{value: value, order: c.stored}
	c.rotate()
}

// Len returns the number of cached values.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// rotate removes the oldest entries exceeding maxEntries. Callers hold mu.
func (c *Cache) rotate() {
	if len(c.entries) <= c.maxEntries {
		return
	}

	type keyed struct {
		key   string
		order uint64
	}
	list := make([]keyed, 0, len(c.entries))
	for k, e := range c.entries {
		list = append(list, keyed{key: k, order: e.order})
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].order < list[j].order
	})

	toRemove := len(c.entries) - c.maxEntries
	for i := 0; i < toRemove; i++ {
		delete(c.entries, list[i].key)
	}
}

// Do returns the cached value for key or computes it with fn, reporting
// whether the value was already cached. Errors are not cached. When ctx ends
// first Do returns ctx.Err() while fn keeps running for any other caller
// waiting on the same key.
func (c *Cache) Do(ctx context.Context, kind Kind, key string, fn func(context.Context) (any, error)) (any, bool, error) {
	if v, ok := c.Get(kind, key); ok {
		c.metrics.cacheLookups.WithLabelValues(lookupHit).Inc()
		return v, true, nil
	}

	k := entryKey(kind, key)
	ch := c.group.DoChan(k, func() (any, error) {
		// Double-check inside the flight
		if v, ok := c.Get(kind, key); ok {
			return v, nil
		}
		v, err := fn(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		c.Put(kind, key, v)
		return v, nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.metrics.cacheLookups.WithLabelValues(lookupShared).Inc()
		} else {
			c.metrics.cacheLookups.WithLabelValues(lookupMiss).Inc()
		}
		return res.Val, false, res.Err
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}
