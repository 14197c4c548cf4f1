package common

import (
	"sync"
	"sync/atomic"
)

// Cache is a concurrent build-once store keyed by construction parameters.
//
// Lookups of published entries are lock-free. Concurrent misses for the same
// key share a single build; every caller receives the same value. Values are
// never evicted, so they must be immutable once built.
type Cache[K comparable, V any] struct {
	entries sync.Map // K -> *cacheEntry[V]
	size    atomic.Int64
	builds  atomic.Int64
}

type cacheEntry[V any] struct {
	once  sync.Once
	value V
	err   error
}

// GetOrBuild returns the value stored for key, calling build to create it if
// no value exists yet. A failed build is not retained.
func (c *Cache[K, V]) GetOrBuild(key K, build func() (V, error)) (V, error) {
	e, ok := c.entries.Load(key)
	if !ok {
		var loaded bool
		e, loaded = c.entries.LoadOrStore(key, &cacheEntry[V]{})
		if !loaded {
			c.size.Add(1)
		}
	}
	entry := e.(*cacheEntry[V])

	entry.once.Do(func() {
		entry.value, entry.err = build()
		c.builds.Add(1)
		if entry.err != nil {
			if c.entries.CompareAndDelete(key, entry) {
				c.size.Add(-1)
			}
		}
	})

	return entry.value, entry.err
}

// Len returns the number of stored entries
func (c *Cache[K, V]) Len() int {
	return int(c.size.Load())
}

// Builds returns how many times a build function has run
func (c *Cache[K, V]) Builds() int {
	return int(c.builds.Load())
}
