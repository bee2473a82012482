package crs

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// lruCache is a fixed-capacity LRU that also counts hits and misses.
type lruCache[K comparable, V any] struct {
	entries  *lru.Cache[K, V]
	capacity int

	hits   atomic.Uint64
	misses atomic.Uint64
}

func newLRUCache[K comparable, V any](capacity int) *lruCache[K, V] {
	if capacity <= 0 {
		capacity = 1
	}
	entries, err := lru.New[K, V](capacity)
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	return &lruCache[K, V]{entries: entries, capacity: capacity}
}

// get returns the cached value and marks it as recently used.
func (c *lruCache[K, V]) get(key K) (V, bool) {
	v, ok := c.entries.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// add stores value unless another caller inserted the key first, in which
// case the existing value wins and is returned.
func (c *lruCache[K, V]) add(key K, value V) V {
	if prev, ok, _ := c.entries.PeekOrAdd(key, value); ok {
		c.entries.Get(key)
		return prev
	}
	return value
}

func (c *lruCache[K, V]) purge() { c.entries.Purge() }

// CacheStats reports transformer cache usage.
type CacheStats struct {
	Hits     uint64 `json:"hits"`
	Misses   uint64 `json:"misses"`
	Size     int    `json:"size"`
	Capacity int    `json:"capacity"`
}

func (c *lruCache[K, V]) stats() CacheStats {
	return CacheStats{
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
		Size:     c.entries.Len(),
		Capacity: c.capacity,
	}
}
