// Package cache provides a small, bounded result cache shared by the
// classifier and intent-matcher packages. It holds no recognition policy
// of its own -- callers decide what is cacheable and for how long a miss
// should take to compute.
package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache is a fixed-capacity, concurrency-safe cache keyed by raw utterance
// text (optionally combined with a domain, by the caller, into the key).
type Cache[V any] struct {
	inner *lru.Cache[string, V]
}

// New builds a Cache holding at most size entries. size must be positive.
func New[V any](size int) (*Cache[V], error) {
	inner, err := lru.New[string, V](size)
	if err != nil {
		return nil, err
	}
	return &Cache[V]{inner: inner}, nil
}

// Get returns the cached value for key, if present.
func (c *Cache[V]) Get(key string) (V, bool) {
	return c.inner.Get(key)
}

// Put stores value under key, evicting the least recently used entry if
// the cache is at capacity.
func (c *Cache[V]) Put(key string, value V) {
	c.inner.Add(key, value)
}

// Len reports the number of entries currently cached.
func (c *Cache[V]) Len() int {
	return c.inner.Len()
}
