// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package concurrent provides small generic concurrency-safe data
// structures shared by this module's backends.
package concurrent

import "sync"

// Cache is a concurrency-safe, lazily-populated map. The writebuffer/kafka
// backend uses it to hold one direct-consumer client per partition,
// created on first read and torn down again whenever a Seek invalidates it.
type Cache[K comparable, V any] struct {
	mu   sync.Mutex
	data map[K]V
}

// NewCache constructs an empty Cache.
func NewCache[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{
		data: make(map[K]V),
	}
}

// Get returns the value stored for k, if any.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.data[k]
	return v, ok
}

// GetOr returns the value stored for k, calling f to produce and store one
// if k is absent.
func (c *Cache[K, V]) GetOr(k K, f func() (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.data[k]
	if ok {
		return v, nil
	}

	v, err := f()
	if err != nil {
		return v, err
	}

	c.data[k] = v
	return v, nil
}

// Delete removes k from the cache, calling onEvict with the evicted value
// if k was present. Used to retire a stale entry (e.g. a franz-go client
// whose cursor no longer matches) before a fresh one takes its place.
func (c *Cache[K, V]) Delete(k K, onEvict func(V)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	v, ok := c.data[k]
	if !ok {
		return
	}
	delete(c.data, k)

	if onEvict != nil {
		onEvict(v)
	}
}

// Clear removes every entry from the cache, calling onEvict for each
// evicted value.
func (c *Cache[K, V]) Clear(onEvict func(V)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, v := range c.data {
		delete(c.data, k)
		if onEvict != nil {
			onEvict(v)
		}
	}
}
