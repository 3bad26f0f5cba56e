// SPDX-License-Identifier: MIT

// Package cache provides a keyed async cache with TTL-bounded staleness and
// single-flight fetch deduplication.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL bounds how long a fulfilled value is served without refetching.
const DefaultTTL = 2 * time.Second

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// Keyed is an async cache keyed by string. Concurrent Get calls for the same
// key share one underlying fetch; a fulfilled value is served until its TTL
// expires. Failed fetches are not cached, so the next caller retries.
type Keyed[T any] struct {
	ttl   time.Duration
	group singleflight.Group

	mu      sync.Mutex
	entries map[string]entry[T]
}

// New creates a cache with the given TTL. A non-positive ttl falls back to
// DefaultTTL.
func New[T any](ttl time.Duration) *Keyed[T] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Keyed[T]{
		ttl:     ttl,
		entries: make(map[string]entry[T]),
	}
}

// Get returns the cached value for key, fetching it with fetch on a miss or
// after expiry. At most one fetch per key is in flight at a time; concurrent
// callers await the same result.
func (c *Keyed[T]) Get(ctx context.Context, key string, fetch func(context.Context) (T, error)) (T, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && time.Now().Before(e.expiresAt) {
		c.mu.Unlock()
		return e.value, nil
	}
	c.mu.Unlock()

	v, err, _ := c.group.Do(key, func() (any, error) {
		// A caller that queued behind the flight may find the value already
		// stored by the winner.
		c.mu.Lock()
		if e, ok := c.entries[key]; ok && time.Now().Before(e.expiresAt) {
			c.mu.Unlock()
			return e.value, nil
		}
		c.mu.Unlock()

		value, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = entry[T]{value: value, expiresAt: time.Now().Add(c.ttl)}
		c.mu.Unlock()
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Peek returns the cached value without fetching. The second return is false
// if the key is absent or expired.
func (c *Keyed[T]) Peek(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !time.Now().Before(e.expiresAt) {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Invalidate drops the cached value for key, if any.
func (c *Keyed[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// InvalidateAll drops every cached value.
func (c *Keyed[T]) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[T])
}
