// Package cache provides the process-scoped, time-boxed caches used for the
// Google client, the duplicate-registration contacts and the mail transport.
// Entries are rebuilt wholesale once expired; nothing is evicted per key
// in the background.
package cache

import (
	"sync"
	"time"
)

// Clock returns the current time. Tests substitute a fake.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// TTL is a concurrency-safe map whose entries expire after a fixed lifetime.
type TTL[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   Clock
	entries map[string]entry[V]

	// OnEvict, when set, is called outside the lock for every entry that is
	// invalidated, replaced or found expired.
	OnEvict func(key string, value V)
}

// NewTTL returns an empty cache whose entries live for ttl. A nil clock uses SystemClock.
func NewTTL[V any](ttl time.Duration, clock Clock) *TTL[V] {
	if clock == nil {
		clock = SystemClock
	}
	return &TTL[V]{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]entry[V]),
	}
}

// Get returns the live value for key.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && !c.clock.Now().Before(e.expiresAt) {
		delete(c.entries, key)
		c.mu.Unlock()
		c.evict(key, e.value)
		var zero V
		return zero, false
	}
	c.mu.Unlock()
	return e.value, ok
}

// Set stores value under key for the cache lifetime.
func (c *TTL[V]) Set(key string, value V) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key for ttl instead of the cache lifetime.
func (c *TTL[V]) SetWithTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	old, had := c.entries[key]
	c.entries[key] = entry[V]{value: value, expiresAt: c.clock.Now().Add(ttl)}
	c.mu.Unlock()
	if had {
		c.evict(key, old.value)
	}
}

// Invalidate drops key.
func (c *TTL[V]) Invalidate(key string) {
	c.mu.Lock()
	e, ok := c.entries[key]
	delete(c.entries, key)
	c.mu.Unlock()
	if ok {
		c.evict(key, e.value)
	}
}

// InvalidateAll drops every entry.
func (c *TTL[V]) InvalidateAll() {
	c.mu.Lock()
	old := c.entries
	c.entries = make(map[string]entry[V])
	c.mu.Unlock()
	for k, e := range old {
		c.evict(k, e.value)
	}
}

func (c *TTL[V]) evict(key string, value V) {
	if c.OnEvict != nil {
		c.OnEvict(key, value)
	}
}
