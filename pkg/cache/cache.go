package cache

import (
	"sync"
	"time"
)

// Clock returns the current time; injectable so tests can control expiry.
type Clock func() time.Time

type entry[T any] struct {
	payload  T
	storedAt time.Time
	ttl      time.Duration
}

// Cache is a small time-boxed memo store. Entries are not swept proactively;
// an expired entry is treated as absent and removed by the access that
// discovers the expiry. Instances are constructed and injected rather than
// shared through package state, so tests can isolate them.
type Cache[T any] struct {
	mu      sync.Mutex
	now     Clock
	entries map[string]entry[T]
}

func New[T any]() *Cache[T] {
	return NewWithClock[T](time.Now)
}

func NewWithClock[T any](now Clock) *Cache[T] {
	if now == nil {
		now = time.Now
	}
	return &Cache[T]{
		now:     now,
		entries: make(map[string]entry[T]),
	}
}

// Set stores the value under key for ttl. A non-positive ttl makes the entry
// immediately absent.
func (c *Cache[T]) Set(key string, value T, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[T]{payload: value, storedAt: c.now(), ttl: ttl}
}

// Get returns the stored value when present and unexpired.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero T
		return zero, false
	}
	if c.expired(e) {
		delete(c.entries, key)
		var zero T
		return zero, false
	}
	return e.payload, true
}

// Has reports whether key holds an unexpired entry.
func (c *Cache[T]) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Invalidate removes key regardless of expiry.
func (c *Cache[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *Cache[T]) expired(e entry[T]) bool {
	return c.now().Sub(e.storedAt) > e.ttl
}
