package main

import (
	"sync"
	"time"
)

// Cache is the response cache injected into the upstream API clients. It is
// an explicit dependency rather than package state so tests can swap in
// NopCache and runs never share hidden mutable context.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
}

// NopCache caches nothing.
type NopCache struct{}

func (NopCache) Get(string) ([]byte, bool) { return nil, false }
func (NopCache) Set(string, []byte)        {}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// TTLCache is a bounded in-memory cache with per-entry expiry. When full it
// evicts the entry closest to expiring.
type TTLCache struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	entries  map[string]cacheEntry
}

// NewTTLCache creates a cache holding at most capacity entries for ttl each.
func NewTTLCache(ttl time.Duration, capacity int) *TTLCache {
	return &TTLCache{
		ttl:      ttl,
		capacity: capacity,
		entries:  make(map[string]cacheEntry, capacity),
	}
}

func (c *TTLCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

func (c *TTLCache) Set(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictLocked()
	}
	c.entries[key] = cacheEntry{value: value, expiresAt: time.Now().Add(c.ttl)}
}

// evictLocked removes expired entries, falling back to the entry with the
// earliest expiry when nothing has expired yet.
func (c *TTLCache) evictLocked() {
	now := time.Now()
	var oldestKey string
	var oldestAt time.Time

	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			continue
		}
		if oldestKey == "" || e.expiresAt.Before(oldestAt) {
			oldestKey = k
			oldestAt = e.expiresAt
		}
	}

	if len(c.entries) >= c.capacity && oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
