// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

// Package cache provides the read-through TTL cache that fronts every
// externally facing read in Liftsync.
//
// The cache is constructed once at startup and passed by reference to the API
// handlers (readers) and the backfill synchronizer (invalidator). Reads go
// through ReadThrough, which is also the single place where a cache miss can
// trigger background synchronization via an OnMiss hook.
package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/liftsync/internal/metrics"
)

// DefaultCleanupInterval is how often expired entries are swept.
const DefaultCleanupInterval = 5 * time.Minute

// Entry represents a cached item with expiration
type Entry struct {
	Data      interface{}
	ExpiresAt time.Time
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits        int64     `json:"hits"`
	Misses      int64     `json:"misses"`
	Evictions   int64     `json:"evictions"`
	TotalKeys   int64     `json:"total_keys"`
	Keys        []string  `json:"keys"`
	LastCleanup time.Time `json:"last_cleanup"`
}

type counters struct {
	mu          sync.Mutex
	hits        int64
	misses      int64
	evictions   int64
	lastCleanup time.Time
}

// Cache is a thread-safe in-memory cache with per-entry TTL.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration
	stats   counters

	name            string
	cleanupInterval time.Duration
	now             func() time.Time

	done      chan struct{}
	closeOnce sync.Once
}

// Option configures a Cache.
type Option func(*Cache)

// WithName sets the cache_type label used for Prometheus metrics.
func WithName(name string) Option {
	return func(c *Cache) {
		if name != "" {
			c.name = name
		}
	}
}

// WithCleanupInterval overrides the background sweep interval.
// A non-positive interval disables the sweep.
func WithCleanupInterval(d time.Duration) Option {
	return func(c *Cache) {
		c.cleanupInterval = d
	}
}

// New creates a cache whose entries live for ttl unless a per-entry TTL is
// given. A background goroutine sweeps expired entries until Close is called.
//
//	c := cache.New(4 * time.Hour)
//	defer c.Close()
func New(ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		entries:         make(map[string]Entry),
		ttl:             ttl,
		name:            "api",
		cleanupInterval: DefaultCleanupInterval,
		now:             time.Now,
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.stats.lastCleanup = c.now()

	if c.cleanupInterval > 0 {
		go c.cleanupLoop()
	}
	return c
}

// DefaultTTL returns the TTL applied when none is given.
func (c *Cache) DefaultTTL() time.Duration {
	return c.ttl
}

// Get returns the live value for key. It never blocks on I/O. An expired
// entry is removed and counted as a miss.
func (c *Cache) Get(key string) (interface{}, bool) {
	now := c.now()

	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		c.recordMiss()
		return nil, false
	}

	if !now.Before(entry.ExpiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have refreshed it.
		if current, ok := c.entries[key]; ok && !now.Before(current.ExpiresAt) {
			delete(c.entries, key)
			c.recordEviction(1)
		}
		c.mu.Unlock()
		c.recordMiss()
		return nil, false
	}

	c.recordHit()
	return entry.Data, true
}

// Set stores value under key with the default TTL, overwriting any entry.
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores value under key with a custom TTL, overwriting any entry.
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}

	c.mu.Lock()
	c.entries[key] = Entry{
		Data:      value,
		ExpiresAt: c.now().Add(ttl),
	}
	size := len(c.entries)
	c.mu.Unlock()

	metrics.CacheSize.WithLabelValues(c.name).Set(float64(size))
}

// Delete removes key. It reports whether an entry was present.
func (c *Cache) Delete(key string) bool {
	c.mu.Lock()
	_, ok := c.entries[key]
	delete(c.entries, key)
	size := len(c.entries)
	c.mu.Unlock()

	metrics.CacheSize.WithLabelValues(c.name).Set(float64(size))
	return ok
}

// Clear removes every entry and returns how many were removed.
func (c *Cache) Clear() int {
	c.mu.Lock()
	n := len(c.entries)
	c.entries = make(map[string]Entry)
	c.mu.Unlock()

	metrics.CacheSize.WithLabelValues(c.name).Set(0)
	return n
}

// Keys returns the live keys in sorted order.
func (c *Cache) Keys() []string {
	now := c.now()

	c.mu.RLock()
	keys := make([]string, 0, len(c.entries))
	for key, entry := range c.entries {
		if now.Before(entry.ExpiresAt) {
			keys = append(keys, key)
		}
	}
	c.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

// GetStats returns a snapshot of the cache counters and live keys.
func (c *Cache) GetStats() Stats {
	keys := c.Keys()

	c.stats.mu.Lock()
	defer c.stats.mu.Unlock()

	return Stats{
		Hits:        c.stats.hits,
		Misses:      c.stats.misses,
		Evictions:   c.stats.evictions,
		TotalKeys:   int64(len(keys)),
		Keys:        keys,
		LastCleanup: c.stats.lastCleanup,
	}
}

// HitRate returns the cache hit rate as a percentage
func (c *Cache) HitRate() float64 {
	c.stats.mu.Lock()
	hits, misses := c.stats.hits, c.stats.misses
	c.stats.mu.Unlock()

	total := hits + misses
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total) * 100.0
}

// Close stops the background sweep. The cache stays usable.
func (c *Cache) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.done:
			return
		}
	}
}

// cleanup removes all expired entries
func (c *Cache) cleanup() {
	now := c.now()

	c.mu.Lock()
	evicted := 0
	for key, entry := range c.entries {
		if !now.Before(entry.ExpiresAt) {
			delete(c.entries, key)
			evicted++
		}
	}
	size := len(c.entries)
	c.mu.Unlock()

	c.recordEviction(evicted)
	c.stats.mu.Lock()
	c.stats.lastCleanup = now
	c.stats.mu.Unlock()

	metrics.CacheSize.WithLabelValues(c.name).Set(float64(size))
}

func (c *Cache) recordHit() {
	c.stats.mu.Lock()
	c.stats.hits++
	c.stats.mu.Unlock()
	metrics.CacheHits.WithLabelValues(c.name).Inc()
}

func (c *Cache) recordMiss() {
	c.stats.mu.Lock()
	c.stats.misses++
	c.stats.mu.Unlock()
	metrics.CacheMisses.WithLabelValues(c.name).Inc()
}

func (c *Cache) recordEviction(n int) {
	if n == 0 {
		return
	}
	c.stats.mu.Lock()
	c.stats.evictions += int64(n)
	c.stats.mu.Unlock()
	metrics.CacheEvictions.WithLabelValues(c.name).Add(float64(n))
}
