// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/liftsync/internal/logging"
	"github.com/tomtom215/liftsync/internal/metrics"
)

var (
	// ErrEmptyKey is returned when ReadThrough is called without a key.
	ErrEmptyKey = errors.New("cache: key is required")

	// ErrNilFetch is returned when ReadThrough is called without a fetch function.
	ErrNilFetch = errors.New("cache: fetch function is required")
)

// FetchFunc loads the value for a missed key.
type FetchFunc func(ctx context.Context) (interface{}, error)

// OnMissFunc is a side effect launched in the background on a miss. It is
// never awaited and its failure never reaches the reader.
type OnMissFunc func() error

type readOptions struct {
	ttl    time.Duration
	onMiss OnMissFunc
}

// ReadOption configures a single ReadThrough call.
type ReadOption func(*readOptions)

// WithTTL stores the fetched value with ttl instead of the cache default.
func WithTTL(ttl time.Duration) ReadOption {
	return func(o *readOptions) {
		o.ttl = ttl
	}
}

// WithOnMiss launches fn in its own goroutine when the key is missing.
func WithOnMiss(fn OnMissFunc) ReadOption {
	return func(o *readOptions) {
		o.onMiss = fn
	}
}

// ReadThrough returns the cached value for key, or calls fetch, stores its
// result and returns it. The bool result reports whether the value came from
// the cache.
//
// On a miss the OnMiss hook (if any) is started before fetch runs and is not
// waited for. A fetch error is returned as-is and nothing is cached, so the
// next reader retries. Concurrent misses on the same key are not merged:
// each runs its own fetch and launches its own hook.
func (c *Cache) ReadThrough(ctx context.Context, key string, fetch FetchFunc, opts ...ReadOption) (interface{}, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}
	if fetch == nil {
		return nil, false, ErrNilFetch
	}

	o := readOptions{ttl: c.ttl}
	for _, opt := range opts {
		opt(&o)
	}

	if value, ok := c.Get(key); ok {
		logging.Debug().Str("key", key).Msg("Cache hit")
		return value, true, nil
	}

	logging.Debug().Str("key", key).Msg("Cache miss")

	if o.onMiss != nil {
		go c.runOnMiss(key, o.onMiss)
	}

	start := time.Now()
	value, err := fetch(ctx)
	if err != nil {
		metrics.CacheFetchErrors.WithLabelValues(c.name).Inc()
		return nil, false, fmt.Errorf("fetch %s: %w", key, err)
	}

	c.SetWithTTL(key, value, o.ttl)
	logging.Debug().
		Str("key", key).
		Dur("ttl", o.ttl).
		Dur("fetch_duration", time.Since(start)).
		Msg("Cache stored")

	return value, false, nil
}

func (c *Cache) runOnMiss(key string, fn OnMissFunc) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error().Str("key", key).Interface("panic", r).Msg("Cache miss hook panicked")
		}
	}()

	if err := fn(); err != nil {
		logging.Error().Err(err).Str("key", key).Msg("Cache miss hook failed")
	}
}
