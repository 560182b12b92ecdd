// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package cache

import (
	"regexp"
	"strings"

	"github.com/tomtom215/liftsync/internal/logging"
	"github.com/tomtom215/liftsync/internal/metrics"
)

// Invalidator removes cache entries by exact key or glob pattern.
type Invalidator interface {
	Invalidate(pattern string) int
}

// Invalidate removes entries and returns how many were removed.
//
//   - "" clears the whole cache
//   - a pattern containing '*' removes every key the glob matches in full;
//     '*' matches any run of characters and everything else is literal
//   - any other value removes that exact key
func (c *Cache) Invalidate(pattern string) int {
	var removed int

	switch {
	case pattern == "":
		removed = c.Clear()
	case strings.Contains(pattern, "*"):
		removed = c.deleteMatching(GlobToRegexp(pattern))
	default:
		if c.Delete(pattern) {
			removed = 1
		}
	}

	metrics.CacheInvalidations.WithLabelValues(c.name).Add(float64(removed))
	logging.Debug().Str("pattern", pattern).Int("removed", removed).Msg("Cache invalidated")
	return removed
}

func (c *Cache) deleteMatching(re *regexp.Regexp) int {
	c.mu.Lock()
	removed := 0
	for key := range c.entries {
		if re.MatchString(key) {
			delete(c.entries, key)
			removed++
		}
	}
	size := len(c.entries)
	c.mu.Unlock()

	metrics.CacheSize.WithLabelValues(c.name).Set(float64(size))
	return removed
}

// GlobToRegexp compiles a '*' glob into an anchored regular expression.
func GlobToRegexp(glob string) *regexp.Regexp {
	parts := strings.Split(glob, "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return regexp.MustCompile("^" + strings.Join(parts, ".*") + "$")
}
