// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package cache

import (
	"sort"
	"strings"
)

// KeyPrefix starts every API cache key.
const KeyPrefix = "api-"

// Key builds the cache key for endpoint and params: "api-<endpoint>" followed
// by "-<name>:<value>" for each non-empty parameter, ordered by name. Callers
// that pass the same parameter set always get the same key.
//
//	cache.Key("workouts-dynamo", map[string]string{"page": "1", "pageSize": "10"})
//	// api-workouts-dynamo-page:1-pageSize:10
func Key(endpoint string, params map[string]string) string {
	var b strings.Builder
	b.WriteString(KeyPrefix)
	b.WriteString(endpoint)

	names := make([]string, 0, len(params))
	for name, value := range params {
		if value != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		b.WriteByte('-')
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(params[name])
	}
	return b.String()
}
