// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package store

import (
	"context"
	"fmt"

	"github.com/tomtom215/liftsync/internal/logging"
)

// Open creates the Store for backend at path.
func Open(ctx context.Context, backend, path string) (Store, error) {
	var (
		s   Store
		err error
	)

	switch backend {
	case BackendBadger, "":
		s, err = OpenBadger(path)
	case BackendDuckDB:
		s, err = OpenDuckDB(ctx, path)
	case BackendMemory:
		s = NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
	if err != nil {
		return nil, err
	}

	logging.Info().Str("backend", s.Backend()).Str("path", path).Msg("Workout store opened")
	return s, nil
}
