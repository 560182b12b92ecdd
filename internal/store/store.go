// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

// Package store persists workout and exercise records.
//
// The store is treated as a keyed document store with three capabilities:
// a conditional put that fails with ErrAlreadyExists when the key is taken,
// a cursor-paginated scan, and a lookup by key. The conditional put is the
// only mutual exclusion the backfill relies on; concurrent runs that race on
// the same workout produce one record and one ErrAlreadyExists.
//
// Backends: BadgerStore (default, embedded), DuckDBStore and MemoryStore.
package store

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/tomtom215/liftsync/internal/models"
)

// Store errors
var (
	// ErrAlreadyExists is returned by conditional puts when the key exists.
	// It is an expected outcome, not a failure.
	ErrAlreadyExists = errors.New("store: record already exists")

	// ErrNotFound is returned by lookups for a missing key.
	ErrNotFound = errors.New("store: record not found")

	// ErrInvalidCursor is returned when a scan cursor cannot be decoded.
	ErrInvalidCursor = errors.New("store: invalid cursor")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store: closed")
)

// DefaultScanLimit caps the number of items a single scan call returns.
const DefaultScanLimit = 100

// Backend names accepted by Open.
const (
	BackendBadger = "badger"
	BackendDuckDB = "duckdb"
	BackendMemory = "memory"
)

// Page is one response of a cursor-paginated scan. An empty Cursor means
// there is nothing after this page.
type Page[T any] struct {
	Items  []T
	Cursor string
}

// Store is the persistence contract used by the backfill and read models.
type Store interface {
	// PutWorkoutIfAbsent inserts rec unless a workout with the same ID exists,
	// in which case it returns ErrAlreadyExists and writes nothing.
	PutWorkoutIfAbsent(ctx context.Context, rec models.WorkoutRecord) error

	// PutExerciseIfAbsent inserts rec unless an exercise with the same
	// ExerciseID exists, in which case it returns ErrAlreadyExists.
	PutExerciseIfAbsent(ctx context.Context, rec models.ExerciseRecord) error

	// GetWorkout returns the workout with id or ErrNotFound.
	GetWorkout(ctx context.Context, id string) (models.WorkoutRecord, error)

	// ScanWorkouts returns up to limit workouts after cursor. Order is the
	// store's key order.
	ScanWorkouts(ctx context.Context, cursor string, limit int) (Page[models.WorkoutRecord], error)

	// ScanExercises returns up to limit exercise records after cursor.
	ScanExercises(ctx context.Context, cursor string, limit int) (Page[models.ExerciseRecord], error)

	// Backend names the implementation for metrics and logs.
	Backend() string

	Close() error
}

// EncodeCursor turns the last key of a page into an opaque token.
func EncodeCursor(lastKey string) string {
	if lastKey == "" {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString([]byte(lastKey))
}

// DecodeCursor reverses EncodeCursor. An empty token decodes to "".
func DecodeCursor(token string) (string, error) {
	if token == "" {
		return "", nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	return string(raw), nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultScanLimit
	}
	return limit
}
