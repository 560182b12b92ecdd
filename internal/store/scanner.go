// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/liftsync/internal/models"
)

// ErrCursorLoop is returned when a store hands back the cursor it was given,
// which would otherwise make ScanAll spin forever.
var ErrCursorLoop = errors.New("store: scan cursor did not advance")

// ScanFunc issues one page of a cursor-paginated query.
type ScanFunc[T any] func(ctx context.Context, cursor string) (Page[T], error)

// ScanAll drains a paginated query, feeding each page's cursor into the next
// call until the store returns no cursor. Pages are concatenated in the order
// they arrive; no sorting is applied.
func ScanAll[T any](ctx context.Context, scan ScanFunc[T]) ([]T, error) {
	var (
		all    []T
		cursor string
		pages  int
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := scan(ctx, cursor)
		if err != nil {
			return nil, fmt.Errorf("scan page %d: %w", pages+1, err)
		}
		pages++
		all = append(all, page.Items...)

		if page.Cursor == "" {
			return all, nil
		}
		if page.Cursor == cursor {
			return nil, fmt.Errorf("scan page %d: %w", pages, ErrCursorLoop)
		}
		cursor = page.Cursor
	}
}

// AllWorkouts scans every workout record in s.
func AllWorkouts(ctx context.Context, s Store, pageSize int) ([]models.WorkoutRecord, error) {
	return ScanAll(ctx, func(ctx context.Context, cursor string) (Page[models.WorkoutRecord], error) {
		return s.ScanWorkouts(ctx, cursor, pageSize)
	})
}

// AllExercises scans every exercise record in s.
func AllExercises(ctx context.Context, s Store, pageSize int) ([]models.ExerciseRecord, error) {
	return ScanAll(ctx, func(ctx context.Context, cursor string) (Page[models.ExerciseRecord], error) {
		return s.ScanExercises(ctx, cursor, pageSize)
	})
}
