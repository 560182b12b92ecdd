// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/liftsync/internal/logging"
	"github.com/tomtom215/liftsync/internal/models"
)

func testWorkout(id string) models.WorkoutRecord {
	start := time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC)
	return models.WorkoutRecord{
		ID:        id,
		Title:     "Workout " + id,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Metrics:   models.WorkoutStats{DurationMinutes: 60, WorkoutDate: "2025-01-02"},
		CreatedAt: start,
	}
}

func testExercise(workoutID string, index int) models.ExerciseRecord {
	return models.ExerciseRecord{
		ExerciseID: models.ExerciseID(workoutID, index),
		WorkoutID:  workoutID,
		Name:       "Squat",
		Index:      index,
	}
}

// backends returns one fresh store per implementation.
func backends(t *testing.T) map[string]Store {
	t.Helper()

	badgerStore, err := OpenBadger(t.TempDir())
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	duckStore, err := OpenDuckDB(context.Background(), "")
	if err != nil {
		t.Fatalf("OpenDuckDB: %v", err)
	}

	stores := map[string]Store{
		BackendBadger: badgerStore,
		BackendDuckDB: duckStore,
		BackendMemory: NewMemoryStore(),
	}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func TestStore_ConditionalPut(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.PutWorkoutIfAbsent(ctx, testWorkout("w1")); err != nil {
				t.Fatalf("first put: %v", err)
			}

			dup := testWorkout("w1")
			dup.Title = "overwritten"
			if err := s.PutWorkoutIfAbsent(ctx, dup); !errors.Is(err, ErrAlreadyExists) {
				t.Fatalf("expected ErrAlreadyExists, got %v", err)
			}

			got, err := s.GetWorkout(ctx, "w1")
			if err != nil {
				t.Fatalf("GetWorkout: %v", err)
			}
			if got.Title != "Workout w1" {
				t.Errorf("existing record was modified: title %q", got.Title)
			}
			if got.Metrics.DurationMinutes != 60 {
				t.Errorf("expected metrics to round-trip, got %+v", got.Metrics)
			}

			if err := s.PutExerciseIfAbsent(ctx, testExercise("w1", 0)); err != nil {
				t.Fatalf("put exercise: %v", err)
			}
			if err := s.PutExerciseIfAbsent(ctx, testExercise("w1", 0)); !errors.Is(err, ErrAlreadyExists) {
				t.Fatalf("expected ErrAlreadyExists for exercise, got %v", err)
			}
		})
	}
}

func TestStore_GetMissing(t *testing.T) {
	t.Parallel()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.GetWorkout(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
				t.Errorf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestStore_ScanAllExhaustive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	const total = 23
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < total; i++ {
				id := fmt.Sprintf("w%03d", i)
				if err := s.PutWorkoutIfAbsent(ctx, testWorkout(id)); err != nil {
					t.Fatalf("put %s: %v", id, err)
				}
				if err := s.PutExerciseIfAbsent(ctx, testExercise(id, 0)); err != nil {
					t.Fatalf("put exercise %s: %v", id, err)
				}
			}

			for _, pageSize := range []int{1, 5, total, 100} {
				all, err := AllWorkouts(ctx, s, pageSize)
				if err != nil {
					t.Fatalf("AllWorkouts(pageSize=%d): %v", pageSize, err)
				}
				if len(all) != total {
					t.Fatalf("pageSize=%d: expected %d workouts, got %d", pageSize, total, len(all))
				}
				seen := make(map[string]bool, total)
				for _, rec := range all {
					if seen[rec.ID] {
						t.Errorf("pageSize=%d: duplicate %s", pageSize, rec.ID)
					}
					seen[rec.ID] = true
				}
			}

			exercises, err := AllExercises(ctx, s, 4)
			if err != nil {
				t.Fatalf("AllExercises: %v", err)
			}
			if len(exercises) != total {
				t.Errorf("expected %d exercises, got %d", total, len(exercises))
			}
		})
	}
}

func TestStore_ScanPageCursor(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, id := range []string{"a", "b", "c"} {
				if err := s.PutWorkoutIfAbsent(ctx, testWorkout(id)); err != nil {
					t.Fatal(err)
				}
			}

			first, err := s.ScanWorkouts(ctx, "", 2)
			if err != nil {
				t.Fatal(err)
			}
			if len(first.Items) != 2 || first.Cursor == "" {
				t.Fatalf("expected 2 items and a cursor, got %d items cursor=%q", len(first.Items), first.Cursor)
			}

			second, err := s.ScanWorkouts(ctx, first.Cursor, 2)
			if err != nil {
				t.Fatal(err)
			}
			if len(second.Items) != 1 || second.Items[0].ID != "c" {
				t.Fatalf("expected only c on second page, got %+v", second.Items)
			}
			if second.Cursor != "" {
				t.Errorf("expected empty cursor on last page, got %q", second.Cursor)
			}

			// A page that ends exactly at the last key has no cursor.
			exact, err := s.ScanWorkouts(ctx, "", 3)
			if err != nil {
				t.Fatal(err)
			}
			if exact.Cursor != "" {
				t.Errorf("expected no cursor when the page drains the store, got %q", exact.Cursor)
			}
		})
	}
}

func TestStore_EmptyScan(t *testing.T) {
	t.Parallel()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			all, err := AllWorkouts(context.Background(), s, 10)
			if err != nil {
				t.Fatal(err)
			}
			if len(all) != 0 {
				t.Errorf("expected empty result, got %d", len(all))
			}
		})
	}
}

func TestStore_InvalidCursor(t *testing.T) {
	t.Parallel()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, err := s.ScanWorkouts(context.Background(), "***", 10); !errors.Is(err, ErrInvalidCursor) {
				t.Errorf("expected ErrInvalidCursor, got %v", err)
			}
		})
	}
}

func TestStore_ConcurrentPutSingleWinner(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			const writers = 8
			var (
				wg       sync.WaitGroup
				mu       sync.Mutex
				inserted int
				existing int
			)
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					err := s.PutWorkoutIfAbsent(ctx, testWorkout("race"))
					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						inserted++
					case errors.Is(err, ErrAlreadyExists):
						existing++
					default:
						t.Errorf("unexpected error: %v", err)
					}
				}()
			}
			wg.Wait()

			if inserted != 1 || existing != writers-1 {
				t.Errorf("expected 1 insert and %d conflicts, got %d / %d", writers-1, inserted, existing)
			}
		})
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, err := Open(ctx, BackendMemory, "")
	if err != nil {
		t.Fatalf("Open memory: %v", err)
	}
	defer s.Close()
	if s.Backend() != BackendMemory {
		t.Errorf("expected memory backend, got %s", s.Backend())
	}

	if _, err := Open(ctx, "postgres", ""); err == nil {
		t.Error("expected error for unknown backend")
	}
}

// Not parallel: swaps the global logger.
func TestOpen_LogsOnce(t *testing.T) {
	var buf bytes.Buffer
	prev := logging.Logger()
	logging.SetLogger(logging.NewTestLogger(&buf))
	defer logging.SetLogger(prev)

	s, err := Open(context.Background(), BackendMemory, "open-logs-once")
	if err != nil {
		t.Fatalf("Open memory: %v", err)
	}
	defer s.Close()

	if n := strings.Count(buf.String(), "Workout store opened"); n != 1 {
		t.Errorf("expected one store opened line, got %d in %q", n, buf.String())
	}
	if !strings.Contains(buf.String(), `"backend":"memory"`) || !strings.Contains(buf.String(), `"path":"open-logs-once"`) {
		t.Errorf("expected backend and path fields, got %q", buf.String())
	}
}

func TestMemoryStore_Closed(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	_ = s.Close()
	if err := s.PutWorkoutIfAbsent(context.Background(), testWorkout("x")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestCursorRoundTrip(t *testing.T) {
	t.Parallel()

	token := EncodeCursor("workout:abc")
	got, err := DecodeCursor(token)
	if err != nil || got != "workout:abc" {
		t.Errorf("DecodeCursor(%q) = %q, %v", token, got, err)
	}
	if EncodeCursor("") != "" {
		t.Error("expected empty cursor for empty key")
	}
}
