// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package store

import (
	"context"
	"sort"
	"sync"

	"github.com/tomtom215/liftsync/internal/metrics"
	"github.com/tomtom215/liftsync/internal/models"
)

// MemoryStore implements Store in process memory. It is used by tests and by
// the "memory" backend for throwaway runs.
type MemoryStore struct {
	mu        sync.RWMutex
	workouts  map[string]models.WorkoutRecord
	exercises map[string]models.ExerciseRecord
	closed    bool

	// insertOrder records workout IDs in the order they were inserted.
	insertOrder []string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		workouts:  make(map[string]models.WorkoutRecord),
		exercises: make(map[string]models.ExerciseRecord),
	}
}

// Backend implements Store.
func (s *MemoryStore) Backend() string { return BackendMemory }

// PutWorkoutIfAbsent implements Store.
func (s *MemoryStore) PutWorkoutIfAbsent(ctx context.Context, rec models.WorkoutRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if _, ok := s.workouts[rec.ID]; ok {
		metrics.RecordStoreConflict(BackendMemory, "workout")
		return ErrAlreadyExists
	}
	s.workouts[rec.ID] = rec
	s.insertOrder = append(s.insertOrder, rec.ID)
	return nil
}

// PutExerciseIfAbsent implements Store.
func (s *MemoryStore) PutExerciseIfAbsent(ctx context.Context, rec models.ExerciseRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if _, ok := s.exercises[rec.ExerciseID]; ok {
		metrics.RecordStoreConflict(BackendMemory, "exercise")
		return ErrAlreadyExists
	}
	s.exercises[rec.ExerciseID] = rec
	return nil
}

// GetWorkout implements Store.
func (s *MemoryStore) GetWorkout(ctx context.Context, id string) (models.WorkoutRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.WorkoutRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return models.WorkoutRecord{}, ErrClosed
	}
	rec, ok := s.workouts[id]
	if !ok {
		return models.WorkoutRecord{}, ErrNotFound
	}
	return rec, nil
}

// ScanWorkouts implements Store.
func (s *MemoryStore) ScanWorkouts(ctx context.Context, cursor string, limit int) (Page[models.WorkoutRecord], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scanMap(ctx, s.closed, s.workouts, cursor, limit)
}

// ScanExercises implements Store.
func (s *MemoryStore) ScanExercises(ctx context.Context, cursor string, limit int) (Page[models.ExerciseRecord], error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scanMap(ctx, s.closed, s.exercises, cursor, limit)
}

// InsertOrder returns workout IDs in insertion order.
func (s *MemoryStore) InsertOrder() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.insertOrder...)
}

// WorkoutCount returns the number of stored workouts.
func (s *MemoryStore) WorkoutCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.workouts)
}

// ExerciseCount returns the number of stored exercise records.
func (s *MemoryStore) ExerciseCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.exercises)
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// scanMap pages over m in sorted key order; callers hold the read lock.
func scanMap[T any](ctx context.Context, closed bool, m map[string]T, cursor string, limit int) (Page[T], error) {
	var page Page[T]
	if err := ctx.Err(); err != nil {
		return page, err
	}
	if closed {
		return page, ErrClosed
	}

	after, err := DecodeCursor(cursor)
	if err != nil {
		return page, err
	}
	limit = normalizeLimit(limit)

	keys := make([]string, 0, len(m))
	for key := range m {
		if key > after {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	if len(keys) > limit {
		keys = keys[:limit]
		page.Cursor = EncodeCursor(keys[limit-1])
	}
	page.Items = make([]T, 0, len(keys))
	for _, key := range keys {
		page.Items = append(page.Items, m[key])
	}
	return page, nil
}
