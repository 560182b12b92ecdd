// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/liftsync/internal/metrics"
	"github.com/tomtom215/liftsync/internal/models"
)

// Key prefixes for BadgerDB storage
const (
	workoutKeyPrefix  = "workout:"
	exerciseKeyPrefix = "exercise:"
)

// maxConflictRetries bounds retries when two transactions race on one key.
const maxConflictRetries = 3

// BadgerStore implements Store on an embedded BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a BadgerDB at path. An empty path opens an
// in-memory database.
func OpenBadger(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// NewBadgerStore wraps an already opened BadgerDB.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Backend implements Store.
func (s *BadgerStore) Backend() string { return BackendBadger }

// PutWorkoutIfAbsent implements Store.
func (s *BadgerStore) PutWorkoutIfAbsent(ctx context.Context, rec models.WorkoutRecord) error {
	err := s.putIfAbsent(ctx, "put_workout", workoutKeyPrefix+rec.ID, rec)
	if errors.Is(err, ErrAlreadyExists) {
		metrics.RecordStoreConflict(BackendBadger, "workout")
	}
	return err
}

// PutExerciseIfAbsent implements Store.
func (s *BadgerStore) PutExerciseIfAbsent(ctx context.Context, rec models.ExerciseRecord) error {
	err := s.putIfAbsent(ctx, "put_exercise", exerciseKeyPrefix+rec.ExerciseID, rec)
	if errors.Is(err, ErrAlreadyExists) {
		metrics.RecordStoreConflict(BackendBadger, "exercise")
	}
	return err
}

func (s *BadgerStore) putIfAbsent(ctx context.Context, op, key string, value interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	start := time.Now()
	for attempt := 0; ; attempt++ {
		err = s.db.Update(func(txn *badger.Txn) error {
			_, getErr := txn.Get([]byte(key))
			if getErr == nil {
				return ErrAlreadyExists
			}
			if !errors.Is(getErr, badger.ErrKeyNotFound) {
				return fmt.Errorf("get %s: %w", key, getErr)
			}
			return txn.Set([]byte(key), data)
		})
		// A conflicting concurrent writer committed first; re-reading will
		// observe its key and report ErrAlreadyExists.
		if errors.Is(err, badger.ErrConflict) && attempt < maxConflictRetries {
			continue
		}
		break
	}

	if errors.Is(err, ErrAlreadyExists) {
		metrics.RecordStoreOperation(BackendBadger, op, time.Since(start), nil)
		return ErrAlreadyExists
	}
	metrics.RecordStoreOperation(BackendBadger, op, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// GetWorkout implements Store.
func (s *BadgerStore) GetWorkout(ctx context.Context, id string) (models.WorkoutRecord, error) {
	var rec models.WorkoutRecord
	if err := ctx.Err(); err != nil {
		return rec, err
	}

	start := time.Now()
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(workoutKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get workout: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})

	if errors.Is(err, ErrNotFound) {
		metrics.RecordStoreOperation(BackendBadger, "get_workout", time.Since(start), nil)
		return rec, ErrNotFound
	}
	metrics.RecordStoreOperation(BackendBadger, "get_workout", time.Since(start), err)
	return rec, err
}

// ScanWorkouts implements Store.
func (s *BadgerStore) ScanWorkouts(ctx context.Context, cursor string, limit int) (Page[models.WorkoutRecord], error) {
	return scanBadger[models.WorkoutRecord](ctx, s.db, "scan_workouts", workoutKeyPrefix, cursor, limit)
}

// ScanExercises implements Store.
func (s *BadgerStore) ScanExercises(ctx context.Context, cursor string, limit int) (Page[models.ExerciseRecord], error) {
	return scanBadger[models.ExerciseRecord](ctx, s.db, "scan_exercises", exerciseKeyPrefix, cursor, limit)
}

// scanBadger iterates keys under prefix strictly after the decoded cursor.
// The returned cursor is set only when at least one more key exists.
func scanBadger[T any](ctx context.Context, db *badger.DB, op, prefix, cursor string, limit int) (Page[T], error) {
	var page Page[T]
	if err := ctx.Err(); err != nil {
		return page, err
	}

	after, err := DecodeCursor(cursor)
	if err != nil {
		return page, err
	}
	limit = normalizeLimit(limit)

	start := time.Now()
	err = db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		opts.PrefetchSize = limit
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := []byte(prefix)
		if after != "" {
			seek = []byte(after)
		}

		var lastKey string
		for it.Seek(seek); it.ValidForPrefix([]byte(prefix)); it.Next() {
			item := it.Item()
			key := string(item.Key())
			if key == after {
				continue
			}
			if len(page.Items) == limit {
				page.Cursor = EncodeCursor(lastKey)
				return nil
			}

			var rec T
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", key, err)
			}
			page.Items = append(page.Items, rec)
			lastKey = key
		}
		return nil
	})

	metrics.RecordStoreOperation(BackendBadger, op, time.Since(start), err)
	if err != nil {
		return Page[T]{}, err
	}
	return page, nil
}

// Close closes the underlying BadgerDB.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
