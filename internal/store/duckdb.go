// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/goccy/go-json"

	"github.com/tomtom215/liftsync/internal/metrics"
	"github.com/tomtom215/liftsync/internal/models"
)

var duckdbSchema = []string{
	`CREATE TABLE IF NOT EXISTS workouts (
		id VARCHAR PRIMARY KEY,
		start_time TIMESTAMP,
		doc VARCHAR NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS exercises (
		exercise_id VARCHAR PRIMARY KEY,
		workout_id VARCHAR NOT NULL,
		name VARCHAR NOT NULL,
		exercise_index INTEGER NOT NULL,
		doc VARCHAR NOT NULL
	)`,
}

// DuckDBStore implements Store on DuckDB. Each record is kept as a JSON
// document next to the columns needed for keys and ordering.
type DuckDBStore struct {
	conn *sql.DB
}

// OpenDuckDB opens (or creates) a DuckDB database at path and ensures the
// schema exists. An empty path opens an in-memory database.
func OpenDuckDB(ctx context.Context, path string) (*DuckDBStore, error) {
	if dir := filepath.Dir(path); path != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	dsn := path
	if dsn == "" {
		dsn = ":memory:"
	}
	// Extensions are not needed for the document tables; disabling autoload
	// avoids network access on first open.
	conn, err := sql.Open("duckdb", dsn+"?autoinstall_known_extensions=false&autoload_known_extensions=false")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	// Conditional inserts on one connection never race each other.
	conn.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}

	for _, stmt := range duckdbSchema {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}

	return &DuckDBStore{conn: conn}, nil
}

// Backend implements Store.
func (s *DuckDBStore) Backend() string { return BackendDuckDB }

// PutWorkoutIfAbsent implements Store.
func (s *DuckDBStore) PutWorkoutIfAbsent(ctx context.Context, rec models.WorkoutRecord) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal workout %s: %w", rec.ID, err)
	}
	err = s.insertIfAbsent(ctx, "put_workout",
		`INSERT INTO workouts (id, start_time, doc, created_at) VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		rec.ID, rec.StartTime.UTC(), string(doc), rec.CreatedAt.UTC())
	if errors.Is(err, ErrAlreadyExists) {
		metrics.RecordStoreConflict(BackendDuckDB, "workout")
	}
	return err
}

// PutExerciseIfAbsent implements Store.
func (s *DuckDBStore) PutExerciseIfAbsent(ctx context.Context, rec models.ExerciseRecord) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal exercise %s: %w", rec.ExerciseID, err)
	}
	err = s.insertIfAbsent(ctx, "put_exercise",
		`INSERT INTO exercises (exercise_id, workout_id, name, exercise_index, doc) VALUES (?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		rec.ExerciseID, rec.WorkoutID, rec.Name, rec.Index, string(doc))
	if errors.Is(err, ErrAlreadyExists) {
		metrics.RecordStoreConflict(BackendDuckDB, "exercise")
	}
	return err
}

func (s *DuckDBStore) insertIfAbsent(ctx context.Context, op, query string, args ...interface{}) error {
	start := time.Now()
	res, err := s.conn.ExecContext(ctx, query, args...)
	if err != nil {
		metrics.RecordStoreOperation(BackendDuckDB, op, time.Since(start), err)
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	metrics.RecordStoreOperation(BackendDuckDB, op, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// GetWorkout implements Store.
func (s *DuckDBStore) GetWorkout(ctx context.Context, id string) (models.WorkoutRecord, error) {
	var (
		rec models.WorkoutRecord
		doc string
	)

	start := time.Now()
	err := s.conn.QueryRowContext(ctx, `SELECT doc FROM workouts WHERE id = ?`, id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordStoreOperation(BackendDuckDB, "get_workout", time.Since(start), nil)
		return rec, ErrNotFound
	}
	metrics.RecordStoreOperation(BackendDuckDB, "get_workout", time.Since(start), err)
	if err != nil {
		return rec, fmt.Errorf("get workout: %w", err)
	}

	if err := json.Unmarshal([]byte(doc), &rec); err != nil {
		return rec, fmt.Errorf("decode workout %s: %w", id, err)
	}
	return rec, nil
}

// ScanWorkouts implements Store.
func (s *DuckDBStore) ScanWorkouts(ctx context.Context, cursor string, limit int) (Page[models.WorkoutRecord], error) {
	return scanDuckDB[models.WorkoutRecord](ctx, s.conn, "scan_workouts",
		`SELECT id, doc FROM workouts WHERE id > ? ORDER BY id LIMIT ?`, cursor, limit)
}

// ScanExercises implements Store.
func (s *DuckDBStore) ScanExercises(ctx context.Context, cursor string, limit int) (Page[models.ExerciseRecord], error) {
	return scanDuckDB[models.ExerciseRecord](ctx, s.conn, "scan_exercises",
		`SELECT exercise_id, doc FROM exercises WHERE exercise_id > ? ORDER BY exercise_id LIMIT ?`, cursor, limit)
}

// scanDuckDB fetches one row past limit to decide whether a cursor is needed.
func scanDuckDB[T any](ctx context.Context, conn *sql.DB, op, query, cursor string, limit int) (Page[T], error) {
	var page Page[T]

	after, err := DecodeCursor(cursor)
	if err != nil {
		return page, err
	}
	limit = normalizeLimit(limit)

	start := time.Now()
	rows, err := conn.QueryContext(ctx, query, after, limit+1)
	if err != nil {
		metrics.RecordStoreOperation(BackendDuckDB, op, time.Since(start), err)
		return page, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var lastKey string
	for rows.Next() {
		if len(page.Items) == limit {
			page.Cursor = EncodeCursor(lastKey)
			break
		}

		var key, doc string
		if err := rows.Scan(&key, &doc); err != nil {
			return Page[T]{}, fmt.Errorf("%s scan: %w", op, err)
		}
		var rec T
		if err := json.Unmarshal([]byte(doc), &rec); err != nil {
			return Page[T]{}, fmt.Errorf("decode %s: %w", key, err)
		}
		page.Items = append(page.Items, rec)
		lastKey = key
	}
	err = rows.Err()
	metrics.RecordStoreOperation(BackendDuckDB, op, time.Since(start), err)
	if err != nil {
		return Page[T]{}, fmt.Errorf("%s rows: %w", op, err)
	}
	return page, nil
}

// Close closes the database connection.
func (s *DuckDBStore) Close() error {
	return s.conn.Close()
}
