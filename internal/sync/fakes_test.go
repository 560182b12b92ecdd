// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package sync

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/liftsync/internal/cache"
	"github.com/tomtom215/liftsync/internal/hevy"
	"github.com/tomtom215/liftsync/internal/models"
	"github.com/tomtom215/liftsync/internal/store"
)

var errBoom = errors.New("boom")

// fakeSource serves fixed pages. Pages past the end are empty. pageCount of
// zero leaves page_count unset so only an empty page ends pagination.
type fakeSource struct {
	pages     [][]models.Workout
	pageCount int
	failPage  int
	skipped   map[int]int
	noAPIKey  bool

	mu    sync.Mutex
	calls []int
}

func (f *fakeSource) HasAPIKey() bool { return !f.noAPIKey }

func (f *fakeSource) Workouts(ctx context.Context, page, _ int) (*hevy.WorkoutsPage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, page)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if page == f.failPage {
		return nil, &hevy.APIError{StatusCode: 502, Body: "bad gateway"}
	}

	resp := &hevy.WorkoutsPage{Page: page, PageCount: f.pageCount, Skipped: f.skipped[page]}
	if page-1 < len(f.pages) {
		resp.Workouts = append([]models.Workout(nil), f.pages[page-1]...)
	}
	return resp, nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// countingStore counts conditional workout puts and can inject failures.
type countingStore struct {
	store.Store
	workoutPuts   atomic.Int32
	failWorkoutID string
	failExercise  bool
}

func (s *countingStore) PutWorkoutIfAbsent(ctx context.Context, rec models.WorkoutRecord) error {
	s.workoutPuts.Add(1)
	if rec.ID == s.failWorkoutID {
		return errBoom
	}
	return s.Store.PutWorkoutIfAbsent(ctx, rec)
}

func (s *countingStore) PutExerciseIfAbsent(ctx context.Context, rec models.ExerciseRecord) error {
	if s.failExercise {
		return errBoom
	}
	return s.Store.PutExerciseIfAbsent(ctx, rec)
}

type publishedEvent struct {
	topic   string
	payload interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{topic: topic, payload: payload})
	return p.err
}

func (p *fakePublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	topics := make([]string, len(p.events))
	for i, e := range p.events {
		topics[i] = e.topic
	}
	return topics
}

func testWorkout(id string, daysAgo int) models.Workout {
	start := time.Date(2025, 6, 30, 18, 0, 0, 0, time.UTC).AddDate(0, 0, -daysAgo)
	weight, reps := 100.0, 5
	return models.Workout{
		ID:        id,
		Title:     "Workout " + id,
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Exercises: []models.Exercise{
			{Title: "Squat", Sets: []models.Set{{Type: "normal", WeightKg: &weight, Reps: &reps}}},
			{Title: "Plank", Sets: []models.Set{{Type: "normal"}}},
		},
	}
}

// seed inserts workouts directly, bypassing the manager.
func seed(t *testing.T, s store.Store, ids ...string) {
	t.Helper()
	for i, id := range ids {
		rec := models.WorkoutRecord{ID: id, Title: "Seeded " + id, StartTime: time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC)}
		if err := s.PutWorkoutIfAbsent(context.Background(), rec); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}
}

// newTestManager builds a Manager with no inter-request delay.
func newTestManager(src hevy.Source, st store.Store, inv cache.Invalidator) *Manager {
	m := NewManager(src, st, inv, Config{PageSize: 10, StopThreshold: 10})
	m.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return m
}
