// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package api

import (
	"net/http"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/liftsync/internal/models"
	"github.com/tomtom215/liftsync/internal/queries"
)

func TestListWorkouts_MissThenHit(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, testConfig(), seedWorkouts(), seedWorkouts())

	rec, first := env.do(t, http.MethodGet, "/api/v1/workouts", "", nil)
	if rec.Code != http.StatusOK || !first.Success {
		t.Fatalf("expected 200 success, got %d: %s", rec.Code, rec.Body.String())
	}
	if first.Metadata.Cached {
		t.Error("expected first read to be a miss")
	}

	var page queries.WorkoutPage
	if err := json.Unmarshal(first.Data, &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.TotalCount != 3 || len(page.Workouts) != 3 {
		t.Fatalf("expected 3 workouts, got %d (total %d)", len(page.Workouts), page.TotalCount)
	}
	if page.Workouts[0].ID != "w3" {
		t.Errorf("expected newest workout first, got %s", page.Workouts[0].ID)
	}

	// The miss on page 1 starts one background backfill.
	env.trigger.Wait()
	if got := env.source.callCount(); got != 1 {
		t.Errorf("expected one upstream fetch from the miss hook, got %d", got)
	}

	_, second := env.do(t, http.MethodGet, "/api/v1/workouts", "", nil)
	if !second.Metadata.Cached {
		t.Error("expected second read to be served from cache")
	}
	env.trigger.Wait()
	if got := env.source.callCount(); got != 1 {
		t.Errorf("expected a hit not to trigger a backfill, got %d fetches", got)
	}
}

func TestListWorkouts_MissHookScope(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		target     string
		syncOnMiss bool
		wantCalls  int
	}{
		{"first page triggers", "/api/v1/workouts?page=1&pageSize=2", true, 1},
		{"later page does not trigger", "/api/v1/workouts?page=2&pageSize=2", true, 0},
		{"stats triggers", "/api/v1/workouts/stats", true, 1},
		{"detail does not trigger", "/api/v1/workouts/w1", true, 0},
		{"disabled by config", "/api/v1/workouts", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := testConfig()
			cfg.Backfill.SyncOnMiss = tt.syncOnMiss
			env := newTestEnv(t, cfg, seedWorkouts(), seedWorkouts())

			rec, _ := env.do(t, http.MethodGet, tt.target, "", nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			env.trigger.Wait()
			if got := env.source.callCount(); got != tt.wantCalls {
				t.Errorf("expected %d upstream fetches, got %d", tt.wantCalls, got)
			}
		})
	}
}

func TestListWorkouts_ClampsPageSize(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Backfill.SyncOnMiss = false
	env := newTestEnv(t, cfg, seedWorkouts(), nil)

	_, resp := env.do(t, http.MethodGet, "/api/v1/workouts?page=0&pageSize=1000", "", nil)

	var page queries.WorkoutPage
	if err := json.Unmarshal(resp.Data, &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.Page != 1 || page.PageSize != queries.MaxPageSize {
		t.Errorf("expected page 1 size %d, got page %d size %d", queries.MaxPageSize, page.Page, page.PageSize)
	}

	keys := env.cache.Keys()
	if len(keys) != 1 || keys[0] != "api-workouts-dynamo-page:1-pageSize:100" {
		t.Errorf("unexpected cache keys %v", keys)
	}
}

func TestGetWorkout(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Backfill.SyncOnMiss = false
	env := newTestEnv(t, cfg, seedWorkouts(), nil)

	rec, resp := env.do(t, http.MethodGet, "/api/v1/workouts/w2", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var w models.WorkoutRecord
	if err := json.Unmarshal(resp.Data, &w); err != nil {
		t.Fatalf("decode workout: %v", err)
	}
	if w.ID != "w2" || w.Metrics.DurationMinutes != 45 {
		t.Errorf("unexpected workout %+v", w)
	}

	rec, resp = env.do(t, http.MethodGet, "/api/v1/workouts/missing", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if resp.Success || resp.Error == nil || resp.Error.Code != ErrCodeNotFound {
		t.Errorf("expected NOT_FOUND envelope, got %+v", resp.Error)
	}

	for _, key := range env.cache.Keys() {
		if key == "api-workout-id:missing" {
			t.Error("expected a failed fetch not to be cached")
		}
	}
}

func TestWorkoutExercises_Ordered(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Backfill.SyncOnMiss = false
	env := newTestEnv(t, cfg, []models.Workout{testWorkout("w1", 1, "Squat", "Bench Press", "Row")}, nil)

	_, resp := env.do(t, http.MethodGet, "/api/v1/workouts/w1/exercises", "", nil)

	var exercises []models.ExerciseRecord
	if err := json.Unmarshal(resp.Data, &exercises); err != nil {
		t.Fatalf("decode exercises: %v", err)
	}
	want := []string{"Squat", "Bench Press", "Row"}
	if len(exercises) != len(want) {
		t.Fatalf("expected %d exercises, got %d", len(want), len(exercises))
	}
	for i, name := range want {
		if exercises[i].Name != name || exercises[i].Index != i {
			t.Errorf("exercise %d: expected %s at index %d, got %s at %d", i, name, i, exercises[i].Name, exercises[i].Index)
		}
	}
}

func TestWorkoutsByDateRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		query    string
		wantCode int
		wantIDs  []string
	}{
		{"inclusive range", "from=2025-05-01&to=2025-05-03", http.StatusOK, []string{"w2", "w1"}},
		{"empty range", "from=2025-06-01&to=2025-06-30", http.StatusOK, []string{}},
		{"missing to", "from=2025-05-01", http.StatusBadRequest, nil},
		{"bad format", "from=05/01/2025&to=2025-05-03", http.StatusBadRequest, nil},
		{"inverted", "from=2025-05-05&to=2025-05-01", http.StatusBadRequest, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := testConfig()
			cfg.Backfill.SyncOnMiss = false
			env := newTestEnv(t, cfg, seedWorkouts(), nil)

			rec, resp := env.do(t, http.MethodGet, "/api/v1/workouts/range?"+tt.query, "", nil)
			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				if resp.Error == nil || resp.Error.Code != ErrCodeValidation {
					t.Errorf("expected VALIDATION_ERROR, got %+v", resp.Error)
				}
				return
			}

			var workouts []models.WorkoutRecord
			if err := json.Unmarshal(resp.Data, &workouts); err != nil {
				t.Fatalf("decode workouts: %v", err)
			}
			if len(workouts) != len(tt.wantIDs) {
				t.Fatalf("expected %v, got %d workouts", tt.wantIDs, len(workouts))
			}
			for i, id := range tt.wantIDs {
				if workouts[i].ID != id {
					t.Errorf("position %d: expected %s, got %s", i, id, workouts[i].ID)
				}
			}
		})
	}
}

func TestExerciseHistory(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Backfill.SyncOnMiss = false
	env := newTestEnv(t, cfg, seedWorkouts(), nil)

	rec, resp := env.do(t, http.MethodGet, "/api/v1/exercises/history?name=squat", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var history []models.ExerciseRecord
	if err := json.Unmarshal(resp.Data, &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 2 || history[0].WorkoutID != "w3" || history[1].WorkoutID != "w1" {
		t.Errorf("expected squat history w3, w1; got %+v", history)
	}

	rec, resp = env.do(t, http.MethodGet, "/api/v1/exercises/history", "", nil)
	if rec.Code != http.StatusBadRequest || resp.Error == nil || resp.Error.Code != ErrCodeValidation {
		t.Errorf("expected 400 VALIDATION_ERROR without name, got %d %+v", rec.Code, resp.Error)
	}
}

func TestWorkoutStats_UsesStatsTTLKey(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Backfill.SyncOnMiss = false
	env := newTestEnv(t, cfg, seedWorkouts(), nil)

	_, resp := env.do(t, http.MethodGet, "/api/v1/workouts/stats", "", nil)

	var stats queries.Stats
	if err := json.Unmarshal(resp.Data, &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalWorkouts != 3 || stats.AverageDuration != 45 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if keys := env.cache.Keys(); len(keys) != 1 || keys[0] != "api-workout-stats" {
		t.Errorf("expected api-workout-stats key, got %v", keys)
	}
}
