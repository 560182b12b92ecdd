// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/liftsync/internal/cache"
	"github.com/tomtom215/liftsync/internal/config"
	"github.com/tomtom215/liftsync/internal/hevy"
	"github.com/tomtom215/liftsync/internal/logging"
	"github.com/tomtom215/liftsync/internal/models"
	"github.com/tomtom215/liftsync/internal/store"
	syncpkg "github.com/tomtom215/liftsync/internal/sync"
	"github.com/tomtom215/liftsync/internal/workout"
)

const testSecret = "0123456789abcdef-admin"

func init() {
	logging.SetLogger(logging.NewTestLogger(io.Discard))
}

// fakeSource serves every workout on a single upstream page.
type fakeSource struct {
	workouts []models.Workout
	noAPIKey bool

	mu    sync.Mutex
	calls int
}

func (f *fakeSource) HasAPIKey() bool      { return !f.noAPIKey }
func (f *fakeSource) BreakerState() string { return "closed" }

func (f *fakeSource) Workouts(_ context.Context, page, _ int) (*hevy.WorkoutsPage, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	resp := &hevy.WorkoutsPage{Page: page, PageCount: 1}
	if page == 1 {
		resp.Workouts = append([]models.Workout(nil), f.workouts...)
	}
	return resp, nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type testEnv struct {
	handler *Handler
	router  http.Handler
	cache   *cache.Cache
	store   *store.MemoryStore
	source  *fakeSource
	trigger *syncpkg.Trigger
}

func testConfig() *config.Config {
	return &config.Config{
		Backfill: config.BackfillConfig{
			PageSize:      10,
			StopThreshold: 10,
			RunTimeout:    5 * time.Second,
			SyncOnMiss:    true,
		},
		Cache: config.CacheConfig{
			GeneralTTL:  time.Hour,
			StatsTTL:    2 * time.Hour,
			VolatileTTL: time.Minute,
		},
		Security: config.SecurityConfig{
			AdminSecret:       testSecret,
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: true,
		},
	}
}

func newTestEnv(t *testing.T, cfg *config.Config, stored []models.Workout, upstream []models.Workout) *testEnv {
	t.Helper()

	st := store.NewMemoryStore()
	for _, w := range stored {
		parent, children := workout.BuildRecords(w, time.Now())
		if err := st.PutWorkoutIfAbsent(context.Background(), parent); err != nil {
			t.Fatalf("seed workout: %v", err)
		}
		for _, child := range children {
			if err := st.PutExerciseIfAbsent(context.Background(), child); err != nil {
				t.Fatalf("seed exercise: %v", err)
			}
		}
	}

	c := cache.New(cfg.Cache.GeneralTTL, cache.WithCleanupInterval(0))
	src := &fakeSource{workouts: upstream}
	mgr := syncpkg.NewManager(src, st, c, syncpkg.Config{
		PageSize:      cfg.Backfill.PageSize,
		StopThreshold: cfg.Backfill.StopThreshold,
		RunTimeout:    cfg.Backfill.RunTimeout,
	})
	trigger := syncpkg.NewTrigger(mgr, cfg.Backfill.RunTimeout)

	h := NewHandler(cfg, c, st, mgr, trigger, nil, src)
	router := NewRouter(h, NewChiMiddleware(NewChiMiddlewareConfig(cfg.Security))).SetupChi()

	t.Cleanup(func() {
		trigger.Wait()
		c.Close()
		_ = st.Close()
	})

	return &testEnv{handler: h, router: router, cache: c, store: st, source: src, trigger: trigger}
}

type envelope struct {
	Success  bool            `json:"success"`
	Data     json.RawMessage `json:"data"`
	Error    *APIError       `json:"error"`
	Metadata Metadata        `json:"metadata"`
}

func (e *testEnv) do(t *testing.T, method, target string, body string, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("%s %s: decode envelope: %v (body %q)", method, target, err, rec.Body.String())
	}
	return rec, env
}

func admin() map[string]string {
	return map[string]string{AdminSecretHeader: testSecret}
}

func testWorkout(id string, day int, exercises ...string) models.Workout {
	start := time.Date(2025, 5, day, 7, 0, 0, 0, time.UTC)
	w := models.Workout{ID: id, Title: "Workout " + id, StartTime: start, EndTime: start.Add(45 * time.Minute)}
	for _, name := range exercises {
		weight, reps := 50.0, 8
		w.Exercises = append(w.Exercises, models.Exercise{
			Title: name,
			Sets:  []models.Set{{Type: "normal", WeightKg: &weight, Reps: &reps}},
		})
	}
	return w
}

func seedWorkouts() []models.Workout {
	return []models.Workout{
		testWorkout("w1", 1, "Squat", "Bench Press"),
		testWorkout("w2", 3, "Deadlift"),
		testWorkout("w3", 5, "Squat"),
	}
}
