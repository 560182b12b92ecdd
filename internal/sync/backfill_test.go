// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package sync

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/tomtom215/liftsync/internal/cache"
	"github.com/tomtom215/liftsync/internal/events"
	"github.com/tomtom215/liftsync/internal/models"
	"github.com/tomtom215/liftsync/internal/store"
)

func TestRun_ThreePagesExhausted(t *testing.T) {
	t.Parallel()

	src := &fakeSource{pages: [][]models.Workout{
		{testWorkout("a", 0), testWorkout("b", 1)},
		{testWorkout("c", 2)},
	}}
	st := store.NewMemoryStore()
	m := newTestManager(src, st, nil)

	summary, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got := st.InsertOrder(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("expected insert order [a b c], got %v", got)
	}
	if summary.PagesFetched != 3 {
		t.Errorf("expected 3 pages fetched, got %d", summary.PagesFetched)
	}
	if summary.StopReason != StopExhausted {
		t.Errorf("expected exhausted, got %s", summary.StopReason)
	}
	if summary.NewRecordCount != 3 {
		t.Errorf("expected 3 new records, got %d", summary.NewRecordCount)
	}
	if st.ExerciseCount() != 6 {
		t.Errorf("expected 6 exercise records, got %d", st.ExerciseCount())
	}
	if summary.RunID == "" {
		t.Error("expected a run id")
	}
}

func TestRun_LastPageFromPageCount(t *testing.T) {
	t.Parallel()

	src := &fakeSource{
		pages:     [][]models.Workout{{testWorkout("a", 0)}, {testWorkout("b", 1)}},
		pageCount: 2,
	}
	m := newTestManager(src, store.NewMemoryStore(), nil)

	summary, err := m.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.PagesFetched != 2 || src.callCount() != 2 {
		t.Errorf("expected to stop after page_count pages, fetched %d (calls %d)", summary.PagesFetched, src.callCount())
	}
	if summary.StopReason != StopExhausted {
		t.Errorf("expected exhausted, got %s", summary.StopReason)
	}
}

func TestRun_InvalidOnlyPageDoesNotExhaust(t *testing.T) {
	t.Parallel()

	src := &fakeSource{
		pages:     [][]models.Workout{nil, {testWorkout("good", 1)}},
		pageCount: 2,
		skipped:   map[int]int{1: 1},
	}
	st := store.NewMemoryStore()
	m := newTestManager(src, st, nil)

	summary, err := m.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.PagesFetched != 2 || src.callCount() != 2 {
		t.Errorf("expected both pages fetched, got %d (calls %d)", summary.PagesFetched, src.callCount())
	}
	if summary.NewRecordCount != 1 || !reflect.DeepEqual(st.InsertOrder(), []string{"good"}) {
		t.Errorf("expected workout good stored, got %v", st.InsertOrder())
	}
	if summary.StopReason != StopExhausted {
		t.Errorf("expected exhausted, got %s", summary.StopReason)
	}
}

func TestRun_StopsAfterConsecutiveExisting(t *testing.T) {
	t.Parallel()

	existing := make([]string, 12)
	for i := range existing {
		existing[i] = fmt.Sprintf("e%02d", i)
	}

	var feed []models.Workout
	for i, id := range []string{"n1", "n2", "n3"} {
		feed = append(feed, testWorkout(id, i))
	}
	for i, id := range existing {
		feed = append(feed, testWorkout(id, 10+i))
	}
	src := &fakeSource{pages: [][]models.Workout{feed[:10], feed[10:]}}

	mem := store.NewMemoryStore()
	seed(t, mem, existing...)
	st := &countingStore{Store: mem}
	m := newTestManager(src, st, nil)

	summary, err := m.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if summary.NewRecordCount != 3 {
		t.Errorf("expected 3 new records, got %d", summary.NewRecordCount)
	}
	if summary.StopReason != StopCaughtUp {
		t.Errorf("expected caught-up, got %s", summary.StopReason)
	}
	if summary.ExistingCount != 10 {
		t.Errorf("expected 10 existing, got %d", summary.ExistingCount)
	}
	if got := st.workoutPuts.Load(); got != 13 {
		t.Errorf("expected 13 conditional puts (never past the 10th existing), got %d", got)
	}
	if summary.PagesFetched != 2 {
		t.Errorf("expected the stop to happen mid page 2, fetched %d pages", summary.PagesFetched)
	}
}

func TestRun_ExistingRunResetsOnNewRecord(t *testing.T) {
	t.Parallel()

	mem := store.NewMemoryStore()
	var feed []models.Workout
	var seeded []string
	// 9 existing, 1 new, 9 existing: never 10 in a row.
	for i := 0; i < 19; i++ {
		id := fmt.Sprintf("w%02d", i)
		feed = append(feed, testWorkout(id, i))
		if i != 9 {
			seeded = append(seeded, id)
		}
	}
	seed(t, mem, seeded...)

	src := &fakeSource{pages: [][]models.Workout{feed}}
	summary, err := newTestManager(src, mem, nil).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.StopReason != StopExhausted || summary.NewRecordCount != 1 || summary.ExistingCount != 18 {
		t.Errorf("unexpected summary %+v", summary)
	}
}

func TestRun_Idempotent(t *testing.T) {
	t.Parallel()

	src := &fakeSource{pages: [][]models.Workout{{testWorkout("a", 0), testWorkout("b", 1), testWorkout("c", 2)}}}
	st := store.NewMemoryStore()
	m := newTestManager(src, st, nil)

	first, err := m.Run(context.Background())
	if err != nil || first.NewRecordCount != 3 {
		t.Fatalf("first run: %+v, %v", first, err)
	}
	before, _ := store.AllWorkouts(context.Background(), st, 2)

	second, err := m.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if second.NewRecordCount != 0 {
		t.Errorf("expected no new records on second run, got %d", second.NewRecordCount)
	}
	after, _ := store.AllWorkouts(context.Background(), st, 2)
	if !reflect.DeepEqual(before, after) {
		t.Error("store content changed on second run")
	}
	if st.ExerciseCount() != 6 {
		t.Errorf("expected 6 exercises after two runs, got %d", st.ExerciseCount())
	}
}

func newPopulatedCache(t *testing.T) *cache.Cache {
	t.Helper()
	c := cache.New(time.Hour, cache.WithCleanupInterval(0))
	t.Cleanup(c.Close)
	for _, key := range []string{
		"api-workouts-dynamo-page:1-pageSize:10",
		"api-workout-stats",
		"api-workout-id:abc",
		"api-exercise-history-name:squat",
		"api-health",
		"nowplaying",
	} {
		c.Set(key, key)
	}
	return c
}

func TestRun_InvalidatesCacheScope(t *testing.T) {
	t.Parallel()

	c := newPopulatedCache(t)
	src := &fakeSource{pages: [][]models.Workout{{testWorkout("a", 0)}}}
	summary, err := newTestManager(src, store.NewMemoryStore(), c).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	for _, key := range []string{
		"api-workouts-dynamo-page:1-pageSize:10",
		"api-workout-stats",
		"api-workout-id:abc",
		"api-exercise-history-name:squat",
	} {
		if _, ok := c.Get(key); ok {
			t.Errorf("expected %s to be invalidated", key)
		}
	}
	for _, key := range []string{"api-health", "nowplaying"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("expected %s to survive invalidation", key)
		}
	}
	if !summary.CacheInvalidated || summary.InvalidatedKeys != 4 {
		t.Errorf("expected 4 invalidated keys, got %+v", summary)
	}
}

func TestRun_NoNewRecordsKeepsCache(t *testing.T) {
	t.Parallel()

	c := newPopulatedCache(t)
	st := store.NewMemoryStore()
	seed(t, st, "a")
	src := &fakeSource{pages: [][]models.Workout{{testWorkout("a", 0)}}}

	summary, err := newTestManager(src, st, c).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if summary.CacheInvalidated {
		t.Error("expected cache untouched without new records")
	}
	if got := len(c.Keys()); got != 6 {
		t.Errorf("expected all 6 keys to remain, got %d", got)
	}
}

func TestRun_UpstreamFailure(t *testing.T) {
	t.Parallel()

	c := newPopulatedCache(t)
	src := &fakeSource{pages: [][]models.Workout{{testWorkout("a", 0)}}, failPage: 2}
	summary, err := newTestManager(src, store.NewMemoryStore(), c).Run(context.Background())

	if !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if summary.StopReason != StopFailed || summary.Error == "" {
		t.Errorf("expected failed summary with error, got %+v", summary)
	}
	if summary.NewRecordCount != 1 {
		t.Errorf("expected the record stored before the failure to count, got %d", summary.NewRecordCount)
	}
	if !summary.CacheInvalidated {
		t.Error("expected invalidation for records stored before the failure")
	}
}

func TestRun_StoreFailureAborts(t *testing.T) {
	t.Parallel()

	st := &countingStore{Store: store.NewMemoryStore(), failWorkoutID: "b"}
	src := &fakeSource{pages: [][]models.Workout{{testWorkout("a", 0), testWorkout("b", 1), testWorkout("c", 2)}}}

	summary, err := newTestManager(src, st, nil).Run(context.Background())
	if !errors.Is(err, ErrStore) || !errors.Is(err, errBoom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
	if summary.StopReason != StopFailed {
		t.Errorf("expected failed, got %s", summary.StopReason)
	}
	if got := st.workoutPuts.Load(); got != 2 {
		t.Errorf("expected the run to abort at b, got %d puts", got)
	}
}

func TestRun_ExerciseFailureAborts(t *testing.T) {
	t.Parallel()

	st := &countingStore{Store: store.NewMemoryStore(), failExercise: true}
	src := &fakeSource{pages: [][]models.Workout{{testWorkout("a", 0)}}}

	_, err := newTestManager(src, st, nil).Run(context.Background())
	if !errors.Is(err, ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
}

func TestRun_MissingAPIKey(t *testing.T) {
	t.Parallel()

	src := &fakeSource{noAPIKey: true, pages: [][]models.Workout{{testWorkout("a", 0)}}}
	summary, err := newTestManager(src, store.NewMemoryStore(), nil).Run(context.Background())

	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
	if src.callCount() != 0 {
		t.Errorf("expected no upstream calls, got %d", src.callCount())
	}
	if summary.StopReason != StopFailed {
		t.Errorf("expected failed, got %s", summary.StopReason)
	}
}

func TestRun_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &fakeSource{pages: [][]models.Workout{{testWorkout("a", 0)}}}

	_, err := newTestManager(src, store.NewMemoryStore(), nil).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if classifyError(err) != "cancelled" {
		t.Errorf("expected cancelled classification, got %s", classifyError(err))
	}
}

func TestRun_PublishesEventsAndCallback(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{err: errors.New("broker down")}
	src := &fakeSource{pages: [][]models.Workout{{testWorkout("a", 0), testWorkout("b", 1)}}}
	m := newTestManager(src, store.NewMemoryStore(), nil)
	m.SetEventPublisher(pub)

	var completed *Summary
	m.SetOnCompleted(func(s *Summary) { completed = s })

	summary, err := m.Run(context.Background())
	if err != nil {
		t.Fatalf("publish errors must not fail the run: %v", err)
	}

	want := []string{events.TopicWorkoutIngested, events.TopicWorkoutIngested, events.TopicBackfillCompleted}
	if got := pub.topics(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected topics %v, got %v", want, got)
	}
	ingested, ok := pub.events[0].payload.(events.WorkoutIngested)
	if !ok || ingested.WorkoutID != "a" || ingested.RunID != summary.RunID {
		t.Errorf("unexpected first event %+v", pub.events[0].payload)
	}

	if completed == nil || completed.RunID != summary.RunID {
		t.Errorf("expected OnCompleted with run %s, got %+v", summary.RunID, completed)
	}
	if last := m.LastSummary(); last == nil || last.NewRecordCount != 2 {
		t.Errorf("unexpected LastSummary %+v", last)
	}
}

func TestRun_OverlappingRunsNeverDuplicate(t *testing.T) {
	t.Parallel()

	var feed []models.Workout
	for i := 0; i < 15; i++ {
		feed = append(feed, testWorkout(fmt.Sprintf("w%02d", i), i))
	}
	st := store.NewMemoryStore()
	m := newTestManager(&fakeSource{pages: [][]models.Workout{feed[:10], feed[10:]}}, st, nil)

	results := make(chan *Summary, 2)
	for i := 0; i < 2; i++ {
		go func() {
			s, _ := m.Run(context.Background())
			results <- s
		}()
	}
	a, b := <-results, <-results

	if a.NewRecordCount+b.NewRecordCount != 15 {
		t.Errorf("expected 15 inserts across both runs, got %d + %d", a.NewRecordCount, b.NewRecordCount)
	}
	if st.WorkoutCount() != 15 {
		t.Errorf("expected 15 stored workouts, got %d", st.WorkoutCount())
	}
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrMissingAPIKey, "config"},
		{fmt.Errorf("%w: x", ErrUpstream), "upstream"},
		{fmt.Errorf("%w: x", ErrStore), "store"},
		{context.DeadlineExceeded, "cancelled"},
		{errBoom, "unknown"},
	}
	for _, tt := range tests {
		if got := classifyError(tt.err); got != tt.want {
			t.Errorf("classifyError(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
