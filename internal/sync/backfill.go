// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/liftsync/internal/events"
	"github.com/tomtom215/liftsync/internal/logging"
	"github.com/tomtom215/liftsync/internal/metrics"
	"github.com/tomtom215/liftsync/internal/models"
	"github.com/tomtom215/liftsync/internal/store"
	"github.com/tomtom215/liftsync/internal/workout"
)

// StopReason is the terminal state of a run.
type StopReason string

const (
	// StopExhausted: upstream returned an empty page or its last page.
	StopExhausted StopReason = "exhausted"
	// StopCaughtUp: StopThreshold consecutive workouts already existed.
	StopCaughtUp StopReason = "caught-up"
	// StopFailed: a non-conflict error aborted the run.
	StopFailed StopReason = "failed"
)

// Run failure classes. Errors returned by Run wrap one of these alongside
// the underlying cause.
var (
	ErrUpstream = errors.New("upstream fetch failed")
	ErrStore    = errors.New("store write failed")
)

// Summary describes one backfill run.
type Summary struct {
	RunID            string     `json:"run_id"`
	NewRecordCount   int        `json:"new_record_count"`
	ExistingCount    int        `json:"existing_count"`
	PagesFetched     int        `json:"pages_fetched"`
	ElapsedMs        int64      `json:"elapsed_ms"`
	StopReason       StopReason `json:"stop_reason"`
	CacheInvalidated bool       `json:"cache_invalidated"`
	InvalidatedKeys  int        `json:"invalidated_keys"`
	Error            string     `json:"error,omitempty"`
	StartedAt        time.Time  `json:"started_at"`
}

// hasAPIKey is implemented by sources that can report missing credentials
// without doing I/O.
type hasAPIKey interface {
	HasAPIKey() bool
}

// Run performs one backfill. The returned Summary is never nil; on failure
// it carries StopFailed and the error text, and the error is also returned.
func (m *Manager) Run(ctx context.Context) (*Summary, error) {
	runID := uuid.NewString()
	ctx = logging.ContextWithCorrelationID(ctx, runID[:8])
	log := logging.Ctx(ctx)

	start := m.now()
	summary := &Summary{RunID: runID, StartedAt: start}

	if k, ok := m.source.(hasAPIKey); ok && !k.HasAPIKey() {
		log.Warn().Msg("HEVY_API_KEY not found, skipping backfill")
		summary.StopReason = StopFailed
		summary.Error = ErrMissingAPIKey.Error()
		m.finish(ctx, summary, start, nil, ErrMissingAPIKey)
		return summary, ErrMissingAPIKey
	}

	m.inFlight.Add(1)
	metrics.BackfillInFlight.Inc()
	defer func() {
		m.inFlight.Add(-1)
		metrics.BackfillInFlight.Dec()
	}()

	log.Info().Msg("Starting workout backfill")

	inserted, err := m.backfill(ctx, summary)
	m.finish(ctx, summary, start, inserted, err)
	if err != nil {
		return summary, err
	}
	return summary, nil
}

// backfill runs the page loop and returns the workouts it inserted.
func (m *Manager) backfill(ctx context.Context, summary *Summary) ([]models.WorkoutRecord, error) {
	log := logging.Ctx(ctx)

	var (
		inserted    []models.WorkoutRecord
		consecutive int
	)

	for page := 1; ; page++ {
		log.Debug().Int("page", page).Msg("Fetching upstream page")
		resp, err := m.source.Workouts(ctx, page, m.cfg.PageSize)
		if err != nil {
			summary.StopReason = StopFailed
			return inserted, fmt.Errorf("%w: page %d: %w", ErrUpstream, page, err)
		}
		summary.PagesFetched++

		if resp.Empty() {
			log.Debug().Int("page", page).Msg("No more workouts to process")
			summary.StopReason = StopExhausted
			return inserted, nil
		}

		for i := range resp.Workouts {
			rec, isNew, err := m.storeWorkout(ctx, resp.Workouts[i])
			if err != nil {
				summary.StopReason = StopFailed
				return inserted, err
			}

			if isNew {
				inserted = append(inserted, rec)
				summary.NewRecordCount++
				consecutive = 0
			} else {
				summary.ExistingCount++
				consecutive++
				if consecutive >= m.cfg.StopThreshold {
					log.Info().Int("consecutive_existing", consecutive).Int("page", page).
						Msg("Reached consecutive existing threshold, backfill caught up")
					summary.StopReason = StopCaughtUp
					return inserted, nil
				}
			}

			if err := m.sleep(ctx, m.cfg.RequestDelay); err != nil {
				summary.StopReason = StopFailed
				return inserted, err
			}
		}

		if resp.PageCount > 0 && resp.Page >= resp.PageCount {
			log.Debug().Int("page", page).Int("page_count", resp.PageCount).Msg("Reached last page")
			summary.StopReason = StopExhausted
			return inserted, nil
		}

		if err := m.sleep(ctx, m.cfg.RequestDelay); err != nil {
			summary.StopReason = StopFailed
			return inserted, err
		}
	}
}

// storeWorkout computes metrics and conditionally inserts the workout and,
// when it was new, each of its exercises. isNew is false when the workout
// already existed.
func (m *Manager) storeWorkout(ctx context.Context, w models.Workout) (models.WorkoutRecord, bool, error) {
	rec, exercises := workout.BuildRecords(w, m.now())

	err := m.store.PutWorkoutIfAbsent(ctx, rec)
	if errors.Is(err, store.ErrAlreadyExists) {
		logging.Ctx(ctx).Debug().Str("workout_id", w.ID).Msg("Workout already exists")
		return rec, false, nil
	}
	if err != nil {
		return rec, false, fmt.Errorf("%w: workout %s: %w", ErrStore, w.ID, err)
	}

	for _, ex := range exercises {
		err := m.store.PutExerciseIfAbsent(ctx, ex)
		if err != nil && !errors.Is(err, store.ErrAlreadyExists) {
			return rec, false, fmt.Errorf("%w: exercise %s: %w", ErrStore, ex.ExerciseID, err)
		}
	}

	logging.Ctx(ctx).Info().Str("workout_id", w.ID).Str("title", w.Title).
		Str("workout_date", rec.Metrics.WorkoutDate).Int("exercises", len(exercises)).
		Msg("Stored workout")
	return rec, true, nil
}

// finish invalidates the cache, records metrics, publishes events and
// notifies the completion callback.
func (m *Manager) finish(ctx context.Context, summary *Summary, start time.Time, inserted []models.WorkoutRecord, runErr error) {
	log := logging.Ctx(ctx)

	if runErr != nil {
		summary.Error = runErr.Error()
	}

	if summary.NewRecordCount > 0 && m.invalidator != nil {
		for _, pattern := range InvalidationPatterns {
			summary.InvalidatedKeys += m.invalidator.Invalidate(pattern)
		}
		summary.CacheInvalidated = true
		log.Info().Int("keys", summary.InvalidatedKeys).Msg("New workouts found, cleared workout caches")
	}

	elapsed := m.now().Sub(start)
	summary.ElapsedMs = elapsed.Milliseconds()
	metrics.RecordBackfillRun(elapsed, summary.NewRecordCount, summary.PagesFetched,
		string(summary.StopReason), classifyError(runErr))

	event := log.Info()
	if runErr != nil {
		event = log.Error().Err(runErr)
	}
	event.Int("new_workouts", summary.NewRecordCount).
		Int("existing", summary.ExistingCount).
		Int("pages", summary.PagesFetched).
		Int64("elapsed_ms", summary.ElapsedMs).
		Str("stop_reason", string(summary.StopReason)).
		Msg("Backfill finished")

	m.publish(ctx, summary, inserted)

	m.mu.Lock()
	snapshot := *summary
	m.lastSummary = &snapshot
	callback := m.onCompleted
	m.mu.Unlock()

	if callback != nil {
		callback(&snapshot)
	}
}

// publish emits one workout.ingested per new workout and a closing
// backfill.completed. Failures are logged only.
func (m *Manager) publish(ctx context.Context, summary *Summary, inserted []models.WorkoutRecord) {
	m.mu.RLock()
	publisher := m.publisher
	m.mu.RUnlock()
	if publisher == nil {
		return
	}

	// The run context may already be cancelled; events still go out.
	pubCtx := context.WithoutCancel(ctx)

	for i := range inserted {
		rec := &inserted[i]
		err := publisher.Publish(pubCtx, events.TopicWorkoutIngested, events.WorkoutIngested{
			RunID:         summary.RunID,
			WorkoutID:     rec.ID,
			Title:         rec.Title,
			WorkoutDate:   rec.Metrics.WorkoutDate,
			WorkoutType:   rec.Metrics.WorkoutType,
			TotalVolume:   rec.Metrics.TotalVolume,
			ExerciseCount: len(rec.Exercises),
			StartTime:     rec.StartTime,
		})
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("workout_id", rec.ID).Msg("Failed to publish workout event")
		}
	}

	err := publisher.Publish(pubCtx, events.TopicBackfillCompleted, events.BackfillCompleted{
		RunID:          summary.RunID,
		NewRecordCount: summary.NewRecordCount,
		ExistingCount:  summary.ExistingCount,
		PagesFetched:   summary.PagesFetched,
		ElapsedMs:      summary.ElapsedMs,
		StopReason:     string(summary.StopReason),
		Error:          summary.Error,
		CompletedAt:    m.now(),
	})
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to publish backfill event")
	}
}

// classifyError maps a run error to the backfill_errors_total label.
func classifyError(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingAPIKey):
		return "config"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.Is(err, ErrUpstream):
		return "upstream"
	case errors.Is(err, ErrStore):
		return "store"
	default:
		return "unknown"
	}
}
