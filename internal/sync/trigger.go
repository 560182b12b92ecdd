// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package sync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tomtom215/liftsync/internal/cache"
	"github.com/tomtom215/liftsync/internal/logging"
)

// Runner runs one backfill. Manager implements it.
type Runner interface {
	Run(ctx context.Context) (*Summary, error)
}

// Trigger launches backfill runs in the background without waiting for them.
// Each call starts exactly one run; concurrent calls are not coalesced.
type Trigger struct {
	runner  Runner
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewTrigger creates a Trigger whose runs are bounded by timeout.
func NewTrigger(runner Runner, timeout time.Duration) *Trigger {
	if timeout <= 0 {
		timeout = DefaultConfig().RunTimeout
	}
	return &Trigger{runner: runner, timeout: timeout}
}

// FireAndForget starts one run in its own goroutine and returns immediately.
// Results and errors are logged, never returned; a panic in the run is
// recovered and logged.
func (t *Trigger) FireAndForget() {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logging.Error().Interface("panic", r).Msg("[BACKFILL] Background backfill panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()

		logging.Info().Msg("[BACKFILL] Background backfill triggered by cache miss")
		summary, err := t.runner.Run(ctx)
		switch {
		case errors.Is(err, ErrMissingAPIKey):
			logging.Warn().Msg("[BACKFILL] HEVY_API_KEY not found, skipping background backfill")
		case err != nil:
			logging.Error().Err(err).Msg("[BACKFILL] Background backfill error")
		default:
			logging.Info().
				Str("run_id", summary.RunID).
				Int("new_workouts", summary.NewRecordCount).
				Str("stop_reason", string(summary.StopReason)).
				Msg("[BACKFILL] Background backfill completed")
		}
	}()
}

// Hook adapts FireAndForget to a cache miss hook.
func (t *Trigger) Hook() cache.OnMissFunc {
	return func() error {
		t.FireAndForget()
		return nil
	}
}

// Wait blocks until every run started by this Trigger has returned. It is
// used during shutdown and in tests.
func (t *Trigger) Wait() {
	t.wg.Wait()
}
