// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/liftsync/internal/cache"
	"github.com/tomtom215/liftsync/internal/hevy"
	"github.com/tomtom215/liftsync/internal/logging"
	"github.com/tomtom215/liftsync/internal/store"
)

// ErrMissingAPIKey is returned by Run before any I/O when the upstream
// client has no credentials.
var ErrMissingAPIKey = hevy.ErrMissingAPIKey

// InvalidationPatterns are the cache patterns cleared after a run that
// inserted new workouts: listings, aggregate stats, per-workout detail and
// per-exercise history.
var InvalidationPatterns = []string{
	"api-workouts-dynamo*",
	"api-workout-stats",
	"api-workout*",
	"api-exercise*",
}

// Config tunes the synchronizer.
type Config struct {
	// PageSize is the upstream page size (Hevy caps it at 10).
	PageSize int

	// RequestDelay is waited after every record and between pages.
	RequestDelay time.Duration

	// StopThreshold is the number of consecutive already-stored workouts
	// after which a run concludes it has caught up.
	StopThreshold int

	// RunTimeout bounds runs started by Trigger and the periodic loop.
	RunTimeout time.Duration

	// Interval between periodic runs. Zero disables the loop.
	Interval time.Duration

	// SyncOnStartup runs once immediately when Start is called.
	SyncOnStartup bool
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		PageSize:      10,
		RequestDelay:  150 * time.Millisecond,
		StopThreshold: 10,
		RunTimeout:    10 * time.Minute,
		Interval:      0,
		SyncOnStartup: false,
	}
}

// EventPublisher publishes sync events. Implemented by events.Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload interface{}) error
}

// Manager runs backfills from the upstream source into the store.
type Manager struct {
	source      hevy.Source
	store       store.Store
	invalidator cache.Invalidator
	cfg         Config

	publisher   EventPublisher
	onCompleted func(*Summary)
	lastSummary *Summary
	mu          sync.RWMutex

	// running and stopChan guard the periodic loop.
	running  bool
	stopChan chan struct{}
	wg       sync.WaitGroup

	inFlight atomic.Int32

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewManager creates a Manager. invalidator may be nil, in which case no
// cache is invalidated. Zero fields in cfg fall back to DefaultConfig.
func NewManager(source hevy.Source, st store.Store, invalidator cache.Invalidator, cfg Config) *Manager {
	def := DefaultConfig()
	if cfg.PageSize <= 0 {
		cfg.PageSize = def.PageSize
	}
	if cfg.RequestDelay < 0 {
		cfg.RequestDelay = 0
	}
	if cfg.StopThreshold <= 0 {
		cfg.StopThreshold = def.StopThreshold
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = def.RunTimeout
	}

	logging.Info().
		Int("page_size", cfg.PageSize).
		Dur("request_delay", cfg.RequestDelay).
		Int("stop_threshold", cfg.StopThreshold).
		Dur("interval", cfg.Interval).
		Msg("Backfill manager config loaded")

	return &Manager{
		source:      source,
		store:       st,
		invalidator: invalidator,
		cfg:         cfg,
		stopChan:    make(chan struct{}),
		now:         time.Now,
		sleep:       sleepContext,
	}
}

// SetEventPublisher enables event publishing. Pass nil to disable.
func (m *Manager) SetEventPublisher(p EventPublisher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publisher = p
}

// SetOnCompleted sets a callback invoked after every run, successful or not.
func (m *Manager) SetOnCompleted(fn func(*Summary)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onCompleted = fn
}

// LastSummary returns the summary of the most recently finished run, or nil.
func (m *Manager) LastSummary() *Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.lastSummary == nil {
		return nil
	}
	s := *m.lastSummary
	return &s
}

// InFlight returns the number of runs currently executing.
func (m *Manager) InFlight() int {
	return int(m.inFlight.Load())
}

// Config returns the effective configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// Start begins the periodic sync loop. It is a no-op loop when neither
// Interval nor SyncOnStartup is set.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("backfill manager is already running")
	}
	m.running = true
	m.stopChan = make(chan struct{})
	m.mu.Unlock()

	logging.Info().Dur("interval", m.cfg.Interval).Bool("on_startup", m.cfg.SyncOnStartup).Msg("Starting backfill manager...")

	m.wg.Add(1)
	go m.syncLoop(ctx)
	return nil
}

// Stop stops the periodic loop and waits for an in-progress periodic run.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return fmt.Errorf("backfill manager is not running")
	}
	m.running = false
	close(m.stopChan)
	m.mu.Unlock()

	m.wg.Wait()
	logging.Info().Msg("Backfill manager stopped")
	return nil
}

// syncLoop runs the periodic synchronization.
func (m *Manager) syncLoop(ctx context.Context) {
	defer m.wg.Done()

	if m.cfg.SyncOnStartup {
		m.runScheduled(ctx, "startup")
	}

	if m.cfg.Interval <= 0 {
		select {
		case <-ctx.Done():
		case <-m.stopChan:
		}
		return
	}

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopChan:
			return
		case <-ticker.C:
			m.runScheduled(ctx, "interval")
		}
	}
}

// runScheduled runs one bounded backfill and logs the outcome.
func (m *Manager) runScheduled(ctx context.Context, reason string) {
	runCtx, cancel := context.WithTimeout(ctx, m.cfg.RunTimeout)
	defer cancel()

	summary, err := m.Run(runCtx)
	if err != nil {
		if errors.Is(err, ErrMissingAPIKey) {
			logging.Warn().Str("reason", reason).Msg("HEVY_API_KEY not set, skipping scheduled backfill")
			return
		}
		logging.Error().Err(err).Str("reason", reason).Msg("Scheduled backfill failed")
		return
	}
	logging.Info().Str("reason", reason).Int("new_workouts", summary.NewRecordCount).
		Str("stop_reason", string(summary.StopReason)).Msg("Scheduled backfill completed")
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
