// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package sync

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/liftsync/internal/logging"
	"github.com/tomtom215/liftsync/internal/models"
	"github.com/tomtom215/liftsync/internal/store"
	"github.com/tomtom215/liftsync/internal/workout"
)

// AuditEntry identifies one workout in an audit report.
type AuditEntry struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	StartTime   time.Time `json:"start_time"`
	WorkoutDate string    `json:"workout_date"`
}

// AuditReport compares the full upstream history with the store.
type AuditReport struct {
	UpstreamCount int          `json:"upstream_count"`
	StoreCount    int          `json:"store_count"`
	MatchCount    int          `json:"match_count"`
	Missing       []AuditEntry `json:"missing"`
	Orphaned      []AuditEntry `json:"orphaned"`
	PagesFetched  int          `json:"pages_fetched"`

	// Set only when the audit was asked to backfill.
	Backfilled       int   `json:"backfilled,omitempty"`
	BackfillSkipped  int   `json:"backfill_skipped,omitempty"`
	CacheInvalidated bool  `json:"cache_invalidated,omitempty"`
	ElapsedMs        int64 `json:"elapsed_ms"`
}

// Auditor reconciles the store against every upstream page. Unlike Run it
// never stops early, so it finds gaps older than the caught-up threshold.
type Auditor struct {
	manager *Manager
}

// NewAuditor creates an Auditor sharing m's source, store and cache.
func NewAuditor(m *Manager) *Auditor {
	return &Auditor{manager: m}
}

// Audit fetches all upstream workouts and all stored workouts concurrently
// and reports the differences. With backfill set, missing workouts are
// stored (oldest first) and the cache is invalidated if any were written.
func (a *Auditor) Audit(ctx context.Context, backfill bool) (*AuditReport, error) {
	m := a.manager
	start := m.now()
	report := &AuditReport{}

	if k, ok := m.source.(hasAPIKey); ok && !k.HasAPIKey() {
		return nil, ErrMissingAPIKey
	}

	var (
		upstream []models.Workout
		stored   []models.WorkoutRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		workouts, pages, err := a.fetchAllUpstream(gctx)
		upstream, report.PagesFetched = workouts, pages
		return err
	})
	g.Go(func() error {
		var err error
		stored, err = store.AllWorkouts(gctx, m.store, store.DefaultScanLimit)
		if err != nil {
			return fmt.Errorf("%w: scan workouts: %w", ErrStore, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	compare(report, upstream, stored)
	logging.Info().
		Int("upstream", report.UpstreamCount).
		Int("stored", report.StoreCount).
		Int("missing", len(report.Missing)).
		Int("orphaned", len(report.Orphaned)).
		Msg("Workout audit complete")

	if backfill && len(report.Missing) > 0 {
		if err := a.backfillMissing(ctx, report, upstream); err != nil {
			report.ElapsedMs = m.now().Sub(start).Milliseconds()
			return report, err
		}
	}

	report.ElapsedMs = m.now().Sub(start).Milliseconds()
	return report, nil
}

// fetchAllUpstream pages until upstream reports its last page or returns an
// empty page. Pages holding only invalid workouts do not end the scan.
func (a *Auditor) fetchAllUpstream(ctx context.Context) ([]models.Workout, int, error) {
	m := a.manager
	var all []models.Workout

	for page := 1; ; page++ {
		resp, err := m.source.Workouts(ctx, page, m.cfg.PageSize)
		if err != nil {
			return nil, page - 1, fmt.Errorf("%w: page %d: %w", ErrUpstream, page, err)
		}
		all = append(all, resp.Workouts...)

		if resp.Empty() || (resp.PageCount > 0 && resp.Page >= resp.PageCount) {
			return all, page, nil
		}
		if err := m.sleep(ctx, m.cfg.RequestDelay); err != nil {
			return nil, page, err
		}
	}
}

// compare fills the count, missing and orphaned fields of report. Both
// lists are sorted oldest first.
func compare(report *AuditReport, upstream []models.Workout, stored []models.WorkoutRecord) {
	upstreamIDs := make(map[string]struct{}, len(upstream))
	for i := range upstream {
		upstreamIDs[upstream[i].ID] = struct{}{}
	}
	storedIDs := make(map[string]struct{}, len(stored))
	for i := range stored {
		storedIDs[stored[i].ID] = struct{}{}
	}

	report.UpstreamCount = len(upstreamIDs)
	report.StoreCount = len(storedIDs)
	report.Missing = []AuditEntry{}
	report.Orphaned = []AuditEntry{}

	for i := range upstream {
		w := &upstream[i]
		if _, ok := storedIDs[w.ID]; ok {
			report.MatchCount++
			continue
		}
		report.Missing = append(report.Missing, AuditEntry{
			ID:          w.ID,
			Title:       w.Title,
			StartTime:   w.StartTime,
			WorkoutDate: workout.WorkoutDate(w.StartTime),
		})
	}
	for i := range stored {
		rec := &stored[i]
		if _, ok := upstreamIDs[rec.ID]; ok {
			continue
		}
		report.Orphaned = append(report.Orphaned, AuditEntry{
			ID:          rec.ID,
			Title:       rec.Title,
			StartTime:   rec.StartTime,
			WorkoutDate: rec.Metrics.WorkoutDate,
		})
	}

	byStart := func(entries []AuditEntry) func(i, j int) bool {
		return func(i, j int) bool { return entries[i].StartTime.Before(entries[j].StartTime) }
	}
	sort.Slice(report.Missing, byStart(report.Missing))
	sort.Slice(report.Orphaned, byStart(report.Orphaned))
}

// backfillMissing stores each missing workout through the same conditional
// path as Run.
func (a *Auditor) backfillMissing(ctx context.Context, report *AuditReport, upstream []models.Workout) error {
	m := a.manager

	byID := make(map[string]models.Workout, len(upstream))
	for i := range upstream {
		byID[upstream[i].ID] = upstream[i]
	}

	defer func() {
		if report.Backfilled > 0 && m.invalidator != nil {
			for _, pattern := range InvalidationPatterns {
				m.invalidator.Invalidate(pattern)
			}
			report.CacheInvalidated = true
		}
	}()

	for _, entry := range report.Missing {
		_, isNew, err := m.storeWorkout(ctx, byID[entry.ID])
		if err != nil {
			return err
		}
		if isNew {
			report.Backfilled++
		} else {
			report.BackfillSkipped++
		}
		if err := m.sleep(ctx, m.cfg.RequestDelay); err != nil {
			return err
		}
	}

	logging.Info().Int("stored", report.Backfilled).Int("skipped", report.BackfillSkipped).
		Msg("Audit backfill complete")
	return nil
}
