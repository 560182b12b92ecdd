// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

// Package queries computes the read models served by the API.
//
// Every query reads the store through store.ScanAll so results reflect the
// whole store, never a single scan page. Results are recomputed on each call;
// callers front them with the API cache.
package queries

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/liftsync/internal/logging"
	"github.com/tomtom215/liftsync/internal/models"
	"github.com/tomtom215/liftsync/internal/store"
)

// Listing and history defaults.
const (
	DefaultPageSize     = 10
	MaxPageSize         = 100
	DefaultHistoryLimit = 50
	RecentActivityDays  = 30
	RecentActivityLimit = 10
)

// ErrNotFound is returned when a workout does not exist.
var ErrNotFound = store.ErrNotFound

// ErrInvalidDateRange is returned for malformed or inverted date ranges.
var ErrInvalidDateRange = errors.New("invalid date range")

// WorkoutPage is one page of the workout listing, newest first.
type WorkoutPage struct {
	Workouts   []models.WorkoutRecord `json:"workouts"`
	Page       int                    `json:"page"`
	PageCount  int                    `json:"page_count"`
	TotalCount int                    `json:"total_count"`
	PageSize   int                    `json:"page_size"`
}

// RecentWorkout is the summary row shown in recent activity.
type RecentWorkout struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	WorkoutDate     string  `json:"workoutDate"`
	WorkoutType     string  `json:"workoutType"`
	TotalVolume     float64 `json:"totalVolume"`
	DurationMinutes int     `json:"durationMinutes"`
	UniqueExercises int     `json:"uniqueExercises"`
}

// Stats aggregates the whole workout history.
type Stats struct {
	TotalWorkouts   int             `json:"totalWorkouts"`
	TotalVolume     int64           `json:"totalVolume"`
	AverageDuration int64           `json:"averageDuration"`
	WorkoutTypes    map[string]int  `json:"workoutTypes"`
	RecentActivity  []RecentWorkout `json:"recentActivity"`
}

// Service answers read queries against a store.
type Service struct {
	store    store.Store
	scanSize int
	now      func() time.Time
}

// NewService creates a query service over st.
func NewService(st store.Store) *Service {
	return &Service{store: st, scanSize: store.DefaultScanLimit, now: time.Now}
}

// ClampPage normalizes listing parameters: page is at least 1 and pageSize
// falls in [1, MaxPageSize], defaulting to DefaultPageSize.
func ClampPage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case pageSize <= 0:
		pageSize = DefaultPageSize
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// ListWorkouts returns one page of workouts sorted by start time, newest first.
// A page past the end is empty, not an error.
func (s *Service) ListWorkouts(ctx context.Context, page, pageSize int) (*WorkoutPage, error) {
	page, pageSize = ClampPage(page, pageSize)

	start := time.Now()
	all, err := s.allWorkouts(ctx)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(all)

	total := len(all)
	result := &WorkoutPage{
		Workouts:   []models.WorkoutRecord{},
		Page:       page,
		PageCount:  (total + pageSize - 1) / pageSize,
		TotalCount: total,
		PageSize:   pageSize,
	}
	if from := (page - 1) * pageSize; from < total {
		to := from + pageSize
		if to > total {
			to = total
		}
		result.Workouts = all[from:to]
	}

	logging.Ctx(ctx).Debug().
		Int("page", page).
		Int("page_count", result.PageCount).
		Int("total", total).
		Dur("elapsed", time.Since(start)).
		Msg("Listed workouts")
	return result, nil
}

// GetWorkout returns a single workout by ID.
func (s *Service) GetWorkout(ctx context.Context, id string) (*models.WorkoutRecord, error) {
	rec, err := s.store.GetWorkout(ctx, id)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// WorkoutsByDateRange returns workouts whose workout date lies in
// [from, to] inclusive, newest first. Dates are YYYY-MM-DD.
func (s *Service) WorkoutsByDateRange(ctx context.Context, from, to string) ([]models.WorkoutRecord, error) {
	if _, err := time.Parse(time.DateOnly, from); err != nil {
		return nil, fmt.Errorf("%w: from %q", ErrInvalidDateRange, from)
	}
	if _, err := time.Parse(time.DateOnly, to); err != nil {
		return nil, fmt.Errorf("%w: to %q", ErrInvalidDateRange, to)
	}
	if from > to {
		return nil, fmt.Errorf("%w: %s is after %s", ErrInvalidDateRange, from, to)
	}

	all, err := s.allWorkouts(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]models.WorkoutRecord, 0)
	for i := range all {
		if d := all[i].Metrics.WorkoutDate; d >= from && d <= to {
			matched = append(matched, all[i])
		}
	}
	sortNewestFirst(matched)
	return matched, nil
}

// ExercisesForWorkout returns the workout's exercises in workout order.
func (s *Service) ExercisesForWorkout(ctx context.Context, workoutID string) ([]models.ExerciseRecord, error) {
	all, err := store.AllExercises(ctx, s.store, s.scanSize)
	if err != nil {
		return nil, err
	}
	exercises := make([]models.ExerciseRecord, 0)
	for i := range all {
		if all[i].WorkoutID == workoutID {
			exercises = append(exercises, all[i])
		}
	}
	sort.Slice(exercises, func(i, j int) bool {
		return exercises[i].Index < exercises[j].Index
	})
	return exercises, nil
}

// ExerciseHistory returns up to limit performances of the named exercise,
// most recent first. Names match case-insensitively.
func (s *Service) ExerciseHistory(ctx context.Context, name string, limit int) ([]models.ExerciseRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	all, err := store.AllExercises(ctx, s.store, s.scanSize)
	if err != nil {
		return nil, err
	}
	history := make([]models.ExerciseRecord, 0)
	for i := range all {
		if strings.EqualFold(all[i].Name, name) {
			history = append(history, all[i])
		}
	}
	sort.SliceStable(history, func(i, j int) bool {
		if history[i].WorkoutDate != history[j].WorkoutDate {
			return history[i].WorkoutDate > history[j].WorkoutDate
		}
		return history[i].WorkoutStartTime.After(history[j].WorkoutStartTime)
	})
	if len(history) > limit {
		history = history[:limit]
	}
	return history, nil
}

// WorkoutStats aggregates totals over every workout plus the most recent
// activity within RecentActivityDays.
func (s *Service) WorkoutStats(ctx context.Context) (*Stats, error) {
	all, err := s.allWorkouts(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		TotalWorkouts:  len(all),
		WorkoutTypes:   map[string]int{},
		RecentActivity: []RecentWorkout{},
	}
	if len(all) == 0 {
		return stats, nil
	}

	var volume float64
	var minutes int
	for i := range all {
		m := all[i].Metrics
		volume += m.TotalVolume
		minutes += m.DurationMinutes
		kind := m.WorkoutType
		if kind == "" {
			kind = "unknown"
		}
		stats.WorkoutTypes[kind]++
	}
	stats.TotalVolume = int64(math.Round(volume))
	stats.AverageDuration = int64(math.Round(float64(minutes) / float64(len(all))))

	cutoff := s.now().UTC().AddDate(0, 0, -RecentActivityDays).Format(time.DateOnly)
	sortNewestFirst(all)
	for i := range all {
		if len(stats.RecentActivity) == RecentActivityLimit {
			break
		}
		m := all[i].Metrics
		if m.WorkoutDate < cutoff {
			continue
		}
		stats.RecentActivity = append(stats.RecentActivity, RecentWorkout{
			ID:              all[i].ID,
			Title:           all[i].Title,
			WorkoutDate:     m.WorkoutDate,
			WorkoutType:     m.WorkoutType,
			TotalVolume:     m.TotalVolume,
			DurationMinutes: m.DurationMinutes,
			UniqueExercises: m.UniqueExercises,
		})
	}
	return stats, nil
}

func (s *Service) allWorkouts(ctx context.Context) ([]models.WorkoutRecord, error) {
	all, err := store.AllWorkouts(ctx, s.store, s.scanSize)
	if err != nil {
		return nil, fmt.Errorf("scan workouts: %w", err)
	}
	return all, nil
}

// sortNewestFirst orders by start time descending with ID as tie-breaker so
// pages are stable across calls.
func sortNewestFirst(workouts []models.WorkoutRecord) {
	sort.Slice(workouts, func(i, j int) bool {
		if !workouts[i].StartTime.Equal(workouts[j].StartTime) {
			return workouts[i].StartTime.After(workouts[j].StartTime)
		}
		return workouts[i].ID < workouts[j].ID
	})
}
