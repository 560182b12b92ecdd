// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/liftsync/internal/cache"
	"github.com/tomtom215/liftsync/internal/queries"
)

// ListWorkouts serves GET /workouts?page=&pageSize=, newest first. Only the
// first page triggers a background backfill on a miss.
func (h *Handler) ListWorkouts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	page, pageSize := queries.ClampPage(
		getIntParam(r, "page", 1),
		getIntParam(r, "pageSize", queries.DefaultPageSize),
	)

	general, _, _ := h.cacheTTLs()
	opts := []cache.ReadOption{cache.WithTTL(general)}
	if page == 1 {
		opts = append(opts, h.missHook()...)
	}

	key := cache.Key("workouts-dynamo", map[string]string{
		"page":     strconv.Itoa(page),
		"pageSize": strconv.Itoa(pageSize),
	})
	value, hit, err := h.cache.ReadThrough(r.Context(), key, func(ctx context.Context) (interface{}, error) {
		return h.queries.ListWorkouts(ctx, page, pageSize)
	}, opts...)
	if err != nil {
		respondDomainError(w, r, "Failed to list workouts", err)
		return
	}
	respondSuccess(w, r, start, value, hit)
}

// WorkoutStats serves GET /workouts/stats. A miss triggers a background
// backfill.
func (h *Handler) WorkoutStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	_, stats, _ := h.cacheTTLs()
	opts := append([]cache.ReadOption{cache.WithTTL(stats)}, h.missHook()...)

	value, hit, err := h.cache.ReadThrough(r.Context(), cache.Key("workout-stats", nil), func(ctx context.Context) (interface{}, error) {
		return h.queries.WorkoutStats(ctx)
	}, opts...)
	if err != nil {
		respondDomainError(w, r, "Failed to compute workout stats", err)
		return
	}
	respondSuccess(w, r, start, value, hit)
}

// GetWorkout serves GET /workouts/{id}.
func (h *Handler) GetWorkout(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := chi.URLParam(r, "id")
	general, _, _ := h.cacheTTLs()

	key := cache.Key("workout", map[string]string{"id": id})
	value, hit, err := h.cache.ReadThrough(r.Context(), key, func(ctx context.Context) (interface{}, error) {
		return h.queries.GetWorkout(ctx, id)
	}, cache.WithTTL(general))
	if err != nil {
		respondDomainError(w, r, "Workout not found", err)
		return
	}
	respondSuccess(w, r, start, value, hit)
}

// WorkoutExercises serves GET /workouts/{id}/exercises in workout order.
func (h *Handler) WorkoutExercises(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := chi.URLParam(r, "id")
	general, _, _ := h.cacheTTLs()

	key := cache.Key("workout-exercises", map[string]string{"id": id})
	value, hit, err := h.cache.ReadThrough(r.Context(), key, func(ctx context.Context) (interface{}, error) {
		return h.queries.ExercisesForWorkout(ctx, id)
	}, cache.WithTTL(general))
	if err != nil {
		respondDomainError(w, r, "Failed to load exercises", err)
		return
	}
	respondSuccess(w, r, start, value, hit)
}

// WorkoutsByDateRange serves GET /workouts/range?from=YYYY-MM-DD&to=YYYY-MM-DD.
func (h *Handler) WorkoutsByDateRange(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()
	req := DateRangeRequest{From: q.Get("from"), To: q.Get("to")}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}
	if req.From > req.To {
		respondError(w, r, http.StatusBadRequest, ErrCodeValidation, "from must not be after to", nil)
		return
	}

	_, _, volatile := h.cacheTTLs()
	key := cache.Key("workouts-range", map[string]string{"from": req.From, "to": req.To})
	value, hit, err := h.cache.ReadThrough(r.Context(), key, func(ctx context.Context) (interface{}, error) {
		return h.queries.WorkoutsByDateRange(ctx, req.From, req.To)
	}, cache.WithTTL(volatile))
	if err != nil {
		respondDomainError(w, r, "Failed to query workouts by date", err)
		return
	}
	respondSuccess(w, r, start, value, hit)
}

// ExerciseHistory serves GET /exercises/history?name=&limit=. Names match
// case-insensitively, so the key uses the lowercased name.
func (h *Handler) ExerciseHistory(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req := ExerciseHistoryRequest{
		Name:  strings.TrimSpace(r.URL.Query().Get("name")),
		Limit: getIntParam(r, "limit", queries.DefaultHistoryLimit),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	general, _, _ := h.cacheTTLs()
	key := cache.Key("exercise-history", map[string]string{
		"name":  strings.ToLower(req.Name),
		"limit": strconv.Itoa(req.Limit),
	})
	value, hit, err := h.cache.ReadThrough(r.Context(), key, func(ctx context.Context) (interface{}, error) {
		return h.queries.ExerciseHistory(ctx, req.Name, req.Limit)
	}, cache.WithTTL(general))
	if err != nil {
		respondDomainError(w, r, "Failed to load exercise history", err)
		return
	}
	respondSuccess(w, r, start, value, hit)
}
