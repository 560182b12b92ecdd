// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package api

// Request parameter structs validated with go-playground/validator tags.
// Listing pagination is clamped rather than rejected, so it has no struct.

// ExerciseHistoryRequest holds the /exercises/history query.
type ExerciseHistoryRequest struct {
	Name  string `validate:"required,max=200"`
	Limit int    `validate:"min=1,max=500"`
}

// DateRangeRequest holds the /workouts/range query.
type DateRangeRequest struct {
	From string `validate:"required,datetime=2006-01-02"`
	To   string `validate:"required,datetime=2006-01-02"`
}

// CacheClearRequest is the POST /cache/clear body. An empty pattern clears
// everything.
type CacheClearRequest struct {
	Pattern string `json:"pattern" validate:"max=256"`
}
