// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package workout

import (
	"time"

	"github.com/tomtom215/liftsync/internal/models"
)

// BuildRecords turns an upstream workout into the parent record and its
// ordered exercise records, with metrics computed. now stamps CreatedAt.
func BuildRecords(w models.Workout, now time.Time) (models.WorkoutRecord, []models.ExerciseRecord) {
	metrics := WorkoutMetrics(w)

	parent := models.WorkoutRecord{
		ID:        w.ID,
		Title:     w.Title,
		StartTime: w.StartTime,
		EndTime:   w.EndTime,
		Exercises: w.Exercises,
		Metrics:   metrics,
		CreatedAt: now,
	}

	children := make([]models.ExerciseRecord, 0, len(w.Exercises))
	for i, ex := range w.Exercises {
		children = append(children, models.ExerciseRecord{
			ExerciseID:       models.ExerciseID(w.ID, i),
			WorkoutID:        w.ID,
			Name:             ex.Title,
			WorkoutDate:      metrics.WorkoutDate,
			WorkoutStartTime: w.StartTime,
			Index:            i,
			Sets:             ex.Sets,
			Metrics:          ExerciseMetrics(ex),
			CreatedAt:        now,
		})
	}

	return parent, children
}
