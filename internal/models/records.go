// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package models

import (
	"strconv"
	"time"
)

// Exercise types derived from set data.
const (
	ExerciseTypeStrength   = "strength"
	ExerciseTypeCardio     = "cardio"
	ExerciseTypeBodyweight = "bodyweight"

	// WorkoutTypeMixed marks a workout with both strength and cardio exercises.
	WorkoutTypeMixed = "mixed"
)

// ExerciseStats are the analytic fields derived from an exercise's sets.
// Weight-derived fields are nil when the exercise carried no weight at all.
type ExerciseStats struct {
	SessionVolume    float64  `json:"session_volume"`
	WorkingSetVolume float64  `json:"working_set_volume"`
	HeaviestWeight   *float64 `json:"heaviest_weight"`
	BestEstimated1RM *float64 `json:"best_estimated_1rm"`
	TotalWorkingSets int      `json:"total_working_sets"`
	TotalWarmupSets  int      `json:"total_warmup_sets"`
	TotalReps        int      `json:"total_reps"`
	TotalDistance    float64  `json:"total_distance"`
	TotalDuration    int      `json:"total_duration"`
	AverageWeight    *float64 `json:"average_weight"`
	ExerciseType     string   `json:"exercise_type"`
}

// WorkoutStats are the analytic fields derived from a whole workout.
type WorkoutStats struct {
	TotalVolume       float64 `json:"total_volume"`
	TotalWorkingSets  int     `json:"total_working_sets"`
	TotalWarmupSets   int     `json:"total_warmup_sets"`
	UniqueExercises   int     `json:"unique_exercises"`
	StrengthExercises int     `json:"strength_exercises"`
	CardioExercises   int     `json:"cardio_exercises"`
	TotalDistance     float64 `json:"total_distance"`
	TotalDuration     int     `json:"total_duration"`
	DurationMinutes   int     `json:"duration_minutes"`
	WorkoutDate       string  `json:"workout_date"`
	WorkoutType       string  `json:"workout_type"`
}

// WorkoutRecord is the persisted form of a Workout. It is written once by the
// backfill and never updated.
type WorkoutRecord struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	StartTime time.Time    `json:"start_time"`
	EndTime   time.Time    `json:"end_time"`
	Exercises []Exercise   `json:"exercises"`
	Metrics   WorkoutStats `json:"metrics"`
	CreatedAt time.Time    `json:"created_at"`
}

// ExerciseRecord is the persisted form of one exercise within a workout.
// WorkoutID is a back-reference; Index orders exercises within the workout.
type ExerciseRecord struct {
	ExerciseID       string        `json:"exercise_id"`
	WorkoutID        string        `json:"workout_id"`
	Name             string        `json:"name"`
	WorkoutDate      string        `json:"workout_date"`
	WorkoutStartTime time.Time     `json:"workout_start_time"`
	Index            int           `json:"exercise_index"`
	Sets             []Set         `json:"sets"`
	Metrics          ExerciseStats `json:"metrics"`
	CreatedAt        time.Time     `json:"created_at"`
}

// ExerciseID builds the identifier of the exercise at index within workoutID.
func ExerciseID(workoutID string, index int) string {
	return workoutID + "_" + strconv.Itoa(index)
}
