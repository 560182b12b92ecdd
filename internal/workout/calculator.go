// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

// Package workout derives analytic fields from raw workouts.
//
// Every function here is pure: the same workout always yields the same
// metrics, and nothing touches the store or the network. Metrics are
// recomputed wholesale at write time; there is no incremental update path.
package workout

import (
	"math"
	"time"

	"github.com/tomtom215/liftsync/internal/models"
)

// Round1 rounds to one decimal place, half away from zero.
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// EstimatedOneRepMax applies the Epley formula. A single rep returns the
// weight unchanged.
func EstimatedOneRepMax(weight float64, reps int) float64 {
	if reps == 1 {
		return weight
	}
	return Round1(weight * (1 + float64(reps)/30))
}

// ExerciseMetrics derives the per-exercise analytic fields.
//
// Warmup sets count toward session volume, distance and duration but never
// toward working aggregates. Only working sets with a positive volume feed
// reps, heaviest weight and estimated one-rep max.
func ExerciseMetrics(ex models.Exercise) models.ExerciseStats {
	stats, _ := exerciseMetrics(ex)
	return stats
}

// rawTotals carries the unrounded sums that workout totals are built from.
type rawTotals struct {
	sessionVolume float64
	distance      float64
}

func exerciseMetrics(ex models.Exercise) (models.ExerciseStats, rawTotals) {
	var (
		stats         models.ExerciseStats
		sessionVolume float64
		workingVolume float64
		heaviest      float64
		best1RM       float64
		totalDistance float64
		hasWeightData bool
		hasCardioData bool
	)

	for _, set := range ex.Sets {
		working := set.Kind() == models.SetKindWorking
		if working {
			stats.TotalWorkingSets++
		} else {
			stats.TotalWarmupSets++
		}

		switch v := set.Variant().(type) {
		case models.WeightReps:
			hasWeightData = true
			totalDistance += v.Cardio.DistanceMeters
			stats.TotalDuration += v.Cardio.DurationSeconds
			if v.Cardio.DistanceMeters > 0 || v.Cardio.DurationSeconds > 0 {
				hasCardioData = true
			}
			if v.Reps <= 0 {
				continue
			}
			volume := v.WeightKg * float64(v.Reps)
			sessionVolume += volume
			if !working {
				continue
			}
			workingVolume += volume
			stats.TotalReps += v.Reps
			heaviest = math.Max(heaviest, v.WeightKg)
			best1RM = math.Max(best1RM, EstimatedOneRepMax(v.WeightKg, v.Reps))
		case models.Distance:
			hasCardioData = true
			totalDistance += v.Meters
			stats.TotalDuration += v.DurationSeconds
		case models.Duration:
			hasCardioData = true
			stats.TotalDuration += v.Seconds
		case models.Bodyweight:
			// counted as a set, contributes nothing else
		}
	}

	stats.SessionVolume = Round1(sessionVolume)
	stats.WorkingSetVolume = Round1(workingVolume)
	stats.TotalDistance = Round1(totalDistance)

	switch {
	case hasWeightData:
		stats.ExerciseType = models.ExerciseTypeStrength
		stats.HeaviestWeight = float64Ptr(heaviest)
		if best1RM > 0 {
			stats.BestEstimated1RM = float64Ptr(best1RM)
		}
		if stats.TotalReps > 0 {
			stats.AverageWeight = float64Ptr(Round1(workingVolume / float64(stats.TotalReps)))
		}
	case hasCardioData:
		stats.ExerciseType = models.ExerciseTypeCardio
	default:
		stats.ExerciseType = models.ExerciseTypeBodyweight
	}

	return stats, rawTotals{sessionVolume: sessionVolume, distance: totalDistance}
}

// WorkoutMetrics derives the workout-level analytic fields. Exercise
// classification reuses ExerciseMetrics so that a workout is "mixed" exactly
// when it holds at least one strength and one cardio exercise. Volume and
// distance are summed unrounded and rounded once. UniqueExercises counts
// exercise entries, so a repeated title counts each time.
func WorkoutMetrics(w models.Workout) models.WorkoutStats {
	var (
		stats         models.WorkoutStats
		totalVolume   float64
		totalDistance float64
	)

	for _, ex := range w.Exercises {
		es, raw := exerciseMetrics(ex)
		totalVolume += raw.sessionVolume
		totalDistance += raw.distance
		stats.TotalDuration += es.TotalDuration
		stats.TotalWorkingSets += es.TotalWorkingSets
		stats.TotalWarmupSets += es.TotalWarmupSets

		switch es.ExerciseType {
		case models.ExerciseTypeStrength:
			stats.StrengthExercises++
		case models.ExerciseTypeCardio:
			stats.CardioExercises++
		}
	}

	stats.UniqueExercises = len(w.Exercises)
	stats.TotalVolume = Round1(totalVolume)
	stats.TotalDistance = Round1(totalDistance)
	stats.DurationMinutes = durationMinutes(w.StartTime, w.EndTime)
	stats.WorkoutDate = WorkoutDate(w.StartTime)

	switch {
	case stats.StrengthExercises > 0 && stats.CardioExercises > 0:
		stats.WorkoutType = models.WorkoutTypeMixed
	case stats.StrengthExercises > 0:
		stats.WorkoutType = models.ExerciseTypeStrength
	case stats.CardioExercises > 0:
		stats.WorkoutType = models.ExerciseTypeCardio
	default:
		stats.WorkoutType = models.ExerciseTypeBodyweight
	}

	return stats
}

// WorkoutDate is the calendar date of start in the offset the upstream
// reported it with.
func WorkoutDate(start time.Time) string {
	if start.IsZero() {
		return ""
	}
	return start.Format(time.DateOnly)
}

func durationMinutes(start, end time.Time) int {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	return int(math.Round(float64(end.Sub(start).Milliseconds()) / 60000))
}

func float64Ptr(v float64) *float64 {
	return &v
}
