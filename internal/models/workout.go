// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

// Package models defines the data structures shared across Liftsync: raw
// workouts as ingested from the upstream API, the records persisted by the
// store, and the API response envelope.
package models

import (
	"time"
)

// Workout is a single training session as reported by the upstream API.
// Exercises are ordered; their position is the exercise index used to build
// exercise record identifiers.
type Workout struct {
	ID          string     `json:"id" validate:"required"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	StartTime   time.Time  `json:"start_time" validate:"required"`
	EndTime     time.Time  `json:"end_time"`
	Exercises   []Exercise `json:"exercises" validate:"dive"`
}

// Exercise is one movement performed during a workout.
type Exercise struct {
	Title string `json:"title" validate:"required"`
	Notes string `json:"notes,omitempty"`
	Sets  []Set  `json:"sets" validate:"dive"`
}

// SetKind separates warmup sets from sets that count toward working aggregates.
type SetKind string

const (
	SetKindWarmup  SetKind = "warmup"
	SetKindWorking SetKind = "working"
)

// Set is a single set as stored. Only the measurements the upstream reported
// are non-nil. Use Variant to branch on what the set actually measures.
type Set struct {
	// Type is the raw upstream set type: warmup, normal, failure, dropset.
	Type            string   `json:"type"`
	WeightKg        *float64 `json:"weight_kg,omitempty" validate:"omitempty,gte=0"`
	Reps            *int     `json:"reps,omitempty" validate:"omitempty,gte=0"`
	DistanceMeters  *float64 `json:"distance_meters,omitempty" validate:"omitempty,gte=0"`
	DurationSeconds *int     `json:"duration_seconds,omitempty" validate:"omitempty,gte=0"`
}

// Kind reports whether the set is a warmup. Every other upstream type counts
// as a working set.
func (s Set) Kind() SetKind {
	if s.Type == string(SetKindWarmup) {
		return SetKindWarmup
	}
	return SetKindWorking
}

// SetVariant is the closed set of measurement shapes a Set can take.
// Implementations: WeightReps, Distance, Duration, Bodyweight.
type SetVariant interface {
	setVariant()
}

// Cardio carries the distance and time recorded alongside a set.
type Cardio struct {
	DistanceMeters  float64
	DurationSeconds int
}

// WeightReps is a loaded set. Reps may be zero when only a weight was logged.
// Cardio is populated for loaded carries and sled work.
type WeightReps struct {
	WeightKg float64
	Reps     int
	Cardio   Cardio
}

// Distance is an unloaded set covering a distance, optionally timed.
type Distance struct {
	Meters          float64
	DurationSeconds int
}

// Duration is an unloaded, timed set with no distance (planks, holds).
type Duration struct {
	Seconds int
}

// Bodyweight is a set with no load, distance or time. Reps may be zero.
type Bodyweight struct {
	Reps int
}

func (WeightReps) setVariant() {}
func (Distance) setVariant() {}
func (Duration) setVariant() {}
func (Bodyweight) setVariant() {}

// Variant classifies the set by its strongest measurement: positive weight,
// then positive distance, then positive duration, otherwise bodyweight.
func (s Set) Variant() SetVariant {
	weight := derefFloat(s.WeightKg)
	reps := derefInt(s.Reps)
	distance := derefFloat(s.DistanceMeters)
	duration := derefInt(s.DurationSeconds)

	switch {
	case weight > 0:
		return WeightReps{
			WeightKg: weight,
			Reps:     reps,
			Cardio:   Cardio{DistanceMeters: distance, DurationSeconds: duration},
		}
	case distance > 0:
		return Distance{Meters: distance, DurationSeconds: duration}
	case duration > 0:
		return Duration{Seconds: duration}
	default:
		return Bodyweight{Reps: reps}
	}
}

func derefFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
