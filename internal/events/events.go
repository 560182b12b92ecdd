// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

// Package events publishes synchronization events through Watermill.
//
// Two transports are supported. With no NATS URL configured, events travel
// over an in-process GoChannel pub/sub, which is enough for the websocket
// bridge in the same process. With a NATS URL, events are published to NATS
// subjects named after the topics so other services can consume them.
package events

import (
	"time"
)

// Topics
const (
	TopicBackfillCompleted = "backfill.completed"
	TopicWorkoutIngested   = "workout.ingested"
)

// Topics lists every topic published by liftsync.
var Topics = []string{TopicBackfillCompleted, TopicWorkoutIngested}

// BackfillCompleted is published once at the end of every backfill run,
// including failed ones.
type BackfillCompleted struct {
	RunID          string    `json:"run_id"`
	NewRecordCount int       `json:"new_record_count"`
	ExistingCount  int       `json:"existing_count"`
	PagesFetched   int       `json:"pages_fetched"`
	ElapsedMs      int64     `json:"elapsed_ms"`
	StopReason     string    `json:"stop_reason"`
	Error          string    `json:"error,omitempty"`
	CompletedAt    time.Time `json:"completed_at"`
}

// WorkoutIngested is published for each workout a backfill run inserted.
type WorkoutIngested struct {
	RunID         string    `json:"run_id"`
	WorkoutID     string    `json:"workout_id"`
	Title         string    `json:"title"`
	WorkoutDate   string    `json:"workout_date"`
	WorkoutType   string    `json:"workout_type"`
	TotalVolume   float64   `json:"total_volume"`
	ExerciseCount int       `json:"exercise_count"`
	StartTime     time.Time `json:"start_time"`
}
