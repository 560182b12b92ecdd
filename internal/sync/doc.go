// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

/*
Package sync keeps the workout store in agreement with the Hevy API.

Key Components:

  - Manager: the backfill synchronizer. Run pages through upstream workouts
    newest first, inserting each one with a conditional put, and stops once
    StopThreshold consecutive workouts already exist, once upstream runs out
    of pages, or on the first non-conflict failure.
  - Trigger: fire-and-forget launcher used as a cache miss hook, so that a
    cold listing or stats key provokes a background backfill.
  - Auditor: compares upstream workout IDs with the store and optionally
    backfills what is missing.

Concurrency:

Overlapping runs are allowed. The store's insert-if-absent is the only mutual
exclusion: a second run that races the first sees ErrAlreadyExists on the
records the first one wrote and counts them toward its own stop threshold.
Duplicate effort is possible, duplicate records are not.

Cache Invalidation:

A run that inserted at least one workout invalidates the patterns in
InvalidationPatterns on the configured cache. A run that inserted nothing
leaves the cache untouched.

Usage Example:

	manager := sync.NewManager(hevyClient, workoutStore, apiCache, sync.DefaultConfig())
	manager.SetEventPublisher(publisher)

	summary, err := manager.Run(ctx)
	if err != nil {
	    log.Printf("backfill failed after %d pages: %v", summary.PagesFetched, err)
	}
*/
package sync
