// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

/*
Package api provides the HTTP surface of Liftsync: a chi router, the workout
read endpoints, admin endpoints for backfill, audit and cache control, health
probes and the websocket upgrade.

# Read Path

Every read endpoint goes through cache.ReadThrough. The first listing page and
the stats endpoint pass the backfill trigger as the miss hook, so a cold cache
starts a background sync while the reader is served from the store:

	GET /api/v1/workouts?page=1         api-workouts-dynamo-page:1-pageSize:10
	GET /api/v1/workouts/stats          api-workout-stats
	GET /api/v1/workouts/{id}           api-workout-id:<id>
	GET /api/v1/workouts/{id}/exercises api-workout-exercises-id:<id>
	GET /api/v1/workouts/range          api-workouts-range-from:<d>-to:<d>
	GET /api/v1/exercises/history       api-exercise-history-limit:<n>-name:<s>

# Admin

Admin endpoints require the X-Admin-Secret header to equal the configured
secret. Loopback clients are let through when security.allow_localhost is set.
With neither a secret nor loopback access the admin routes answer 403.

# Response Format

	{
	  "success": true,
	  "data": { ... },
	  "metadata": {"timestamp": "...", "query_time_ms": 3, "cached": true}
	}

Errors carry {"code": "NOT_FOUND", "message": "..."} under "error".
*/
package api
