// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

/*
Package main is the entry point for the Liftsync server.

Liftsync pulls workout history from the Hevy API, derives per-workout and
per-exercise training metrics, stores them once, and serves them through a
read-through cache. Reads that miss the cache can kick off a background
backfill so the store catches up with new workouts.

# Application Architecture

Long-running components run under a Suture v4 supervisor tree:

	RootSupervisor ("liftsync")
	├── SyncSupervisor ("sync-layer")
	│   └── Backfill loop (periodic runs, optional)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocket Hub
	│   └── Event bridge (sync events to WebSocket clients)
	└── APISupervisor ("api-layer")
	    └── HTTP Server

Component initialization order:

 1. Configuration: Koanf v2 (defaults, optional YAML file, environment)
 2. Logging: zerolog, with an slog adapter for the supervisor
 3. Store: badger, duckdb or memory backend
 4. Hevy client: rate limited, retried, circuit broken
 5. Cache and backfill manager, plus the cache-miss trigger
 6. Events: Watermill over GoChannel, or NATS when a URL is configured
 7. HTTP router: chi v5 with CORS, rate limiting and Prometheus metrics

# Configuration

Common environment variables:

	HEVY_API_KEY     Hevy API key (required for backfill)
	STORE_BACKEND    badger | duckdb | memory
	STORE_PATH       data directory or database file
	ADMIN_SECRET     enables the admin endpoints
	NATS_URL         publish sync events to NATS
	SYNC_INTERVAL    period of the background backfill loop

Set CONFIG_PATH to load a YAML file before the environment is applied.

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains within
the configured shutdown timeout, in-flight cache-miss backfills are awaited,
and the event publisher and store are closed last.
*/
package main
