// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

/*
Package config loads Liftsync configuration.

Configuration is layered with koanf, later layers overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file: CONFIG_PATH, else config.yaml / config.yml in the
    working directory, else /etc/liftsync/config.yaml
 3. Environment variables, mapped explicitly (unknown variables are ignored)

# Environment Variables

Upstream (hevy):
  - HEVY_API_KEY: API key sent as the api-key header (required to sync)
  - HEVY_BASE_URL: API base URL (default: https://api.hevyapp.com)
  - HEVY_TIMEOUT, HEVY_REQUESTS_PER_SECOND, HEVY_BURST, HEVY_MAX_RETRIES

Backfill (backfill):
  - BACKFILL_PAGE_SIZE: upstream page size, 1-10 (default: 10)
  - BACKFILL_DELAY: pause between records and pages (default: 150ms)
  - BACKFILL_STOP_THRESHOLD: consecutive existing records before stopping (default: 10)
  - BACKFILL_TIMEOUT: bound on a single run (default: 10m)
  - SYNC_INTERVAL: periodic run interval, 0 disables (default: 0)
  - SYNC_ON_STARTUP: run once at startup (default: false)
  - SYNC_ON_CACHE_MISS: trigger a run on listing/stats cache misses (default: true)

Cache (cache):
  - CACHE_TTL_GENERAL (4h), CACHE_TTL_STATS (6h), CACHE_TTL_VOLATILE (5m)

Store (store):
  - STORE_BACKEND: badger, duckdb or memory (default: badger)
  - STORE_PATH: data directory or database file

HTTP (server, security):
  - HTTP_HOST, HTTP_PORT, HTTP_TIMEOUT
  - ADMIN_SECRET: value of the X-Admin-Secret header for admin routes
  - ADMIN_ALLOW_LOCALHOST: let loopback clients skip the admin secret
  - CORS_ORIGINS: comma-separated allowed origins
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW, DISABLE_RATE_LIMIT

Events (events):
  - NATS_URL: publish to NATS instead of the in-process channel
  - NATS_MAX_RECONNECTS, NATS_RECONNECT_WAIT

Logging (logging):
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

Config is immutable after Load and safe for concurrent reads.
*/
package config
