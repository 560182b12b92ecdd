// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

// Package services adapts Liftsync components to suture.Service.
//
// Each wrapper blocks in Serve until its context is canceled, then shuts the
// component down and returns ctx.Err(). A non-nil error before cancellation
// tells the supervisor to restart the service.
//
//   - HTTPServerService: http.Server with graceful shutdown
//   - BackfillLoopService: the periodic backfill loop (Start/Stop)
//   - WebSocketHubService: the hub's RunWithContext loop
//
// events.Bridge already implements suture.Service and is added directly.
package services
