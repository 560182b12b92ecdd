// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

/*
Package supervisor runs Liftsync's long-lived components under a suture v4
supervisor tree.

The tree has three layers so a crash in one does not take down the others:

	liftsync (root)
	├── sync-layer       periodic backfill loop
	├── messaging-layer  websocket hub, event bridge
	└── api-layer        HTTP server

Services restart with exponential backoff after failures (FailureThreshold
failures within FailureDecay seconds trigger a FailureBackoff pause). Events
are logged through sutureslog using the zerolog-backed slog adapter:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddSyncService(services.NewBackfillLoopService(syncMgr))
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddMessagingService(bridge)
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.Server.ShutdownTimeout))
	err = tree.Serve(ctx)

Service adapters live in the services subpackage.
*/
package supervisor
