// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tomtom215/liftsync/internal/api"
	"github.com/tomtom215/liftsync/internal/cache"
	"github.com/tomtom215/liftsync/internal/config"
	"github.com/tomtom215/liftsync/internal/events"
	"github.com/tomtom215/liftsync/internal/hevy"
	"github.com/tomtom215/liftsync/internal/logging"
	"github.com/tomtom215/liftsync/internal/metrics"
	"github.com/tomtom215/liftsync/internal/store"
	"github.com/tomtom215/liftsync/internal/supervisor"
	"github.com/tomtom215/liftsync/internal/supervisor/services"
	"github.com/tomtom215/liftsync/internal/sync"
	ws "github.com/tomtom215/liftsync/internal/websocket"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	metrics.AppInfo.WithLabelValues(api.Version, runtime.Version()).Set(1)

	logging.Info().
		Str("version", api.Version).
		Str("store_backend", cfg.Store.Backend).
		Bool("hevy_api_key", cfg.Hevy.APIKey != "").
		Bool("admin_enabled", cfg.AdminEnabled()).
		Msg("Starting Liftsync")

	if cfg.Hevy.APIKey == "" {
		logging.Warn().Msg("HEVY_API_KEY is not set; backfill is disabled and reads serve stored data only")
	}
	if cfg.HasWildcardCORS() {
		logging.Warn().Msg("CORS allows any origin")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.Store.Backend, cfg.Store.Path)
	if err != nil {
		logging.Fatal().Err(err).Str("backend", cfg.Store.Backend).Msg("Failed to open store")
	}
	defer func() {
		if err := st.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing store")
		}
	}()

	client := hevy.NewClient(hevy.Config{
		BaseURL:        cfg.Hevy.BaseURL,
		APIKey:         cfg.Hevy.APIKey,
		Timeout:        cfg.Hevy.Timeout,
		RequestsPerSec: cfg.Hevy.RequestsPerSecond,
		Burst:          cfg.Hevy.Burst,
		MaxRetries:     cfg.Hevy.MaxRetries,
		RetryBaseDelay: cfg.Hevy.RetryBaseDelay,
	})

	apiCache := cache.New(cfg.Cache.GeneralTTL, cache.WithCleanupInterval(cfg.Cache.CleanupInterval))
	defer apiCache.Close()

	syncManager := sync.NewManager(client, st, apiCache, sync.Config{
		PageSize:      cfg.Backfill.PageSize,
		RequestDelay:  cfg.Backfill.RequestDelay,
		StopThreshold: cfg.Backfill.StopThreshold,
		RunTimeout:    cfg.Backfill.RunTimeout,
		Interval:      cfg.Backfill.Interval,
		SyncOnStartup: cfg.Backfill.SyncOnStartup,
	})
	trigger := sync.NewTrigger(syncManager, cfg.Backfill.RunTimeout)

	publisher, err := events.NewPublisher(events.Config{
		NATSURL:       cfg.Events.NATSURL,
		MaxReconnects: cfg.Events.MaxReconnects,
		ReconnectWait: cfg.Events.ReconnectWait,
		BufferSize:    int64(cfg.Events.BufferSize),
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create event publisher")
	}
	syncManager.SetEventPublisher(publisher)
	syncManager.SetOnCompleted(func(s *sync.Summary) {
		logging.Debug().
			Str("run_id", s.RunID).
			Int("new_records", s.NewRecordCount).
			Msg("Backfill completed")
	})
	logging.Info().Str("transport", publisher.Transport()).Msg("Event publisher ready")

	wsHub := ws.NewHub()
	bridge := events.NewBridge(publisher, wsHub, events.Topics...)

	handler := api.NewHandler(cfg, apiCache, st, syncManager, trigger, wsHub, client)
	middleware := api.NewChiMiddleware(api.NewChiMiddlewareConfig(cfg.Security))
	router := api.NewRouter(handler, middleware)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.Timeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddSyncService(services.NewBackfillLoopService(syncManager))
	tree.AddMessagingService(services.NewWebSocketHubService(wsHub))
	tree.AddMessagingService(bridge)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	logging.Info().Msg("Starting supervisor tree...")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}

	// Cache-miss backfills run outside the tree.
	trigger.Wait()

	if err := publisher.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing event publisher")
	}

	logging.Info().Msg("Application stopped gracefully")
}
