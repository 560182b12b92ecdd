// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package api

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/liftsync/internal/cache"
	"github.com/tomtom215/liftsync/internal/config"
	"github.com/tomtom215/liftsync/internal/queries"
	"github.com/tomtom215/liftsync/internal/store"
	syncpkg "github.com/tomtom215/liftsync/internal/sync"
	ws "github.com/tomtom215/liftsync/internal/websocket"
)

// UpstreamStatus reports the state of the upstream client. hevy.Client
// implements it.
type UpstreamStatus interface {
	HasAPIKey() bool
	BreakerState() string
}

// Handler contains dependencies for API handlers
//
// Handler methods are split across files:
//   - handlers_workouts.go: cached read endpoints
//   - handlers_admin.go: backfill, audit, sync status and cache control
//   - handlers_health.go: health probes
//   - handlers_websocket.go: websocket upgrade
type Handler struct {
	config    *config.Config
	cache     *cache.Cache
	store     store.Store
	queries   *queries.Service
	sync      *syncpkg.Manager
	auditor   *syncpkg.Auditor
	trigger   *syncpkg.Trigger
	upstream  UpstreamStatus
	wsHub     *ws.Hub
	upgrader  websocket.Upgrader
	startTime time.Time
}

// NewHandler creates a Handler. upstream may be nil when the client does not
// expose its state.
//
//	handler := api.NewHandler(cfg, apiCache, st, syncMgr, trigger, hub, client)
//	router := api.NewRouter(handler, api.NewChiMiddleware(api.NewChiMiddlewareConfig(cfg.Security)))
//	srv := &http.Server{Addr: cfg.Server.Addr(), Handler: router.SetupChi()}
func NewHandler(cfg *config.Config, c *cache.Cache, st store.Store, syncMgr *syncpkg.Manager, trigger *syncpkg.Trigger, hub *ws.Hub, upstream UpstreamStatus) *Handler {
	h := &Handler{
		config:    cfg,
		cache:     c,
		store:     st,
		queries:   queries.NewService(st),
		sync:      syncMgr,
		auditor:   syncpkg.NewAuditor(syncMgr),
		trigger:   trigger,
		upstream:  upstream,
		wsHub:     hub,
		startTime: time.Now(),
	}
	h.upgrader = newUpgrader(cfg.Security.CORSOrigins)
	return h
}

// cacheTTLs returns the general, stats and volatile TTL presets.
func (h *Handler) cacheTTLs() (general, stats, volatile time.Duration) {
	c := h.config.Cache
	return c.GeneralTTL, c.StatsTTL, c.VolatileTTL
}

// missHook returns the read options that start a background backfill on a
// miss, or none when sync-on-miss is disabled.
func (h *Handler) missHook() []cache.ReadOption {
	if h.trigger == nil || !h.config.Backfill.SyncOnMiss {
		return nil
	}
	return []cache.ReadOption{cache.WithOnMiss(h.trigger.Hook())}
}
