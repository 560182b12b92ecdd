// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package api

import (
	"context"
	"net/http"
	"time"
)

// storeProbeTimeout bounds the readiness probe against the store.
const storeProbeTimeout = 2 * time.Second

// HealthStatus is the payload of GET /health.
type HealthStatus struct {
	Status           string  `json:"status"`
	Version          string  `json:"version"`
	StoreBackend     string  `json:"store_backend"`
	StoreReachable   bool    `json:"store_reachable"`
	UpstreamKeySet   bool    `json:"upstream_key_set"`
	UpstreamCircuit  string  `json:"upstream_circuit,omitempty"`
	WebSocketClients int     `json:"websocket_clients"`
	CacheKeys        int64   `json:"cache_keys"`
	CacheHitRate     float64 `json:"cache_hit_rate"`
	BackfillInFlight int     `json:"backfill_in_flight"`
	Uptime           float64 `json:"uptime"`
}

// Version is reported by the health endpoint; set by main from build info.
var Version = "dev"

// Health serves GET /health. It always answers 200; "degraded" means the
// store probe failed or the upstream circuit is open.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	status := HealthStatus{
		Status:         "healthy",
		Version:        Version,
		StoreBackend:   h.store.Backend(),
		StoreReachable: h.probeStore(r.Context()) == nil,
		CacheKeys:      h.cache.GetStats().TotalKeys,
		CacheHitRate:   h.cache.HitRate(),
		Uptime:         time.Since(h.startTime).Seconds(),
	}
	if h.upstream != nil {
		status.UpstreamKeySet = h.upstream.HasAPIKey()
		status.UpstreamCircuit = h.upstream.BreakerState()
	}
	if h.wsHub != nil {
		status.WebSocketClients = h.wsHub.GetClientCount()
	}
	if h.sync != nil {
		status.BackfillInFlight = h.sync.InFlight()
	}
	if !status.StoreReachable || status.UpstreamCircuit == "open" {
		status.Status = "degraded"
	}

	respondSuccess(w, r, start, status, false)
}

// HealthLive serves the liveness probe: 200 while the process is up.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, time.Now(), map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	}, false)
}

// HealthReady serves the readiness probe: 503 until the store answers.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if err := h.probeStore(r.Context()); err != nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Store is not ready", err)
		return
	}
	respondSuccess(w, r, time.Now(), map[string]interface{}{
		"ready":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	}, false)
}

// probeStore reads a single workout key to confirm the store responds.
func (h *Handler) probeStore(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, storeProbeTimeout)
	defer cancel()
	_, err := h.store.ScanWorkouts(ctx, "", 1)
	return err
}
