// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package api

import (
	"context"
	"crypto/subtle"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/liftsync/internal/cache"
	"github.com/tomtom215/liftsync/internal/logging"
	syncpkg "github.com/tomtom215/liftsync/internal/sync"
)

// AdminSecretHeader carries the shared admin secret.
const AdminSecretHeader = "X-Admin-Secret"

// maxAdminBodySize bounds admin request bodies.
const maxAdminBodySize = 4 * 1024

// RequireAdmin guards admin routes. Loopback callers pass when
// security.allow_localhost is set; everyone else must present the secret.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sec := h.config.Security

		if sec.AllowLocalhost && isLoopback(r.RemoteAddr) {
			next.ServeHTTP(w, r)
			return
		}

		if sec.AdminSecret == "" {
			respondError(w, r, http.StatusForbidden, ErrCodeForbidden, ErrAdminDisabled.Error(), nil)
			return
		}

		provided := r.Header.Get(AdminSecretHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(sec.AdminSecret)) != 1 {
			logging.Ctx(r.Context()).Warn().
				Str("remote_addr", sanitizeLogValue(r.RemoteAddr)).
				Str("path", sanitizeLogValue(r.URL.Path)).
				Msg("Rejected admin request")
			respondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, ErrInvalidAdminSecret.Error(), nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// isLoopback reports whether addr (host:port or bare host) is a loopback IP.
func isLoopback(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Backfill serves POST /backfill: one synchronous run, bounded by the run
// timeout, answered with its summary.
func (h *Handler) Backfill(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(r.Context(), h.sync.Config().RunTimeout)
	defer cancel()

	logging.Ctx(r.Context()).Info().Msg("Manual backfill requested")
	summary, err := h.sync.Run(ctx)
	if err != nil {
		respondDomainError(w, r, "Backfill failed", err)
		return
	}
	respondSuccess(w, r, start, summary, false)
}

// Audit serves GET /audit?backfill=true.
func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	backfill, _ := strconv.ParseBool(r.URL.Query().Get("backfill"))

	ctx, cancel := context.WithTimeout(r.Context(), h.sync.Config().RunTimeout)
	defer cancel()

	report, err := h.auditor.Audit(ctx, backfill)
	if err != nil {
		respondDomainError(w, r, "Audit failed", err)
		return
	}
	respondSuccess(w, r, start, report, false)
}

// SyncStatusResponse is the payload of GET /sync/status.
type SyncStatusResponse struct {
	LastRun       *syncpkg.Summary `json:"last_run"`
	InFlight      int              `json:"in_flight"`
	Interval      string           `json:"interval"`
	HasAPIKey     bool             `json:"has_api_key"`
	UpstreamState string           `json:"upstream_circuit"`
}

// SyncStatus serves GET /sync/status.
func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	resp := SyncStatusResponse{
		LastRun:  h.sync.LastSummary(),
		InFlight: h.sync.InFlight(),
		Interval: h.sync.Config().Interval.String(),
	}
	if h.upstream != nil {
		resp.HasAPIKey = h.upstream.HasAPIKey()
		resp.UpstreamState = h.upstream.BreakerState()
	}
	respondSuccess(w, r, start, resp, false)
}

// CacheStatsResponse is the payload of GET /cache.
type CacheStatsResponse struct {
	cache.Stats
	HitRate    float64 `json:"hit_rate"`
	DefaultTTL string  `json:"default_ttl"`
}

// CacheStats serves GET /cache.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	respondSuccess(w, r, start, CacheStatsResponse{
		Stats:      h.cache.GetStats(),
		HitRate:    h.cache.HitRate(),
		DefaultTTL: h.cache.DefaultTTL().String(),
	}, false)
}

// CacheClear serves POST /cache/clear with body {"pattern": "..."}. An empty
// body or pattern clears the whole cache.
func (h *Handler) CacheClear(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req CacheClearRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxAdminBodySize))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Failed to read request body", err)
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid JSON body", nil)
			return
		}
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, r, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	cleared := h.cache.Invalidate(req.Pattern)
	logging.Ctx(r.Context()).Info().
		Str("pattern", sanitizeLogValue(req.Pattern)).
		Int("cleared", cleared).
		Msg("Cache cleared by admin")

	respondSuccess(w, r, start, map[string]interface{}{
		"pattern": req.Pattern,
		"cleared": cleared,
	}, false)
}
