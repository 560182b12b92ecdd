// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package api

import (
	"hash/fnv"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/liftsync/internal/logging"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data,omitempty"`
	Error    *APIError   `json:"error,omitempty"`
	Metadata Metadata    `json:"metadata"`
}

// APIError represents an error response.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Metadata describes how a response was produced.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms"`
	Cached      bool      `json:"cached"`
	RequestID   string    `json:"request_id,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, response *APIResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("ETag", generateETag(data))
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondSuccess writes a 200 envelope. start is when the handler began
// work; cached reports whether data was served from the cache.
func respondSuccess(w http.ResponseWriter, r *http.Request, start time.Time, data interface{}, cached bool) {
	respondJSON(w, http.StatusOK, &APIResponse{
		Success:  true,
		Data:     data,
		Metadata: newMetadata(r, start, cached),
	})
}

// respondError writes an error envelope. err, when set, is logged with the
// request context but never sent to the client.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string, err error) {
	if err != nil {
		logging.Ctx(r.Context()).Error().
			Str("code", code).
			Str("path", sanitizeLogValue(r.URL.Path)).
			Str("error", sanitizeLogValue(err.Error())).
			Msg("API error")
	}

	respondJSON(w, status, &APIResponse{
		Success:  false,
		Error:    &APIError{Code: code, Message: message},
		Metadata: newMetadata(r, time.Time{}, false),
	})
}

// respondDomainError classifies err and writes the matching envelope. Only
// server-side failures are logged.
func respondDomainError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status, code := classifyError(err)
	if status < http.StatusInternalServerError {
		respondError(w, r, status, code, message, nil)
		return
	}
	respondError(w, r, status, code, message, err)
}

func newMetadata(r *http.Request, start time.Time, cached bool) Metadata {
	now := time.Now()
	meta := Metadata{
		Timestamp: now,
		Cached:    cached,
		RequestID: logging.RequestIDFromContext(r.Context()),
	}
	if !start.IsZero() {
		meta.QueryTimeMS = now.Sub(start).Milliseconds()
	}
	return meta
}

// generateETag hashes the body with FNV-1a.
func generateETag(data []byte) string {
	h := fnv.New32a()
	_, _ = h.Write(data)
	return `"` + strconv.FormatUint(uint64(h.Sum32()), 16) + `"`
}
