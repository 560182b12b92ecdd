// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/liftsync/internal/queries"
	syncpkg "github.com/tomtom215/liftsync/internal/sync"
)

// Error codes for API responses
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeUpstream           = "UPSTREAM_ERROR"
)

var (
	// ErrAdminDisabled is reported when no admin secret is configured and
	// the caller is not on loopback.
	ErrAdminDisabled = errors.New("admin endpoints are disabled")

	// ErrInvalidAdminSecret is reported for a missing or wrong X-Admin-Secret.
	ErrInvalidAdminSecret = errors.New("invalid admin secret")
)

// classifyError maps a domain error to an HTTP status and envelope code.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, queries.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	case errors.Is(err, queries.ErrInvalidDateRange):
		return http.StatusBadRequest, ErrCodeValidation
	case errors.Is(err, syncpkg.ErrMissingAPIKey):
		return http.StatusServiceUnavailable, ErrCodeServiceUnavailable
	case errors.Is(err, syncpkg.ErrUpstream):
		return http.StatusBadGateway, ErrCodeUpstream
	default:
		return http.StatusInternalServerError, ErrCodeInternal
	}
}
