// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

/*
Package middleware provides chi-compatible HTTP middleware shared by the API.

  - RequestID: accepts or generates X-Request-ID and seeds the logging context
    with request and correlation IDs, so logging.Ctx(r.Context()) carries both.
  - PrometheusMetrics: records request count, latency and in-flight requests,
    labelled by the matched chi route pattern rather than the raw path.

Both have the func(http.Handler) http.Handler shape:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.PrometheusMetrics)
*/
package middleware
