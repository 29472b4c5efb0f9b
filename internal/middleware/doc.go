// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

/*
Package middleware provides HTTP instrumentation shared by the API router.

PrometheusMetrics records request counts, latencies and in-flight requests.
Requests are labeled with the chi route pattern (for example /api/v1/events)
rather than the raw path, so query strings and path parameters never create
new series:

	r := chi.NewRouter()
	r.Use(middleware.PrometheusMetrics)
	r.Get("/api/v1/events", h.Events)

Requests that match no route are labeled "unmatched".
*/
package middleware
