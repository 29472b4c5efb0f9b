// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

// Package api exposes the pipeline over HTTP using the chi router.
//
// Routes:
//
//	POST /api/v1/sync            run the pipeline, answer with the sync report
//	GET  /api/v1/sync/status     last completed report and whether a run is executing
//	GET  /api/v1/events?limit=N  stored events ordered by start time
//	GET  /api/v1/health/live     process liveness
//	GET  /api/v1/health/ready    store reachability
//	GET  /metrics                Prometheus metrics
//
// CORS is global so browsers can trigger a run cross-origin. Every endpoint
// except a successful POST /api/v1/sync uses the APIResponse envelope.
package api
