// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

// Package metrics defines the Prometheus metrics exported on /metrics.
//
// Metrics are registered with the default registry through promauto at package
// init. Components record through the Record* helpers rather than touching the
// vectors directly so label sets stay consistent.
package metrics
