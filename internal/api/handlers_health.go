// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

package api

import (
	"net/http"
	"time"
)

// HealthLive reports that the process is serving.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady reports whether the event store answers a ping.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.store == nil {
		rw.ServiceUnavailable("Event store not configured")
		return
	}
	if err := h.store.Ping(r.Context()); err != nil {
		rw.ServiceUnavailable("Event store unreachable")
		return
	}

	rw.Success(map[string]interface{}{
		"ready":       true,
		"in_progress": h.sync != nil && h.sync.InProgress(),
	})
}
