// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

package api

import (
	"net/http"
	"strconv"

	"github.com/tomtom215/eventsync/internal/models"
)

const (
	defaultEventsLimit = 50
	maxEventsLimit     = 500
)

// Events lists stored events ordered by start time.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	events, err := h.store.ListEvents(r.Context(), limit)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	total, err := h.store.CountEvents(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	if events == nil {
		events = []models.Event{}
	}

	rw.SuccessWithPagination(models.EventList{Events: events, Total: total}, &PaginationMeta{
		Total:   int64(total),
		Count:   len(events),
		Limit:   limit,
		HasMore: total > len(events),
	})
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultEventsLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > maxEventsLimit {
		return 0, errLimit
	}
	return n, nil
}
