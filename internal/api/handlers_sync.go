// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

package api

import (
	"errors"
	"net/http"

	"github.com/tomtom215/eventsync/internal/logging"
	"github.com/tomtom215/eventsync/internal/models"
	"github.com/tomtom215/eventsync/internal/sync"
)

// SyncStatusResponse is the payload of GET /api/v1/sync/status.
type SyncStatusResponse struct {
	InProgress bool               `json:"in_progress"`
	LastReport *models.SyncReport `json:"last_report"`
}

// Sync runs the pipeline and answers with the report once the run finished.
// A report with errors is still a 200: the run completed with warnings.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	log := logging.Ctx(r.Context())

	req, err := decodeSyncRequest(r)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if verr := req.Validate(); verr != nil {
		rw.ValidationError(verr.Error(), verr.ToAPIError().Details)
		return
	}

	areas, err := h.sync.Areas(req.Areas)
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}

	log.Info().Int("areas", len(areas)).Str("remote_addr", r.RemoteAddr).Msg("Sync triggered over HTTP")

	report, err := h.sync.TriggerSyncAreas(r.Context(), areas)
	switch {
	case errors.Is(err, sync.ErrSyncInProgress):
		rw.Conflict(ErrCodeSyncInProgress, "A sync run is already in progress")
		return
	case errors.Is(err, sync.ErrStoreUnreachable):
		log.Error().Err(err).Msg("Sync aborted")
		rw.Error(http.StatusInternalServerError, ErrCodeDatabaseError, err.Error())
		return
	case err != nil:
		log.Error().Err(err).Msg("Sync aborted")
		rw.Error(http.StatusInternalServerError, ErrCodeConfiguration, err.Error())
		return
	}

	rw.Raw(http.StatusOK, report)
}

// SyncStatus returns the last completed report.
func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(SyncStatusResponse{
		InProgress: h.sync.InProgress(),
		LastReport: h.sync.LastReport(),
	})
}
