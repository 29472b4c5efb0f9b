// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

package api

import (
	"context"
	"time"

	"github.com/tomtom215/eventsync/internal/config"
	"github.com/tomtom215/eventsync/internal/models"
)

// SyncService is the part of sync.Manager the API drives.
type SyncService interface {
	Areas(keys []string) ([]config.AreaConfig, error)
	TriggerSyncAreas(ctx context.Context, areas []config.AreaConfig) (*models.SyncReport, error)
	LastReport() *models.SyncReport
	InProgress() bool
}

// EventReader is the read side of the event store.
type EventReader interface {
	Ping(ctx context.Context) error
	ListEvents(ctx context.Context, limit int) ([]models.Event, error)
	CountEvents(ctx context.Context) (int, error)
}

// Handler holds the dependencies of the HTTP handlers.
type Handler struct {
	sync      SyncService
	store     EventReader
	startTime time.Time
}

// NewHandler creates a handler.
func NewHandler(syncService SyncService, store EventReader) *Handler {
	return &Handler{
		sync:      syncService,
		store:     store,
		startTime: time.Now(),
	}
}
