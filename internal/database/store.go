// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

package database

import (
	"context"
	"fmt"

	"github.com/tomtom215/eventsync/internal/config"
	"github.com/tomtom215/eventsync/internal/models"
)

// Store is the persistence contract of the event pipeline.
type Store interface {
	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error

	// FindEventBySourceID returns the event stored for (source, sourceEventID),
	// or nil and no error when there is none.
	FindEventBySourceID(ctx context.Context, source, sourceEventID string) (*models.Event, error)

	// InsertEvent stores e. The store assigns e.ID and the bookkeeping
	// timestamps. Uniqueness violations return models.ErrSlugConflict or
	// models.ErrSourceConflict.
	InsertEvent(ctx context.Context, e *models.Event) error

	// UpdateEvent overwrites every mapped field of the event with id. Slug,
	// source and source event id are never changed. Returns
	// models.ErrEventNotFound when no row matches.
	UpdateEvent(ctx context.Context, id string, e *models.Event) error

	// ListEvents returns up to limit events ordered by start time.
	ListEvents(ctx context.Context, limit int) ([]models.Event, error)

	// CountEvents returns the number of stored events.
	CountEvents(ctx context.Context) (int, error)

	Close() error
}

// Open connects to the store selected by cfg.Driver.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (Store, error) {
	switch cfg.Driver {
	case "", driverDuckDB:
		return New(cfg)
	case driverPostgres:
		return NewPostgres(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}
