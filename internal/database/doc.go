// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

/*
Package database provides the event store behind the reconciliation pipeline.

Two adapters implement Store:

  - DB: embedded DuckDB (default), a single file next to the service
  - PGStore: PostgreSQL through a pgx connection pool, for deployments where
    the events table lives in a managed database

Both enforce a unique slug and a unique (source, source_event_id) pair and
translate violations into models.ErrSlugConflict and models.ErrSourceConflict.
The pipeline never deletes events, so the store exposes no delete operation.

	store, err := database.Open(ctx, &cfg.Database)
	if err != nil {
	    return err
	}
	defer store.Close()
*/
package database
