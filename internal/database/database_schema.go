// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext bounds schema statements at startup.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

// tableCreationQueries returns the DuckDB schema. Lineup is a JSON array in a
// TEXT column.
func tableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			slug TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			venue_name TEXT NOT NULL,
			city TEXT NOT NULL DEFAULT '',
			country TEXT NOT NULL DEFAULT '',
			starts_at TIMESTAMP NOT NULL,
			image_url TEXT,
			ticket_url TEXT,
			lineup TEXT NOT NULL DEFAULT '[]',
			source TEXT NOT NULL,
			source_event_id TEXT NOT NULL,
			source_synced BOOLEAN NOT NULL DEFAULT false,
			source_synced_at TIMESTAMP,
			language TEXT NOT NULL DEFAULT 'en',
			featured BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			UNIQUE (source, source_event_id)
		);`,
	}
}
