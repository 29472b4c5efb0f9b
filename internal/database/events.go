// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/eventsync/internal/metrics"
	"github.com/tomtom215/eventsync/internal/models"
)

const eventColumns = `id, slug, title, description, venue_name, city, country, starts_at,
	image_url, ticket_url, lineup, source, source_event_id, source_synced, source_synced_at,
	language, featured, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// FindEventBySourceID looks up the event stored for a source listing.
func (db *DB) FindEventBySourceID(ctx context.Context, source, sourceEventID string) (*models.Event, error) {
	start := time.Now()
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE source = ? AND source_event_id = ?`,
		source, sourceEventID)

	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		metrics.RecordDBQuery(driverDuckDB, "find_by_source", time.Since(start), nil)
		return nil, nil
	}
	metrics.RecordDBQuery(driverDuckDB, "find_by_source", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to find event %s/%s: %w", source, sourceEventID, err)
	}
	return e, nil
}

// InsertEvent inserts e, assigning its ID and timestamps.
func (db *DB) InsertEvent(ctx context.Context, e *models.Event) error {
	start := time.Now()

	lineup, err := encodeLineup(e.Lineup)
	if err != nil {
		return err
	}

	id := uuid.NewString()
	now := time.Now().UTC()

	_, err = db.conn.ExecContext(ctx, `INSERT INTO events (`+eventColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, e.Slug, e.Title, e.Description, e.VenueName, e.City, e.Country, e.StartsAt.UTC(),
		nullString(e.ImageURL), nullString(e.TicketURL), lineup, e.Source, e.SourceEventID,
		e.SourceSynced, nullTime(e.SourceSyncedAt), e.Language, e.Featured, now, now)
	if err != nil {
		err = classifyConstraintError(err)
		metrics.RecordDBQuery(driverDuckDB, "insert", time.Since(start), err)
		return fmt.Errorf("failed to insert event %q: %w", e.Slug, err)
	}
	metrics.RecordDBQuery(driverDuckDB, "insert", time.Since(start), nil)

	e.ID = id
	e.CreatedAt = now
	e.UpdatedAt = now
	return nil
}

// UpdateEvent overwrites the mapped fields of the event with id. The slug and
// the reconciliation key are left untouched.
func (db *DB) UpdateEvent(ctx context.Context, id string, e *models.Event) error {
	start := time.Now()

	lineup, err := encodeLineup(e.Lineup)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	res, err := db.conn.ExecContext(ctx, `UPDATE events SET
			title = ?, description = ?, venue_name = ?, city = ?, country = ?, starts_at = ?,
			image_url = ?, ticket_url = ?, lineup = ?, source_synced = ?, source_synced_at = ?,
			language = ?, featured = ?, updated_at = ?
		WHERE id = ?`,
		e.Title, e.Description, e.VenueName, e.City, e.Country, e.StartsAt.UTC(),
		nullString(e.ImageURL), nullString(e.TicketURL), lineup, e.SourceSynced, nullTime(e.SourceSyncedAt),
		e.Language, e.Featured, now, id)
	if err != nil {
		metrics.RecordDBQuery(driverDuckDB, "update", time.Since(start), err)
		return fmt.Errorf("failed to update event %s: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		err = models.ErrEventNotFound
	}
	metrics.RecordDBQuery(driverDuckDB, "update", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to update event %s: %w", id, err)
	}

	e.ID = id
	e.UpdatedAt = now
	return nil
}

// ListEvents returns up to limit events ordered by start time, soonest first.
func (db *DB) ListEvents(ctx context.Context, limit int) ([]models.Event, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events ORDER BY starts_at, slug LIMIT ?`, limit)
	if err != nil {
		metrics.RecordDBQuery(driverDuckDB, "list", time.Since(start), err)
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := make([]models.Event, 0, limit)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *e)
	}
	err = rows.Err()
	metrics.RecordDBQuery(driverDuckDB, "list", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

// CountEvents returns the number of stored events.
func (db *DB) CountEvents(ctx context.Context) (int, error) {
	start := time.Now()
	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n)
	metrics.RecordDBQuery(driverDuckDB, "count", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return n, nil
}

func scanEvent(row rowScanner) (*models.Event, error) {
	var (
		e          models.Event
		imageURL   sql.NullString
		ticketURL  sql.NullString
		lineupJSON string
		syncedAt   sql.NullTime
	)
	err := row.Scan(&e.ID, &e.Slug, &e.Title, &e.Description, &e.VenueName, &e.City, &e.Country,
		&e.StartsAt, &imageURL, &ticketURL, &lineupJSON, &e.Source, &e.SourceEventID,
		&e.SourceSynced, &syncedAt, &e.Language, &e.Featured, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if imageURL.Valid {
		e.ImageURL = &imageURL.String
	}
	if ticketURL.Valid {
		e.TicketURL = &ticketURL.String
	}
	if syncedAt.Valid {
		t := syncedAt.Time.UTC()
		e.SourceSyncedAt = &t
	}
	e.StartsAt = e.StartsAt.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()

	if err := json.Unmarshal([]byte(lineupJSON), &e.Lineup); err != nil {
		return nil, fmt.Errorf("failed to decode lineup for %s: %w", e.Slug, err)
	}
	if e.Lineup == nil {
		e.Lineup = []string{}
	}
	return &e, nil
}

func encodeLineup(lineup []string) (string, error) {
	if lineup == nil {
		lineup = []string{}
	}
	b, err := json.Marshal(lineup)
	if err != nil {
		return "", fmt.Errorf("failed to encode lineup: %w", err)
	}
	return string(b), nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
