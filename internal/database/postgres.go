// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tomtom215/eventsync/internal/config"
	"github.com/tomtom215/eventsync/internal/logging"
	"github.com/tomtom215/eventsync/internal/metrics"
	"github.com/tomtom215/eventsync/internal/models"
)

const (
	driverPostgres = "postgres"

	pgUniqueViolation = "23505"

	constraintSlug   = "events_slug_key"
	constraintSource = "events_source_key"
)

var pgSchema = []string{
	`CREATE TABLE IF NOT EXISTS events (
		id UUID PRIMARY KEY,
		slug TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		venue_name TEXT NOT NULL,
		city TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT '',
		starts_at TIMESTAMPTZ NOT NULL,
		image_url TEXT,
		ticket_url TEXT,
		lineup TEXT[] NOT NULL DEFAULT '{}',
		source TEXT NOT NULL,
		source_event_id TEXT NOT NULL,
		source_synced BOOLEAN NOT NULL DEFAULT false,
		source_synced_at TIMESTAMPTZ,
		language TEXT NOT NULL DEFAULT 'en',
		featured BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT ` + constraintSlug + ` UNIQUE (slug),
		CONSTRAINT ` + constraintSource + ` UNIQUE (source, source_event_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_starts_at ON events (starts_at)`,
}

// PGStore is the PostgreSQL event store.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to cfg.DSN and ensures the events table exists.
func NewPostgres(ctx context.Context, cfg *config.DatabaseConfig) (*PGStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	} else {
		poolCfg.MaxConns = 10
	}
	poolCfg.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &PGStore{pool: pool}
	if err := s.createSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logging.Info().Str("host", poolCfg.ConnConfig.Host).Int32("max_conns", poolCfg.MaxConns).Msg("Event store connected")
	return s, nil
}

func (s *PGStore) createSchema(ctx context.Context) error {
	for _, q := range pgSchema {
		if _, err := s.pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// Ping checks the pool.
func (s *PGStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases every pooled connection.
func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}

// FindEventBySourceID looks up the event stored for a source listing.
func (s *PGStore) FindEventBySourceID(ctx context.Context, source, sourceEventID string) (*models.Event, error) {
	start := time.Now()
	row := s.pool.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE source = $1 AND source_event_id = $2`,
		source, sourceEventID)

	e, err := scanPGEvent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		metrics.RecordDBQuery(driverPostgres, "find_by_source", time.Since(start), nil)
		return nil, nil
	}
	metrics.RecordDBQuery(driverPostgres, "find_by_source", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("finding event %s/%s: %w", source, sourceEventID, err)
	}
	return e, nil
}

// InsertEvent inserts e, assigning its ID and timestamps.
func (s *PGStore) InsertEvent(ctx context.Context, e *models.Event) error {
	start := time.Now()
	id := uuid.New()
	lineup := e.Lineup
	if lineup == nil {
		lineup = []string{}
	}

	var createdAt time.Time
	err := s.pool.QueryRow(ctx, `INSERT INTO events (
			id, slug, title, description, venue_name, city, country, starts_at,
			image_url, ticket_url, lineup, source, source_event_id, source_synced, source_synced_at,
			language, featured)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING created_at`,
		id, e.Slug, e.Title, e.Description, e.VenueName, e.City, e.Country, e.StartsAt,
		e.ImageURL, e.TicketURL, lineup, e.Source, e.SourceEventID, e.SourceSynced, e.SourceSyncedAt,
		e.Language, e.Featured).Scan(&createdAt)
	if err != nil {
		err = classifyPGError(err)
		metrics.RecordDBQuery(driverPostgres, "insert", time.Since(start), err)
		return fmt.Errorf("inserting event %q: %w", e.Slug, err)
	}
	metrics.RecordDBQuery(driverPostgres, "insert", time.Since(start), nil)

	e.ID = id.String()
	e.CreatedAt = createdAt.UTC()
	e.UpdatedAt = e.CreatedAt
	return nil
}

// UpdateEvent overwrites the mapped fields of the event with id.
func (s *PGStore) UpdateEvent(ctx context.Context, id string, e *models.Event) error {
	start := time.Now()
	lineup := e.Lineup
	if lineup == nil {
		lineup = []string{}
	}

	var updatedAt time.Time
	err := s.pool.QueryRow(ctx, `UPDATE events SET
			title = $1, description = $2, venue_name = $3, city = $4, country = $5, starts_at = $6,
			image_url = $7, ticket_url = $8, lineup = $9, source_synced = $10, source_synced_at = $11,
			language = $12, featured = $13, updated_at = now()
		WHERE id = $14
		RETURNING updated_at`,
		e.Title, e.Description, e.VenueName, e.City, e.Country, e.StartsAt,
		e.ImageURL, e.TicketURL, lineup, e.SourceSynced, e.SourceSyncedAt,
		e.Language, e.Featured, id).Scan(&updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		err = models.ErrEventNotFound
	}
	metrics.RecordDBQuery(driverPostgres, "update", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("updating event %s: %w", id, err)
	}

	e.ID = id
	e.UpdatedAt = updatedAt.UTC()
	return nil
}

// ListEvents returns up to limit events ordered by start time.
func (s *PGStore) ListEvents(ctx context.Context, limit int) ([]models.Event, error) {
	start := time.Now()
	rows, err := s.pool.Query(ctx,
		`SELECT `+eventColumns+` FROM events ORDER BY starts_at, slug LIMIT $1`, limit)
	if err != nil {
		metrics.RecordDBQuery(driverPostgres, "list", time.Since(start), err)
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	events := make([]models.Event, 0, limit)
	for rows.Next() {
		e, err := scanPGEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, *e)
	}
	err = rows.Err()
	metrics.RecordDBQuery(driverPostgres, "list", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return events, nil
}

// CountEvents returns the number of stored events.
func (s *PGStore) CountEvents(ctx context.Context) (int, error) {
	start := time.Now()
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM events`).Scan(&n)
	metrics.RecordDBQuery(driverPostgres, "count", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("counting events: %w", err)
	}
	return n, nil
}

func scanPGEvent(row pgx.Row) (*models.Event, error) {
	var (
		e  models.Event
		id uuid.UUID
	)
	err := row.Scan(&id, &e.Slug, &e.Title, &e.Description, &e.VenueName, &e.City, &e.Country,
		&e.StartsAt, &e.ImageURL, &e.TicketURL, &e.Lineup, &e.Source, &e.SourceEventID,
		&e.SourceSynced, &e.SourceSyncedAt, &e.Language, &e.Featured, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.ID = id.String()
	e.StartsAt = e.StartsAt.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	if e.SourceSyncedAt != nil {
		t := e.SourceSyncedAt.UTC()
		e.SourceSyncedAt = &t
	}
	if e.Lineup == nil {
		e.Lineup = []string{}
	}
	return &e, nil
}

// classifyPGError maps unique violations to the shared store errors by
// constraint name.
func classifyPGError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return err
	}
	switch pgErr.ConstraintName {
	case constraintSlug:
		return fmt.Errorf("%w: %v", models.ErrSlugConflict, err)
	case constraintSource:
		return fmt.Errorf("%w: %v", models.ErrSourceConflict, err)
	default:
		return err
	}
}
