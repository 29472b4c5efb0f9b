// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

// Package testinfra provides container-backed infrastructure for integration
// tests. Everything here builds only with the integration tag:
//
//	go test -tags integration ./...
//
// # PostgreSQL
//
//	pg, err := testinfra.NewPostgresContainer(ctx)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer testinfra.CleanupContainer(t, ctx, pg)
//
//	store, err := database.NewPostgres(ctx, &config.DatabaseConfig{DSN: pg.DSN})
//
// # NATS
//
// NewNATSContainer starts a JetStream-enabled server for the EventSynced
// publisher.
//
// Tests call SkipIfNoDocker first so they skip cleanly on machines without a
// Docker daemon.
package testinfra
