// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

package models

import "errors"

// Store errors shared by every persistence adapter.
var (
	// ErrSlugConflict is returned when an insert violates the unique slug constraint.
	ErrSlugConflict = errors.New("slug already exists")

	// ErrSourceConflict is returned when an insert violates the unique
	// (source, source_event_id) constraint, typically from an overlapping run.
	ErrSourceConflict = errors.New("source event already exists")

	// ErrEventNotFound is returned when an update targets a missing row.
	ErrEventNotFound = errors.New("event not found")
)
