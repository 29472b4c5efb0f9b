// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

package database

import (
	"fmt"
	"strings"

	"github.com/tomtom215/eventsync/internal/models"
)

// isUniqueConstraintError checks if an error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// DuckDB unique constraint error messages contain "UNIQUE constraint" or "Duplicate key"
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "unique constraint") || strings.Contains(errMsg, "duplicate key")
}

// classifyConstraintError maps a DuckDB unique violation to the shared store
// errors. DuckDB names the offending key columns in the message, e.g.
// Duplicate key "source: ra, source_event_id: 42" violates unique constraint.
func classifyConstraintError(err error) error {
	if !isUniqueConstraintError(err) {
		return err
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "source_event_id"):
		return fmt.Errorf("%w: %v", models.ErrSourceConflict, err)
	case strings.Contains(msg, "slug"):
		return fmt.Errorf("%w: %v", models.ErrSlugConflict, err)
	default:
		return err
	}
}
