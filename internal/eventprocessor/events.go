// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

package eventprocessor

import (
	"fmt"
	"time"

	"github.com/tomtom215/eventsync/internal/models"
)

// EventSynced announces that a canonical event was written by a run.
type EventSynced struct {
	EventID       string    `json:"event_id"`
	Slug          string    `json:"slug"`
	Source        string    `json:"source"`
	SourceEventID string    `json:"source_event_id"`
	Outcome       string    `json:"outcome"`
	SyncedAt      time.Time `json:"synced_at"`
}

// NewEventSynced builds the notification for e. SyncedAt falls back to the
// current time when e carries no sync timestamp.
func NewEventSynced(e *models.Event, outcome models.Outcome) *EventSynced {
	syncedAt := time.Now().UTC()
	if e.SourceSyncedAt != nil {
		syncedAt = e.SourceSyncedAt.UTC()
	}
	return &EventSynced{
		EventID:       e.ID,
		Slug:          e.Slug,
		Source:        e.Source,
		SourceEventID: e.SourceEventID,
		Outcome:       string(outcome),
		SyncedAt:      syncedAt,
	}
}

// Validate checks that the required fields are set and the outcome is one
// that produces a notification.
func (e *EventSynced) Validate() error {
	switch {
	case e.EventID == "":
		return fmt.Errorf("%w: event_id is required", ErrInvalidEvent)
	case e.Slug == "":
		return fmt.Errorf("%w: slug is required", ErrInvalidEvent)
	case e.Source == "":
		return fmt.Errorf("%w: source is required", ErrInvalidEvent)
	case e.SourceEventID == "":
		return fmt.Errorf("%w: source_event_id is required", ErrInvalidEvent)
	case e.SyncedAt.IsZero():
		return fmt.Errorf("%w: synced_at is required", ErrInvalidEvent)
	}
	switch models.Outcome(e.Outcome) {
	case models.OutcomeCreated, models.OutcomeUpdated:
		return nil
	default:
		return fmt.Errorf("%w: outcome %q is not published", ErrInvalidEvent, e.Outcome)
	}
}
