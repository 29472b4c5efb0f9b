// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

package models

import "time"

// Event is the canonical, persisted representation of one upstream listing.
type Event struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	VenueName   string    `json:"venue_name"`
	City        string    `json:"city"`
	Country     string    `json:"country"`
	StartsAt    time.Time `json:"starts_at"`
	ImageURL    *string   `json:"image_url,omitempty"`
	TicketURL   *string   `json:"ticket_url,omitempty"`
	Lineup      []string  `json:"lineup"`

	// Source and SourceEventID form the reconciliation key.
	Source         string     `json:"source"`
	SourceEventID  string     `json:"source_event_id"`
	SourceSynced   bool       `json:"source_synced"`
	SourceSyncedAt *time.Time `json:"source_synced_at,omitempty"`

	Language  string    `json:"language"`
	Featured  bool      `json:"featured"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy so callers can derive a modified candidate without
// touching the original.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	c := *e
	if e.Lineup != nil {
		c.Lineup = append([]string(nil), e.Lineup...)
	}
	if e.ImageURL != nil {
		v := *e.ImageURL
		c.ImageURL = &v
	}
	if e.TicketURL != nil {
		v := *e.TicketURL
		c.TicketURL = &v
	}
	if e.SourceSyncedAt != nil {
		v := *e.SourceSyncedAt
		c.SourceSyncedAt = &v
	}
	return &c
}

// EventList is the response body of the events listing endpoint.
type EventList struct {
	Events []Event `json:"events"`
	Total  int     `json:"total"`
}
