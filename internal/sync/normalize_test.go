// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

package sync

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/eventsync/internal/models"
)

func defaultOpts() NormalizeOptions {
	return NormalizeOptions{
		FallbackCity:    "berlin",
		FallbackCountry: "Germany",
		SiteURL:         "https://ra.co",
		Source:          "ra",
		Language:        "en",
	}
}

func TestNormalizeReferenceListing(t *testing.T) {
	t.Parallel()

	raw := undergroundNight()
	e, err := Normalize(&raw, defaultOpts())
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if e.Slug != "123-underground-night" {
		t.Errorf("Expected slug 123-underground-night, got %q", e.Slug)
	}
	if e.City != "Berlin" || e.Country != "Germany" {
		t.Errorf("Expected Berlin/Germany, got %s/%s", e.City, e.Country)
	}
	if len(e.Lineup) != 2 || e.Lineup[0] != "DJ A" || e.Lineup[1] != "DJ B" {
		t.Errorf("Expected lineup [DJ A DJ B], got %v", e.Lineup)
	}
	if !strings.Contains(e.Description, "Club X") || !strings.Contains(e.Description, "DJ A, DJ B") {
		t.Errorf("Description missing venue or lineup: %q", e.Description)
	}
	if want := time.Date(2025, 3, 1, 22, 0, 0, 0, time.UTC); !e.StartsAt.Equal(want) {
		t.Errorf("Expected starts_at %v, got %v", want, e.StartsAt)
	}
	if e.Source != "ra" || e.SourceEventID != "123" {
		t.Errorf("Expected reconciliation key ra/123, got %s/%s", e.Source, e.SourceEventID)
	}
	if e.Featured {
		t.Error("Synced events must not be featured")
	}
	if e.Language != "en" {
		t.Errorf("Expected language en, got %q", e.Language)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	t.Parallel()

	raw := models.RawListing{ID: sourceID("9"), Date: strPtr("2025-05-01")}
	e, err := Normalize(&raw, defaultOpts())
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if e.Title != UntitledEvent {
		t.Errorf("Expected title %q, got %q", UntitledEvent, e.Title)
	}
	if e.VenueName != "Venue TBA" {
		t.Errorf("Expected venue exactly \"Venue TBA\", got %q", e.VenueName)
	}
	if e.City != "berlin" || e.Country != "Germany" {
		t.Errorf("Expected fallback location berlin/Germany, got %s/%s", e.City, e.Country)
	}
	if e.Lineup == nil || len(e.Lineup) != 0 {
		t.Errorf("Expected empty non-nil lineup, got %#v", e.Lineup)
	}
	if e.ImageURL != nil || e.TicketURL != nil {
		t.Errorf("Expected nil image and ticket url, got %v %v", e.ImageURL, e.TicketURL)
	}
	if e.Description != "Event at Venue TBA." {
		t.Errorf("Unexpected description %q", e.Description)
	}
	if e.Slug != "9-untitled-event" {
		t.Errorf("Expected slug 9-untitled-event, got %q", e.Slug)
	}
}

func TestNormalizeBlankVenueName(t *testing.T) {
	t.Parallel()

	raw := models.RawListing{
		ID:    sourceID("10"),
		Title: strPtr("Open Air"),
		Date:  strPtr("2025-05-01"),
		Venue: &models.RawVenue{Name: strPtr("   ")},
	}
	e, err := Normalize(&raw, defaultOpts())
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if e.VenueName != VenueTBA {
		t.Errorf("Expected %q, got %q", VenueTBA, e.VenueName)
	}
}

func TestNormalizeRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  models.RawListing
		want error
	}{
		{"missing date", models.RawListing{ID: sourceID("1"), Title: strPtr("x")}, ErrInvalidDate},
		{"garbage date", models.RawListing{ID: sourceID("1"), Date: strPtr("next friday")}, ErrInvalidDate},
		{"blank date", models.RawListing{ID: sourceID("1"), Date: strPtr("  ")}, ErrInvalidDate},
		{"missing id", models.RawListing{Date: strPtr("2025-05-01")}, ErrMissingSourceID},
		{"blank id", models.RawListing{ID: sourceID(" "), Date: strPtr("2025-05-01")}, ErrMissingSourceID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e, err := Normalize(&tt.raw, defaultOpts())
			if !errors.Is(err, tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, err)
			}
			if e != nil {
				t.Errorf("Expected no event, got %+v", e)
			}
		})
	}
}

func TestNormalizeNilListing(t *testing.T) {
	t.Parallel()

	if _, err := Normalize(nil, defaultOpts()); !errors.Is(err, ErrMissingSourceID) {
		t.Errorf("Expected ErrMissingSourceID, got %v", err)
	}
}

func TestNormalizeDateLayouts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		start *string
		date  *string
		want  time.Time
	}{
		{nil, strPtr("2025-03-01T22:00:00.000Z"), time.Date(2025, 3, 1, 22, 0, 0, 0, time.UTC)},
		{nil, strPtr("2025-03-01T22:00:00+01:00"), time.Date(2025, 3, 1, 21, 0, 0, 0, time.UTC)},
		{nil, strPtr("2025-03-01T22:00:00.000"), time.Date(2025, 3, 1, 22, 0, 0, 0, time.UTC)},
		{nil, strPtr("2025-03-01"), time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{strPtr("2025-03-01T23:30:00.000"), strPtr("2025-03-01T00:00:00.000"), time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC)},
		{strPtr("late"), strPtr("2025-03-01"), time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		raw := models.RawListing{ID: sourceID("1"), StartTime: tt.start, Date: tt.date}
		e, err := Normalize(&raw, defaultOpts())
		if err != nil {
			t.Errorf("Normalize(date=%v start=%v) failed: %v", *tt.date, tt.start, err)
			continue
		}
		if !e.StartsAt.Equal(tt.want) {
			t.Errorf("Normalize(date=%s) starts_at = %v, want %v", *tt.date, e.StartsAt, tt.want)
		}
	}
}

func TestNormalizeCountryPrecedence(t *testing.T) {
	t.Parallel()

	areaOnly := models.RawListing{
		ID:   sourceID("1"),
		Date: strPtr("2025-05-01"),
		Venue: &models.RawVenue{
			Area: &models.RawArea{Name: strPtr("London"), Country: &models.RawCountry{Name: strPtr("United Kingdom")}},
		},
	}
	e, err := Normalize(&areaOnly, defaultOpts())
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if e.City != "London" || e.Country != "United Kingdom" {
		t.Errorf("Expected London/United Kingdom, got %s/%s", e.City, e.Country)
	}

	both := areaOnly
	both.Venue = &models.RawVenue{
		Area:    areaOnly.Venue.Area,
		Country: &models.RawCountry{Name: strPtr("England")},
	}
	e, err = Normalize(&both, defaultOpts())
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if e.Country != "England" {
		t.Errorf("Expected venue country to win, got %q", e.Country)
	}
}

func TestNormalizeMedia(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		flyer      *string
		images     []models.RawImage
		contentURL *string
		wantImage  string
		wantTicket string
	}{
		{
			name:       "flyer and relative content path",
			flyer:      strPtr("https://img.ra.co/flyer.jpg"),
			images:     []models.RawImage{{Filename: strPtr("https://img.ra.co/other.jpg")}},
			contentURL: strPtr("/events/123"),
			wantImage:  "https://img.ra.co/flyer.jpg",
			wantTicket: "https://ra.co/events/123",
		},
		{
			name:       "first usable image",
			images:     []models.RawImage{{Filename: strPtr("")}, {Filename: strPtr("https://img.ra.co/2.jpg")}},
			contentURL: strPtr("https://tickets.example.com/e/1"),
			wantImage:  "https://img.ra.co/2.jpg",
			wantTicket: "https://tickets.example.com/e/1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			raw := models.RawListing{ID: sourceID("1"), Date: strPtr("2025-05-01"), FlyerFront: tt.flyer, Images: tt.images, ContentURL: tt.contentURL}
			e, err := Normalize(&raw, defaultOpts())
			if err != nil {
				t.Fatalf("Normalize failed: %v", err)
			}
			if e.ImageURL == nil || *e.ImageURL != tt.wantImage {
				t.Errorf("Expected image %q, got %v", tt.wantImage, e.ImageURL)
			}
			if e.TicketURL == nil || *e.TicketURL != tt.wantTicket {
				t.Errorf("Expected ticket %q, got %v", tt.wantTicket, e.TicketURL)
			}
		})
	}
}

func TestNormalizeDescription(t *testing.T) {
	t.Parallel()

	tests := []struct {
		lineup     []string
		interested *int
		want       string
	}{
		{nil, nil, "Event at Club X."},
		{[]string{"DJ A"}, nil, "Event at Club X. Lineup: DJ A."},
		{[]string{"DJ A", "DJ B"}, intPtr(42), "Event at Club X. Lineup: DJ A, DJ B. 42 people interested."},
		{nil, intPtr(7), "Event at Club X. 7 people interested."},
		{nil, intPtr(0), "Event at Club X."},
	}

	for _, tt := range tests {
		if got := describe("Club X", tt.lineup, tt.interested); got != tt.want {
			t.Errorf("describe(%v, %v) = %q, want %q", tt.lineup, tt.interested, got, tt.want)
		}
	}
}

func TestNormalizeSkipsBlankArtists(t *testing.T) {
	t.Parallel()

	raw := models.RawListing{
		ID:      sourceID("1"),
		Date:    strPtr("2025-05-01"),
		Artists: []models.RawArtist{{Name: strPtr("B2B")}, {Name: nil}, {Name: strPtr(" ")}, {Name: strPtr("Closing Set")}},
	}
	e, err := Normalize(&raw, defaultOpts())
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(e.Lineup) != 2 || e.Lineup[0] != "B2B" || e.Lineup[1] != "Closing Set" {
		t.Errorf("Expected billing order without blanks, got %v", e.Lineup)
	}
}
