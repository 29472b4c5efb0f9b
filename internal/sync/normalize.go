// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

package sync

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/eventsync/internal/models"
	"github.com/tomtom215/eventsync/internal/slug"
)

const (
	// UntitledEvent replaces a missing or blank upstream title.
	UntitledEvent = "Untitled Event"

	// VenueTBA replaces a missing or blank venue name.
	VenueTBA = "Venue TBA"
)

var (
	// ErrMissingSourceID rejects listings that cannot be reconciled.
	ErrMissingSourceID = errors.New("listing has no source id")

	// ErrInvalidDate rejects listings without a parseable start date.
	ErrInvalidDate = errors.New("listing has no valid date")

	// ErrMalformedListing rejects items the upstream sent in an unexpected shape.
	ErrMalformedListing = errors.New("malformed listing")
)

// dateLayouts are tried in order. Layouts without a zone are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NormalizeOptions carries the per-area and per-run context of Normalize.
type NormalizeOptions struct {
	// FallbackCity and FallbackCountry fill location fields the upstream left blank.
	FallbackCity    string
	FallbackCountry string

	// SiteURL is the base relative content paths are resolved against.
	SiteURL string

	Source   string
	Language string
}

// Normalize maps a raw listing to an unsaved canonical event. Missing optional
// fields get defaults; only a missing id or an unparseable date is an error.
func Normalize(raw *models.RawListing, opts NormalizeOptions) (*models.Event, error) {
	if raw == nil {
		return nil, ErrMissingSourceID
	}
	if raw.DecodeErr != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrMalformedListing, raw.ID.String(), raw.DecodeErr)
	}

	sourceID := strings.TrimSpace(raw.ID.String())
	if sourceID == "" {
		return nil, ErrMissingSourceID
	}

	startsAt, err := parseStart(raw.StartTime, raw.Date)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", sourceID, err)
	}

	title := trimmed(raw.Title)
	if title == "" {
		title = UntitledEvent
	}

	venue := VenueTBA
	if raw.Venue != nil {
		if name := trimmed(raw.Venue.Name); name != "" {
			venue = name
		}
	}

	lineup := artistNames(raw.Artists)

	e := &models.Event{
		Slug:          slug.Generate(title, sourceID),
		Title:         title,
		Description:   describe(venue, lineup, raw.InterestedCount),
		VenueName:     venue,
		City:          cityOf(raw.Venue, opts.FallbackCity),
		Country:       countryOf(raw.Venue, opts.FallbackCountry),
		StartsAt:      startsAt,
		ImageURL:      imageOf(raw),
		TicketURL:     ticketURL(raw.ContentURL, opts.SiteURL),
		Lineup:        lineup,
		Source:        opts.Source,
		SourceEventID: sourceID,
		Language:      opts.Language,
		Featured:      false,
	}
	return e, nil
}

// parseStart prefers the start time and falls back to the listing date.
func parseStart(startTime, date *string) (time.Time, error) {
	for _, candidate := range []*string{startTime, date} {
		if t, ok := parseDate(trimmed(candidate)); ok {
			return t, nil
		}
	}
	if v := trimmed(date); v != "" {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, v)
	}
	return time.Time{}, ErrInvalidDate
}

func parseDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func cityOf(venue *models.RawVenue, fallback string) string {
	if venue != nil && venue.Area != nil {
		if name := trimmed(venue.Area.Name); name != "" {
			return name
		}
	}
	return fallback
}

// countryOf prefers the venue country, then the area country.
func countryOf(venue *models.RawVenue, fallback string) string {
	if venue == nil {
		return fallback
	}
	if venue.Country != nil {
		if name := trimmed(venue.Country.Name); name != "" {
			return name
		}
	}
	if venue.Area != nil && venue.Area.Country != nil {
		if name := trimmed(venue.Area.Country.Name); name != "" {
			return name
		}
	}
	return fallback
}

func artistNames(artists []models.RawArtist) []string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		if name := trimmed(a.Name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// imageOf returns the flyer, else the first image with a filename.
func imageOf(raw *models.RawListing) *string {
	if flyer := trimmed(raw.FlyerFront); flyer != "" {
		return &flyer
	}
	for _, img := range raw.Images {
		if name := trimmed(img.Filename); name != "" {
			return &name
		}
	}
	return nil
}

// ticketURL resolves the upstream content path against the site URL.
// Absolute content URLs are kept as they are.
func ticketURL(contentURL *string, siteURL string) *string {
	path := trimmed(contentURL)
	if path == "" {
		return nil
	}

	ref, err := url.Parse(path)
	if err != nil {
		return nil
	}
	if ref.IsAbs() {
		s := ref.String()
		return &s
	}

	base, err := url.Parse(siteURL)
	if err != nil || !base.IsAbs() {
		return nil
	}
	s := base.ResolveReference(ref).String()
	return &s
}

// describe builds the generated description, e.g.
// "Event at Club X. Lineup: DJ A, DJ B. 42 people interested."
func describe(venue string, lineup []string, interested *int) string {
	var b strings.Builder
	b.WriteString("Event at ")
	b.WriteString(venue)
	if len(lineup) > 0 {
		b.WriteString(". Lineup: ")
		b.WriteString(strings.Join(lineup, ", "))
	}
	if interested != nil && *interested > 0 {
		b.WriteString(". ")
		b.WriteString(strconv.Itoa(*interested))
		b.WriteString(" people interested.")
	} else {
		b.WriteString(".")
	}
	return b.String()
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
