// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

package models

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
)

// RawListing is one upstream listing as returned by the listing source.
// Every field is optional and untrusted; nil means the upstream omitted it.
type RawListing struct {
	ID              *SourceID   `json:"id"`
	Title           *string     `json:"title"`
	Date            *string     `json:"date"`
	StartTime       *string     `json:"startTime"`
	ContentURL      *string     `json:"contentUrl"`
	FlyerFront      *string     `json:"flyerFront"`
	Images          []RawImage  `json:"images"`
	Venue           *RawVenue   `json:"venue"`
	Artists         []RawArtist `json:"artists"`
	InterestedCount *int        `json:"interestedCount"`

	// DecodeErr is set when the upstream item did not match this shape. Only
	// ID is recovered in that case.
	DecodeErr error `json:"-"`
}

// DecodeRawListing decodes one upstream item. A malformed item is returned
// with DecodeErr set instead of failing, so its neighbours still decode.
func DecodeRawListing(data []byte) RawListing {
	var l RawListing
	if err := json.Unmarshal(data, &l); err != nil {
		var idOnly struct {
			ID *SourceID `json:"id"`
		}
		_ = json.Unmarshal(data, &idOnly)
		return RawListing{ID: idOnly.ID, DecodeErr: err}
	}
	return l
}

// RawImage is an entry of the upstream images array.
type RawImage struct {
	Filename *string `json:"filename"`
	Type     *string `json:"type"`
}

// RawVenue describes where the listing takes place.
type RawVenue struct {
	Name    *string     `json:"name"`
	Area    *RawArea    `json:"area"`
	Country *RawCountry `json:"country"`
}

// RawArea is the upstream geographic area of a venue.
type RawArea struct {
	Name    *string     `json:"name"`
	Country *RawCountry `json:"country"`
}

// RawCountry is an upstream country descriptor.
type RawCountry struct {
	Name *string `json:"name"`
}

// RawArtist is one billed artist.
type RawArtist struct {
	Name *string `json:"name"`
}

// SourceID is an upstream identifier that may arrive as a JSON string or number.
type SourceID string

// UnmarshalJSON accepts "123", 123 and null.
func (id *SourceID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("source id: %w", err)
		}
		*id = SourceID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("source id: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*id = SourceID(strconv.FormatInt(i, 10))
		return nil
	}
	*id = SourceID(n.String())
	return nil
}

// String returns the identifier, or "" for a nil receiver.
func (id *SourceID) String() string {
	if id == nil {
		return ""
	}
	return string(*id)
}
