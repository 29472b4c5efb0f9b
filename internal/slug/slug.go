// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

// Package slug derives URL-stable identifiers for canonical events.
package slug

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength is the maximum length, in characters, of a generated slug.
const MaxLength = 100

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Generate builds the slug for an upstream item: the lowercased title with
// diacritics removed and every run of other characters collapsed to a single
// hyphen, prefixed with the source id. The prefixed result is cut at MaxLength,
// so very long titles may be truncated mid-word.
//
// A title that reduces to nothing yields the source id alone.
func Generate(title, sourceID string) string {
	body := slugify(title)

	var s string
	switch {
	case sourceID == "":
		s = body
	case body == "":
		s = sourceID
	default:
		s = sourceID + "-" + body
	}
	return truncate(s, MaxLength)
}

// Disambiguate returns slug suffixed with the nanosecond timestamp of at. The
// suffix is appended after truncation, so the result may exceed MaxLength.
func Disambiguate(slug string, at time.Time) string {
	return slug + "-" + strconv.FormatInt(at.UnixNano(), 10)
}

func slugify(input string) string {
	s := stripDiacritics(strings.ToLower(input))
	s = nonSlugChars.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
