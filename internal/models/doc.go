// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

// Package models defines the data types shared across the ingestion pipeline:
// raw upstream listings, canonical events and the sync report.
package models
