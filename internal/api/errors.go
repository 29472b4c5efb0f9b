// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

package api

import "fmt"

var errLimit = fmt.Errorf("limit must be an integer between 1 and %d", maxEventsLimit)
