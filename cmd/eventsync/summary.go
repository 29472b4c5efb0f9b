// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/tomtom215/eventsync/internal/models"
)

// writeSummary prints the human-readable run summary.
func writeSummary(w io.Writer, r *models.SyncReport) {
	status := "ok"
	if !r.OK() {
		status = "completed with warnings"
	}

	fmt.Fprintf(w, "Sync %s (%s): %s in %s\n", r.RunID, r.Source, status, time.Duration(r.DurationMs)*time.Millisecond)
	fmt.Fprintf(w, "  fetched=%d created=%d updated=%d skipped=%d invalid=%d\n",
		r.TotalFetched, r.Created, r.Updated, r.Skipped, r.Invalid)

	for _, a := range r.Areas {
		place := a.City
		if a.Country != "" {
			place += ", " + a.Country
		}
		fmt.Fprintf(w, "  %-16s %-28s fetched=%d created=%d updated=%d skipped=%d invalid=%d",
			a.Key, place, a.Fetched, a.Created, a.Updated, a.Skipped, a.Invalid)
		if a.Error != "" {
			fmt.Fprintf(w, " error=%q", a.Error)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintf(w, "Errors (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  - %s\n", e)
		}
	}
}
