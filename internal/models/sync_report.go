// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

package models

import "time"

// Outcome is the per-item result of reconciliation.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	OutcomeSkipped Outcome = "skipped"
)

// SyncReport aggregates the outcome of one pipeline run. A run that completed
// with a non-empty Errors list finished with warnings, not as a failure.
type SyncReport struct {
	RunID        string       `json:"run_id"`
	Source       string       `json:"source"`
	StartedAt    time.Time    `json:"started_at"`
	FinishedAt   time.Time    `json:"finished_at"`
	DurationMs   int64        `json:"duration_ms"`
	TotalFetched int          `json:"total_fetched"`
	Created      int          `json:"created"`
	Updated      int          `json:"updated"`
	Skipped      int          `json:"skipped"`
	Invalid      int          `json:"invalid"`
	Errors       []string     `json:"errors"`
	Areas        []AreaReport `json:"areas"`
}

// AreaReport holds the counters of a single area.
type AreaReport struct {
	Key     string `json:"key"`
	City    string `json:"city"`
	Country string `json:"country"`
	Fetched int    `json:"fetched"`
	Created int    `json:"created"`
	Updated int    `json:"updated"`
	Skipped int    `json:"skipped"`
	Invalid int    `json:"invalid"`
	Error   string `json:"error,omitempty"`
}

// OK reports whether the run finished without any error entries.
func (r *SyncReport) OK() bool {
	return len(r.Errors) == 0
}

// Record adds a reconciliation outcome to the run and area counters.
func (r *SyncReport) Record(area *AreaReport, outcome Outcome) {
	switch outcome {
	case OutcomeCreated:
		r.Created++
		area.Created++
	case OutcomeUpdated:
		r.Updated++
		area.Updated++
	case OutcomeSkipped:
		r.Skipped++
		area.Skipped++
	}
}

// AddError appends an error entry to the report.
func (r *SyncReport) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}
