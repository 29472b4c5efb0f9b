// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/tomtom215/eventsync/internal/config"
	"github.com/tomtom215/eventsync/internal/logging"
	"github.com/tomtom215/eventsync/internal/metrics"
	"github.com/tomtom215/eventsync/internal/models"
)

// Run executes one pipeline run over areas in order and returns its report.
//
// Only configuration errors are returned; everything else is recorded in the
// report. The run is detached from ctx cancellation and always completes its
// area and item loops once started.
func (m *Manager) Run(ctx context.Context, areas []config.AreaConfig) (*models.SyncReport, error) {
	if err := m.checkConfig(areas); err != nil {
		metrics.RecordSyncFatal()
		return nil, err
	}

	ctx = logging.ContextWithNewCorrelationID(context.WithoutCancel(ctx))

	if err := m.retryWithBackoff(ctx, func() error { return m.store.Ping(ctx) }); err != nil {
		metrics.RecordSyncFatal()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}

	metrics.SyncInProgress.Set(1)
	defer metrics.SyncInProgress.Set(0)

	start := m.now()
	report := &models.SyncReport{
		RunID:     uuid.NewString(),
		Source:    m.cfg.Sync.Source,
		StartedAt: start.UTC(),
		Errors:    []string{},
		Areas:     make([]models.AreaReport, 0, len(areas)),
	}
	windowStart := m.windowStart(start)

	logging.Ctx(ctx).Info().
		Str("run_id", report.RunID).
		Int("areas", len(areas)).
		Str("window_start", windowStart.Format("2006-01-02")).
		Msg("Sync run started")

	areaPacer := newPacer(m.cfg.Sync.AreaDelay)
	itemPacer := newPacer(m.cfg.Sync.ItemDelay)

	for _, area := range areas {
		// Wait never fails here: ctx carries no deadline or cancellation.
		_ = areaPacer.Wait(ctx)
		m.syncArea(ctx, area, windowStart, report, itemPacer)
	}

	report.FinishedAt = m.now().UTC()
	report.DurationMs = report.FinishedAt.Sub(report.StartedAt).Milliseconds()
	metrics.RecordSyncRun(report, report.FinishedAt.Sub(report.StartedAt))

	event := logging.Ctx(ctx).Info()
	if !report.OK() {
		event = logging.Ctx(ctx).Warn()
	}
	event.
		Str("run_id", report.RunID).
		Int("fetched", report.TotalFetched).
		Int("created", report.Created).
		Int("updated", report.Updated).
		Int("skipped", report.Skipped).
		Int("invalid", report.Invalid).
		Int("errors", len(report.Errors)).
		Int64("duration_ms", report.DurationMs).
		Msg("Sync run finished")

	m.mu.Lock()
	m.lastReport = report
	callback := m.onSyncCompleted
	m.mu.Unlock()

	if callback != nil {
		callback(report)
	}
	return report, nil
}

func (m *Manager) checkConfig(areas []config.AreaConfig) error {
	switch {
	case len(areas) == 0:
		return ErrNoAreas
	case m.store == nil:
		return ErrNoStore
	case m.fetcher == nil:
		return ErrNoFetcher
	}
	return nil
}

// windowStart is the listing date floor: today (UTC) plus the lookahead.
func (m *Manager) windowStart(now time.Time) time.Time {
	y, mo, d := now.UTC().Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, m.cfg.Sync.LookaheadDays)
}

// syncArea fetches one area and reconciles its listings one at a time.
func (m *Manager) syncArea(ctx context.Context, area config.AreaConfig, windowStart time.Time, report *models.SyncReport, itemPacer *rate.Limiter) {
	report.Areas = append(report.Areas, models.AreaReport{Key: area.Key, City: area.FallbackCity(), Country: area.Country})
	ar := &report.Areas[len(report.Areas)-1]

	listings, err := m.fetcher.FetchListings(ctx, area.Key, windowStart)
	metrics.RecordAreaFetch(area.Key, len(listings), err)
	if err != nil {
		ar.Error = err.Error()
		report.AddError(fmt.Sprintf("area %s: %v", area.Key, err))
		logging.Ctx(ctx).Warn().Err(err).Str("area", area.Key).Msg("Area fetch failed, continuing with next area")
		return
	}

	ar.Fetched = len(listings)
	report.TotalFetched += len(listings)

	opts := NormalizeOptions{
		FallbackCity:    area.FallbackCity(),
		FallbackCountry: area.Country,
		SiteURL:         m.cfg.Upstream.SiteURL,
		Source:          m.cfg.Sync.Source,
		Language:        m.cfg.Sync.Language,
	}

	for i := range listings {
		_ = itemPacer.Wait(ctx)

		candidate, err := Normalize(&listings[i], opts)
		if err != nil {
			report.Invalid++
			ar.Invalid++
			report.AddError(fmt.Sprintf("area %s: item %d: %v", area.Key, i, err))
			logging.Ctx(ctx).Debug().Err(err).Str("area", area.Key).Int("index", i).Msg("Listing rejected")
			continue
		}

		res := m.reconciler.Reconcile(ctx, candidate)
		report.Record(ar, res.Outcome)

		switch res.Outcome {
		case models.OutcomeSkipped:
			report.AddError(fmt.Sprintf("area %s: %s: %v", area.Key, candidate.SourceEventID, res.Err))
			logging.Ctx(ctx).Warn().Err(res.Err).Str("area", area.Key).Str("source_event_id", candidate.SourceEventID).Msg("Listing skipped")
		default:
			m.publish(ctx, res)
		}
	}

	logging.Ctx(ctx).Info().
		Str("area", area.Key).
		Int("fetched", ar.Fetched).
		Int("created", ar.Created).
		Int("updated", ar.Updated).
		Int("skipped", ar.Skipped).
		Int("invalid", ar.Invalid).
		Msg("Area synced")
}

func (m *Manager) publish(ctx context.Context, res ReconcileResult) {
	m.mu.RLock()
	p := m.publisher
	m.mu.RUnlock()

	if p == nil || res.Event == nil {
		return
	}
	if err := p.PublishEventSynced(ctx, res.Event, res.Outcome); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("slug", res.Slug).Msg("Failed to publish EventSynced")
	}
}

// newPacer returns a limiter that lets the first call through immediately
// and spaces later calls at least delay apart.
func newPacer(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}
