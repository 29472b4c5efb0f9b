// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

/*
Package sync implements the event ingestion and reconciliation pipeline.

A run walks the configured areas in order. For every area it fetches the
upstream listings, normalizes each raw listing into a canonical event and
reconciles it against the event store by its (source, source_event_id) key:

	Manager.Run -> Fetcher.FetchListings (per area)
	            -> Normalize (per listing)
	            -> Reconciler.Reconcile (per event) -> EventStore

Failures below the manager never abort a run. A failed area fetch, an
unparseable listing or a failed write each become an entry in the report's
Errors list and the run continues. Only configuration errors (ErrNoAreas,
ErrNoStore, ErrNoFetcher, ErrStoreUnreachable) are returned as errors.

Key Components:

  - UpstreamClient: GraphQL POST client with HTTP 429 backoff
  - CircuitBreakerFetcher: gobreaker wrapper that fails fast on a dead upstream
  - Normalize: raw listing to canonical event mapping with fallbacks
  - Reconciler: create, update or skip with one slug-conflict retry
  - Manager: run orchestration, pacing, scheduling and run serialization

Usage Example:

	client := sync.NewUpstreamClient(&cfg.Upstream)
	fetcher := sync.NewCircuitBreakerFetcher(client, "upstream-listings")
	manager := sync.NewManager(store, fetcher, cfg)
	defer manager.Close()

	report, err := manager.Run(ctx, cfg.Sync.Areas)
	if err != nil {
	    return err // configuration error, nothing was fetched
	}
	if !report.OK() {
	    // completed with warnings
	}

Thread Safety:

Items are processed strictly sequentially within a run. TriggerSync
serializes runs inside one process and returns ErrSyncInProgress instead of
queueing. Runs in separate processes are not coordinated; the store's unique
constraints are the only guard there.
*/
package sync
