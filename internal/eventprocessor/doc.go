// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

// Package eventprocessor publishes EventSynced notifications for events the
// pipeline created or updated.
//
// Messages go through Watermill, either to an in-process gochannel pub/sub
// or to a NATS JetStream stream:
//
//	sync.Manager ──► SyncEventPublisher ──► Publisher ──► gochannel | JetStream
//
// Publishing is best effort. A failed publish is logged and counted in
// metrics; it never changes a sync report.
//
// Each message carries the JSON payload
//
//	{"event_id", "slug", "source", "source_event_id", "outcome", "synced_at"}
//
// and the metadata keys source, outcome and correlation_id. On JetStream the
// message UUID doubles as Nats-Msg-Id so duplicate publishes inside the
// stream's duplicate window are dropped.
package eventprocessor
