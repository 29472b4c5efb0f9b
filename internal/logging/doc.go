// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

// Package logging provides the zerolog-based structured logger shared by every
// Eventsync component.
//
// A single global logger is configured once from main via Init and used through
// the level helpers:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("area", key).Int("fetched", n).Msg("Area fetched")
//	logging.Err(err).Str("area", key).Msg("Area fetch failed")
//
// Context helpers attach correlation and request IDs so a sync run triggered over
// HTTP can be followed through fetch, normalize and reconcile log lines:
//
//	ctx = logging.ContextWithNewCorrelationID(ctx)
//	logging.Ctx(ctx).Info().Msg("Sync started")
//
// Libraries that expect a *slog.Logger (suture supervision, watermill) receive
// one backed by the same zerolog output through NewSlogLogger.
//
// Always terminate event chains with Msg or Send; an unterminated chain is never
// written.
package logging
