// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

/*
Package config loads and validates Eventsync configuration.

Configuration is layered with koanf: built-in defaults, then an optional YAML
file, then environment variables. A .env file in the working directory is
loaded into the process environment first when present.

# Sections

  - upstream: listing source endpoint, site base URL, page size, HTTP client
  - sync: source discriminator, areas, pacing delays, schedule
  - database: event store driver (duckdb or postgres) and connection
  - server: HTTP listener
  - security: CORS origins and trigger rate limiting
  - publisher: EventSynced notifications (gochannel or nats)
  - logging: level and format

# Areas

Areas are configured as a YAML list or through SYNC_AREAS as a comma separated
list of key:City:Country triples:

	SYNC_AREAS="berlin:Berlin:Germany,uk/london:London:United Kingdom"

City and country are the display fallbacks used when an upstream listing omits
them.
*/
package config
