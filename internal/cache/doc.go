// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

/*
Package cache provides a small thread-safe TTL cache.

The reconciler uses it to remember which stored event a (source, source event
id) pair maps to, so repeated runs within the TTL skip the lookup query. The
cache is an explicit value handed to its user; there is no package-level state.

Keys are table scoped so entries for different tables never collide:

	key := cache.Key("events", "ra", "123")   // "events:ra:123"
	c.Set(key, eventID)
	if id, ok := c.Get(key); ok {
	    ...
	}

Only facts that stay true while the TTL runs should be cached. Expired
entries are dropped lazily on Get and by a periodic sweep that Close stops.
*/
package cache
