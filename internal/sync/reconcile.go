// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/eventsync/internal/cache"
	"github.com/tomtom215/eventsync/internal/logging"
	"github.com/tomtom215/eventsync/internal/metrics"
	"github.com/tomtom215/eventsync/internal/models"
	"github.com/tomtom215/eventsync/internal/slug"
)

// lookupTable scopes lookup cache keys.
const lookupTable = "events"

// EventStore is the persistence boundary of the pipeline.
type EventStore interface {
	Ping(ctx context.Context) error

	// FindEventBySourceID returns nil and no error when no event matches.
	FindEventBySourceID(ctx context.Context, source, sourceEventID string) (*models.Event, error)

	// InsertEvent returns models.ErrSlugConflict or models.ErrSourceConflict
	// on uniqueness violations.
	InsertEvent(ctx context.Context, e *models.Event) error

	// UpdateEvent returns models.ErrEventNotFound when id does not exist.
	UpdateEvent(ctx context.Context, id string, e *models.Event) error
}

// EventRef is what the lookup cache remembers about a stored event.
type EventRef struct {
	ID   string
	Slug string
}

// NewLookupCache returns the source id lookup cache for ttl, or nil when ttl
// is zero.
func NewLookupCache(ttl time.Duration) *cache.Cache[EventRef] {
	if ttl <= 0 {
		return nil
	}
	return cache.New[EventRef](ttl, ttl)
}

// ReconcileResult is the outcome of reconciling one candidate.
type ReconcileResult struct {
	Outcome models.Outcome
	EventID string
	Slug    string

	// Event is the written record for created and updated outcomes.
	Event *models.Event

	// Err is set for skipped outcomes.
	Err error
}

// Reconciler decides between create, update and skip for candidate events.
// Lookup and write are not atomic; the store's unique constraints catch the
// races that slip through.
type Reconciler struct {
	store   EventStore
	lookups *cache.Cache[EventRef]
	now     func() time.Time
}

// NewReconciler returns a reconciler writing to store. lookups may be nil to
// always ask the store.
func NewReconciler(store EventStore, lookups *cache.Cache[EventRef]) *Reconciler {
	return &Reconciler{store: store, lookups: lookups, now: time.Now}
}

// Reconcile writes candidate to the store. The candidate is never modified.
// Every failure is reported in the result; Reconcile itself does not fail.
func (r *Reconciler) Reconcile(ctx context.Context, candidate *models.Event) (result ReconcileResult) {
	defer func() {
		if p := recover(); p != nil {
			logging.Error().Interface("panic", p).Msg("Recovered panic during reconcile")
			result = skipped(candidate, fmt.Errorf("reconcile panic: %v", p))
		}
	}()

	if candidate == nil {
		return skipped(nil, errors.New("nil candidate"))
	}

	now := r.now().UTC()

	ref, cached, err := r.lookup(ctx, candidate)
	if err != nil {
		return skipped(candidate, fmt.Errorf("lookup %s/%s: %w", candidate.Source, candidate.SourceEventID, err))
	}

	if ref != nil {
		res := r.update(ctx, candidate, *ref, now)
		if !cached || !errors.Is(res.Err, models.ErrEventNotFound) {
			return res
		}

		// The cached row id is stale; forget it and ask the store again.
		r.evict(candidate)
		ref, _, err = r.lookup(ctx, candidate)
		if err != nil {
			return skipped(candidate, fmt.Errorf("lookup %s/%s: %w", candidate.Source, candidate.SourceEventID, err))
		}
		if ref != nil {
			return r.update(ctx, candidate, *ref, now)
		}
	}

	return r.insert(ctx, candidate, now)
}

// lookup resolves the stored row for the candidate's reconciliation key.
// cached reports whether the answer came from the lookup cache.
func (r *Reconciler) lookup(ctx context.Context, candidate *models.Event) (ref *EventRef, cached bool, err error) {
	key := cache.Key(lookupTable, candidate.Source, candidate.SourceEventID)

	if r.lookups != nil {
		if hit, ok := r.lookups.Get(key); ok {
			metrics.RecordLookup(true)
			return &hit, true, nil
		}
		metrics.RecordLookup(false)
	}

	existing, err := r.store.FindEventBySourceID(ctx, candidate.Source, candidate.SourceEventID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, nil
	}

	found := EventRef{ID: existing.ID, Slug: existing.Slug}
	r.remember(candidate, found)
	return &found, false, nil
}

// update overwrites every mapped field of the stored row. The stored slug is
// kept so published URLs stay valid.
func (r *Reconciler) update(ctx context.Context, candidate *models.Event, ref EventRef, now time.Time) ReconcileResult {
	next := candidate.Clone()
	next.ID = ref.ID
	next.Slug = ref.Slug
	next.SourceSynced = true
	next.SourceSyncedAt = &now
	next.Featured = false

	if err := r.store.UpdateEvent(ctx, ref.ID, next); err != nil {
		return skipped(candidate, fmt.Errorf("update %s: %w", ref.ID, err))
	}
	return ReconcileResult{Outcome: models.OutcomeUpdated, EventID: ref.ID, Slug: next.Slug, Event: next}
}

// insert creates the row, retrying once with a disambiguated slug when the
// generated slug is already taken.
func (r *Reconciler) insert(ctx context.Context, candidate *models.Event, now time.Time) ReconcileResult {
	next := candidate.Clone()
	next.SourceSynced = true
	next.SourceSyncedAt = &now
	next.Featured = false

	err := r.store.InsertEvent(ctx, next)
	if errors.Is(err, models.ErrSlugConflict) {
		logging.Debug().Str("slug", next.Slug).Str("source_event_id", next.SourceEventID).Msg("Slug taken, retrying with suffix")
		next = withDisambiguatedSlug(next, r.now())
		err = r.store.InsertEvent(ctx, next)
	}
	if err != nil {
		return skipped(candidate, fmt.Errorf("insert %q: %w", next.Slug, err))
	}

	r.remember(candidate, EventRef{ID: next.ID, Slug: next.Slug})
	return ReconcileResult{Outcome: models.OutcomeCreated, EventID: next.ID, Slug: next.Slug, Event: next}
}

// withDisambiguatedSlug returns a copy of e whose slug carries a timestamp
// suffix. e is not modified.
func withDisambiguatedSlug(e *models.Event, at time.Time) *models.Event {
	c := e.Clone()
	c.Slug = slug.Disambiguate(e.Slug, at)
	return c
}

func (r *Reconciler) remember(candidate *models.Event, ref EventRef) {
	if r.lookups == nil || ref.ID == "" {
		return
	}
	r.lookups.Set(cache.Key(lookupTable, candidate.Source, candidate.SourceEventID), ref)
}

func (r *Reconciler) evict(candidate *models.Event) {
	if r.lookups != nil {
		r.lookups.Delete(cache.Key(lookupTable, candidate.Source, candidate.SourceEventID))
	}
}

func skipped(candidate *models.Event, err error) ReconcileResult {
	res := ReconcileResult{Outcome: models.OutcomeSkipped, Err: err}
	if candidate != nil {
		res.Slug = candidate.Slug
	}
	return res
}
