// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

package sync

import (
	"context"
	"fmt"
	stdsync "sync"
	"time"

	"github.com/tomtom215/eventsync/internal/config"
	"github.com/tomtom215/eventsync/internal/models"
)

// newTestConfig returns a config with pacing and retries shrunk for tests.
func newTestConfig(areas ...config.AreaConfig) *config.Config {
	return &config.Config{
		Upstream: config.UpstreamConfig{
			Endpoint:  "http://upstream.invalid/graphql",
			SiteURL:   "https://ra.co",
			PageSize:  50,
			Timeout:   5 * time.Second,
			UserAgent: "eventsync-test",
		},
		Sync: config.SyncConfig{
			Source:        "ra",
			Language:      "en",
			Areas:         areas,
			Interval:      time.Hour,
			RetryAttempts: 2,
			RetryDelay:    time.Millisecond,
		},
		Logging: config.LoggingConfig{Level: "error"},
	}
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }

func sourceID(s string) *models.SourceID {
	id := models.SourceID(s)
	return &id
}

// memStore is an in-memory EventStore enforcing the same unique constraints
// as the real stores. Hooks run before the default behavior.
type memStore struct {
	mu      stdsync.Mutex
	events  map[string]*models.Event
	nextID  int
	pingErr error

	onFind   func(source, id string) (*models.Event, error)
	onInsert func(e *models.Event) error
	onUpdate func(id string, e *models.Event) error

	finds, inserts, updates int
}

func newMemStore() *memStore {
	return &memStore{events: make(map[string]*models.Event)}
}

func (s *memStore) Ping(context.Context) error {
	return s.pingErr
}

func (s *memStore) FindEventBySourceID(_ context.Context, source, sourceEventID string) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finds++

	if s.onFind != nil {
		return s.onFind(source, sourceEventID)
	}
	for _, e := range s.events {
		if e.Source == source && e.SourceEventID == sourceEventID {
			return e.Clone(), nil
		}
	}
	return nil, nil
}

func (s *memStore) InsertEvent(_ context.Context, e *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts++

	if s.onInsert != nil {
		if err := s.onInsert(e); err != nil {
			return err
		}
	}
	for _, existing := range s.events {
		if existing.Slug == e.Slug {
			return fmt.Errorf("insert: %w", models.ErrSlugConflict)
		}
		if existing.Source == e.Source && existing.SourceEventID == e.SourceEventID {
			return fmt.Errorf("insert: %w", models.ErrSourceConflict)
		}
	}

	s.nextID++
	now := time.Now().UTC()
	e.ID = fmt.Sprintf("evt-%d", s.nextID)
	e.CreatedAt = now
	e.UpdatedAt = now
	s.events[e.ID] = e.Clone()
	return nil
}

func (s *memStore) UpdateEvent(_ context.Context, id string, e *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates++

	if s.onUpdate != nil {
		if err := s.onUpdate(id, e); err != nil {
			return err
		}
	}
	existing, ok := s.events[id]
	if !ok {
		return fmt.Errorf("update: %w", models.ErrEventNotFound)
	}

	next := e.Clone()
	next.ID = id
	next.Slug = existing.Slug
	next.Source = existing.Source
	next.SourceEventID = existing.SourceEventID
	next.CreatedAt = existing.CreatedAt
	next.UpdatedAt = time.Now().UTC()
	s.events[id] = next
	return nil
}

func (s *memStore) all() []*models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Clone())
	}
	return out
}

func (s *memStore) bySourceID(id string) *models.Event {
	for _, e := range s.all() {
		if e.SourceEventID == id {
			return e
		}
	}
	return nil
}

// stubFetcher serves canned listings per area key.
type stubFetcher struct {
	mu       stdsync.Mutex
	listings map[string][]models.RawListing
	errs     map[string]error
	calls    []string
	fetch    func(ctx context.Context, areaKey string) ([]models.RawListing, error)
}

func (f *stubFetcher) FetchListings(ctx context.Context, areaKey string, _ time.Time) ([]models.RawListing, error) {
	f.mu.Lock()
	f.calls = append(f.calls, areaKey)
	f.mu.Unlock()

	if f.fetch != nil {
		return f.fetch(ctx, areaKey)
	}
	if err := f.errs[areaKey]; err != nil {
		return nil, err
	}
	return f.listings[areaKey], nil
}

// recordingPublisher captures EventSynced notifications.
type recordingPublisher struct {
	mu       stdsync.Mutex
	outcomes []models.Outcome
	slugs    []string
	err      error
}

func (p *recordingPublisher) PublishEventSynced(_ context.Context, e *models.Event, outcome models.Outcome) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outcomes = append(p.outcomes, outcome)
	p.slugs = append(p.slugs, e.Slug)
	return p.err
}

// undergroundNight is the reference listing used across the pipeline tests.
func undergroundNight() models.RawListing {
	return models.RawListing{
		ID:    sourceID("123"),
		Title: strPtr("Ünderground Night!!"),
		Date:  strPtr("2025-03-01T22:00:00Z"),
		Venue: &models.RawVenue{
			Name:    strPtr("Club X"),
			Area:    &models.RawArea{Name: strPtr("Berlin")},
			Country: &models.RawCountry{Name: strPtr("Germany")},
		},
		Artists: []models.RawArtist{{Name: strPtr("DJ A")}, {Name: strPtr("DJ B")}},
	}
}
