// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/eventsync/internal/cache"
	"github.com/tomtom215/eventsync/internal/config"
	"github.com/tomtom215/eventsync/internal/logging"
	"github.com/tomtom215/eventsync/internal/models"
)

// Configuration errors. These are the only errors Run returns.
var (
	ErrNoAreas          = errors.New("no areas configured")
	ErrNoStore          = errors.New("no event store configured")
	ErrNoFetcher        = errors.New("no listing fetcher configured")
	ErrStoreUnreachable = errors.New("event store unreachable")
)

var (
	// ErrSyncInProgress is returned by TriggerSync while another run executes.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrUnknownArea is returned by Areas for keys that are not configured.
	ErrUnknownArea = errors.New("unknown area")
)

// EventPublisher receives created and updated events. Publishing is best
// effort; errors are logged and never change the report.
type EventPublisher interface {
	PublishEventSynced(ctx context.Context, e *models.Event, outcome models.Outcome) error
}

// Manager orchestrates pipeline runs.
type Manager struct {
	store      EventStore
	fetcher    Fetcher
	publisher  EventPublisher
	cfg        *config.Config
	lookups    *cache.Cache[EventRef]
	reconciler *Reconciler

	lastReport      *models.SyncReport
	running         bool
	onSyncCompleted func(report *models.SyncReport)
	mu              sync.RWMutex
	syncMu          sync.Mutex // Serializes runs started through TriggerSync
	stopChan        chan struct{}
	wg              sync.WaitGroup

	now func() time.Time
}

// NewManager creates a manager. A nil store or fetcher is reported by Run as
// a configuration error.
func NewManager(store EventStore, fetcher Fetcher, cfg *config.Config) *Manager {
	m := &Manager{
		store:    store,
		fetcher:  fetcher,
		cfg:      cfg,
		lookups:  NewLookupCache(cfg.Sync.LookupCacheTTL),
		now:      time.Now,
	}
	if store != nil {
		m.reconciler = NewReconciler(store, m.lookups)
	}

	logging.Info().
		Str("source", cfg.Sync.Source).
		Int("areas", len(cfg.Sync.Areas)).
		Dur("item_delay", cfg.Sync.ItemDelay).
		Dur("area_delay", cfg.Sync.AreaDelay).
		Dur("lookup_cache_ttl", cfg.Sync.LookupCacheTTL).
		Msg("Sync manager config loaded")

	return m
}

// SetPublisher sets the EventSynced publisher. nil disables publishing.
func (m *Manager) SetPublisher(p EventPublisher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publisher = p
}

// SetOnSyncCompleted sets the callback invoked after each completed run.
func (m *Manager) SetOnSyncCompleted(callback func(report *models.SyncReport)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onSyncCompleted = callback
}

// Start begins periodic runs when scheduling is enabled.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("sync manager is already running")
	}
	m.running = true
	m.stopChan = make(chan struct{})
	stop := m.stopChan
	m.mu.Unlock()

	if !m.cfg.Sync.ScheduleEnabled {
		logging.Info().Msg("Scheduled sync disabled; runs are triggered on demand")
		return nil
	}

	logging.Info().Dur("interval", m.cfg.Sync.Interval).Bool("run_on_startup", m.cfg.Sync.RunOnStartup).Msg("Starting scheduled sync")

	m.wg.Add(1)
	go m.syncLoop(ctx, stop)
	return nil
}

// Stop ends the schedule and waits for an in-flight scheduled run.
func (m *Manager) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return fmt.Errorf("sync manager is not running")
	}
	m.running = false
	close(m.stopChan)
	m.mu.Unlock()

	logging.Info().Msg("Stopping sync manager...")
	m.wg.Wait()
	logging.Info().Msg("Sync manager stopped")
	return nil
}

// Close releases the lookup cache.
func (m *Manager) Close() {
	if m.lookups != nil {
		m.lookups.Close()
	}
}

func (m *Manager) syncLoop(ctx context.Context, stop <-chan struct{}) {
	defer m.wg.Done()

	if m.cfg.Sync.RunOnStartup {
		m.scheduledRun(ctx)
	}

	ticker := time.NewTicker(m.cfg.Sync.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			m.scheduledRun(ctx)
		}
	}
}

func (m *Manager) scheduledRun(ctx context.Context) {
	_, err := m.TriggerSync(ctx)
	switch {
	case errors.Is(err, ErrSyncInProgress):
		logging.Info().Msg("Scheduled sync skipped, a run is already in progress")
	case err != nil:
		logging.Error().Err(err).Msg("Scheduled sync failed")
	}
}

// TriggerSync runs against every configured area.
func (m *Manager) TriggerSync(ctx context.Context) (*models.SyncReport, error) {
	return m.TriggerSyncAreas(ctx, m.cfg.Sync.Areas)
}

// TriggerSyncAreas runs against areas unless a run is already executing in
// this process, in which case it returns ErrSyncInProgress immediately.
func (m *Manager) TriggerSyncAreas(ctx context.Context, areas []config.AreaConfig) (*models.SyncReport, error) {
	if !m.syncMu.TryLock() {
		return nil, ErrSyncInProgress
	}
	defer m.syncMu.Unlock()

	return m.Run(ctx, areas)
}

// LastReport returns the report of the most recent completed run, or nil.
func (m *Manager) LastReport() *models.SyncReport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastReport
}

// InProgress reports whether a triggered run is executing.
func (m *Manager) InProgress() bool {
	if m.syncMu.TryLock() {
		m.syncMu.Unlock()
		return false
	}
	return true
}

// Areas resolves keys against the configured areas, keeping the order of
// keys. An empty keys slice returns every configured area.
func (m *Manager) Areas(keys []string) ([]config.AreaConfig, error) {
	if len(keys) == 0 {
		return m.cfg.Sync.Areas, nil
	}

	byKey := make(map[string]config.AreaConfig, len(m.cfg.Sync.Areas))
	for _, a := range m.cfg.Sync.Areas {
		byKey[a.Key] = a
	}

	areas := make([]config.AreaConfig, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		a, ok := byKey[k]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownArea, k)
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		areas = append(areas, a)
	}
	return areas, nil
}
