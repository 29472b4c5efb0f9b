// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/eventsync/internal/config"
	"github.com/tomtom215/eventsync/internal/models"
)

func TestTriggerSyncRejectsConcurrentRun(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{})
	release := make(chan struct{})
	fetcher := fetcherFunc(func(context.Context, string, time.Time) ([]models.RawListing, error) {
		close(entered)
		<-release
		return nil, nil
	})
	m := NewManager(newMemStore(), fetcher, newTestConfig(berlin))
	defer m.Close()

	done := make(chan error, 1)
	go func() {
		_, err := m.TriggerSync(context.Background())
		done <- err
	}()

	<-entered
	if !m.InProgress() {
		t.Error("Expected InProgress while a run executes")
	}
	if _, err := m.TriggerSync(context.Background()); !errors.Is(err, ErrSyncInProgress) {
		t.Errorf("Expected ErrSyncInProgress, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Errorf("First run failed: %v", err)
	}
	if m.InProgress() {
		t.Error("Expected no run in progress after completion")
	}
}

func TestManagerLastReportAndCallback(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{listings: map[string][]models.RawListing{"berlin": {undergroundNight()}}}
	m := NewManager(newMemStore(), fetcher, newTestConfig(berlin))
	defer m.Close()

	if m.LastReport() != nil {
		t.Error("Expected no report before the first run")
	}

	var got *models.SyncReport
	m.SetOnSyncCompleted(func(r *models.SyncReport) { got = r })

	report, err := m.TriggerSync(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got != report {
		t.Error("Expected callback to receive the run report")
	}
	if m.LastReport() != report {
		t.Error("Expected LastReport to return the run report")
	}
}

func TestManagerAreas(t *testing.T) {
	t.Parallel()

	london := config.AreaConfig{Key: "uk/london", City: "London", Country: "United Kingdom"}
	m := NewManager(newMemStore(), &stubFetcher{}, newTestConfig(berlin, london))
	defer m.Close()

	all, err := m.Areas(nil)
	if err != nil || len(all) != 2 {
		t.Errorf("Expected all areas, got %v (%v)", all, err)
	}

	picked, err := m.Areas([]string{"uk/london", "berlin", "uk/london"})
	if err != nil {
		t.Fatal(err)
	}
	if len(picked) != 2 || picked[0].Key != "uk/london" || picked[1].Key != "berlin" {
		t.Errorf("Expected requested order without duplicates, got %v", picked)
	}

	if _, err := m.Areas([]string{"paris"}); !errors.Is(err, ErrUnknownArea) {
		t.Errorf("Expected ErrUnknownArea, got %v", err)
	}
}

func TestTriggerSyncAreasSubset(t *testing.T) {
	t.Parallel()

	london := config.AreaConfig{Key: "uk/london"}
	fetcher := &stubFetcher{}
	m := NewManager(newMemStore(), fetcher, newTestConfig(berlin, london))
	defer m.Close()

	areas, err := m.Areas([]string{"uk/london"})
	if err != nil {
		t.Fatal(err)
	}
	report, err := m.TriggerSyncAreas(context.Background(), areas)
	if err != nil {
		t.Fatal(err)
	}
	if len(fetcher.calls) != 1 || fetcher.calls[0] != "uk/london" {
		t.Errorf("Expected only london fetched, got %v", fetcher.calls)
	}
	if len(report.Areas) != 1 || report.Areas[0].City != "uk/london" {
		t.Errorf("Expected key as fallback city, got %+v", report.Areas)
	}
}

func TestManagerStartStopScheduled(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(berlin)
	cfg.Sync.ScheduleEnabled = true
	cfg.Sync.RunOnStartup = true
	cfg.Sync.Interval = time.Hour

	fetcher := &stubFetcher{listings: map[string][]models.RawListing{"berlin": {undergroundNight()}}}
	m := NewManager(newMemStore(), fetcher, cfg)
	defer m.Close()

	ran := make(chan *models.SyncReport, 1)
	m.SetOnSyncCompleted(func(r *models.SyncReport) { ran <- r })

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := m.Start(context.Background()); err == nil {
		t.Error("Expected error when starting twice")
	}

	select {
	case r := <-ran:
		if r.Created != 1 {
			t.Errorf("Expected startup run to create the listing, got %+v", r)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Startup run did not complete")
	}

	if err := m.Stop(); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
	if err := m.Stop(); err == nil {
		t.Error("Expected error when stopping twice")
	}

	// A restarted manager runs its startup sync again.
	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("Restart failed: %v", err)
	}
	select {
	case r := <-ran:
		if r.Updated != 1 {
			t.Errorf("Expected restart run to update the listing, got %+v", r)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Restart run did not complete")
	}
	if err := m.Stop(); err != nil {
		t.Errorf("Stop after restart failed: %v", err)
	}
}

func TestManagerStartUnscheduled(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{}
	m := NewManager(newMemStore(), fetcher, newTestConfig(berlin))
	defer m.Close()

	if err := m.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)
	if len(fetcher.calls) != 0 {
		t.Error("Expected no runs without a schedule")
	}
	if err := m.Stop(); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
}

func TestNewLookupCache(t *testing.T) {
	t.Parallel()

	if NewLookupCache(0) != nil {
		t.Error("Expected nil cache for zero TTL")
	}
	c := NewLookupCache(time.Minute)
	if c == nil {
		t.Fatal("Expected cache")
	}
	c.Close()
}
