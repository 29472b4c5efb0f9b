// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

// Package app assembles the sync pipeline from configuration. Both the batch
// command and the HTTP server build their components here.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/eventsync/internal/config"
	"github.com/tomtom215/eventsync/internal/database"
	"github.com/tomtom215/eventsync/internal/eventprocessor"
	"github.com/tomtom215/eventsync/internal/logging"
	"github.com/tomtom215/eventsync/internal/sync"
)

// breakerName labels the upstream circuit breaker in metrics and logs.
const breakerName = "upstream"

// Pipeline owns the store, the sync manager and the optional publisher.
type Pipeline struct {
	Store   database.Store
	Manager *sync.Manager

	publisher *eventprocessor.SyncEventPublisher
}

// NewFetcher returns the upstream client, wrapped in a circuit breaker when
// cfg.BreakerEnabled is set.
func NewFetcher(cfg *config.UpstreamConfig) sync.Fetcher {
	client := sync.NewUpstreamClient(cfg)
	if !cfg.BreakerEnabled {
		return client
	}
	return sync.NewCircuitBreakerFetcher(client, breakerName)
}

// NewPipeline opens the store and wires the manager. A publisher that cannot
// be created is logged and skipped; publishing is best effort.
func NewPipeline(ctx context.Context, cfg *config.Config) (*Pipeline, error) {
	store, err := database.Open(ctx, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", sync.ErrStoreUnreachable, err)
	}

	p := &Pipeline{
		Store:   store,
		Manager: sync.NewManager(store, NewFetcher(&cfg.Upstream), cfg),
	}

	if cfg.Publisher.Enabled {
		pub, err := newSyncPublisher(ctx, &cfg.Publisher)
		if err != nil {
			logging.Warn().Err(err).Str("driver", cfg.Publisher.Driver).Msg("Event publisher unavailable, continuing without it")
		} else {
			p.publisher = pub
			p.Manager.SetPublisher(pub)
			logging.Info().Str("driver", cfg.Publisher.Driver).Str("topic", cfg.Publisher.Topic).Msg("Event publisher enabled")
		}
	}

	return p, nil
}

func newSyncPublisher(ctx context.Context, cfg *config.PublisherConfig) (*eventprocessor.SyncEventPublisher, error) {
	pub, err := eventprocessor.New(ctx, cfg, eventprocessor.NewLogger())
	if err != nil {
		return nil, err
	}
	syncPub, err := eventprocessor.NewSyncEventPublisher(pub, cfg.Topic)
	if err != nil {
		_ = pub.Close()
		return nil, err
	}
	return syncPub, nil
}

// Publishing reports whether an event publisher is attached.
func (p *Pipeline) Publishing() bool {
	return p.publisher != nil
}

// Close releases the manager cache, the publisher and the store.
func (p *Pipeline) Close() error {
	var errs []error
	p.Manager.Close()
	if p.publisher != nil {
		if err := p.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	if err := p.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close store: %w", err))
	}
	return errors.Join(errs...)
}
