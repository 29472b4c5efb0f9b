// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

// Command server exposes the sync pipeline over HTTP.
//
// Components, in start order:
//
//  1. Configuration: defaults, optional config.yaml, environment (koanf)
//  2. Store: DuckDB or PostgreSQL, schema migrated on open
//  3. Sync manager: upstream client, optional circuit breaker and publisher
//  4. Supervisor tree: the sync scheduler and the HTTP server as suture
//     services
//
// Routes:
//
//	POST /api/v1/sync          run the pipeline, answers with the SyncReport
//	GET  /api/v1/sync/status   last report and whether a run is executing
//	GET  /api/v1/events        recently synced events
//	GET  /api/v1/health/live   liveness
//	GET  /api/v1/health/ready  store reachability
//	GET  /metrics              Prometheus metrics
//
// SIGINT and SIGTERM stop the tree; the HTTP server drains in-flight requests
// and the scheduler waits for a running sync before the store is closed.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/tomtom215/eventsync/internal/api"
	"github.com/tomtom215/eventsync/internal/app"
	"github.com/tomtom215/eventsync/internal/config"
	"github.com/tomtom215/eventsync/internal/logging"
	"github.com/tomtom215/eventsync/internal/supervisor"
	"github.com/tomtom215/eventsync/internal/supervisor/services"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("source", cfg.Sync.Source).
		Int("areas", len(cfg.Sync.Areas)).
		Str("db_driver", cfg.Database.Driver).
		Bool("schedule", cfg.Sync.ScheduleEnabled).
		Msg("Starting eventsync server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipeline, err := app.NewPipeline(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize pipeline")
	}
	defer func() {
		if err := pipeline.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing pipeline")
		}
	}()

	if len(cfg.Sync.Areas) == 0 {
		logging.Warn().Msg("No areas configured (SYNC_AREAS); sync requests will fail until areas are set")
	}
	if slices.Contains(cfg.Security.CORSOrigins, "*") {
		logging.Warn().Msg("CORS allows any origin (CORS_ORIGINS=*); any website can trigger a sync")
	}
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.SyncTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	handler := api.NewHandler(pipeline.Manager, pipeline.Store)
	router := api.NewRouter(handler, api.NewChiMiddlewareFromConfig(&cfg.Security))

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.SyncTimeout,
		IdleTimeout:       60 * time.Second,
	}

	tree.AddSyncService(services.NewSyncService(pipeline.Manager))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// errCh yields exactly one value and is never closed.
	var treeErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
		treeErr = <-errCh
	case treeErr = <-errCh:
		cancel()
	}
	if treeErr != nil && !errors.Is(treeErr, context.Canceled) {
		logging.Error().Err(treeErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Server stopped")
}
