// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

// Command eventsync runs one sync pass over every configured area and exits.
//
// Configuration comes from defaults, an optional config.yaml and environment
// variables (a .env file is loaded first when present). Logs go to stderr;
// the run summary goes to stdout.
//
// Exit codes:
//
//	0  the run finished without errors
//	1  the run finished with warnings (see the error list in the summary)
//	2  configuration error or unreachable store; nothing was synced
//
// Example:
//
//	SYNC_AREAS="berlin:Berlin:Germany,uk/london:London" DUCKDB_PATH=/data/events.duckdb eventsync
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/tomtom215/eventsync/internal/app"
	"github.com/tomtom215/eventsync/internal/config"
	"github.com/tomtom215/eventsync/internal/logging"
	"github.com/tomtom215/eventsync/internal/models"
)

const (
	exitOK       = 0
	exitWarnings = 1
	exitFatal    = 2
)

func main() {
	os.Exit(run(context.Background(), os.Stdout, os.Stderr))
}

func run(ctx context.Context, stdout, stderr io.Writer) int {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		fmt.Fprintf(stderr, "eventsync: %v\n", err)
		return exitFatal
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    stderr,
	})

	return runPipeline(ctx, cfg, stdout, stderr)
}

func runPipeline(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) int {
	pipeline, err := app.NewPipeline(ctx, cfg)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to initialize pipeline")
		fmt.Fprintf(stderr, "eventsync: %v\n", err)
		return exitFatal
	}
	defer func() {
		if err := pipeline.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing pipeline")
		}
	}()

	report, err := pipeline.Manager.TriggerSync(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "eventsync: %v\n", err)
		return exitFatal
	}

	writeSummary(stdout, report)
	return exitCode(report, err)
}

// exitCode maps a run result to the process exit status.
func exitCode(report *models.SyncReport, err error) int {
	switch {
	case err != nil, report == nil:
		return exitFatal
	case report.OK():
		return exitOK
	default:
		return exitWarnings
	}
}
