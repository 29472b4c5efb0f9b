// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

// Package supervisor runs the long-lived parts of the server under a suture
// supervisor tree so a failing service is restarted with backoff instead of
// taking the process down.
//
// Services live in the services subpackage:
//   - services.SyncService adapts sync.Manager's Start/Stop lifecycle
//   - services.HTTPServerService adapts *http.Server
//
// Usage:
//
//	tree, _ := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{})
//	tree.AddSyncService(services.NewSyncService(manager))
//	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
//	err := tree.Serve(ctx)
package supervisor
