// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tomtom215/eventsync/internal/validation"
)

// Validate checks struct rules first, then cross-field constraints.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validatePublisher()
}

func (c *Config) validateSync() error {
	if err := nonNegative("SYNC_ITEM_DELAY", c.Sync.ItemDelay); err != nil {
		return err
	}
	if err := nonNegative("SYNC_AREA_DELAY", c.Sync.AreaDelay); err != nil {
		return err
	}
	if err := nonNegative("SYNC_LOOKUP_CACHE_TTL", c.Sync.LookupCacheTTL); err != nil {
		return err
	}
	if c.Sync.ScheduleEnabled && c.Sync.Interval < time.Minute {
		return fmt.Errorf("SYNC_INTERVAL must be at least 1m when scheduling is enabled, got %s", c.Sync.Interval)
	}

	seen := make(map[string]bool, len(c.Sync.Areas))
	for _, area := range c.Sync.Areas {
		if seen[area.Key] {
			return fmt.Errorf("SYNC_AREAS contains duplicate area key %q", area.Key)
		}
		seen[area.Key] = true
	}
	return nil
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case "duckdb":
		if c.Database.Path == "" {
			return fmt.Errorf("DUCKDB_PATH is required when DATABASE_DRIVER=duckdb")
		}
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("DATABASE_URL is required when DATABASE_DRIVER=postgres")
		}
		u, err := url.Parse(c.Database.DSN)
		if err != nil {
			return fmt.Errorf("DATABASE_URL is invalid: %w", err)
		}
		if u.Scheme != "postgres" && u.Scheme != "postgresql" {
			return fmt.Errorf("DATABASE_URL scheme must be postgres or postgresql, got: %s", u.Scheme)
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.Server.Timeout)
	}
	if c.Server.SyncTimeout < c.Server.Timeout {
		return fmt.Errorf("HTTP_SYNC_TIMEOUT (%s) must not be shorter than HTTP_TIMEOUT (%s)", c.Server.SyncTimeout, c.Server.Timeout)
	}
	if !c.Security.RateLimitDisabled && c.Security.RateLimitReqs > 0 && c.Security.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive when rate limiting is enabled")
	}
	return nil
}

func (c *Config) validatePublisher() error {
	if !c.Publisher.Enabled || c.Publisher.Driver != "nats" {
		return nil
	}
	u, err := url.Parse(c.Publisher.URL)
	if err != nil {
		return fmt.Errorf("NATS_URL is invalid: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "nats", "tls", "ws", "wss":
	default:
		return fmt.Errorf("NATS_URL scheme must be nats, tls, ws or wss, got: %s", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("NATS_URL host is required")
	}
	return nil
}

func nonNegative(name string, d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("%s must not be negative, got %s", name, d)
	}
	return nil
}
