// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Upstream  UpstreamConfig  `koanf:"upstream"`
	Sync      SyncConfig      `koanf:"sync"`
	Database  DatabaseConfig  `koanf:"database"`
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	Publisher PublisherConfig `koanf:"publisher"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// UpstreamConfig describes the listing source.
type UpstreamConfig struct {
	// Endpoint is the GraphQL endpoint listings are POSTed to.
	Endpoint string `koanf:"endpoint" validate:"required,http_url"`

	// SiteURL is the base that relative content paths resolve against.
	SiteURL string `koanf:"site_url" validate:"required,http_url"`

	// RelayURL, when set, replaces Endpoint with the anti-blocking relay.
	RelayURL string `koanf:"relay_url" validate:"omitempty,http_url"`

	// PageSize caps the items requested per area. Only the first page is read.
	PageSize int `koanf:"page_size" validate:"min=1,max=200"`

	Timeout   time.Duration `koanf:"timeout"`
	UserAgent string        `koanf:"user_agent" validate:"required"`

	// Referer is sent with every request; empty falls back to SiteURL.
	Referer string `koanf:"referer" validate:"omitempty,http_url"`

	MaxRetries int `koanf:"max_retries" validate:"min=0,max=10"`

	// BreakerEnabled wraps the client in a circuit breaker.
	BreakerEnabled bool `koanf:"breaker_enabled"`
}

// URL returns the endpoint requests should be sent to.
func (u UpstreamConfig) URL() string {
	if u.RelayURL != "" {
		return u.RelayURL
	}
	return u.Endpoint
}

// AreaConfig is one upstream area plus its display fallbacks.
type AreaConfig struct {
	Key     string `koanf:"key" json:"key" validate:"required,areakey"`
	City    string `koanf:"city" json:"city"`
	Country string `koanf:"country" json:"country"`
}

// FallbackCity returns City, or the key when no city is configured.
func (a AreaConfig) FallbackCity() string {
	if a.City != "" {
		return a.City
	}
	return a.Key
}

// SyncConfig controls the pipeline run.
type SyncConfig struct {
	// Source is the discriminator stored with every event, e.g. "ra".
	Source   string       `koanf:"source" validate:"required,max=32,alphanum"`
	Language string       `koanf:"language" validate:"required,max=16"`
	Areas    []AreaConfig `koanf:"areas" validate:"dive"`

	ItemDelay time.Duration `koanf:"item_delay"`
	AreaDelay time.Duration `koanf:"area_delay"`

	// LookaheadDays shifts the listing date floor forward from today.
	LookaheadDays int `koanf:"lookahead_days" validate:"min=0,max=365"`

	ScheduleEnabled bool          `koanf:"schedule_enabled"`
	Interval        time.Duration `koanf:"interval"`
	RunOnStartup    bool          `koanf:"run_on_startup"`

	// RetryAttempts applies to the store reachability check before a run.
	RetryAttempts int           `koanf:"retry_attempts" validate:"min=1,max=10"`
	RetryDelay    time.Duration `koanf:"retry_delay"`

	// LookupCacheTTL bounds how long a source id to event id mapping is
	// trusted. Zero disables the cache.
	LookupCacheTTL time.Duration `koanf:"lookup_cache_ttl"`
}

// DatabaseConfig selects and configures the event store.
type DatabaseConfig struct {
	Driver    string `koanf:"driver" validate:"oneof=duckdb postgres"`
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads" validate:"min=0"`

	// DSN is the PostgreSQL connection string used when Driver is postgres.
	DSN      string `koanf:"dsn"`
	MaxConns int32  `koanf:"max_conns" validate:"min=0"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout time.Duration `koanf:"timeout"`

	// SyncTimeout is the write timeout; a triggered run answers only when it
	// has finished.
	SyncTimeout time.Duration `koanf:"sync_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig holds cross-origin and throttling settings for the API.
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs" validate:"min=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// PublisherConfig controls EventSynced notifications.
type PublisherConfig struct {
	Enabled    bool   `koanf:"enabled"`
	Driver     string `koanf:"driver" validate:"oneof=gochannel nats"`
	URL        string `koanf:"url"`
	Topic      string `koanf:"topic" validate:"required"`
	StreamName string `koanf:"stream_name"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// ParseAreas parses a comma separated list of key:City:Country entries.
// City and country are optional.
func ParseAreas(s string) ([]AreaConfig, error) {
	var areas []AreaConfig
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		area := AreaConfig{Key: strings.TrimSpace(parts[0])}
		if area.Key == "" {
			return nil, fmt.Errorf("area entry %q has an empty key", entry)
		}
		if len(parts) > 1 {
			area.City = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			area.Country = strings.TrimSpace(parts[2])
		}
		areas = append(areas, area)
	}
	return areas, nil
}
