// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/eventsync/config.yaml",
	"/etc/eventsync/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DotEnvPathEnvVar overrides the .env file path.
const DotEnvPathEnvVar = "DOTENV_PATH"

func defaultConfig() *Config {
	return &Config{
		Upstream: UpstreamConfig{
			Endpoint:       "https://ra.co/graphql",
			SiteURL:        "https://ra.co",
			PageSize:       50,
			Timeout:        30 * time.Second,
			UserAgent:      "Mozilla/5.0 (compatible; eventsync/1.0)",
			MaxRetries:     3,
			BreakerEnabled: true,
		},
		Sync: SyncConfig{
			Source:          "ra",
			Language:        "en",
			ItemDelay:       50 * time.Millisecond,
			AreaDelay:       time.Second,
			ScheduleEnabled: false,
			Interval:        6 * time.Hour,
			RetryAttempts:   3,
			RetryDelay:      2 * time.Second,
			LookupCacheTTL:  10 * time.Minute,
		},
		Database: DatabaseConfig{
			Driver:    "duckdb",
			Path:      "/data/eventsync.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
			MaxConns:  10,
		},
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			Timeout:     30 * time.Second,
			SyncTimeout: 15 * time.Minute,
		},
		Security: SecurityConfig{
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   30,
			RateLimitWindow: time.Minute,
		},
		Publisher: PublisherConfig{
			Enabled:    false,
			Driver:     "gochannel",
			URL:        "nats://127.0.0.1:4222",
			Topic:      "events.synced",
			StreamName: "EVENTS",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf loads configuration from, in increasing priority: defaults,
// the optional YAML file and environment variables. The result is validated.
func LoadWithKoanf() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}
	if err := processAreas(k); err != nil {
		return nil, fmt.Errorf("failed to process areas: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// loadDotEnv loads a .env file into the process environment. Variables that
// are already set win. A missing default file is not an error.
func loadDotEnv() error {
	path := os.Getenv(DotEnvPathEnvVar)
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && os.Getenv(DotEnvPathEnvVar) == "" {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma separated strings when set via env.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		var items []string
		for _, p := range strings.Split(strVal, ",") {
			if p = strings.TrimSpace(p); p != "" {
				items = append(items, p)
			}
		}
		if len(items) == 0 {
			continue
		}
		if err := k.Set(path, items); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// processAreas expands a SYNC_AREAS string into the list form the YAML file uses.
func processAreas(k *koanf.Koanf) error {
	raw, ok := k.Get("sync.areas").(string)
	if !ok {
		return nil
	}
	areas, err := ParseAreas(raw)
	if err != nil {
		return err
	}
	list := make([]map[string]interface{}, len(areas))
	for i, a := range areas {
		list[i] = map[string]interface{}{"key": a.Key, "city": a.City, "country": a.Country}
	}
	return k.Set("sync.areas", list)
}

// envMappings maps lowercased environment variable names to koanf paths.
// Unlisted variables are ignored.
var envMappings = map[string]string{
	"upstream_url":             "upstream.endpoint",
	"upstream_site_url":        "upstream.site_url",
	"upstream_relay_url":       "upstream.relay_url",
	"upstream_page_size":       "upstream.page_size",
	"upstream_timeout":         "upstream.timeout",
	"upstream_user_agent":      "upstream.user_agent",
	"upstream_referer":         "upstream.referer",
	"upstream_max_retries":     "upstream.max_retries",
	"upstream_breaker_enabled": "upstream.breaker_enabled",

	"sync_source":           "sync.source",
	"sync_language":         "sync.language",
	"sync_areas":            "sync.areas",
	"sync_item_delay":       "sync.item_delay",
	"sync_area_delay":       "sync.area_delay",
	"sync_lookahead_days":   "sync.lookahead_days",
	"sync_schedule_enabled": "sync.schedule_enabled",
	"sync_interval":         "sync.interval",
	"sync_run_on_startup":   "sync.run_on_startup",
	"sync_retry_attempts":   "sync.retry_attempts",
	"sync_retry_delay":      "sync.retry_delay",
	"sync_lookup_cache_ttl": "sync.lookup_cache_ttl",

	"database_driver":    "database.driver",
	"duckdb_path":        "database.path",
	"duckdb_max_memory":  "database.max_memory",
	"duckdb_threads":     "database.threads",
	"database_url":       "database.dsn",
	"database_max_conns": "database.max_conns",

	"http_host":         "server.host",
	"http_port":         "server.port",
	"http_timeout":      "server.timeout",
	"http_sync_timeout": "server.sync_timeout",

	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	"publisher_enabled": "publisher.enabled",
	"publisher_driver":  "publisher.driver",
	"nats_url":          "publisher.url",
	"publisher_topic":   "publisher.topic",
	"nats_stream_name":  "publisher.stream_name",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to its koanf path, or ""
// to skip it.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
