// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/eventsync/internal/config"
	"github.com/tomtom215/eventsync/internal/logging"
	"github.com/tomtom215/eventsync/internal/metrics"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestDefaultChiMiddlewareConfig(t *testing.T) {
	cfg := DefaultChiMiddlewareConfig()

	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Errorf("Expected wildcard default origin, got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.RateLimitRequests != 100 || cfg.RateLimitWindow != time.Minute {
		t.Errorf("Unexpected rate limit defaults %d/%v", cfg.RateLimitRequests, cfg.RateLimitWindow)
	}
}

func TestNewChiMiddlewareFromConfig(t *testing.T) {
	mw := NewChiMiddlewareFromConfig(&config.SecurityConfig{
		CORSOrigins:     []string{"https://dashboard.example.com"},
		RateLimitReqs:   7,
		RateLimitWindow: time.Hour,
	})

	if mw.config.RateLimitRequests != 7 || mw.config.RateLimitWindow != time.Hour {
		t.Errorf("Expected security limits to apply, got %d/%v", mw.config.RateLimitRequests, mw.config.RateLimitWindow)
	}
	if len(mw.config.CORSAllowedOrigins) != 1 {
		t.Errorf("Expected one origin, got %v", mw.config.CORSAllowedOrigins)
	}

	defaults := NewChiMiddlewareFromConfig(&config.SecurityConfig{})
	if defaults.config.RateLimitRequests != 100 {
		t.Errorf("Expected zero limits to keep defaults, got %d", defaults.config.RateLimitRequests)
	}
	if len(defaults.config.CORSAllowedOrigins) != 1 || defaults.config.CORSAllowedOrigins[0] != "*" {
		t.Errorf("Expected empty origins to keep the wildcard default, got %v", defaults.config.CORSAllowedOrigins)
	}
}

func TestDefaultCORSAllowsAnyOrigin(t *testing.T) {
	h := NewChiMiddleware(nil).CORS()(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil)
	req.Header.Set("Origin", "https://anywhere.example.org")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Expected wildcard Access-Control-Allow-Origin, got %q", got)
	}
}

func TestCORSOriginFiltering(t *testing.T) {
	mw := NewChiMiddleware(&ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{"https://dashboard.example.com"},
		CORSAllowedMethods: []string{"POST"},
	})
	h := mw.CORS()(okHandler())

	tests := []struct {
		origin string
		want   string
	}{
		{"https://dashboard.example.com", "https://dashboard.example.com"},
		{"https://evil.example.com", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil)
		req.Header.Set("Origin", tt.origin)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
			t.Errorf("origin %s: expected %q, got %q", tt.origin, tt.want, got)
		}
	}
}

func TestRateLimitCustom(t *testing.T) {
	mw := NewChiMiddleware(nil)
	h := mw.RateLimitCustom("test-limit", 2, time.Minute)(okHandler())

	before := testutil.ToFloat64(metrics.APIRateLimitHits.WithLabelValues("test-limit"))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil)
		req.RemoteAddr = "192.0.2.10:4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("Expected 200, 200, 429, got %v", codes)
	}
	if after := testutil.ToFloat64(metrics.APIRateLimitHits.WithLabelValues("test-limit")); after != before+1 {
		t.Errorf("Expected one rate limit hit recorded, got %v", after-before)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitDisabled = true
	h := NewChiMiddleware(cfg).RateLimitCustom("disabled", 1, time.Minute)(okHandler())

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200 with limiting disabled, got %d", i, rec.Code)
		}
	}
}

func TestRequestIDWithLogging(t *testing.T) {
	var seen string
	h := RequestIDWithLogging()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
		if logging.CorrelationIDFromContext(r.Context()) == "" {
			t.Error("Expected a correlation id in the request context")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != "req-abc" || rec.Header().Get("X-Request-ID") != "req-abc" {
		t.Errorf("Expected incoming id to propagate, got context %q header %q", seen, rec.Header().Get("X-Request-ID"))
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || seen == "req-abc" || rec.Header().Get("X-Request-ID") != seen {
		t.Errorf("Expected a generated id, got context %q header %q", seen, rec.Header().Get("X-Request-ID"))
	}
}

func TestAPISecurityHeaders(t *testing.T) {
	h := APISecurityHeaders()(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" || rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Errorf("Missing hardening headers: %v", rec.Header())
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must not be sent over plain HTTP")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Error("Expected HSTS behind a TLS proxy")
	}
}
