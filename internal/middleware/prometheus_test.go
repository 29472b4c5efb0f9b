// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/eventsync/internal/metrics"
)

func TestPrometheusMetrics(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics)
	r.Get("/api/v1/events", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Post("/api/v1/sync", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	tests := []struct {
		name     string
		method   string
		path     string
		wantCode int
		pattern  string
	}{
		{"route pattern without query", http.MethodGet, "/api/v1/events?limit=5", http.StatusOK, "/api/v1/events"},
		{"error status", http.MethodPost, "/api/v1/sync", http.StatusConflict, "/api/v1/sync"},
		{"unmatched path", http.MethodGet, "/nope", http.StatusNotFound, unmatchedRoute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues(tt.method, tt.pattern, itoa(tt.wantCode)))

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.wantCode {
				t.Errorf("Expected status %d, got %d", tt.wantCode, rec.Code)
			}
			after := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues(tt.method, tt.pattern, itoa(tt.wantCode)))
			if after-before != 1 {
				t.Errorf("Expected one request recorded for %s %s, got %v", tt.method, tt.pattern, after-before)
			}
		})
	}
}

func TestPrometheusMetricsWithoutRouter(t *testing.T) {
	handler := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/raw", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("Expected status 418, got %d", rec.Code)
	}
	if got := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, unmatchedRoute, "418")); got < 1 {
		t.Errorf("Expected request recorded as unmatched, got %v", got)
	}
}

func TestMetricsResponseWriterCapturesStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	w := &metricsResponseWriter{ResponseWriter: rec, statusCode: http.StatusOK}
	w.WriteHeader(http.StatusAccepted)

	if w.statusCode != http.StatusAccepted || rec.Code != http.StatusAccepted {
		t.Errorf("Expected 202 captured and forwarded, got %d and %d", w.statusCode, rec.Code)
	}
}

func itoa(code int) string {
	return strconv.Itoa(code)
}
