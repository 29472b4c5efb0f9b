// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	stdsync "sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/eventsync/internal/config"
	"github.com/tomtom215/eventsync/internal/models"
	"github.com/tomtom215/eventsync/internal/sync"
)

// fakeSync is a function-field SyncService.
type fakeSync struct {
	mu         stdsync.Mutex
	configured []config.AreaConfig
	triggered  [][]config.AreaConfig
	report     *models.SyncReport
	err        error
	last       *models.SyncReport
	inProgress bool
}

func (f *fakeSync) Areas(keys []string) ([]config.AreaConfig, error) {
	if len(keys) == 0 {
		return f.configured, nil
	}
	var out []config.AreaConfig
	for _, k := range keys {
		found := false
		for _, a := range f.configured {
			if a.Key == k {
				out = append(out, a)
				found = true
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", sync.ErrUnknownArea, k)
		}
	}
	return out, nil
}

func (f *fakeSync) TriggerSyncAreas(_ context.Context, areas []config.AreaConfig) (*models.SyncReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggered = append(f.triggered, areas)
	return f.report, f.err
}

func (f *fakeSync) LastReport() *models.SyncReport { return f.last }

func (f *fakeSync) InProgress() bool { return f.inProgress }

// fakeStore is a function-field EventReader.
type fakeStore struct {
	pingErr  error
	events   []models.Event
	total    int
	listErr  error
	gotLimit int
}

func (s *fakeStore) Ping(context.Context) error { return s.pingErr }

func (s *fakeStore) ListEvents(_ context.Context, limit int) ([]models.Event, error) {
	s.gotLimit = limit
	return s.events, s.listErr
}

func (s *fakeStore) CountEvents(context.Context) (int, error) { return s.total, s.listErr }

func newTestRouter(svc SyncService, store EventReader) http.Handler {
	mw := DefaultChiMiddlewareConfig()
	mw.CORSAllowedOrigins = []string{"*"}
	mw.RateLimitDisabled = true
	return NewRouter(NewHandler(svc, store), NewChiMiddleware(mw)).SetupChi()
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode envelope %q: %v", rec.Body.String(), err)
	}
	return resp
}

var testAreas = []config.AreaConfig{
	{Key: "berlin", City: "Berlin", Country: "Germany"},
	{Key: "uk/london", City: "London", Country: "United Kingdom"},
}

func TestSyncReturnsBareReport(t *testing.T) {
	svc := &fakeSync{
		configured: testAreas,
		report: &models.SyncReport{
			RunID:   "run-1",
			Created: 3,
			Errors:  []string{"area uk/london: status 503"},
		},
	}
	h := newTestRouter(svc, &fakeStore{})

	for _, body := range []string{"", "{}", " \n"} {
		rec := doRequest(t, h, http.MethodPost, "/api/v1/sync", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("body %q: expected 200 even with warnings, got %d: %s", body, rec.Code, rec.Body.String())
		}

		var report models.SyncReport
		if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
			t.Fatalf("Failed to decode report: %v", err)
		}
		if report.RunID != "run-1" || report.Created != 3 || len(report.Errors) != 1 {
			t.Errorf("Unexpected report %+v", report)
		}
	}

	if len(svc.triggered) != 3 || len(svc.triggered[0]) != 2 {
		t.Errorf("Expected every configured area triggered, got %v", svc.triggered)
	}
}

func TestSyncAreaFilter(t *testing.T) {
	svc := &fakeSync{configured: testAreas, report: &models.SyncReport{Errors: []string{}}}
	h := newTestRouter(svc, &fakeStore{})

	rec := doRequest(t, h, http.MethodPost, "/api/v1/sync", `{"areas":["uk/london"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(svc.triggered) != 1 || len(svc.triggered[0]) != 1 || svc.triggered[0][0].Key != "uk/london" {
		t.Errorf("Expected only london triggered, got %v", svc.triggered)
	}
}

func TestSyncErrors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"malformed json", `{"areas":`, nil, http.StatusBadRequest, ErrCodeBadRequest},
		{"unknown field", `{"area":["berlin"]}`, nil, http.StatusBadRequest, ErrCodeBadRequest},
		{"invalid area key", `{"areas":["Berlin City"]}`, nil, http.StatusBadRequest, ErrCodeValidationFailed},
		{"unknown area", `{"areas":["paris"]}`, nil, http.StatusBadRequest, ErrCodeBadRequest},
		{"run in progress", `{}`, sync.ErrSyncInProgress, http.StatusConflict, ErrCodeSyncInProgress},
		{"no areas configured", `{}`, sync.ErrNoAreas, http.StatusInternalServerError, ErrCodeConfiguration},
		{"store unreachable", `{}`, fmt.Errorf("%w: refused", sync.ErrStoreUnreachable), http.StatusInternalServerError, ErrCodeDatabaseError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeSync{configured: testAreas, err: tt.err}
			rec := doRequest(t, newTestRouter(svc, &fakeStore{}), http.MethodPost, "/api/v1/sync", tt.body)

			if rec.Code != tt.wantCode {
				t.Fatalf("Expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
			resp := decodeEnvelope(t, rec)
			if resp.Success || resp.Error == nil || resp.Error.Code != tt.wantErr {
				t.Errorf("Expected error code %s, got %+v", tt.wantErr, resp.Error)
			}
		})
	}
}

func TestSyncRejectsOtherMethods(t *testing.T) {
	rec := doRequest(t, newTestRouter(&fakeSync{}, &fakeStore{}), http.MethodGet, "/api/v1/sync", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}

func TestSyncCORSPreflight(t *testing.T) {
	h := newTestRouter(&fakeSync{configured: testAreas}, &fakeStore{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sync", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK && rec.Code != http.StatusNoContent {
		t.Fatalf("Expected successful preflight, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Error("Expected Access-Control-Allow-Origin on preflight")
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "POST" {
		t.Errorf("Expected POST allowed, got %q", got)
	}
}

func TestSyncCORSOnPost(t *testing.T) {
	svc := &fakeSync{configured: testAreas, report: &models.SyncReport{Errors: []string{}}}
	h := newTestRouter(svc, &fakeStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil)
	req.Header.Set("Origin", "https://dashboard.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("Expected wildcard origin, got %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestSyncStatus(t *testing.T) {
	last := &models.SyncReport{RunID: "run-9", Updated: 4, Errors: []string{}}
	h := newTestRouter(&fakeSync{last: last, inProgress: true}, &fakeStore{})

	rec := doRequest(t, h, http.MethodGet, "/api/v1/sync/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp struct {
		Success bool               `json:"success"`
		Data    SyncStatusResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Data.InProgress || resp.Data.LastReport == nil || resp.Data.LastReport.RunID != "run-9" {
		t.Errorf("Unexpected status %+v", resp.Data)
	}
}

func TestEvents(t *testing.T) {
	store := &fakeStore{
		events: []models.Event{{ID: "evt-1", Slug: "123-underground-night"}},
		total:  7,
	}
	h := newTestRouter(&fakeSync{}, store)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/events?limit=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if store.gotLimit != 1 {
		t.Errorf("Expected limit 1 passed to the store, got %d", store.gotLimit)
	}

	var resp struct {
		Data models.EventList `json:"data"`
		Meta APIMeta          `json:"meta"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.Total != 7 || len(resp.Data.Events) != 1 {
		t.Errorf("Unexpected events payload %+v", resp.Data)
	}
	if resp.Meta.Pagination == nil || !resp.Meta.Pagination.HasMore {
		t.Errorf("Expected has_more pagination, got %+v", resp.Meta.Pagination)
	}
}

func TestEventsDefaultsAndErrors(t *testing.T) {
	store := &fakeStore{}
	h := newTestRouter(&fakeSync{}, store)

	rec := doRequest(t, h, http.MethodGet, "/api/v1/events", "")
	if rec.Code != http.StatusOK || store.gotLimit != defaultEventsLimit {
		t.Errorf("Expected default limit %d, got status %d limit %d", defaultEventsLimit, rec.Code, store.gotLimit)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"events":[]`)) {
		t.Errorf("Expected empty events array, got %s", rec.Body.String())
	}

	for _, bad := range []string{"0", "-1", "abc", "501"} {
		rec := doRequest(t, h, http.MethodGet, "/api/v1/events?limit="+bad, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: expected 400, got %d", bad, rec.Code)
		}
	}

	store.listErr = errors.New("io error")
	rec = doRequest(t, h, http.MethodGet, "/api/v1/events", "")
	if rec.Code != http.StatusInternalServerError || decodeEnvelope(t, rec).Error.Code != ErrCodeDatabaseError {
		t.Errorf("Expected database error, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	store := &fakeStore{}
	h := newTestRouter(&fakeSync{}, store)

	if rec := doRequest(t, h, http.MethodGet, "/api/v1/health/live", ""); rec.Code != http.StatusOK {
		t.Errorf("Expected live 200, got %d", rec.Code)
	}
	if rec := doRequest(t, h, http.MethodGet, "/api/v1/health/ready", ""); rec.Code != http.StatusOK {
		t.Errorf("Expected ready 200, got %d", rec.Code)
	}

	store.pingErr = errors.New("down")
	rec := doRequest(t, h, http.MethodGet, "/api/v1/health/ready", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected ready 503 with store down, got %d", rec.Code)
	}

	noStore := newTestRouter(&fakeSync{}, nil)
	if rec := doRequest(t, noStore, http.MethodGet, "/api/v1/health/ready", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected ready 503 without a store, got %d", rec.Code)
	}
}

func TestNotFoundAndMetrics(t *testing.T) {
	h := newTestRouter(&fakeSync{}, &fakeStore{})

	rec := doRequest(t, h, http.MethodGet, "/api/v1/nope", "")
	if rec.Code != http.StatusNotFound || decodeEnvelope(t, rec).Error.Code != ErrCodeNotFound {
		t.Errorf("Expected JSON 404, got %d %s", rec.Code, rec.Body.String())
	}

	doRequest(t, h, http.MethodGet, "/api/v1/events", "")
	rec = doRequest(t, h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !bytes.Contains(rec.Body.Bytes(), []byte("api_requests_total")) {
		t.Errorf("Expected Prometheus exposition, got %d", rec.Code)
	}
}
