// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/eventsync/internal/validation"
)

// maxRequestBodySize caps JSON request bodies.
const maxRequestBodySize = 64 * 1024

// SyncRequest is the optional body of POST /api/v1/sync. An empty body and
// {} both select every configured area.
type SyncRequest struct {
	Areas []string `json:"areas" validate:"omitempty,max=100,dive,areakey"`
}

// decodeSyncRequest reads an optional JSON body. Unknown fields are rejected
// so typos do not silently trigger a full run.
func decodeSyncRequest(r *http.Request) (*SyncRequest, error) {
	req := &SyncRequest{}
	if r.Body == nil {
		return req, nil
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxRequestBodySize {
		return nil, errors.New("request body too large")
	}
	if strings.TrimSpace(string(body)) == "" {
		return req, nil
	}

	dec := json.NewDecoder(strings.NewReader(string(body)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	return req, nil
}

// Validate checks the request against its struct rules.
func (s *SyncRequest) Validate() *validation.RequestValidationError {
	return validation.ValidateStruct(s)
}
