// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

// Package validation wraps go-playground/validator v10 with a shared instance,
// the custom rules used by configuration and request structs, and translation
// of field errors into readable messages.
//
//	type syncRequest struct {
//	    Areas []string `json:"areas" validate:"omitempty,max=50,dive,areakey"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    ...
//	}
package validation
