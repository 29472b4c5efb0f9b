// Eventsync - Event Listing Ingestion and Reconciliation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/eventsync

package sync

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/eventsync/internal/config"
	"github.com/tomtom215/eventsync/internal/logging"
	"github.com/tomtom215/eventsync/internal/metrics"
	"github.com/tomtom215/eventsync/internal/models"
)

// maxErrorBodySize limits how much of a failed response is kept for the error.
const maxErrorBodySize = 64 * 1024 // 64KB

// popularEventsQuery requests the first page of popular listings for an area.
const popularEventsQuery = `query PopularEvents($area: String!, $listingDate: String!, $pageSize: Int!) {
  popularEvents(area: $area, listingDate: $listingDate, pageSize: $pageSize) {
    id
    title
    date
    startTime
    contentUrl
    flyerFront
    images { filename type }
    venue { name area { name country { name } } country { name } }
    artists { name }
    interestedCount
  }
}`

// ErrUpstreamResponse is returned when the listing source answers with
// GraphQL errors instead of data.
var ErrUpstreamResponse = errors.New("upstream returned errors")

// Fetcher returns the raw listings of one area starting at windowStart.
type Fetcher interface {
	FetchListings(ctx context.Context, areaKey string, windowStart time.Time) ([]models.RawListing, error)
}

// readBodyForError reads at most 64KB of a response body for error reporting.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}

type graphQLRequest struct {
	Query     string           `json:"query"`
	Variables listingVariables `json:"variables"`
}

type listingVariables struct {
	Area        string `json:"area"`
	ListingDate string `json:"listingDate"`
	PageSize    int    `json:"pageSize"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type popularEventsResponse struct {
	Data *struct {
		PopularEvents []json.RawMessage `json:"popularEvents"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// UpstreamClient queries the upstream GraphQL listing source.
//
// Only the first page of each area is requested. HTTP 429 responses are
// retried with exponential backoff (1s, 2s, 4s, ...), honoring Retry-After.
type UpstreamClient struct {
	endpoint       string
	referer        string
	userAgent      string
	pageSize       int
	client         *http.Client
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewUpstreamClient creates a client for cfg. The relay URL replaces the
// endpoint when configured.
func NewUpstreamClient(cfg *config.UpstreamConfig) *UpstreamClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	referer := cfg.Referer
	if referer == "" {
		referer = cfg.SiteURL
	}
	return &UpstreamClient{
		endpoint:       cfg.URL(),
		referer:        referer,
		userAgent:      cfg.UserAgent,
		pageSize:       cfg.PageSize,
		client:         &http.Client{Timeout: timeout},
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: time.Second,
	}
}

// FetchListings returns the first page of listings for areaKey dated on or
// after windowStart. A nil slice and an error are returned on any failure.
func (c *UpstreamClient) FetchListings(ctx context.Context, areaKey string, windowStart time.Time) ([]models.RawListing, error) {
	body, err := json.Marshal(graphQLRequest{
		Query: popularEventsQuery,
		Variables: listingVariables{
			Area:        areaKey,
			ListingDate: windowStart.UTC().Format("2006-01-02"),
			PageSize:    c.pageSize,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode listings query: %w", err)
	}

	resp, err := c.doRequestWithRateLimit(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listings for %s: %w", areaKey, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody := readBodyForError(resp.Body)
		return nil, fmt.Errorf("listings request for %s failed with status %d: %s", areaKey, resp.StatusCode, string(errBody))
	}

	var result popularEventsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode listings for %s: %w", areaKey, err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("%w for %s: %s", ErrUpstreamResponse, areaKey, result.Errors[0].Message)
	}
	if result.Data == nil || result.Data.PopularEvents == nil {
		return []models.RawListing{}, nil
	}

	items := result.Data.PopularEvents
	listings := make([]models.RawListing, len(items))
	for i, item := range items {
		listings[i] = models.DecodeRawListing(item)
		if listings[i].DecodeErr != nil {
			logging.Debug().Err(listings[i].DecodeErr).Str("area", areaKey).Int("index", i).Msg("Malformed upstream listing")
		}
	}
	return listings, nil
}

// doRequestWithRateLimit POSTs body, retrying HTTP 429 responses. The body is
// re-sent on every attempt.
func (c *UpstreamClient) doRequestWithRateLimit(ctx context.Context, body []byte) (*http.Response, error) {
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)
		if c.referer != "" {
			req.Header.Set("Referer", c.referer)
		}

		start := time.Now()
		resp, err := c.client.Do(req)
		if err != nil {
			metrics.UpstreamRequestDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
			return nil, fmt.Errorf("HTTP request failed: %w", err)
		}
		metrics.UpstreamRequestDuration.WithLabelValues(strconv.Itoa(resp.StatusCode)).Observe(time.Since(start).Seconds())

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		_ = resp.Body.Close() // Explicitly ignore error - will retry anyway

		if attempt == c.maxRetries {
			break
		}

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds >= 0 {
				delay = time.Duration(seconds) * time.Second
			}
		}

		metrics.UpstreamRetries.Inc()
		logging.Warn().Dur("retry_delay", delay).Int("attempt", attempt+1).Int("max_retries", c.maxRetries).Msg("Upstream rate limited (HTTP 429), retrying")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("rate limit exceeded after %d retries (HTTP 429)", c.maxRetries)
}
