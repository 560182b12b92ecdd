// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

/*
Package hevy is the client for the Hevy workout API.

Client Features:
  - api-key header authentication
  - client-side rate limiting (golang.org/x/time/rate)
  - retry with exponential backoff on HTTP 429 and 5xx, honouring Retry-After
  - circuit breaker around each logical call (sony/gobreaker)
  - payload validation of decoded workouts (go-playground/validator)

Only the paginated workout listing is used:

	GET {baseURL}/v1/workouts?page=N&pageSize=M
	-> {"page": N, "page_count": K, "workouts": [...]}

Workouts are returned newest first.
*/
package hevy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/tomtom215/liftsync/internal/logging"
	"github.com/tomtom215/liftsync/internal/metrics"
	"github.com/tomtom215/liftsync/internal/models"
)

// DefaultBaseURL is the public Hevy API endpoint.
const DefaultBaseURL = "https://api.hevyapp.com"

// MaxPageSize is the largest pageSize the workouts endpoint accepts.
const MaxPageSize = 10

// maxErrorBodySize limits how much of an error response is kept.
const maxErrorBodySize = 64 * 1024

// ErrMissingAPIKey is returned when no API key is configured. It is detected
// before any network I/O.
var ErrMissingAPIKey = errors.New("hevy: missing API key")

// APIError is a non-2xx response from the Hevy API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("hevy API error: %d - %s", e.StatusCode, e.Body)
}

// Transient reports whether the request may succeed if retried.
func (e *APIError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// WorkoutsPage is one page of the workouts listing.
type WorkoutsPage struct {
	Page      int              `json:"page"`
	PageCount int              `json:"page_count"`
	Workouts  []models.Workout `json:"workouts"`

	// Skipped counts upstream workouts dropped by validation.
	Skipped int `json:"-"`
}

// Empty reports whether upstream returned no workouts at all. A page whose
// workouts were all dropped by validation is not empty.
func (p *WorkoutsPage) Empty() bool {
	return len(p.Workouts) == 0 && p.Skipped == 0
}

// Source fetches pages of workouts, newest first. Client implements it;
// tests substitute fakes.
type Source interface {
	Workouts(ctx context.Context, page, pageSize int) (*WorkoutsPage, error)
}

// Config configures a Client.
type Config struct {
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	RequestsPerSec float64
	Burst          int
	MaxRetries     int
	RetryBaseDelay time.Duration
}

// DefaultConfig returns the settings used when fields are left zero.
func DefaultConfig() Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		Timeout:        30 * time.Second,
		RequestsPerSec: 5,
		Burst:          2,
		MaxRetries:     3,
		RetryBaseDelay: time.Second,
	}
}

// Client talks to the Hevy API. Safe for concurrent use.
type Client struct {
	baseURL        string
	apiKey         string
	httpClient     *http.Client
	limiter        *rate.Limiter
	breaker        *breaker
	maxRetries     int
	retryBaseDelay time.Duration
}

// NewClient creates a Client. Zero fields in cfg fall back to DefaultConfig.
// A missing API key is not an error here; calls return ErrMissingAPIKey.
func NewClient(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = def.RequestsPerSec
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = def.RetryBaseDelay
	}

	return &Client{
		baseURL:        cfg.BaseURL,
		apiKey:         cfg.APIKey,
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		limiter:        rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.Burst),
		breaker:        newBreaker("hevy-api"),
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: cfg.RetryBaseDelay,
	}
}

// HasAPIKey reports whether an API key is configured.
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// BreakerState returns the circuit breaker state: closed, half-open or open.
func (c *Client) BreakerState() string {
	return c.breaker.state()
}

// Workouts fetches one page of workouts. pageSize is clamped to 1..MaxPageSize.
// Workouts failing validation are dropped from the page and logged.
func (c *Client) Workouts(ctx context.Context, page, pageSize int) (*WorkoutsPage, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("pageSize", strconv.Itoa(pageSize))

	result, err := c.breaker.execute(func() (*WorkoutsPage, error) {
		var wp WorkoutsPage
		if err := c.getJSON(ctx, "/v1/workouts", params, &wp); err != nil {
			return nil, err
		}
		return &wp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetch workouts page %d: %w", page, err)
	}

	valid := result.Workouts[:0]
	for i := range result.Workouts {
		if err := ValidateWorkout(&result.Workouts[i]); err != nil {
			logging.Warn().Err(err).Str("workout_id", result.Workouts[i].ID).Int("page", page).
				Msg("Skipping invalid workout from upstream")
			result.Skipped++
			continue
		}
		valid = append(valid, result.Workouts[i])
	}
	result.Workouts = valid
	return result, nil
}

// getJSON performs a GET against path and decodes a 200 response into out.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	resp, err := c.doWithRetry(ctx, path, reqURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// doWithRetry issues the request, retrying transient failures with
// exponential backoff (base, 2*base, 4*base...). A Retry-After header in
// seconds overrides the computed delay. The returned response has status 200.
func (c *Client) doWithRetry(ctx context.Context, endpoint, reqURL string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("accept", "application/json")
		req.Header.Set("api-key", c.apiKey)

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			metrics.RecordUpstreamRequest(endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("HTTP request failed: %w", err)
		}
		metrics.RecordUpstreamRequest(endpoint, resp.StatusCode, time.Since(start))

		if resp.StatusCode == http.StatusOK {
			return resp, nil
		}

		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(readBodyForError(resp.Body))}
		_ = resp.Body.Close()
		lastErr = apiErr

		if !apiErr.Transient() || attempt == c.maxRetries {
			break
		}

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds >= 0 {
				delay = time.Duration(seconds) * time.Second
			}
		}

		logging.Warn().Int("status", apiErr.StatusCode).Int("attempt", attempt+1).
			Int("max_attempts", c.maxRetries+1).Dur("delay", delay).Msg("Retrying Hevy API request")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// readBodyForError reads at most maxErrorBodySize bytes of r.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	return body
}
