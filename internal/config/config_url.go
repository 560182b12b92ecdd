// Liftsync - Workout Ingestion and Cache Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liftsync

package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

var (
	upstreamSchemes = []string{"http", "https"}
	natsSchemes     = []string{"nats", "tls", "ws", "wss"}
)

// parseServiceURL parses raw and checks its scheme against allowed and that
// it names a host.
func parseServiceURL(raw string, allowed []string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if !slices.Contains(allowed, u.Scheme) {
		return nil, fmt.Errorf("scheme must be one of %s, got %q", strings.Join(allowed, ", "), u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("host is required")
	}
	return u, nil
}

// validateHTTPURL accepts an http(s) origin. The client appends /v1/...
// itself, so paths and queries are rejected.
func validateHTTPURL(rawURL, fieldName string) error {
	u, err := parseServiceURL(rawURL, upstreamSchemes)
	if err != nil {
		return fmt.Errorf("%s: %w", fieldName, err)
	}
	if u.Path != "" && u.Path != "/" {
		return fmt.Errorf("%s: remove the path %q, the API version is added by the client", fieldName, u.Path)
	}
	if u.RawQuery != "" {
		return fmt.Errorf("%s: query parameters are not allowed", fieldName)
	}
	return nil
}

// validateNATSURL accepts a broker URL such as nats://localhost:4222.
func validateNATSURL(rawURL string) error {
	_, err := parseServiceURL(rawURL, natsSchemes)
	return err
}
