// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// validateURL requires one of schemes and a host. Paths are allowed since
// scrape targets point at a specific page.
func validateURL(rawURL, fieldName string, schemes ...string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", fieldName, err)
	}
	if !slices.Contains(schemes, u.Scheme) {
		return fmt.Errorf("%s scheme must be one of %s, got %q", fieldName, strings.Join(schemes, ", "), u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host", fieldName)
	}
	return nil
}

func validateBaseURL(rawURL, fieldName string) error {
	return validateURL(rawURL, fieldName, "http", "https")
}

func validateNATSURL(rawURL string) error {
	return validateURL(rawURL, "NATS_URL", "nats", "tls", "ws", "wss")
}
