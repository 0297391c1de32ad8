// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/trendscope/internal/config"
	"github.com/tomtom215/trendscope/internal/models"
)

// DefaultLimit is how many items a client asks its platform for.
const DefaultLimit = 50

// Request describes one acquisition from a platform.
type Request struct {
	DataTypes []models.DataType
	TimeRange models.TimeRange
	Limit     int
}

func (r Request) limit() int {
	if r.Limit <= 0 {
		return DefaultLimit
	}
	return r.Limit
}

// since returns the start of the request's time range.
func (r Request) since(now time.Time) time.Time {
	tr := r.TimeRange
	if !tr.Valid() {
		tr = models.TimeRangeDay
	}
	return now.Add(-tr.Duration())
}

// Client talks to one platform's official API and returns unnormalized
// items. Implementations return *models.SourceError for classified
// failures and wrap models.ErrNotSupported when the API cannot serve the
// request at all.
type Client interface {
	Platform() models.PlatformID
	Fetch(ctx context.Context, req Request) (*models.RawTrendSnapshot, error)
}

// NewClient builds the official API client for platform.
func NewClient(platform models.PlatformID, cfg config.PlatformConfig, userAgent string) (Client, error) {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	hc := httpClient{
		platform:  platform,
		baseURL:   cfg.BaseURL,
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}

	switch platform {
	case models.PlatformYouTube:
		return newYouTubeClient(hc, cfg), nil
	case models.PlatformInstagram:
		return newInstagramClient(hc, cfg), nil
	case models.PlatformTikTok:
		return newTikTokClient(hc, cfg), nil
	case models.PlatformTwitter:
		return newTwitterClient(hc, cfg), nil
	case models.PlatformReddit:
		return newRedditClient(hc, cfg), nil
	}
	return nil, fmt.Errorf("unknown platform %q", platform)
}
