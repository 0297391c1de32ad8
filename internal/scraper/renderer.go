// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/tomtom215/trendscope/internal/models"
)

// maxPageSize caps how much of a page is read.
const maxPageSize = 5 << 20

// Renderer produces the HTML for a page. Pages that need JavaScript can be
// served by a headless-browser implementation; the default is a plain GET.
type Renderer interface {
	Render(ctx context.Context, pageURL string) ([]byte, error)
}

// HTTPRenderer fetches pages with a single GET request.
type HTTPRenderer struct {
	Client    *http.Client
	UserAgent string
}

// Render implements Renderer.
func (r *HTTPRenderer) Render(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("User-Agent", r.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := r.Client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &models.SourceError{Code: models.ErrCodeTransientUpstream, Message: "page request failed", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, &models.SourceError{Code: models.ErrCodeTransientUpstream, StatusCode: resp.StatusCode, Message: fmt.Sprintf("page returned HTTP %d", resp.StatusCode)}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &models.SourceError{Code: models.ErrCodeScrapingForbidden, StatusCode: resp.StatusCode, Message: fmt.Sprintf("page access denied with HTTP %d", resp.StatusCode)}
	default:
		return nil, &models.SourceError{Code: models.ErrCodeSourceError, StatusCode: resp.StatusCode, Message: fmt.Sprintf("page returned HTTP %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return nil, &models.SourceError{Code: models.ErrCodeTransientUpstream, Message: "reading page failed", Err: err}
	}
	return body, nil
}
