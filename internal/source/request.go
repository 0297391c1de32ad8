// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/trendscope/internal/models"
)

// maxErrorBody caps how much of an error response is kept for messages.
const maxErrorBody = 512

// apiRequest holds parameters for one upstream API call.
type apiRequest struct {
	path    string
	params  url.Values
	headers http.Header
}

func newAPIRequest(path string) *apiRequest {
	return &apiRequest{path: path, params: url.Values{}, headers: http.Header{}}
}

// addParam adds a query parameter when value is non-empty.
func (r *apiRequest) addParam(key, value string) *apiRequest {
	if value != "" {
		r.params.Set(key, value)
	}
	return r
}

// addIntParam adds an integer query parameter (only if > 0).
func (r *apiRequest) addIntParam(key string, value int) *apiRequest {
	if value > 0 {
		r.params.Set(key, strconv.Itoa(value))
	}
	return r
}

func (r *apiRequest) header(key, value string) *apiRequest {
	r.headers.Set(key, value)
	return r
}

func (r *apiRequest) buildURL(baseURL string) string {
	u := strings.TrimRight(baseURL, "/") + r.path
	if len(r.params) > 0 {
		u += "?" + r.params.Encode()
	}
	return u
}

// errorClassifier lets a client recognise provider-specific error bodies,
// e.g. an OAuth error reported with HTTP 400. It returns nil to fall back
// to status-code classification.
type errorClassifier func(status int, body []byte) error

// httpClient performs upstream calls for one platform and maps transport
// and HTTP failures onto SourceError codes.
type httpClient struct {
	platform  models.PlatformID
	baseURL   string
	client    *http.Client
	userAgent string
	classify  errorClassifier
}

// getJSON executes req and decodes a 2xx body into out.
func (c *httpClient) getJSON(ctx context.Context, req *apiRequest, out interface{}) error {
	return c.do(ctx, http.MethodGet, req, nil, out)
}

// postJSON sends payload as a JSON body and decodes a 2xx reply into out.
func (c *httpClient) postJSON(ctx context.Context, req *apiRequest, payload, out interface{}) error {
	return c.do(ctx, http.MethodPost, req, payload, out)
}

func (c *httpClient) do(ctx context.Context, method string, req *apiRequest, payload, out interface{}) error {
	var body io.Reader = http.NoBody
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, req.buildURL(c.baseURL), body)
	if err != nil {
		return fmt.Errorf("create request failed: %w", err)
	}
	httpReq.Header = req.headers.Clone()
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return c.transportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return c.statusError(resp, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &models.SourceError{
			Code:     models.ErrCodeSourceError,
			Platform: c.platform,
			Message:  "failed to decode response",
			Err:      err,
		}
	}
	return nil
}

// transportError separates the caller's own deadline from upstream network
// trouble. Only the latter is worth retrying.
func (c *httpClient) transportError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	se := &models.SourceError{
		Code:     models.ErrCodeTransientUpstream,
		Platform: c.platform,
		Message:  "request failed",
		Err:      err,
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		se.Message = "upstream request timed out"
	}
	return se
}

func (c *httpClient) statusError(resp *http.Response, body []byte) error {
	if c.classify != nil {
		if err := c.classify(resp.StatusCode, body); err != nil {
			return err
		}
	}
	return classifyStatus(c.platform, resp.StatusCode, resp.Header.Get("Retry-After"), body)
}

// classifyStatus maps an HTTP error status onto the error taxonomy.
func classifyStatus(platform models.PlatformID, status int, retryAfter string, body []byte) error {
	msg := fmt.Sprintf("HTTP %d", status)
	if snippet := strings.TrimSpace(string(body)); snippet != "" {
		msg += ": " + snippet
	}
	se := &models.SourceError{Platform: platform, StatusCode: status, Message: msg}

	switch {
	case status == http.StatusTooManyRequests:
		se.Code = models.ErrCodeTransientUpstream
		se.RetryAfter = parseRetryAfter(retryAfter, time.Now())
	case status == http.StatusNotImplemented || status == http.StatusNotFound:
		se.Code = models.ErrCodeSourceError
		se.Err = models.ErrNotSupported
	case status >= 500:
		se.Code = models.ErrCodeTransientUpstream
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		se.Code = models.ErrCodeExpiredCredentials
	default:
		se.Code = models.ErrCodeSourceError
	}
	return se
}

// parseRetryAfter accepts delta-seconds or an HTTP date (RFC 9110).
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}
