// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package source

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/trendscope/internal/models"
	"github.com/tomtom215/trendscope/internal/testinfra"
)

func TestClassifyStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status       int
		want         models.ErrorCode
		notSupported bool
	}{
		{http.StatusTooManyRequests, models.ErrCodeTransientUpstream, false},
		{http.StatusInternalServerError, models.ErrCodeTransientUpstream, false},
		{http.StatusServiceUnavailable, models.ErrCodeTransientUpstream, false},
		{http.StatusUnauthorized, models.ErrCodeExpiredCredentials, false},
		{http.StatusForbidden, models.ErrCodeExpiredCredentials, false},
		{http.StatusNotFound, models.ErrCodeSourceError, true},
		{http.StatusNotImplemented, models.ErrCodeSourceError, true},
		{http.StatusBadRequest, models.ErrCodeSourceError, false},
		{http.StatusConflict, models.ErrCodeSourceError, false},
	}
	for _, tt := range tests {
		err := classifyStatus(models.PlatformYouTube, tt.status, "", nil)
		if got := models.CodeOf(err); got != tt.want {
			t.Errorf("HTTP %d: code = %s, want %s", tt.status, got, tt.want)
		}
		if got := errors.Is(err, models.ErrNotSupported); got != tt.notSupported {
			t.Errorf("HTTP %d: ErrNotSupported = %v, want %v", tt.status, got, tt.notSupported)
		}
	}
}

func TestClassifyStatus_RetryAfter(t *testing.T) {
	t.Parallel()

	err := classifyStatus(models.PlatformReddit, http.StatusTooManyRequests, "7", []byte("slow down"))
	var se *models.SourceError
	if !errors.As(err, &se) {
		t.Fatalf("expected SourceError, got %T", err)
	}
	if se.RetryAfter != 7*time.Second {
		t.Errorf("RetryAfter = %v, want 7s", se.RetryAfter)
	}
	if !strings.Contains(se.Message, "slow down") {
		t.Errorf("expected body in message, got %q", se.Message)
	}
}

func TestParseRetryAfter(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := map[string]time.Duration{
		"":                              0,
		"30":                            30 * time.Second,
		"-5":                            0,
		"soon":                          0,
		"Sun, 01 Mar 2026 12:00:20 GMT": 20 * time.Second,
		"Sun, 01 Mar 2026 11:00:00 GMT": 0,
	}
	for in, want := range tests {
		if got := parseRetryAfter(in, now); got != want {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestAPIRequestBuildURL(t *testing.T) {
	t.Parallel()

	u := newAPIRequest("/r/popular/top.json").
		addParam("t", "day").
		addParam("empty", "").
		addIntParam("limit", 25).
		addIntParam("zero", 0).
		buildURL("https://www.reddit.com/")
	if u != "https://www.reddit.com/r/popular/top.json?limit=25&t=day" {
		t.Errorf("unexpected URL %s", u)
	}
}

func TestHTTPClient_ContextDeadlineIsNotTransient(t *testing.T) {
	up := testinfra.NewMockUpstream(t)
	up.Default = testinfra.Response{Status: http.StatusOK, Body: "{}", Delay: 500 * time.Millisecond}

	hc := httpClient{platform: models.PlatformReddit, baseURL: up.URL(), client: http.DefaultClient}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var out map[string]interface{}
	err := hc.getJSON(ctx, newAPIRequest("/slow"), &out)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline, got %v", err)
	}
	if models.CodeOf(err) != models.ErrCodeTimeout {
		t.Errorf("expected timeout code, got %s", models.CodeOf(err))
	}
}

func TestHTTPClient_DecodeFailure(t *testing.T) {
	up := testinfra.NewMockUpstream(t)
	up.Script("/bad", testinfra.JSON("{not json"))

	hc := httpClient{platform: models.PlatformReddit, baseURL: up.URL(), client: http.DefaultClient}
	var out map[string]interface{}
	if err := hc.getJSON(context.Background(), newAPIRequest("/bad"), &out); models.CodeOf(err) != models.ErrCodeSourceError {
		t.Errorf("expected source_error, got %v", err)
	}
}

func TestProviderErrorClassifiers(t *testing.T) {
	youtubeQuota, _ := json.Marshal(map[string]interface{}{
		"error": map[string]interface{}{"code": 403, "errors": []map[string]string{{"reason": "quotaExceeded"}}},
	})
	graphExpired := `{"error":{"message":"Error validating access token","type":"OAuthException","code":190}}`
	graphThrottled := `{"error":{"message":"Application request limit reached","type":"OAuthException","code":4}}`

	tests := []struct {
		name     string
		platform models.PlatformID
		path     string
		resp     testinfra.Response
		want     models.ErrorCode
	}{
		{"youtube quota", models.PlatformYouTube, "/youtube/v3/videos", testinfra.Response{Status: http.StatusForbidden, Body: string(youtubeQuota)}, models.ErrCodeRateLimited},
		{"youtube bare 403", models.PlatformYouTube, "/youtube/v3/videos", testinfra.Status(http.StatusForbidden), models.ErrCodeExpiredCredentials},
		{"instagram token expired", models.PlatformInstagram, "/v19.0/17841400000000000/media", testinfra.Response{Status: http.StatusBadRequest, Body: graphExpired}, models.ErrCodeExpiredCredentials},
		{"instagram throttled", models.PlatformInstagram, "/v19.0/17841400000000000/media", testinfra.Response{Status: http.StatusBadRequest, Body: graphThrottled}, models.ErrCodeTransientUpstream},
		{"tiktok invalid token", models.PlatformTikTok, "/v2/research/video/query/", testinfra.JSON(`{"data":{},"error":{"code":"access_token_invalid","message":"token expired"}}`), models.ErrCodeExpiredCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := testinfra.NewMockUpstream(t)
			up.Script(tt.path, tt.resp)

			_, err := testClient(t, tt.platform, up.URL(), "key").Fetch(context.Background(), Request{TimeRange: models.TimeRangeDay})
			if got := models.CodeOf(err); got != tt.want {
				t.Errorf("code = %s, want %s (err %v)", got, tt.want, err)
			}
		})
	}
}
