// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package models

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestErrorInfoFrom(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantCode   ErrorCode
		wantReauth bool
		wantRetry  int64
	}{
		{
			name:       "expired credentials require reauth",
			err:        NewSourceError(PlatformInstagram, ErrCodeExpiredCredentials, "token expired"),
			wantCode:   ErrCodeExpiredCredentials,
			wantReauth: true,
		},
		{
			name:      "wrapped rate limit keeps retry after",
			err:       fmt.Errorf("fetch: %w", &SourceError{Code: ErrCodeRateLimited, RetryAfter: 1500 * time.Millisecond}),
			wantCode:  ErrCodeRateLimited,
			wantRetry: 1500,
		},
		{name: "deadline is timeout", err: context.DeadlineExceeded, wantCode: ErrCodeTimeout},
		{name: "unknown is source error", err: errors.New("boom"), wantCode: ErrCodeSourceError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			info := ErrorInfoFrom(tt.err)
			if info == nil {
				t.Fatal("Expected non-nil ErrorInfo")
			}
			if info.Code != tt.wantCode {
				t.Errorf("Code = %v, want %v", info.Code, tt.wantCode)
			}
			if info.ReauthRequired != tt.wantReauth {
				t.Errorf("ReauthRequired = %v, want %v", info.ReauthRequired, tt.wantReauth)
			}
			if info.RetryAfterMS != tt.wantRetry {
				t.Errorf("RetryAfterMS = %d, want %d", info.RetryAfterMS, tt.wantRetry)
			}
			if info.Message == "" {
				t.Error("Expected a human-readable message")
			}
		})
	}

	if ErrorInfoFrom(nil) != nil {
		t.Error("Expected nil ErrorInfo for nil error")
	}
}

func TestFailedTrendData(t *testing.T) {
	t.Parallel()

	td := Failed(PlatformTikTok, context.DeadlineExceeded, time.Now())
	if td.Status != StatusFailed {
		t.Errorf("Status = %v, want failed", td.Status)
	}
	if td.Error == nil || td.Error.Code != ErrCodeTimeout {
		t.Errorf("Error = %+v, want timeout", td.Error)
	}
	if td.Hashtags == nil || td.Keywords == nil || td.ViralContent == nil {
		t.Error("Expected empty, non-nil entry slices")
	}
}
