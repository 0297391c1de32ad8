// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package models

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrorCode is the machine-readable classification of a source failure.
type ErrorCode string

const (
	// ErrCodeTransientUpstream is retryable within the backoff policy.
	ErrCodeTransientUpstream ErrorCode = "transient_upstream_error"
	// ErrCodeRateLimited means the request could not be admitted by the source budget.
	ErrCodeRateLimited ErrorCode = "rate_limited"
	// ErrCodeExpiredCredentials means the platform rejected our credentials; the
	// caller must reconnect. Never retried.
	ErrCodeExpiredCredentials ErrorCode = "expired_credentials"
	ErrCodeScrapingForbidden  ErrorCode = "scraping_forbidden"
	ErrCodeTimeout            ErrorCode = "timeout"
	ErrCodeSourceError        ErrorCode = "source_error"
	// ErrCodeSourceUnavailable is returned while a source's circuit is open.
	ErrCodeSourceUnavailable ErrorCode = "source_unavailable"
)

// Retryable reports whether errors with this code go through backoff.
func (c ErrorCode) Retryable() bool {
	return c == ErrCodeTransientUpstream
}

// ErrorInfo is the error annotation attached to a failed TrendData.
type ErrorInfo struct {
	Code           ErrorCode `json:"code"`
	Message        string    `json:"message"`
	ReauthRequired bool      `json:"reauth_required,omitempty"`
	RetryAfterMS   int64     `json:"retry_after_ms,omitempty"`
}

// SourceError is the error type produced by adapters, the scraper and the
// rate limiter.
type SourceError struct {
	Code       ErrorCode
	Platform   PlatformID
	Message    string
	StatusCode int
	RetryAfter time.Duration
	Err        error
}

func (e *SourceError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Platform != "" {
		return fmt.Sprintf("%s: %s: %s", e.Platform, e.Code, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *SourceError) Unwrap() error { return e.Err }

// NewSourceError creates a SourceError with a formatted message.
func NewSourceError(platform PlatformID, code ErrorCode, format string, args ...interface{}) *SourceError {
	return &SourceError{
		Code:     code,
		Platform: platform,
		Message:  fmt.Sprintf(format, args...),
	}
}

// ErrNotSupported is returned by platform clients when the official API cannot
// serve a request at all, e.g. the endpoint does not exist for this account.
var ErrNotSupported = errors.New("operation not supported by official API")

// CodeOf extracts the ErrorCode from err. Context deadline errors map to
// timeout; anything unrecognized is a source_error.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var se *SourceError
	if errors.As(err, &se) {
		return se.Code
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrCodeTimeout
	}
	return ErrCodeSourceError
}

// ErrorInfoFrom converts any error into its wire annotation.
func ErrorInfoFrom(err error) *ErrorInfo {
	if err == nil {
		return nil
	}
	info := &ErrorInfo{Code: CodeOf(err), Message: err.Error()}

	var se *SourceError
	if errors.As(err, &se) {
		if se.Message != "" {
			info.Message = se.Message
		}
		info.RetryAfterMS = se.RetryAfter.Milliseconds()
	}
	switch info.Code {
	case ErrCodeExpiredCredentials:
		info.ReauthRequired = true
	case ErrCodeTimeout:
		if se == nil {
			info.Message = "source did not respond within the query deadline"
		}
	}
	return info
}
