// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package models

import (
	"time"
)

// APIResponse is the envelope used by every HTTP endpoint.
//
// Status is "success" or "error". On success Data carries the payload; on
// error Error is populated.
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": [{"platform": "youtube", "status": "ok", "hashtags": [...]}],
//	  "metadata": {"timestamp": "2026-10-18T12:00:00Z", "query_time_ms": 812}
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {"code": "VALIDATION_ERROR", "message": "unknown platform \"myspace\""},
//	  "metadata": {"timestamp": "2026-10-18T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response timing.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError is the structured error body of a failed request.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// PredictionResponse is returned by the predictions endpoint.
type PredictionResponse struct {
	Platforms   []PlatformID `json:"platforms"`
	Identifiers []string     `json:"identifiers"`
	HistorySize int          `json:"history_size"`
}
