// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/trendscope/internal/models"
)

// Key identifies one cached result. The time range is part of the key so a
// 1h query never serves a cached 7d result.
type Key struct {
	Platform  models.PlatformID
	DataType  models.DataType
	TimeRange models.TimeRange
}

// String returns the storage key, e.g. "trends:youtube:hashtags:24h".
func (k Key) String() string {
	tr := k.TimeRange
	if tr == "" {
		tr = models.TimeRangeDay
	}
	return fmt.Sprintf("trends:%s:%s:%s", k.Platform, k.DataType, tr)
}

// Entry is a cached trend result. ExpiresAt is always CreatedAt plus the TTL
// for the entry's data type.
type Entry struct {
	Key       string           `json:"key"`
	Value     models.TrendData `json:"value"`
	CreatedAt time.Time        `json:"created_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// Expired reports whether the entry is stale at now.
func (e Entry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Store is the persistence surface behind TrendCache. Implementations only
// need get, put and delete-if-expired semantics; freshness is decided by
// TrendCache using Entry.ExpiresAt.
type Store interface {
	// Get returns the entry for key. A missing key is (Entry{}, false, nil).
	Get(ctx context.Context, key string) (Entry, bool, error)
	// Set overwrites the entry for entry.Key.
	Set(ctx context.Context, entry Entry) error
	Delete(ctx context.Context, key string) error
	// DeleteExpired removes entries stale at now and returns how many it removed.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
	Close() error
}
