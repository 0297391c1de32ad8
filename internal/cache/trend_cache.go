// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/trendscope/internal/logging"
	"github.com/tomtom215/trendscope/internal/metrics"
	"github.com/tomtom215/trendscope/internal/models"
)

// TTLFunc returns the time-to-live for results of a data type.
type TTLFunc func(models.DataType) time.Duration

// FetchFunc produces a fresh result for a key on a cache miss.
type FetchFunc func(ctx context.Context) (models.TrendData, error)

// GroupFetchFunc produces fresh results for every data type of one platform
// and time range from a single upstream call.
type GroupFetchFunc func(ctx context.Context) (map[models.DataType]models.TrendData, error)

// GroupKey identifies one upstream fetch shared by all data types.
type GroupKey struct {
	Platform  models.PlatformID
	TimeRange models.TimeRange
}

// Key returns the per-type cache key within the group.
func (g GroupKey) Key(dt models.DataType) Key {
	return Key{Platform: g.Platform, DataType: dt, TimeRange: g.TimeRange}
}

func (g GroupKey) String() string {
	tr := g.TimeRange
	if tr == "" {
		tr = models.TimeRangeDay
	}
	return fmt.Sprintf("fetch:%s:%s", g.Platform, tr)
}

// ErrNilFetch is returned by GetOrFetch when no fetch function is given.
var ErrNilFetch = errors.New("cache: nil fetch function")

// TrendCache is the freshness layer in front of a Store.
//
// Concurrent misses for one key collapse into a single fetch. Only results
// with status ok are stored, so a failing platform is retried on the next
// query instead of being served stale errors for the TTL.
type TrendCache struct {
	store        Store
	ttl          TTLFunc
	group        singleflight.Group
	fetchTimeout time.Duration
	now          func() time.Time
	logger       zerolog.Logger

	hits      atomic.Int64
	misses    atomic.Int64
	fetches   atomic.Int64
	shared    atomic.Int64
	evictions atomic.Int64
	lastSweep atomic.Int64
}

// Option configures a TrendCache.
type Option func(*TrendCache)

// WithClock replaces time.Now. Used by tests to step past expiry.
func WithClock(now func() time.Time) Option {
	return func(c *TrendCache) { c.now = now }
}

// WithFetchTimeout bounds each shared fetch. The fetch does not inherit the
// cancellation of the caller that started it, so this is its only deadline.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *TrendCache) {
		if d > 0 {
			c.fetchTimeout = d
		}
	}
}

// WithLogger sets the logger used for store failures.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func WithLogger(logger zerolog.Logger) Option {
	return func(c *TrendCache) { c.logger = logger }
}

// New creates a TrendCache over store. A nil ttl falls back to DefaultTTL
// for every data type.
func New(store Store, ttl TTLFunc, opts ...Option) *TrendCache {
	if ttl == nil {
		ttl = func(models.DataType) time.Duration { return DefaultTTL }
	}
	c := &TrendCache{
		store:        store,
		ttl:          ttl,
		fetchTimeout: DefaultFetchTimeout,
		now:          time.Now,
		logger:       logging.WithComponent("cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

const (
	// DefaultTTL is the lower TTL bound, used when no TTLFunc is configured.
	DefaultTTL = 10 * time.Minute
	// DefaultFetchTimeout bounds a shared fetch when WithFetchTimeout is not set.
	DefaultFetchTimeout = 30 * time.Second
)

// Get returns the cached result for key if it has not expired. Expired
// entries are removed. Store failures are logged and reported as a miss.
func (c *TrendCache) Get(ctx context.Context, key Key) (models.TrendData, bool) {
	td, ok := c.lookup(ctx, key)
	if ok {
		c.hits.Add(1)
		metrics.RecordCacheLookup("hit")
	} else {
		c.misses.Add(1)
		metrics.RecordCacheLookup("miss")
	}
	return td, ok
}

func (c *TrendCache) lookup(ctx context.Context, key Key) (models.TrendData, bool) {
	k := key.String()
	entry, ok, err := c.store.Get(ctx, k)
	if err != nil {
		c.storeError("get", k, err)
		return models.TrendData{}, false
	}
	if !ok {
		return models.TrendData{}, false
	}
	if entry.Expired(c.now()) {
		if err := c.store.Delete(ctx, k); err != nil {
			c.storeError("delete", k, err)
		} else {
			c.evictions.Add(1)
			metrics.CacheEvictions.Inc()
		}
		return models.TrendData{}, false
	}
	return entry.Value, true
}

// GetOrFetch returns the cached result for key, or runs fetch once for all
// concurrent callers that miss on the same key. Each caller stops waiting
// when its own ctx is done.
//
// The shared fetch runs detached from every caller's cancellation and is
// bounded by the fetch timeout instead, so one caller giving up does not
// fail the others.
func (c *TrendCache) GetOrFetch(ctx context.Context, key Key, fetch FetchFunc) (models.TrendData, error) {
	if fetch == nil {
		return models.TrendData{}, ErrNilFetch
	}
	if td, ok := c.Get(ctx, key); ok {
		return td, nil
	}

	ch := c.group.DoChan(key.String(), func() (interface{}, error) {
		fctx, cancel := c.detach(ctx)
		defer cancel()

		// Another flight may have filled the key between our miss and now.
		if td, ok := c.lookup(fctx, key); ok {
			return td, nil
		}
		c.fetches.Add(1)
		metrics.CacheFetches.WithLabelValues("upstream").Inc()

		td, err := fetch(fctx)
		if err != nil {
			return models.TrendData{}, err
		}
		if td.Status == models.StatusOK {
			c.Put(fctx, key, td, c.ttl(key.DataType))
		}
		return td, nil
	})

	select {
	case <-ctx.Done():
		return models.TrendData{}, ctx.Err()
	case res := <-ch:
		c.countShared(res.Shared)
		if res.Err != nil {
			return models.TrendData{}, res.Err
		}
		td, _ := res.Val.(models.TrendData)
		return td, nil
	}
}

// GetOrFetchGroup returns results for dataTypes of one platform and range.
// Cached types are served from the store. If any type is missing, fetch runs
// once for all concurrent callers on the same group and each ok result it
// returns is stored under its own per-type Key.
//
// The returned map always holds every type that is available, even when an
// error is returned: on a fetch error or when ctx is done, only the types
// that were already cached are present.
func (c *TrendCache) GetOrFetchGroup(ctx context.Context, gk GroupKey, dataTypes []models.DataType, fetch GroupFetchFunc) (map[models.DataType]models.TrendData, error) {
	if fetch == nil {
		return nil, ErrNilFetch
	}
	out := make(map[models.DataType]models.TrendData, len(dataTypes))
	var missing []models.DataType
	for _, dt := range dataTypes {
		if td, ok := c.Get(ctx, gk.Key(dt)); ok {
			out[dt] = td
		} else {
			missing = append(missing, dt)
		}
	}
	if len(missing) == 0 {
		return out, nil
	}

	ch := c.group.DoChan(gk.String(), func() (interface{}, error) {
		fctx, cancel := c.detach(ctx)
		defer cancel()

		if fresh, ok := c.lookupAll(fctx, gk, missing); ok {
			return fresh, nil
		}
		c.fetches.Add(1)
		metrics.CacheFetches.WithLabelValues("upstream").Inc()

		fresh, err := fetch(fctx)
		if err != nil {
			return nil, err
		}
		for dt, td := range fresh {
			if td.Status == models.StatusOK {
				c.Put(fctx, gk.Key(dt), td, c.ttl(dt))
			}
		}
		return fresh, nil
	})

	select {
	case <-ctx.Done():
		return out, ctx.Err()
	case res := <-ch:
		c.countShared(res.Shared)
		if res.Err != nil {
			return out, res.Err
		}
		fresh, _ := res.Val.(map[models.DataType]models.TrendData)
		for _, dt := range missing {
			if td, ok := fresh[dt]; ok {
				out[dt] = td
			} else if td, ok := c.lookup(ctx, gk.Key(dt)); ok {
				// The flight was led by a caller that needed other types.
				out[dt] = td
			}
		}
		return out, nil
	}
}

// lookupAll returns cached results for every type in dataTypes, or false if
// any of them is missing.
func (c *TrendCache) lookupAll(ctx context.Context, gk GroupKey, dataTypes []models.DataType) (map[models.DataType]models.TrendData, bool) {
	out := make(map[models.DataType]models.TrendData, len(dataTypes))
	for _, dt := range dataTypes {
		td, ok := c.lookup(ctx, gk.Key(dt))
		if !ok {
			return nil, false
		}
		out[dt] = td
	}
	return out, true
}

// detach returns a context for a shared fetch: it keeps ctx's values, such as
// the request logger, but not its cancellation.
func (c *TrendCache) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
}

func (c *TrendCache) countShared(shared bool) {
	if shared {
		c.shared.Add(1)
		metrics.CacheFetches.WithLabelValues("shared").Inc()
	}
}

// Put stores data under key for ttl, overwriting any existing entry.
func (c *TrendCache) Put(ctx context.Context, key Key, data models.TrendData, ttl time.Duration) {
	now := c.now()
	entry := Entry{
		Key:       key.String(),
		Value:     data,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := c.store.Set(ctx, entry); err != nil {
		c.storeError("set", entry.Key, err)
	}
}

// Invalidate removes the entry for key.
func (c *TrendCache) Invalidate(ctx context.Context, key Key) {
	if err := c.store.Delete(ctx, key.String()); err != nil {
		c.storeError("delete", key.String(), err)
	}
}

// Sweep removes every expired entry from the store and returns the count.
func (c *TrendCache) Sweep(ctx context.Context) int {
	now := c.now()
	n, err := c.store.DeleteExpired(ctx, now)
	if err != nil && !errors.Is(err, context.Canceled) {
		c.storeError("sweep", "", err)
	}
	if n > 0 {
		c.evictions.Add(int64(n))
		metrics.CacheEvictions.Add(float64(n))
	}
	c.lastSweep.Store(now.UnixNano())
	return n
}

// Close closes the underlying store.
func (c *TrendCache) Close() error {
	return c.store.Close()
}

func (c *TrendCache) storeError(op, key string, err error) {
	metrics.CacheStoreErrors.WithLabelValues(op).Inc()
	c.logger.Warn().Err(err).Str("operation", op).Str("key", key).Msg("cache store error, treating as miss")
}

// Stats is a point-in-time view of cache activity.
type Stats struct {
	Hits      int64     `json:"hits"`
	Misses    int64     `json:"misses"`
	Fetches   int64     `json:"fetches"`
	Shared    int64     `json:"shared"`
	Evictions int64     `json:"evictions"`
	LastSweep time.Time `json:"last_sweep,omitempty"`
}

// GetStats returns a snapshot of the cache counters.
func (c *TrendCache) GetStats() Stats {
	s := Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Fetches:   c.fetches.Load(),
		Shared:    c.shared.Load(),
		Evictions: c.evictions.Load(),
	}
	if ns := c.lastSweep.Load(); ns != 0 {
		s.LastSweep = time.Unix(0, ns)
	}
	return s
}

// HitRate returns the cache hit rate as a percentage.
func (c *TrendCache) HitRate() float64 {
	s := c.GetStats()
	total := s.Hits + s.Misses
	if total == 0 {
		return 0.0
	}
	return float64(s.Hits) / float64(total) * 100.0
}
