// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

/*
Package cache provides the TTL cache that sits in front of every platform
fetch.

# Overview

TrendCache stores per-(platform, data type, time range) results with a
data-type specific TTL (10 to 15 minutes). On a miss, GetOrFetch collapses
concurrent callers for the same key into one upstream fetch using
golang.org/x/sync/singleflight. GetOrFetchGroup does the same per
(platform, time range): one upstream call fills every data type, and each
type is stored under its own key. Only results with status ok are stored.

A shared fetch is detached from the cancellation of the caller that started
it and bounded by WithFetchTimeout instead. Each caller still stops waiting
when its own context is done.

# Backends

Persistence is delegated to a Store:
  - MemoryStore: sharded maps, one RWMutex per shard
  - BadgerStore: BadgerDB with native entry TTL, survives restarts
  - RedisStore: shared across replicas, expiry handled by Redis

Store failures are logged and counted in trendscope_cache_store_errors_total
and degrade to a miss; they are never returned to callers.

# Usage

	c := cache.New(cache.NewMemoryStore(0), cfg.Cache.TTLFor)
	td, err := c.GetOrFetch(ctx, cache.Key{
	    Platform:  models.PlatformReddit,
	    DataType:  models.DataTypeHashtags,
	    TimeRange: models.TimeRangeDay,
	}, fetch)

Expired entries are removed lazily on Get and periodically by Sweeper, which
runs as a suture service.
*/
package cache
