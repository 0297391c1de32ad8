// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package main

import (
	"context"
	"fmt"

	"github.com/tomtom215/trendscope/internal/cache"
	"github.com/tomtom215/trendscope/internal/config"
	"github.com/tomtom215/trendscope/internal/logging"
)

// openStore opens the cache backend selected by cfg.Backend.
func openStore(ctx context.Context, cfg config.CacheConfig) (cache.Store, error) {
	switch cfg.Backend {
	case "", "memory":
		logging.Info().Int("shards", cfg.Shards).Msg("Using in-memory trend cache")
		return cache.NewMemoryStore(cfg.Shards), nil
	case "badger":
		store, err := cache.OpenBadgerStore(cfg.BadgerPath)
		if err != nil {
			return nil, fmt.Errorf("open badger cache: %w", err)
		}
		logging.Info().Str("path", cfg.BadgerPath).Msg("Using BadgerDB trend cache")
		return store, nil
	case "redis":
		store, err := cache.NewRedisStore(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("connect redis cache: %w", err)
		}
		logging.Info().Str("addr", cfg.RedisAddr).Int("db", cfg.RedisDB).Msg("Using Redis trend cache")
		return store, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
