// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package cache

import (
	"context"
	"time"
)

// DefaultSweepInterval is how often expired entries are removed.
const DefaultSweepInterval = 60 * time.Second

// Sweeper periodically removes expired entries. It implements
// suture.Service so it runs under the supervisor tree.
type Sweeper struct {
	cache    *TrendCache
	interval time.Duration
}

// NewSweeper creates a sweeper for c. A non-positive interval uses
// DefaultSweepInterval.
func NewSweeper(c *TrendCache, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{cache: c, interval: interval}
}

// Serve implements suture.Service.
func (s *Sweeper) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := s.cache.Sweep(ctx); n > 0 {
				s.cache.logger.Debug().Int("removed", n).Msg("swept expired cache entries")
			}
		}
	}
}

// String implements fmt.Stringer for suture logging.
func (s *Sweeper) String() string {
	return "cache-sweeper"
}
