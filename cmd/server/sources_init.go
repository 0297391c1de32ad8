// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package main

import (
	"fmt"

	"github.com/tomtom215/trendscope/internal/config"
	"github.com/tomtom215/trendscope/internal/logging"
	"github.com/tomtom215/trendscope/internal/models"
	"github.com/tomtom215/trendscope/internal/scraper"
	"github.com/tomtom215/trendscope/internal/source"
)

// initSources builds one adapter per enabled platform, in AllPlatforms order.
func initSources(cfg *config.Config) ([]*source.Adapter, error) {
	var scr source.Scraper
	if cfg.Scraper.Enabled {
		scr = scraper.New(scraper.Config{
			UserAgent: cfg.Scraper.UserAgent,
			MinDelay:  cfg.Scraper.MinDelay,
			RobotsTTL: cfg.Scraper.RobotsTTL,
			Timeout:   cfg.Scraper.Timeout,
		})
	}

	var adapters []*source.Adapter
	for _, id := range models.AllPlatforms {
		pc, _ := cfg.Platforms.Get(id)
		if !pc.Enabled {
			continue
		}
		a, err := source.NewAdapterFromConfig(id, cfg, scr)
		if err != nil {
			return nil, err
		}
		st := a.Status()
		if !st.HasCredentials && !st.ScrapeFallback {
			return nil, fmt.Errorf("platform %s has neither credentials nor a scraping fallback", id)
		}
		logging.Info().
			Str("platform", string(id)).
			Bool("credentials", st.HasCredentials).
			Bool("scrape_fallback", st.ScrapeFallback).
			Int("rate_limit", pc.RateLimit).
			Dur("rate_window", pc.RateWindow).
			Msg("Source adapter enabled")
		adapters = append(adapters, a)
	}
	if len(adapters) == 0 {
		return nil, fmt.Errorf("no platforms enabled")
	}
	return adapters, nil
}
