// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

/*
Package config loads and validates Trendscope configuration.

# Configuration Sources

LoadWithKoanf layers three sources, later ones winning:
  - built-in defaults (defaultConfig)
  - an optional YAML file found via CONFIG_PATH or DefaultConfigPaths
  - environment variables

# Environment Variables

Flat names map onto nested paths:

	HTTP_PORT=8089           -> server.port
	QUERY_TIMEOUT=5s         -> engine.query_timeout
	CACHE_BACKEND=redis      -> cache.backend
	YOUTUBE_API_KEY=...      -> platforms.youtube.api_key
	TWITTER_TOKEN=...        -> platforms.twitter.api_key
	TIKTOK_SCRAPE_URL=...    -> platforms.tiktok.scrape_url

Any PLATFORM_FIELD pair is accepted for the fields of PlatformConfig.

# Example YAML

	engine:
	  query_timeout: 5s
	cache:
	  backend: badger
	  hashtags_ttl: 10m
	  keywords_ttl: 15m
	platforms:
	  youtube:
	    enabled: true
	    api_key: ${YOUTUBE_API_KEY}
	    rate_limit: 100
	    rate_window: 100s
	  tiktok:
	    enabled: true
	    scrape_url: https://www.tiktok.com/discover
	    scrape_item: "a.trend-card"
	    scrape_title: "h3"
	    scrape_link: "@href"
	    scrape_volume: ".views"

# Validation

Validate fails fast at startup. Cache TTLs must lie in [10m, 15m] and the
scraping delay must be at least one second. Every enabled platform must be
servable, either through a configured credential or a scraping target. A
credential that is revoked later does not fail startup; the engine
reports that platform as needing reauthorization at query time.
*/
package config
