// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

/*
Package main is the entry point for the Trendscope server.

Trendscope aggregates trending hashtags, keywords and viral content from
YouTube, Instagram, TikTok, Twitter/X and Reddit behind one HTTP API, with
per-platform request budgets, retries, circuit breakers and a scraping
fallback for platforms whose official API is unavailable.

# Application Architecture

Services run under a Suture v4 supervisor tree:

	RootSupervisor ("trendscope")
	├── DataSupervisor ("data-layer")
	│   └── Cache sweeper
	├── SourcesSupervisor ("sources-layer")
	│   └── Request budget drain loop, one per enabled platform
	└── APISupervisor ("api-layer")
	    ├── WebSocket hub
	    ├── NATS bridge (when NATS_ENABLED=true)
	    └── HTTP server

Component initialization order:

 1. Configuration: Koanf v2 with defaults, optional YAML file and environment
 2. Logging: zerolog with JSON or console output
 3. Cache store: memory, BadgerDB or Redis (CACHE_BACKEND)
 4. Sources: one adapter per enabled platform, with optional scraping fallback
 5. Events: optional embedded NATS broker and publisher
 6. Engine: query orchestration, ranking and prediction
 7. HTTP server: Chi router with CORS, rate limiting and Prometheus metrics

# Configuration

Platforms are enabled and configured with <PLATFORM>_* variables:

	YOUTUBE_ENABLED=true
	YOUTUBE_API_KEY=...
	REDDIT_ENABLED=true
	TIKTOK_ENABLED=true
	TIKTOK_SCRAPE_URL=https://example.com/trending
	TIKTOK_SCRAPE_ITEM=.trend

A platform that needs credentials must have either an API key or a
scraping target; startup fails otherwise.

# Signal Handling

SIGINT and SIGTERM cancel the root context. The supervisor stops every
service, the HTTP server drains in-flight requests within
HTTP_SHUTDOWN_TIMEOUT, and the cache store and NATS connections are closed.
*/
package main
