// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/trendscope/internal/models"
)

// Trend data freshness bounds.
const (
	MinTrendTTL = 10 * time.Minute
	MaxTrendTTL = 15 * time.Minute

	// MinScrapeDelay is the floor for per-host scraping delay.
	MinScrapeDelay = time.Second
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateRetry(); err != nil {
		return err
	}
	if err := c.validateBreaker(); err != nil {
		return err
	}
	if err := c.validateScraper(); err != nil {
		return err
	}
	if err := c.validatePlatforms(); err != nil {
		return err
	}
	return c.validateNATS()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimitReqs < 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be non-negative")
	}
	if c.Server.RateLimitReqs > 0 && c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive when rate limiting is enabled")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, got %q", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateEngine() error {
	if c.Engine.QueryTimeout <= 0 {
		return fmt.Errorf("QUERY_TIMEOUT must be positive")
	}
	if c.Engine.MaxConcurrency < 1 {
		return fmt.Errorf("ENGINE_MAX_CONCURRENCY must be at least 1")
	}
	if c.Engine.HistorySize < 1 {
		return fmt.Errorf("HISTORY_SIZE must be at least 1")
	}
	return nil
}

func (c *Config) validateCache() error {
	for _, dt := range models.AllDataTypes {
		ttl := c.Cache.TTLFor(dt)
		if ttl < MinTrendTTL || ttl > MaxTrendTTL {
			return fmt.Errorf("cache TTL for %s must be between %v and %v, got %v", dt, MinTrendTTL, MaxTrendTTL, ttl)
		}
	}
	if c.Cache.SweepInterval <= 0 {
		return fmt.Errorf("CACHE_SWEEP_INTERVAL must be positive")
	}
	if c.Cache.FetchTimeout <= 0 {
		return fmt.Errorf("CACHE_FETCH_TIMEOUT must be positive")
	}

	switch c.Cache.Backend {
	case "memory":
		if c.Cache.Shards < 1 {
			return fmt.Errorf("cache shards must be at least 1")
		}
	case "badger":
		if c.Cache.BadgerPath == "" {
			return fmt.Errorf("CACHE_BADGER_PATH is required when CACHE_BACKEND=badger")
		}
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when CACHE_BACKEND=redis")
		}
	default:
		return fmt.Errorf("CACHE_BACKEND must be memory, badger or redis, got %q", c.Cache.Backend)
	}
	return nil
}

func (c *Config) validateRetry() error {
	r := c.Retry
	if r.InitialInterval <= 0 {
		return fmt.Errorf("RETRY_INITIAL_INTERVAL must be positive")
	}
	if r.Multiplier < 1 {
		return fmt.Errorf("RETRY_MULTIPLIER must be at least 1, got %v", r.Multiplier)
	}
	if r.MaxInterval < r.InitialInterval {
		return fmt.Errorf("RETRY_MAX_INTERVAL (%v) must not be below RETRY_INITIAL_INTERVAL (%v)", r.MaxInterval, r.InitialInterval)
	}
	if r.MaxAttempts < 1 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}

func (c *Config) validateBreaker() error {
	if c.Breaker.FailureThreshold < 1 {
		return fmt.Errorf("BREAKER_FAILURE_THRESHOLD must be at least 1")
	}
	if c.Breaker.OpenTimeout <= 0 {
		return fmt.Errorf("BREAKER_OPEN_TIMEOUT must be positive")
	}
	if c.Breaker.HalfOpenSuccesses < 1 {
		return fmt.Errorf("BREAKER_HALF_OPEN_SUCCESSES must be at least 1")
	}
	return nil
}

func (c *Config) validateScraper() error {
	if !c.Scraper.Enabled {
		return nil
	}
	if c.Scraper.UserAgent == "" {
		return fmt.Errorf("SCRAPER_USER_AGENT is required when scraping is enabled")
	}
	if c.Scraper.MinDelay < MinScrapeDelay {
		return fmt.Errorf("SCRAPER_MIN_DELAY must be at least %v, got %v", MinScrapeDelay, c.Scraper.MinDelay)
	}
	if c.Scraper.Timeout <= 0 {
		return fmt.Errorf("SCRAPER_TIMEOUT must be positive")
	}
	return nil
}

// validatePlatforms fails fast for any enabled platform that cannot be
// served at all: no credential for an API that needs one and no scraping
// fallback to use instead.
func (c *Config) validatePlatforms() error {
	enabled := 0
	for _, id := range models.AllPlatforms {
		p, _ := c.Platforms.Get(id)
		if !p.Enabled {
			continue
		}
		enabled++
		name := strings.ToUpper(string(id))

		if err := validateBaseURL(p.BaseURL, name+"_BASE_URL"); err != nil {
			return err
		}
		if p.RateLimit < 1 || p.RateWindow <= 0 {
			return fmt.Errorf("%s_RATE_LIMIT and %s_RATE_WINDOW must be positive", name, name)
		}
		if p.MaxPending < 0 || p.MaxQueueRetries < 0 {
			return fmt.Errorf("%s_MAX_PENDING and %s_MAX_QUEUE_RETRIES must be non-negative", name, name)
		}
		if p.RequestTimeout <= 0 {
			return fmt.Errorf("%s_REQUEST_TIMEOUT must be positive", name)
		}

		scrapable := c.Scraper.Enabled && p.HasScraper()
		if p.ScrapeURL != "" {
			if err := validateBaseURL(p.ScrapeURL, name+"_SCRAPE_URL"); err != nil {
				return err
			}
			if p.ScrapeKind != "" && !models.DataType(p.ScrapeKind).Valid() {
				return fmt.Errorf("%s_SCRAPE_KIND must be a data type, got %q", name, p.ScrapeKind)
			}
		}
		if RequiresCredentials(id) && !p.HasCredentials() && !scrapable {
			return fmt.Errorf("%s_API_KEY is required when %s_ENABLED=true and no scraping fallback is configured", name, name)
		}
		if id == models.PlatformInstagram && p.HasCredentials() && p.AccountID == "" {
			return fmt.Errorf("INSTAGRAM_ACCOUNT_ID is required with INSTAGRAM_API_KEY")
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one platform must be enabled")
	}
	return nil
}

func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}
	if err := validateNATSURL(c.NATS.URL); err != nil {
		return fmt.Errorf("NATS_URL is invalid: %w", err)
	}
	if c.NATS.SubjectPrefix == "" {
		return fmt.Errorf("NATS_SUBJECT_PREFIX is required when NATS is enabled")
	}
	return nil
}
