// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/trendscope/internal/models"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Engine    EngineConfig    `koanf:"engine"`
	Cache     CacheConfig     `koanf:"cache"`
	Retry     RetryConfig     `koanf:"retry"`
	Breaker   BreakerConfig   `koanf:"breaker"`
	Scraper   ScraperConfig   `koanf:"scraper"`
	Platforms PlatformsConfig `koanf:"platforms"`
	NATS      NATSConfig      `koanf:"nats"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// EngineConfig controls query orchestration.
type EngineConfig struct {
	// QueryTimeout bounds a whole FetchTrends call. Platforms still running
	// when it expires are reported as timed out.
	QueryTimeout   time.Duration `koanf:"query_timeout"`
	MaxConcurrency int           `koanf:"max_concurrency"`
	// HistorySize is the number of fresh results kept per platform for prediction.
	HistorySize int `koanf:"history_size"`
}

// CacheConfig controls the trend cache and its backing store.
type CacheConfig struct {
	// Backend is memory, badger or redis.
	Backend       string        `koanf:"backend"`
	HashtagsTTL   time.Duration `koanf:"hashtags_ttl"`
	KeywordsTTL   time.Duration `koanf:"keywords_ttl"`
	ViralTTL      time.Duration `koanf:"viral_ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
	// FetchTimeout bounds a shared upstream fetch, independent of the
	// deadline of the query that started it.
	FetchTimeout  time.Duration `koanf:"fetch_timeout"`
	Shards        int           `koanf:"shards"`
	BadgerPath    string        `koanf:"badger_path"`
	RedisAddr     string        `koanf:"redis_addr"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db"`
	RedisPrefix   string        `koanf:"redis_prefix"`
}

// TTLFor returns the freshness window for dataType.
func (c CacheConfig) TTLFor(dataType models.DataType) time.Duration {
	switch dataType {
	case models.DataTypeKeywords:
		return c.KeywordsTTL
	case models.DataTypeViralContent:
		return c.ViralTTL
	default:
		return c.HashtagsTTL
	}
}

// RetryConfig is the backoff policy for transient upstream failures.
type RetryConfig struct {
	InitialInterval time.Duration `koanf:"initial_interval"`
	Multiplier      float64       `koanf:"multiplier"`
	MaxInterval     time.Duration `koanf:"max_interval"`
	MaxAttempts     int           `koanf:"max_attempts"`
}

// BreakerConfig holds per-source circuit breaker thresholds.
type BreakerConfig struct {
	FailureThreshold  uint32        `koanf:"failure_threshold"`
	OpenTimeout       time.Duration `koanf:"open_timeout"`
	HalfOpenSuccesses uint32        `koanf:"half_open_successes"`
}

// ScraperConfig holds scraping fallback politeness settings.
type ScraperConfig struct {
	Enabled   bool          `koanf:"enabled"`
	UserAgent string        `koanf:"user_agent"`
	MinDelay  time.Duration `koanf:"min_delay"`
	RobotsTTL time.Duration `koanf:"robots_ttl"`
	Timeout   time.Duration `koanf:"timeout"`
}

// PlatformConfig configures one source adapter.
type PlatformConfig struct {
	Enabled bool   `koanf:"enabled"`
	BaseURL string `koanf:"base_url"`
	APIKey  string `koanf:"api_key"`
	// AccountID is the business account the Instagram Graph API queries.
	AccountID string `koanf:"account_id"`
	Region    string `koanf:"region"`

	RateLimit       int           `koanf:"rate_limit"`
	RateWindow      time.Duration `koanf:"rate_window"`
	MaxPending      int           `koanf:"max_pending"`
	MaxQueueRetries int           `koanf:"max_queue_retries"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`

	ScrapeURL string `koanf:"scrape_url"`
	// Scrape selectors use "css" for element text or "css@attr" for an attribute.
	ScrapeItem   string `koanf:"scrape_item"`
	ScrapeID     string `koanf:"scrape_id"`
	ScrapeTitle  string `koanf:"scrape_title"`
	ScrapeLink   string `koanf:"scrape_link"`
	ScrapeVolume string `koanf:"scrape_volume"`
	// ScrapeKind is the data type scraped items represent. Empty means posts,
	// from which hashtags and keywords are derived.
	ScrapeKind string `koanf:"scrape_kind"`
}

// HasCredentials reports whether an API key or token is configured.
func (p PlatformConfig) HasCredentials() bool { return p.APIKey != "" }

// HasScraper reports whether a scraping fallback target is configured.
func (p PlatformConfig) HasScraper() bool { return p.ScrapeURL != "" && p.ScrapeItem != "" }

// PlatformsConfig has one section per supported platform.
type PlatformsConfig struct {
	YouTube   PlatformConfig `koanf:"youtube"`
	Instagram PlatformConfig `koanf:"instagram"`
	TikTok    PlatformConfig `koanf:"tiktok"`
	Twitter   PlatformConfig `koanf:"twitter"`
	Reddit    PlatformConfig `koanf:"reddit"`
}

// Get returns the section for id.
func (p PlatformsConfig) Get(id models.PlatformID) (PlatformConfig, bool) {
	switch id {
	case models.PlatformYouTube:
		return p.YouTube, true
	case models.PlatformInstagram:
		return p.Instagram, true
	case models.PlatformTikTok:
		return p.TikTok, true
	case models.PlatformTwitter:
		return p.Twitter, true
	case models.PlatformReddit:
		return p.Reddit, true
	}
	return PlatformConfig{}, false
}

// RequiresCredentials reports whether the official API for id needs a key.
// Reddit's public listing endpoints do not.
func RequiresCredentials(id models.PlatformID) bool {
	return id != models.PlatformReddit
}

// NATSConfig configures publishing of fresh trend snapshots.
type NATSConfig struct {
	Enabled       bool   `koanf:"enabled"`
	URL           string `koanf:"url"`
	SubjectPrefix string `koanf:"subject_prefix"`
	// EmbeddedServer starts an in-process broker on the URL's port.
	EmbeddedServer bool          `koanf:"embedded_server"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
}
