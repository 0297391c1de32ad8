// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/trendscope/internal/models"
)

// DefaultConfigPaths lists the paths searched for a config file, in priority order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/trendscope/config.yaml",
	"/etc/trendscope/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultPlatform(baseURL string, limit int, window time.Duration) PlatformConfig {
	return PlatformConfig{
		BaseURL:         baseURL,
		RateLimit:       limit,
		RateWindow:      window,
		MaxPending:      100,
		MaxQueueRetries: 3,
		RequestTimeout:  10 * time.Second,
	}
}

// defaultConfig returns the built-in defaults. Rate limits follow each
// platform's documented quota for a single application key.
func defaultConfig() *Config {
	reddit := defaultPlatform("https://www.reddit.com", 60, time.Minute)
	reddit.Enabled = true

	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8089,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   120,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Engine: EngineConfig{
			QueryTimeout:   5 * time.Second,
			MaxConcurrency: 8,
			HistorySize:    48,
		},
		Cache: CacheConfig{
			Backend:       "memory",
			HashtagsTTL:   10 * time.Minute,
			KeywordsTTL:   15 * time.Minute,
			ViralTTL:      10 * time.Minute,
			SweepInterval: 60 * time.Second,
			FetchTimeout:  30 * time.Second,
			Shards:        32,
			BadgerPath:    "/data/trendscope/cache",
			RedisAddr:     "127.0.0.1:6379",
			RedisPrefix:   "trendscope:",
		},
		Retry: RetryConfig{
			InitialInterval: time.Second,
			Multiplier:      2,
			MaxInterval:     10 * time.Second,
			MaxAttempts:     4,
		},
		Breaker: BreakerConfig{
			FailureThreshold:  5,
			OpenTimeout:       60 * time.Second,
			HalfOpenSuccesses: 2,
		},
		Scraper: ScraperConfig{
			Enabled:   true,
			UserAgent: "TrendscopeBot/1.0 (+https://github.com/tomtom215/trendscope)",
			MinDelay:  time.Second,
			RobotsTTL: time.Hour,
			Timeout:   15 * time.Second,
		},
		Platforms: PlatformsConfig{
			YouTube:   defaultPlatform("https://www.googleapis.com", 100, 100*time.Second),
			Instagram: defaultPlatform("https://graph.facebook.com", 200, time.Hour),
			TikTok:    defaultPlatform("https://open.tiktokapis.com", 1000, 24*time.Hour),
			Twitter:   defaultPlatform("https://api.twitter.com", 450, 15*time.Minute),
			Reddit:    reddit,
		},
		NATS: NATSConfig{
			Enabled:        false,
			URL:            "nats://127.0.0.1:4222",
			SubjectPrefix:  "trends",
			ConnectTimeout: 5 * time.Second,
		},
	}
}

// LoadWithKoanf loads configuration in three layers, later layers winning:
//  1. built-in defaults
//  2. optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. environment variables
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// YOUTUBE_API_KEY -> platforms.youtube.api_key, HTTP_PORT -> server.port
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields splits comma-separated env values for slice fields.
// Values already loaded as slices from YAML are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps flat environment variable names to config paths.
var envMappings = map[string]string{
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"cors_origins":          "server.cors_origins",
	"rate_limit_requests":   "server.rate_limit_reqs",
	"rate_limit_window":     "server.rate_limit_window",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"query_timeout":          "engine.query_timeout",
	"engine_max_concurrency": "engine.max_concurrency",
	"history_size":           "engine.history_size",

	"cache_backend":        "cache.backend",
	"cache_hashtags_ttl":   "cache.hashtags_ttl",
	"cache_keywords_ttl":   "cache.keywords_ttl",
	"cache_viral_ttl":      "cache.viral_ttl",
	"cache_sweep_interval": "cache.sweep_interval",
	"cache_fetch_timeout":  "cache.fetch_timeout",
	"cache_badger_path":    "cache.badger_path",
	"redis_addr":           "cache.redis_addr",
	"redis_password":       "cache.redis_password",
	"redis_db":             "cache.redis_db",

	"retry_initial_interval": "retry.initial_interval",
	"retry_multiplier":       "retry.multiplier",
	"retry_max_interval":     "retry.max_interval",
	"retry_max_attempts":     "retry.max_attempts",

	"breaker_failure_threshold":   "breaker.failure_threshold",
	"breaker_open_timeout":        "breaker.open_timeout",
	"breaker_half_open_successes": "breaker.half_open_successes",

	"scraper_enabled":    "scraper.enabled",
	"scraper_user_agent": "scraper.user_agent",
	"scraper_min_delay":  "scraper.min_delay",
	"scraper_robots_ttl": "scraper.robots_ttl",
	"scraper_timeout":    "scraper.timeout",

	"nats_enabled":         "nats.enabled",
	"nats_url":             "nats.url",
	"nats_subject_prefix":  "nats.subject_prefix",
	"nats_embedded":        "nats.embedded_server",
	"nats_connect_timeout": "nats.connect_timeout",
}

// platformFields are the keys accepted after a platform prefix, e.g.
// TIKTOK_SCRAPE_URL or YOUTUBE_RATE_LIMIT.
var platformFields = map[string]bool{
	"enabled": true, "base_url": true, "api_key": true, "account_id": true, "region": true,
	"rate_limit": true, "rate_window": true, "max_pending": true, "max_queue_retries": true,
	"request_timeout": true, "scrape_url": true, "scrape_item": true, "scrape_id": true,
	"scrape_title": true, "scrape_link": true, "scrape_volume": true, "scrape_kind": true,
}

// envTransformFunc maps an environment variable name to a koanf path.
// Unknown variables map to "" and are ignored.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)
	if path, ok := envMappings[key]; ok {
		return path
	}

	prefix, field, found := strings.Cut(key, "_")
	if !found || !models.PlatformID(prefix).Valid() {
		return ""
	}
	// Accept both YOUTUBE_TOKEN and YOUTUBE_API_KEY for the credential.
	if field == "token" || field == "bearer_token" || field == "access_token" {
		field = "api_key"
	}
	if !platformFields[field] {
		return ""
	}
	return "platforms." + prefix + "." + field
}
