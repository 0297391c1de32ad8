// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/trendscope/internal/cache"
	"github.com/tomtom215/trendscope/internal/config"
	"github.com/tomtom215/trendscope/internal/models"
	ws "github.com/tomtom215/trendscope/internal/websocket"
)

func platformConfig(enabled bool) config.PlatformConfig {
	return config.PlatformConfig{
		Enabled:        enabled,
		BaseURL:        "https://example.com",
		RateLimit:      60,
		RateWindow:     time.Minute,
		RequestTimeout: time.Second,
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Retry:   config.RetryConfig{InitialInterval: time.Second, Multiplier: 2, MaxInterval: 10 * time.Second, MaxAttempts: 4},
		Breaker: config.BreakerConfig{FailureThreshold: 5, OpenTimeout: time.Minute, HalfOpenSuccesses: 2},
		Scraper: config.ScraperConfig{Enabled: true, UserAgent: "TrendscopeTest/1.0"},
	}
}

func TestOpenStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	mem, err := openStore(ctx, config.CacheConfig{Backend: "memory", Shards: 4})
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	if _, ok := mem.(*cache.MemoryStore); !ok {
		t.Errorf("memory backend returned %T", mem)
	}

	bdg, err := openStore(ctx, config.CacheConfig{Backend: "badger", BadgerPath: filepath.Join(t.TempDir(), "cache")})
	if err != nil {
		t.Fatalf("badger store: %v", err)
	}
	if _, ok := bdg.(*cache.BadgerStore); !ok {
		t.Errorf("badger backend returned %T", bdg)
	}
	if err := bdg.Close(); err != nil {
		t.Errorf("close badger: %v", err)
	}

	if _, err := openStore(ctx, config.CacheConfig{Backend: "etcd"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestInitSources(t *testing.T) {
	t.Parallel()

	t.Run("enabled platforms in order", func(t *testing.T) {
		cfg := testConfig()
		cfg.Platforms.Reddit = platformConfig(true)
		cfg.Platforms.YouTube = platformConfig(true)
		cfg.Platforms.YouTube.APIKey = "key"

		adapters, err := initSources(cfg)
		if err != nil {
			t.Fatalf("initSources: %v", err)
		}
		if len(adapters) != 2 {
			t.Fatalf("expected 2 adapters, got %d", len(adapters))
		}
		if adapters[0].Platform() != models.PlatformYouTube || adapters[1].Platform() != models.PlatformReddit {
			t.Errorf("unexpected order: %s, %s", adapters[0].Platform(), adapters[1].Platform())
		}
	})

	t.Run("scrape-only platform", func(t *testing.T) {
		cfg := testConfig()
		cfg.Platforms.TikTok = platformConfig(true)
		cfg.Platforms.TikTok.ScrapeURL = "https://example.com/trending"
		cfg.Platforms.TikTok.ScrapeItem = ".trend"

		adapters, err := initSources(cfg)
		if err != nil {
			t.Fatalf("initSources: %v", err)
		}
		st := adapters[0].Status()
		if st.HasCredentials || !st.ScrapeFallback {
			t.Errorf("expected scrape-only adapter, got %+v", st)
		}
	})

	t.Run("missing credentials without fallback", func(t *testing.T) {
		cfg := testConfig()
		cfg.Scraper.Enabled = false
		cfg.Platforms.Twitter = platformConfig(true)

		if _, err := initSources(cfg); err == nil {
			t.Error("expected error for twitter without credentials or fallback")
		}
	})

	t.Run("nothing enabled", func(t *testing.T) {
		if _, err := initSources(testConfig()); err == nil {
			t.Error("expected error when no platform is enabled")
		}
	})
}

func TestInitNATS(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		c, err := InitNATS(config.NATSConfig{Enabled: false}, ws.NewHub())
		if err != nil || c != nil {
			t.Fatalf("expected nil components, got %v, %v", c, err)
		}
		if c.Publisher() != nil || c.Bridge() != nil {
			t.Error("nil components should expose nil publisher and bridge")
		}
		c.Shutdown(context.Background())
	})

	t.Run("embedded server", func(t *testing.T) {
		c, err := InitNATS(config.NATSConfig{
			Enabled:        true,
			URL:            "nats://127.0.0.1:0",
			SubjectPrefix:  "trends",
			EmbeddedServer: true,
			ConnectTimeout: 2 * time.Second,
		}, ws.NewHub())
		if err != nil {
			t.Fatalf("InitNATS: %v", err)
		}
		defer c.Shutdown(context.Background())

		if c.Publisher() == nil || c.Bridge() == nil {
			t.Fatal("expected publisher and bridge")
		}
		if !c.Publisher().Conn().IsConnected() {
			t.Error("publisher should be connected to the embedded server")
		}
	})
}
