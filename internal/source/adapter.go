// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/trendscope/internal/config"
	"github.com/tomtom215/trendscope/internal/logging"
	"github.com/tomtom215/trendscope/internal/metrics"
	"github.com/tomtom215/trendscope/internal/models"
	"github.com/tomtom215/trendscope/internal/ratelimit"
	"github.com/tomtom215/trendscope/internal/scraper"
)

// Fallback reasons recorded in metrics and logs.
const (
	FallbackNoCredentials = "no_credentials"
	FallbackBreakerOpen   = "breaker_open"
	FallbackNotSupported  = "not_supported"
)

// Scraper is the fallback acquisition path.
type Scraper interface {
	Scrape(ctx context.Context, t scraper.Target) (*models.RawTrendSnapshot, error)
}

// Adapter is the single entry point for one platform. It combines the
// official API client with the platform's request budget, retry policy,
// circuit breaker and scraping fallback.
type Adapter struct {
	platform models.PlatformID
	client   Client
	budget   *ratelimit.Budget
	retrier  *ratelimit.Retrier
	breaker  *Breaker
	health   *Health

	scraper   Scraper
	target    scraper.Target
	hasTarget bool

	now    func() time.Time
	logger zerolog.Logger
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithBudget sets the request budget. The default allows 60 requests a minute.
func WithBudget(b *ratelimit.Budget) AdapterOption {
	return func(a *Adapter) { a.budget = b }
}

// WithRetrier sets the retry policy runner.
func WithRetrier(r *ratelimit.Retrier) AdapterOption {
	return func(a *Adapter) { a.retrier = r }
}

// WithBreaker sets the circuit breaker.
func WithBreaker(b *Breaker) AdapterOption {
	return func(a *Adapter) { a.breaker = b }
}

// WithHealth sets the health tracker.
func WithHealth(h *Health) AdapterOption {
	return func(a *Adapter) { a.health = h }
}

// WithFallback enables scraping t when the official API cannot serve a request.
func WithFallback(s Scraper, t scraper.Target) AdapterOption {
	return func(a *Adapter) {
		if s == nil {
			return
		}
		a.scraper = s
		a.target = t
		a.hasTarget = true
	}
}

// WithAdapterClock replaces time.Now for result timestamps.
func WithAdapterClock(now func() time.Time) AdapterOption {
	return func(a *Adapter) { a.now = now }
}

// NewAdapter creates an adapter for platform. A nil client means no usable
// credentials: every fetch goes to the fallback, or fails with
// expired_credentials when there is none.
func NewAdapter(platform models.PlatformID, client Client, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		platform: platform,
		client:   client,
		now:      time.Now,
		logger:   logging.WithComponent("source").With().Str("platform", string(platform)).Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.budget == nil {
		a.budget = ratelimit.NewBudget(ratelimit.BudgetConfig{Platform: platform, Limit: 60, Window: time.Minute})
	}
	if a.retrier == nil {
		a.retrier = ratelimit.NewRetrier(platform, ratelimit.DefaultPolicy())
	}
	if a.breaker == nil {
		a.breaker = NewBreaker(platform, DefaultBreakerSettings())
	}
	if a.health == nil {
		a.health = NewHealth(DefaultHealthWindow, a.now)
	}
	return a
}

// NewAdapterFromConfig builds the adapter for platform from cfg. scr may be
// nil when scraping is disabled.
func NewAdapterFromConfig(platform models.PlatformID, cfg *config.Config, scr Scraper) (*Adapter, error) {
	pc, ok := cfg.Platforms.Get(platform)
	if !ok {
		return nil, fmt.Errorf("unknown platform %q", platform)
	}

	var client Client
	if pc.HasCredentials() || !config.RequiresCredentials(platform) {
		c, err := NewClient(platform, pc, cfg.Scraper.UserAgent)
		if err != nil {
			return nil, fmt.Errorf("create %s client: %w", platform, err)
		}
		client = c
	}

	opts := []AdapterOption{
		WithBudget(ratelimit.NewBudget(ratelimit.BudgetConfig{
			Platform:   platform,
			Limit:      pc.RateLimit,
			Window:     pc.RateWindow,
			MaxPending: pc.MaxPending,
			MaxRetries: pc.MaxQueueRetries,
		})),
		WithRetrier(ratelimit.NewRetrier(platform, ratelimit.Policy{
			InitialInterval: cfg.Retry.InitialInterval,
			Multiplier:      cfg.Retry.Multiplier,
			MaxInterval:     cfg.Retry.MaxInterval,
			MaxAttempts:     cfg.Retry.MaxAttempts,
		})),
		WithBreaker(NewBreaker(platform, BreakerSettings{
			FailureThreshold:  cfg.Breaker.FailureThreshold,
			OpenTimeout:       cfg.Breaker.OpenTimeout,
			HalfOpenSuccesses: cfg.Breaker.HalfOpenSuccesses,
		})),
	}
	if t, ok := scraper.TargetFromConfig(platform, pc); ok && cfg.Scraper.Enabled && scr != nil {
		opts = append(opts, WithFallback(scr, t))
	}
	return NewAdapter(platform, client, opts...), nil
}

// Platform returns the platform this adapter serves.
func (a *Adapter) Platform() models.PlatformID { return a.platform }

// Budget exposes the request budget so its drain loop can be supervised.
func (a *Adapter) Budget() *ratelimit.Budget { return a.budget }

// Fetch acquires and normalizes trend data for dataTypes over timeRange.
// On failure the returned TrendData is a failed result carrying the error
// annotation, and the error is returned as well.
func (a *Adapter) Fetch(ctx context.Context, dataTypes []models.DataType, timeRange models.TimeRange) (models.TrendData, error) {
	if a.client == nil {
		if a.hasTarget {
			return a.fallback(ctx, dataTypes, FallbackNoCredentials)
		}
		err := models.NewSourceError(a.platform, models.ErrCodeExpiredCredentials, "no API credentials configured")
		a.health.RecordFailure(err)
		return a.failed(err)
	}

	if a.breaker.Open() {
		if a.hasTarget {
			return a.fallback(ctx, dataTypes, FallbackBreakerOpen)
		}
		err := models.NewSourceError(a.platform, models.ErrCodeSourceUnavailable, "circuit breaker is open")
		a.health.RecordFailure(err)
		return a.failed(err)
	}

	snap, err := a.fetchAPI(ctx, Request{DataTypes: dataTypes, TimeRange: timeRange})
	if err != nil {
		a.health.RecordFailure(err)
		if a.hasTarget {
			switch {
			case errors.Is(err, models.ErrNotSupported):
				return a.fallback(ctx, dataTypes, FallbackNotSupported)
			case models.CodeOf(err) == models.ErrCodeSourceUnavailable:
				return a.fallback(ctx, dataTypes, FallbackBreakerOpen)
			}
		}
		if models.CodeOf(err) == models.ErrCodeExpiredCredentials {
			a.logger.Warn().Err(err).Msg("platform rejected credentials, reauthorization required")
		}
		return a.failed(err)
	}

	a.health.RecordSuccess()
	return Normalize(snap, dataTypes), nil
}

// fetchAPI runs the official client under the retry policy. Every attempt
// takes a budget slot and goes through the breaker.
func (a *Adapter) fetchAPI(ctx context.Context, req Request) (*models.RawTrendSnapshot, error) {
	var snap *models.RawTrendSnapshot
	err := a.retrier.Do(ctx, func(ctx context.Context) error {
		if err := a.budget.Acquire(ctx, "api-fetch"); err != nil {
			metrics.RecordSourceRequest(string(a.platform), outcomeOf(err), 0)
			return err
		}
		start := time.Now()
		s, err := a.breaker.Execute(func() (*models.RawTrendSnapshot, error) {
			return a.client.Fetch(ctx, req)
		})
		metrics.RecordSourceRequest(string(a.platform), outcomeOf(err), time.Since(start))
		if err != nil {
			return err
		}
		snap = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (a *Adapter) fallback(ctx context.Context, dataTypes []models.DataType, reason string) (models.TrendData, error) {
	metrics.SourceFallbacks.WithLabelValues(string(a.platform), reason).Inc()
	a.health.RecordFallback()
	a.logger.Info().Str("reason", reason).Str("url", a.target.URL).Msg("using scraping fallback")

	snap, err := a.scraper.Scrape(ctx, a.target)
	if err != nil {
		a.logger.Warn().Err(err).Msg("scraping fallback failed")
		return a.failed(err)
	}
	return Normalize(snap, dataTypes), nil
}

func (a *Adapter) failed(err error) (models.TrendData, error) {
	return models.Failed(a.platform, err, a.now().UTC()), err
}

func outcomeOf(err error) string {
	if err == nil {
		return "success"
	}
	return string(models.CodeOf(err))
}

// Status is the operational view of an adapter reported by the sources
// endpoint.
type Status struct {
	Platform            models.PlatformID  `json:"platform"`
	HasCredentials      bool               `json:"has_credentials"`
	ScrapeFallback      bool               `json:"scrape_fallback"`
	CircuitState        string             `json:"circuit_state"`
	ConsecutiveFailures uint32             `json:"consecutive_failures"`
	Budget              ratelimit.Snapshot `json:"budget"`
	Health              HealthSnapshot     `json:"health"`
}

// Status returns the adapter's current breaker, budget and health state.
func (a *Adapter) Status() Status {
	return Status{
		Platform:            a.platform,
		HasCredentials:      a.client != nil,
		ScrapeFallback:      a.hasTarget,
		CircuitState:        a.breaker.State(),
		ConsecutiveFailures: a.breaker.ConsecutiveFailures(),
		Budget:              a.budget.Snapshot(),
		Health:              a.health.Snapshot(),
	}
}
