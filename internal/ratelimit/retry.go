// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package ratelimit

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/tomtom215/trendscope/internal/logging"
	"github.com/tomtom215/trendscope/internal/metrics"
	"github.com/tomtom215/trendscope/internal/models"
)

// Policy is an exponential backoff schedule.
type Policy struct {
	InitialInterval time.Duration
	Multiplier      float64
	MaxInterval     time.Duration
	// MaxAttempts counts the first call, so 4 means three retries.
	MaxAttempts int
}

// DefaultPolicy retries three times after the first call, waiting 1s, 2s
// and 4s, then fails. Longer schedules are capped at 10s per wait.
func DefaultPolicy() Policy {
	return Policy{
		InitialInterval: time.Second,
		Multiplier:      2,
		MaxInterval:     10 * time.Second,
		MaxAttempts:     4,
	}
}

func (p Policy) normalized() Policy {
	d := DefaultPolicy()
	if p.InitialInterval <= 0 {
		p.InitialInterval = d.InitialInterval
	}
	if p.Multiplier < 1 {
		p.Multiplier = d.Multiplier
	}
	if p.MaxInterval <= 0 {
		p.MaxInterval = d.MaxInterval
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	return p
}

// Delay returns the wait before retry n (1-based): InitialInterval *
// Multiplier^(n-1), capped at MaxInterval.
func (p Policy) Delay(n int) time.Duration {
	p = p.normalized()
	if n < 1 {
		n = 1
	}
	d := float64(p.InitialInterval) * math.Pow(p.Multiplier, float64(n-1))
	if d >= float64(p.MaxInterval) {
		return p.MaxInterval
	}
	return time.Duration(d)
}

func (p Policy) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.Multiplier = p.Multiplier
	b.MaxInterval = p.MaxInterval
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Retrier runs an operation under a Policy. Only transient upstream errors
// are retried; every other error ends the loop at once.
type Retrier struct {
	policy   Policy
	platform models.PlatformID
	newTimer func() backoff.Timer
	logger   zerolog.Logger
}

// RetrierOption configures a Retrier.
type RetrierOption func(*Retrier)

// WithTimer injects the timer used between attempts.
func WithTimer(newTimer func() backoff.Timer) RetrierOption {
	return func(r *Retrier) { r.newTimer = newTimer }
}

// NewRetrier creates a Retrier for platform.
func NewRetrier(platform models.PlatformID, policy Policy, opts ...RetrierOption) *Retrier {
	r := &Retrier{
		policy:   policy.normalized(),
		platform: platform,
		logger:   logging.WithComponent("retry").With().Str("platform", string(platform)).Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Policy returns the effective policy.
func (r *Retrier) Policy() Policy {
	return r.policy
}

// Do calls op until it succeeds, returns a non-retryable error, the
// attempts are exhausted or ctx ends. The returned error is op's last error
// unwrapped, or ctx.Err().
//
// A Retry-After hint on a SourceError stretches the next wait, never past
// MaxInterval.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var hint time.Duration
	hinted := &hintedBackOff{BackOff: r.policy.backOff(), hint: &hint, max: r.policy.MaxInterval}
	b := backoff.WithContext(backoff.WithMaxRetries(hinted, uint64(r.policy.MaxAttempts-1)), ctx)

	attempt := 0
	operation := func() error {
		attempt++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !models.CodeOf(err).Retryable() {
			return backoff.Permanent(err)
		}
		var se *models.SourceError
		if errors.As(err, &se) && se.RetryAfter > 0 {
			hint = se.RetryAfter
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		metrics.SourceRetries.WithLabelValues(string(r.platform)).Inc()
		r.logger.Warn().Err(err).
			Int("attempt", attempt).
			Int("max_attempts", r.policy.MaxAttempts).
			Dur("retry_delay", wait).
			Msg("transient upstream error, retrying")
	}

	var timer backoff.Timer
	if r.newTimer != nil {
		timer = r.newTimer()
	}
	return backoff.RetryNotifyWithTimer(operation, b, notify, timer)
}

// hintedBackOff lets a server supplied Retry-After lengthen one wait.
type hintedBackOff struct {
	backoff.BackOff
	hint *time.Duration
	max  time.Duration
}

func (h *hintedBackOff) NextBackOff() time.Duration {
	d := h.BackOff.NextBackOff()
	if d == backoff.Stop {
		return d
	}
	if *h.hint > d {
		d = min(*h.hint, h.max)
	}
	*h.hint = 0
	return d
}
