// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package source

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/trendscope/internal/logging"
	"github.com/tomtom215/trendscope/internal/metrics"
	"github.com/tomtom215/trendscope/internal/models"
)

// BreakerSettings configures a per-source circuit breaker.
type BreakerSettings struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit.
	FailureThreshold uint32
	// OpenTimeout is how long the circuit stays open before probing.
	OpenTimeout time.Duration
	// HalfOpenSuccesses is the number of consecutive probe successes that
	// closes the circuit again. It also caps concurrent probes.
	HalfOpenSuccesses uint32
}

// DefaultBreakerSettings opens after 5 consecutive failures, probes after
// 60s and closes after 2 successful probes.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{FailureThreshold: 5, OpenTimeout: 60 * time.Second, HalfOpenSuccesses: 2}
}

// Circuit states as reported in source health.
const (
	StateClosed   = "closed"
	StateHalfOpen = "half_open"
	StateOpen     = "open"
)

// Breaker wraps one platform's API calls with gobreaker.
//
// Expired credentials and caller cancellation do not count as failures:
// neither says anything about the upstream's health, and an open circuit
// would hide the reauth signal behind source_unavailable.
type Breaker struct {
	cb       *gobreaker.CircuitBreaker[*models.RawTrendSnapshot]
	name     string
	platform models.PlatformID
}

// NewBreaker creates the breaker for platform.
func NewBreaker(platform models.PlatformID, s BreakerSettings) *Breaker {
	d := DefaultBreakerSettings()
	if s.FailureThreshold == 0 {
		s.FailureThreshold = d.FailureThreshold
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = d.OpenTimeout
	}
	if s.HalfOpenSuccesses == 0 {
		s.HalfOpenSuccesses = d.HalfOpenSuccesses
	}

	name := string(platform) + "-api"
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[*models.RawTrendSnapshot](gobreaker.Settings{
		Name:        name,
		MaxRequests: s.HalfOpenSuccesses,
		Timeout:     s.OpenTimeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			trip := counts.ConsecutiveFailures >= s.FailureThreshold
			if trip {
				logging.Warn().Str("platform", string(platform)).
					Uint32("consecutive_failures", counts.ConsecutiveFailures).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return trip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().Str("platform", string(platform)).Str("from", fromStr).Str("to", toStr).
				Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},

		IsSuccessful: breakerSuccess,
	})

	return &Breaker{cb: cb, name: name, platform: platform}
}

func breakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, models.ErrNotSupported) {
		return true
	}
	return models.CodeOf(err) == models.ErrCodeExpiredCredentials
}

// Execute runs fn through the breaker. When the circuit rejects the call,
// fn is not invoked and a source_unavailable SourceError is returned.
func (b *Breaker) Execute(fn func() (*models.RawTrendSnapshot, error)) (*models.RawTrendSnapshot, error) {
	result, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			return nil, &models.SourceError{
				Code:     models.ErrCodeSourceUnavailable,
				Platform: b.platform,
				Message:  "circuit breaker is " + b.State(),
				Err:      err,
			}
		}
		if breakerSuccess(err) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		}
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(float64(b.cb.Counts().ConsecutiveFailures))
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(0)
	return result, nil
}

// State returns closed, half_open or open.
func (b *Breaker) State() string {
	return stateToString(b.cb.State())
}

// Open reports whether calls are currently being short-circuited.
func (b *Breaker) Open() bool {
	return b.cb.State() == gobreaker.StateOpen
}

// ConsecutiveFailures returns the current failure streak.
func (b *Breaker) ConsecutiveFailures() uint32 {
	return b.cb.Counts().ConsecutiveFailures
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return StateClosed
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	case gobreaker.StateOpen:
		return StateOpen
	default:
		return "unknown"
	}
}
