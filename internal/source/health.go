// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package source

import (
	"sync"
	"time"

	"github.com/tomtom215/trendscope/internal/models"
)

// windowCounter is a bucketed sliding window counter. The window is split
// into numBuckets buckets which are cleared as time moves past them.
type windowCounter struct {
	buckets    []int64
	bucketSize time.Duration
	current    int
	lastUpdate time.Time
}

func newWindowCounter(window time.Duration, numBuckets int, now time.Time) *windowCounter {
	if numBuckets <= 0 {
		numBuckets = 10
	}
	if window <= 0 {
		window = 5 * time.Minute
	}
	return &windowCounter{
		buckets:    make([]int64, numBuckets),
		bucketSize: window / time.Duration(numBuckets),
		lastUpdate: now,
	}
}

func (w *windowCounter) add(now time.Time, delta int64) {
	w.advance(now)
	w.buckets[w.current] += delta
}

func (w *windowCounter) count(now time.Time) int64 {
	w.advance(now)
	var total int64
	for _, c := range w.buckets {
		total += c
	}
	return total
}

// advance clears buckets that have left the window.
func (w *windowCounter) advance(now time.Time) {
	elapsed := int(now.Sub(w.lastUpdate) / w.bucketSize)
	if elapsed <= 0 {
		return
	}
	if elapsed >= len(w.buckets) {
		for i := range w.buckets {
			w.buckets[i] = 0
		}
		w.current = 0
	} else {
		for i := 0; i < elapsed; i++ {
			w.current = (w.current + 1) % len(w.buckets)
			w.buckets[w.current] = 0
		}
	}
	w.lastUpdate = w.lastUpdate.Add(time.Duration(elapsed) * w.bucketSize)
}

// DefaultHealthWindow is the period over which failure rates are computed.
const DefaultHealthWindow = 5 * time.Minute

// Health tracks recent outcomes of one source, independent of the circuit
// breaker. Unlike the breaker it counts expired credentials as failures.
type Health struct {
	mu             sync.Mutex
	now            func() time.Time
	successes      *windowCounter
	failures       *windowCounter
	lastError      *models.ErrorInfo
	lastSuccess    time.Time
	reauthRequired bool
	fallbacks      int64
}

// NewHealth creates a tracker over window.
func NewHealth(window time.Duration, now func() time.Time) *Health {
	if now == nil {
		now = time.Now
	}
	t := now()
	return &Health{
		now:       now,
		successes: newWindowCounter(window, 10, t),
		failures:  newWindowCounter(window, 10, t),
	}
}

// RecordSuccess notes a successful fetch and clears any reauth flag.
func (h *Health) RecordSuccess() {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := h.now()
	h.successes.add(now, 1)
	h.lastSuccess = now
	h.reauthRequired = false
}

// RecordFailure notes a failed fetch.
func (h *Health) RecordFailure(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failures.add(h.now(), 1)
	h.lastError = models.ErrorInfoFrom(err)
	if h.lastError != nil && h.lastError.ReauthRequired {
		h.reauthRequired = true
	}
}

// RecordFallback notes that the scraper served a request.
func (h *Health) RecordFallback() {
	h.mu.Lock()
	h.fallbacks++
	h.mu.Unlock()
}

// HealthSnapshot is a point-in-time view of a Health tracker.
type HealthSnapshot struct {
	Successes      int64             `json:"successes"`
	Failures       int64             `json:"failures"`
	FailureRate    float64           `json:"failure_rate"`
	LastError      *models.ErrorInfo `json:"last_error,omitempty"`
	LastSuccess    time.Time         `json:"last_success,omitempty"`
	ReauthRequired bool              `json:"reauth_required"`
	Fallbacks      int64             `json:"fallbacks"`
}

// Snapshot returns the current window counts.
func (h *Health) Snapshot() HealthSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := h.now()
	s := HealthSnapshot{
		Successes:      h.successes.count(now),
		Failures:       h.failures.count(now),
		LastSuccess:    h.lastSuccess,
		ReauthRequired: h.reauthRequired,
		Fallbacks:      h.fallbacks,
	}
	if h.lastError != nil {
		e := *h.lastError
		s.LastError = &e
	}
	if total := s.Successes + s.Failures; total > 0 {
		s.FailureRate = float64(s.Failures) / float64(total)
	}
	return s
}
