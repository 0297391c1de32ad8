// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/trendscope/internal/logging"
	"github.com/tomtom215/trendscope/internal/metrics"
	"github.com/tomtom215/trendscope/internal/models"
)

// Defaults applied when a BudgetConfig field is zero.
const (
	DefaultMaxPending = 100
	DefaultMaxRetries = 3
)

// BudgetConfig configures a Budget.
type BudgetConfig struct {
	Platform   models.PlatformID
	Limit      int
	Window     time.Duration
	MaxPending int
	MaxRetries int
}

// Decision is the outcome of TryAcquire.
type Decision struct {
	Granted bool
	// RetryAfter is the time left in the current window when denied.
	RetryAfter time.Duration
}

// QueuedRequest is a request waiting for window capacity.
type QueuedRequest struct {
	ID        uuid.UUID `json:"id"`
	Label     string    `json:"label"`
	ArrivedAt time.Time `json:"arrived_at"`
	Retries   int       `json:"retries"`
}

type waiter struct {
	req  QueuedRequest
	done chan error
}

// Budget is a fixed-window request budget for one upstream source with a
// FIFO queue for requests that arrive after the window is spent.
//
// Queued requests only make progress while Run is active.
type Budget struct {
	cfg    BudgetConfig
	now    func() time.Time
	logger zerolog.Logger

	mu          sync.Mutex
	windowStart time.Time
	inWindow    int
	pending     []*waiter
	wake        chan struct{}
}

// BudgetOption configures a Budget.
type BudgetOption func(*Budget)

// WithClock replaces time.Now for window bookkeeping.
func WithClock(now func() time.Time) BudgetOption {
	return func(b *Budget) { b.now = now }
}

// NewBudget creates a budget. Limit and Window must be positive.
func NewBudget(cfg BudgetConfig, opts ...BudgetOption) *Budget {
	if cfg.Limit <= 0 {
		cfg.Limit = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.MaxPending <= 0 {
		cfg.MaxPending = DefaultMaxPending
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	b := &Budget{
		cfg:    cfg,
		now:    time.Now,
		logger: logging.WithComponent("ratelimit").With().Str("platform", string(cfg.Platform)).Logger(),
		wake:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.windowStart = b.now()
	return b
}

// roll starts a new window if the current one has ended. Caller holds mu.
func (b *Budget) roll(now time.Time) {
	if now.Sub(b.windowStart) < b.cfg.Window {
		return
	}
	// Align to window boundaries so windows never drift.
	elapsed := now.Sub(b.windowStart)
	b.windowStart = b.windowStart.Add(elapsed - elapsed%b.cfg.Window)
	b.inWindow = 0
}

func (b *Budget) windowEnd() time.Time {
	return b.windowStart.Add(b.cfg.Window)
}

// TryAcquire takes one slot from the current window without queueing.
func (b *Budget) TryAcquire() Decision {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	b.roll(now)
	if b.inWindow < b.cfg.Limit {
		b.inWindow++
		b.record("granted")
		return Decision{Granted: true}
	}
	b.record("denied")
	return Decision{RetryAfter: b.windowEnd().Sub(now)}
}

// Acquire takes one slot, queueing behind earlier requests when the window
// is spent. It returns a rate_limited SourceError when the queue is full or
// the request outlives MaxRetries drain passes, and ctx.Err() if ctx ends
// first.
func (b *Budget) Acquire(ctx context.Context, label string) error {
	b.mu.Lock()
	now := b.now()
	b.roll(now)
	if len(b.pending) == 0 && b.inWindow < b.cfg.Limit {
		b.inWindow++
		b.record("granted")
		b.mu.Unlock()
		return nil
	}
	if len(b.pending) >= b.cfg.MaxPending {
		retryAfter := b.windowEnd().Sub(now)
		b.record("rejected")
		b.mu.Unlock()
		return b.rejection("request queue full", retryAfter)
	}
	w := &waiter{
		req: QueuedRequest{
			ID:        uuid.New(),
			Label:     label,
			ArrivedAt: now,
			Retries:   1,
		},
		done: make(chan error, 1),
	}
	b.pending = append(b.pending, w)
	b.record("queued")
	b.updateDepth()
	b.mu.Unlock()

	b.signal()

	select {
	case err := <-w.done:
		return err
	case <-ctx.Done():
		b.mu.Lock()
		removed := b.remove(w)
		b.mu.Unlock()
		if !removed {
			// Drain resolved it concurrently; a granted slot is consumed.
			<-w.done
		}
		return ctx.Err()
	}
}

// remove drops w from the queue. Caller holds mu.
func (b *Budget) remove(w *waiter) bool {
	for i, p := range b.pending {
		if p == w {
			b.pending = append(b.pending[:i], b.pending[i+1:]...)
			b.updateDepth()
			return true
		}
	}
	return false
}

func (b *Budget) signal() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Run drains the queue at every window boundary until ctx is done. On
// shutdown every pending request is rejected.
func (b *Budget) Run(ctx context.Context) error {
	timer := time.NewTimer(b.untilNextWindow())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			b.rejectAll("rate limiter shutting down")
			return ctx.Err()
		case <-b.wake:
			b.drain(false)
		case <-timer.C:
			b.drain(true)
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(b.untilNextWindow())
	}
}

func (b *Budget) untilNextWindow() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	d := b.windowEnd().Sub(b.now())
	if d <= 0 {
		return time.Millisecond
	}
	return d
}

// Drain runs one drain pass immediately. Run calls it at every window
// boundary; it is exported for callers that drive the budget manually.
func (b *Budget) Drain() {
	b.drain(true)
}

// drain grants queued requests oldest first while the window has room.
// When boundary is set, every request that still cannot be served counts a
// retry and is rejected once it exceeds MaxRetries.
func (b *Budget) drain(boundary bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.roll(b.now())
	for len(b.pending) > 0 && b.inWindow < b.cfg.Limit {
		w := b.pending[0]
		b.pending = b.pending[1:]
		b.inWindow++
		b.record("dequeued")
		w.done <- nil
	}
	if !boundary {
		b.updateDepth()
		return
	}

	kept := b.pending[:0]
	for _, w := range b.pending {
		w.req.Retries++
		if w.req.Retries > b.cfg.MaxRetries {
			b.record("rejected")
			b.logger.Debug().
				Str("request_id", w.req.ID.String()).
				Str("label", w.req.Label).
				Int("retries", w.req.Retries-1).
				Msg("queued request exceeded retry limit")
			w.done <- b.rejection("queued request exceeded retry limit", b.windowEnd().Sub(b.now()))
			continue
		}
		kept = append(kept, w)
	}
	b.pending = kept
	b.updateDepth()
}

func (b *Budget) rejectAll(reason string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, w := range b.pending {
		w.done <- b.rejection(reason, 0)
	}
	b.pending = nil
	b.updateDepth()
}

func (b *Budget) rejection(msg string, retryAfter time.Duration) error {
	err := models.NewSourceError(b.cfg.Platform, models.ErrCodeRateLimited, "%s", msg)
	err.RetryAfter = retryAfter
	return err
}

func (b *Budget) record(decision string) {
	metrics.RateLimitDecisions.WithLabelValues(string(b.cfg.Platform), decision).Inc()
}

func (b *Budget) updateDepth() {
	metrics.RateLimitQueueDepth.WithLabelValues(string(b.cfg.Platform)).Set(float64(len(b.pending)))
}

// Pending returns a copy of the queued requests in arrival order.
func (b *Budget) Pending() []QueuedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]QueuedRequest, len(b.pending))
	for i, w := range b.pending {
		out[i] = w.req
	}
	return out
}

// Snapshot is a point-in-time view of a Budget.
type Snapshot struct {
	Limit       int           `json:"limit"`
	Window      time.Duration `json:"window"`
	InWindow    int           `json:"in_window"`
	WindowStart time.Time     `json:"window_start"`
	Pending     int           `json:"pending"`
}

// Snapshot returns the current window state.
func (b *Budget) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.roll(b.now())
	return Snapshot{
		Limit:       b.cfg.Limit,
		Window:      b.cfg.Window,
		InWindow:    b.inWindow,
		WindowStart: b.windowStart,
		Pending:     len(b.pending),
	}
}

// String implements fmt.Stringer so a Budget can run as a suture service.
func (b *Budget) String() string {
	return "ratelimit-" + string(b.cfg.Platform)
}

// Serve implements suture.Service.
func (b *Budget) Serve(ctx context.Context) error {
	return b.Run(ctx)
}
