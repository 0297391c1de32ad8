// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

/*
Package ratelimit enforces per-source request budgets and retries transient
upstream failures.

Budget is a fixed-window counter with a FIFO queue. When the window is spent,
Acquire queues the caller; Run wakes at each window boundary and grants
queued requests oldest first. A request that survives more than MaxRetries
boundaries, or that arrives at a full queue, fails with rate_limited.

Retrier wraps github.com/cenkalti/backoff/v4 with a deterministic exponential
schedule (1s, 2s, 4s, ... capped at 10s) and a bounded attempt count. Only
transient_upstream_error is retried.
*/
package ratelimit
