// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

/*
Package source provides per-platform trend acquisition.

An Adapter owns everything one platform needs and shares nothing with the
others:

  - Client: a hand-written client for the platform's official API
    (YouTube Data API v3, Instagram Graph API, TikTok Research API, X API v2,
    Reddit listings)
  - ratelimit.Budget: the fixed-window request budget with its FIFO queue
  - ratelimit.Retrier: exponential backoff for transient upstream errors
  - Breaker: a sony/gobreaker/v2 circuit breaker
  - Health: a sliding-window success/failure tracker
  - an optional scraper fallback

# Fetch Flow

	no credentials  -> scraper, or expired_credentials
	circuit open    -> scraper, or source_unavailable
	otherwise       -> Retrier( Budget.Acquire -> Breaker.Execute(Client.Fetch) )

Every HTTP attempt passes through the breaker, so retries count towards
the failure streak. Once the circuit opens mid-retry the next attempt is
rejected with source_unavailable, which ends the retry loop and triggers
the fallback. ErrNotSupported (HTTP 404/501) also goes to the fallback.

HTTP failures are classified as follows:

	429, 5xx, network errors   transient_upstream_error (retried)
	401, 403, provider auth    expired_credentials (reauth_required)
	404, 501                   source_error wrapping ErrNotSupported
	other 4xx                  source_error

Raw snapshots, from the API or the scraper, go through Normalize, which
derives hashtags and keywords from post text and merges duplicates.
*/
package source
