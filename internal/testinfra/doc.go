// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

// Package testinfra provides test infrastructure shared across packages.
//
// # Mock Upstream
//
// MockUpstream is an httptest server with per-path scripted replies. Source
// adapter and scraper tests use it to stand in for platform APIs and web
// pages, including rate-limit and error responses:
//
//	up := testinfra.NewMockUpstream(t)
//	up.Script("/r/popular/hot.json",
//	    testinfra.Status(http.StatusServiceUnavailable),
//	    testinfra.JSON(listing),
//	)
//
// # Containers
//
// Files behind the integration build tag start real backing services with
// testcontainers-go. NewRedisContainer backs the RedisStore cache tests.
//
//	go test -tags integration ./internal/cache/...
//
// Tests call SkipIfNoDocker first so they degrade gracefully where Docker is
// not available.
package testinfra
