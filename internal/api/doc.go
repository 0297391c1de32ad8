// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

/*
Package api serves the trend engine over HTTP using the chi router.

Endpoints:

	GET /api/v1/trends?platforms=&types=&range=   one TrendData per platform
	GET /api/v1/trends/predictions?platforms=&limit=
	GET /api/v1/sources                           breaker, budget and health per source
	GET /api/v1/sources/{platform}
	GET /api/v1/health/live
	GET /api/v1/health/ready
	GET /api/v1/ws                                websocket stream of fresh results
	GET /metrics                                  Prometheus

Every JSON endpoint answers with the models.APIResponse envelope. Invalid
parameters are rejected with 400 and code VALIDATION_ERROR; platform
failures never fail a trends request and are reported per result instead.

Middleware order: request ID and logging context, real IP, panic recovery,
CORS, then per-group rate limiting (go-chi/httprate) and request metrics.
*/
package api
