// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

/*
Package metrics defines the Prometheus collectors exported on /metrics.

Collectors are package-level promauto globals so that any component can
record without plumbing a registry through constructors:

	metrics.RecordSourceRequest("youtube", "ok", time.Since(start))
	metrics.CircuitBreakerState.WithLabelValues("source-youtube").Set(2)

Label cardinality is bounded: platform labels come from the fixed set of
supported platforms and outcome labels from ErrorCode values.
*/
package metrics
