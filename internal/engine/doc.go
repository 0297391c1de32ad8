// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

// Package engine aggregates trend data across platform sources.
//
// FetchTrends fans a query out to every requested platform concurrently.
// Results are cached per (platform, data type, time range). On a miss the
// platform is fetched once for every data type, so concurrent queries share
// one upstream call and repeated queries within the TTL are served without
// touching the source. Fresh results are ranked, annotated with hashtag
// growth from History and recorded for prediction before they are cached.
//
// A query never fails as a whole. Platforms that error are reported with
// status failed and platforms that fail for some data types are partial.
// Data types still missing when the query timeout expires are reported
// with code timeout.
package engine
