// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

// Package ranking orders trend entries and forecasts rising trends.
//
// Ranker sorts every entry sequence of a TrendData by an injected Metric,
// highest first, breaking ties by identifier so the order is deterministic.
// Predictor implementations turn recorded history into a list of trend
// identifiers expected to keep growing; MomentumPredictor is the default.
package ranking
