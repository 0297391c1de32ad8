// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package models

import (
	"fmt"
	"slices"
	"strings"
)

// TrendQuery is an immutable request for trend data across platforms.
// Construct it with NewTrendQuery.
type TrendQuery struct {
	platforms []PlatformID
	dataTypes []DataType
	timeRange TimeRange
}

// NewTrendQuery validates and normalizes a query. Platforms keep their
// first-seen order with duplicates removed; data types are sorted into
// canonical order. No data types means all of them and an empty time
// range defaults to 24h.
func NewTrendQuery(platforms []PlatformID, dataTypes []DataType, timeRange TimeRange) (TrendQuery, error) {
	if len(platforms) == 0 {
		return TrendQuery{}, fmt.Errorf("trend query: at least one platform is required")
	}

	q := TrendQuery{timeRange: timeRange}
	if q.timeRange == "" {
		q.timeRange = TimeRangeDay
	}
	if !q.timeRange.Valid() {
		return TrendQuery{}, fmt.Errorf("trend query: invalid time range %q", timeRange)
	}

	for _, p := range platforms {
		if !p.Valid() {
			return TrendQuery{}, fmt.Errorf("trend query: unknown platform %q", p)
		}
		if !slices.Contains(q.platforms, p) {
			q.platforms = append(q.platforms, p)
		}
	}

	if len(dataTypes) == 0 {
		dataTypes = AllDataTypes
	}
	for _, d := range AllDataTypes {
		if slices.Contains(dataTypes, d) {
			q.dataTypes = append(q.dataTypes, d)
		}
	}
	for _, d := range dataTypes {
		if !d.Valid() {
			return TrendQuery{}, fmt.Errorf("trend query: unknown data type %q", d)
		}
	}

	return q, nil
}

// Platforms returns a copy of the requested platforms.
func (q TrendQuery) Platforms() []PlatformID { return slices.Clone(q.platforms) }

// DataTypes returns a copy of the requested data types.
func (q TrendQuery) DataTypes() []DataType { return slices.Clone(q.dataTypes) }

// TimeRange returns the requested lookback window.
func (q TrendQuery) TimeRange() TimeRange { return q.timeRange }

// Has reports whether the query asks for dataType.
func (q TrendQuery) Has(dataType DataType) bool { return slices.Contains(q.dataTypes, dataType) }

func (q TrendQuery) String() string {
	ps := make([]string, len(q.platforms))
	for i, p := range q.platforms {
		ps[i] = string(p)
	}
	ds := make([]string, len(q.dataTypes))
	for i, d := range q.dataTypes {
		ds[i] = string(d)
	}
	return fmt.Sprintf("platforms=%s types=%s range=%s",
		strings.Join(ps, ","), strings.Join(ds, ","), q.timeRange)
}
