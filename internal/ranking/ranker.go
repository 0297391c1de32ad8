// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package ranking

import (
	"cmp"
	"slices"
	"strings"

	"github.com/tomtom215/trendscope/internal/models"
)

// Metric scores an entry for ranking. Higher ranks first.
type Metric func(models.Entry) float64

// Engagement is the default metric: the entry's own engagement figure.
func Engagement(e models.Entry) float64 {
	return e.Engagement()
}

// Ranker orders trend entries by a Metric.
type Ranker struct {
	metric Metric
}

// NewRanker creates a Ranker. A nil metric means Engagement.
func NewRanker(metric Metric) *Ranker {
	if metric == nil {
		metric = Engagement
	}
	return &Ranker{metric: metric}
}

// Rank returns a copy of td with every entry sequence sorted. td is not
// modified.
func (r *Ranker) Rank(td models.TrendData) models.TrendData {
	out := td
	out.Hashtags = Sort(td.Hashtags, r.metric)
	out.Keywords = Sort(td.Keywords, r.metric)
	out.ViralContent = Sort(td.ViralContent, r.metric)
	return out
}

// Sort returns entries ordered by descending metric, ties broken by
// ascending identifier. The sort is stable and the input is left as is.
func Sort[T models.Entry](entries []T, metric Metric) []T {
	if metric == nil {
		metric = Engagement
	}
	type scored struct {
		entry T
		score float64
	}
	tmp := make([]scored, len(entries))
	for i, e := range entries {
		tmp[i] = scored{entry: e, score: metric(e)}
	}
	slices.SortStableFunc(tmp, func(a, b scored) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return strings.Compare(a.entry.Identifier(), b.entry.Identifier())
	})

	out := make([]T, len(tmp))
	for i, s := range tmp {
		out[i] = s.entry
	}
	return out
}

// Top returns at most n leading entries of an already sorted slice.
func Top[T any](entries []T, n int) []T {
	if n <= 0 || n >= len(entries) {
		return entries
	}
	return entries[:n]
}
