// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package ranking

import "github.com/tomtom215/trendscope/internal/models"

// FillGrowth sets Growth on each hashtag in current relative to its volume
// in previous: (now - before) / before. Tags absent from previous, or with
// no prior volume, keep a zero growth. current's hashtag slice is replaced,
// never written in place.
func FillGrowth(current *models.TrendData, previous models.TrendData) {
	before := make(map[string]int64, len(previous.Hashtags))
	for _, h := range previous.Hashtags {
		before[h.Tag] = h.Volume
	}
	if len(before) == 0 {
		return
	}

	tags := make([]models.HashtagEntry, len(current.Hashtags))
	for i, h := range current.Hashtags {
		if prev, ok := before[h.Tag]; ok && prev > 0 {
			h.Growth = float64(h.Volume-prev) / float64(prev)
		}
		tags[i] = h
	}
	current.Hashtags = tags
}
