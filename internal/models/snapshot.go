// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package models

import "time"

// RawItem is one unnormalized observation from a platform API or scraped page.
// Kind may be empty when the item is a post from which hashtags and keywords
// are derived during normalization.
type RawItem struct {
	Kind        DataType
	ID          string
	Title       string
	Text        string
	URL         string
	Author      string
	Tags        []string
	Volume      int64
	Views       int64
	Likes       int64
	Shares      int64
	Comments    int64
	PublishedAt time.Time
}

// RawTrendSnapshot is acquisition output before normalization.
type RawTrendSnapshot struct {
	Platform   PlatformID
	Origin     Origin
	CapturedAt time.Time
	Items      []RawItem
}
