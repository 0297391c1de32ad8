// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package models

import (
	"time"
)

// PlatformID identifies an external social platform acting as a trend source.
type PlatformID string

// Supported platforms.
const (
	PlatformYouTube   PlatformID = "youtube"
	PlatformInstagram PlatformID = "instagram"
	PlatformTikTok    PlatformID = "tiktok"
	PlatformTwitter   PlatformID = "twitter"
	PlatformReddit    PlatformID = "reddit"
)

// AllPlatforms lists every supported platform in canonical order.
var AllPlatforms = []PlatformID{
	PlatformYouTube,
	PlatformInstagram,
	PlatformTikTok,
	PlatformTwitter,
	PlatformReddit,
}

// Valid reports whether p is a supported platform.
func (p PlatformID) Valid() bool {
	switch p {
	case PlatformYouTube, PlatformInstagram, PlatformTikTok, PlatformTwitter, PlatformReddit:
		return true
	}
	return false
}

// DataType is a category of trend signal.
type DataType string

const (
	DataTypeHashtags     DataType = "hashtags"
	DataTypeKeywords     DataType = "keywords"
	DataTypeViralContent DataType = "viral_content"
)

// AllDataTypes lists every data type in canonical order.
var AllDataTypes = []DataType{DataTypeHashtags, DataTypeKeywords, DataTypeViralContent}

// Valid reports whether d is a known data type.
func (d DataType) Valid() bool {
	switch d {
	case DataTypeHashtags, DataTypeKeywords, DataTypeViralContent:
		return true
	}
	return false
}

// TimeRange is the lookback window a query asks trends for.
type TimeRange string

const (
	TimeRangeHour  TimeRange = "1h"
	TimeRangeDay   TimeRange = "24h"
	TimeRangeWeek  TimeRange = "7d"
	TimeRangeMonth TimeRange = "30d"
)

// Duration returns the window length. Unknown values map to one day.
func (r TimeRange) Duration() time.Duration {
	switch r {
	case TimeRangeHour:
		return time.Hour
	case TimeRangeWeek:
		return 7 * 24 * time.Hour
	case TimeRangeMonth:
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// Valid reports whether r is a known time range.
func (r TimeRange) Valid() bool {
	switch r {
	case TimeRangeHour, TimeRangeDay, TimeRangeWeek, TimeRangeMonth:
		return true
	}
	return false
}

// Status summarizes the outcome of a platform fetch.
type Status string

const (
	StatusOK      Status = "ok"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// Origin records which acquisition path produced a result.
type Origin string

const (
	OriginAPI     Origin = "api"
	OriginScraper Origin = "scraper"
)

// TrendData is the per-platform result of a trend query.
//
// Each entry sequence is ordered by descending engagement with a
// lexicographic tie-break on the entry identifier.
type TrendData struct {
	Platform     PlatformID     `json:"platform"`
	Hashtags     []HashtagEntry `json:"hashtags"`
	Keywords     []KeywordEntry `json:"keywords"`
	ViralContent []ViralEntry   `json:"viral_content"`
	FetchedAt    time.Time      `json:"fetched_at"`
	Status       Status         `json:"status"`
	Origin       Origin         `json:"origin,omitempty"`
	Error        *ErrorInfo     `json:"error,omitempty"`
}

// Failed builds a failed TrendData for platform carrying err.
func Failed(platform PlatformID, err error, at time.Time) TrendData {
	return TrendData{
		Platform:     platform,
		Hashtags:     []HashtagEntry{},
		Keywords:     []KeywordEntry{},
		ViralContent: []ViralEntry{},
		FetchedAt:    at,
		Status:       StatusFailed,
		Error:        ErrorInfoFrom(err),
	}
}

// Only returns a copy of td holding just the entries of dataType.
func (td TrendData) Only(dataType DataType) TrendData {
	out := td
	out.Hashtags = []HashtagEntry{}
	out.Keywords = []KeywordEntry{}
	out.ViralContent = []ViralEntry{}
	switch dataType {
	case DataTypeHashtags:
		out.Hashtags = append(out.Hashtags, td.Hashtags...)
	case DataTypeKeywords:
		out.Keywords = append(out.Keywords, td.Keywords...)
	case DataTypeViralContent:
		out.ViralContent = append(out.ViralContent, td.ViralContent...)
	}
	return out
}

// Entry is implemented by exactly the three trend entry variants.
type Entry interface {
	// Identifier is the stable key used for de-duplication and tie-breaks.
	Identifier() string
	// Kind is the data type the entry belongs to.
	Kind() DataType
	// Engagement is the entry's stated volume or engagement metric.
	Engagement() float64

	sealed()
}

// HashtagEntry is a trending hashtag. Tag is stored lowercase without '#'.
type HashtagEntry struct {
	Tag    string  `json:"tag"`
	Volume int64   `json:"volume"`
	Growth float64 `json:"growth,omitempty"`
}

func (h HashtagEntry) Identifier() string  { return h.Tag }
func (h HashtagEntry) Kind() DataType      { return DataTypeHashtags }
func (h HashtagEntry) Engagement() float64 { return float64(h.Volume) }
func (HashtagEntry) sealed()               {}

// KeywordEntry is a trending keyword or phrase.
type KeywordEntry struct {
	Keyword string  `json:"keyword"`
	Volume  int64   `json:"volume"`
	Score   float64 `json:"score"`
}

func (k KeywordEntry) Identifier() string { return k.Keyword }
func (k KeywordEntry) Kind() DataType     { return DataTypeKeywords }

// Engagement prefers the computed score and falls back to raw volume.
func (k KeywordEntry) Engagement() float64 {
	if k.Score != 0 {
		return k.Score
	}
	return float64(k.Volume)
}
func (KeywordEntry) sealed() {}

// ViralEntry is a single piece of fast-spreading content.
type ViralEntry struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url,omitempty"`
	Author      string    `json:"author,omitempty"`
	Views       int64     `json:"views"`
	Likes       int64     `json:"likes"`
	Shares      int64     `json:"shares"`
	Comments    int64     `json:"comments"`
	PublishedAt time.Time `json:"published_at,omitempty"`
}

func (v ViralEntry) Identifier() string { return v.ID }
func (v ViralEntry) Kind() DataType     { return DataTypeViralContent }

// Engagement is the view count. Platforms that do not report views (Reddit,
// Instagram images) are ranked by interactions instead.
func (v ViralEntry) Engagement() float64 {
	if v.Views > 0 {
		return float64(v.Views)
	}
	return float64(v.Likes + v.Shares + v.Comments)
}
func (ViralEntry) sealed() {}
