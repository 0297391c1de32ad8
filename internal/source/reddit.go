// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package source

import (
	"context"
	"time"

	"github.com/tomtom215/trendscope/internal/config"
	"github.com/tomtom215/trendscope/internal/models"
)

// redditClient reads the r/popular top listing. The public JSON listing
// needs no key; an OAuth token is sent when one is configured.
type redditClient struct {
	http  httpClient
	token string
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				ID          string  `json:"id"`
				Title       string  `json:"title"`
				SelfText    string  `json:"selftext"`
				Permalink   string  `json:"permalink"`
				Author      string  `json:"author"`
				Subreddit   string  `json:"subreddit"`
				Score       int64   `json:"score"`
				NumComments int64   `json:"num_comments"`
				Created     float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func newRedditClient(hc httpClient, cfg config.PlatformConfig) *redditClient {
	return &redditClient{http: hc, token: cfg.APIKey}
}

func (c *redditClient) Platform() models.PlatformID { return models.PlatformReddit }

// redditPeriod maps a time range onto the listing's t parameter.
func redditPeriod(tr models.TimeRange) string {
	switch tr {
	case models.TimeRangeHour:
		return "hour"
	case models.TimeRangeWeek:
		return "week"
	case models.TimeRangeMonth:
		return "month"
	default:
		return "day"
	}
}

func (c *redditClient) Fetch(ctx context.Context, req Request) (*models.RawTrendSnapshot, error) {
	r := newAPIRequest("/r/popular/top.json").
		addIntParam("limit", min(req.limit(), 100)).
		addParam("t", redditPeriod(req.TimeRange)).
		addParam("raw_json", "1")
	if c.token != "" {
		r.header("Authorization", "Bearer "+c.token)
	}

	var listing redditListing
	if err := c.http.getJSON(ctx, r, &listing); err != nil {
		return nil, err
	}

	snap := &models.RawTrendSnapshot{
		Platform:   models.PlatformReddit,
		Origin:     models.OriginAPI,
		CapturedAt: time.Now().UTC(),
		Items:      make([]models.RawItem, 0, len(listing.Data.Children)),
	}
	for _, child := range listing.Data.Children {
		p := child.Data
		snap.Items = append(snap.Items, models.RawItem{
			ID:          p.ID,
			Title:       p.Title,
			Text:        p.SelfText,
			URL:         "https://www.reddit.com" + p.Permalink,
			Author:      p.Author,
			Likes:       p.Score,
			Comments:    p.NumComments,
			PublishedAt: time.Unix(int64(p.Created), 0).UTC(),
		})
	}
	return snap, nil
}
