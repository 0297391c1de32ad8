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

// twitterSearchWindow is how far back the recent search endpoint reaches.
const twitterSearchWindow = 7 * 24 * time.Hour

const defaultTwitterQuery = "has:hashtags -is:retweet lang:en"

// twitterClient samples recent posts through the X API v2 recent search.
type twitterClient struct {
	http  httpClient
	token string
}

type twitterSearch struct {
	Data []struct {
		ID            string    `json:"id"`
		Text          string    `json:"text"`
		AuthorID      string    `json:"author_id"`
		CreatedAt     time.Time `json:"created_at"`
		PublicMetrics struct {
			RetweetCount    int64 `json:"retweet_count"`
			ReplyCount      int64 `json:"reply_count"`
			LikeCount       int64 `json:"like_count"`
			QuoteCount      int64 `json:"quote_count"`
			ImpressionCount int64 `json:"impression_count"`
		} `json:"public_metrics"`
		Entities struct {
			Hashtags []struct {
				Tag string `json:"tag"`
			} `json:"hashtags"`
		} `json:"entities"`
	} `json:"data"`
}

func newTwitterClient(hc httpClient, cfg config.PlatformConfig) *twitterClient {
	return &twitterClient{http: hc, token: cfg.APIKey}
}

func (c *twitterClient) Platform() models.PlatformID { return models.PlatformTwitter }

// Fetch searches recent posts. Ranges beyond the endpoint's 7 day reach
// are clamped.
func (c *twitterClient) Fetch(ctx context.Context, req Request) (*models.RawTrendSnapshot, error) {
	now := time.Now().UTC()
	since := req.since(now)
	if earliest := now.Add(-twitterSearchWindow + time.Minute); since.Before(earliest) {
		since = earliest
	}

	r := newAPIRequest("/2/tweets/search/recent").
		addParam("query", defaultTwitterQuery).
		addIntParam("max_results", max(10, min(req.limit(), 100))).
		addParam("tweet.fields", "public_metrics,created_at,entities,author_id").
		addParam("start_time", since.Format(time.RFC3339)).
		header("Authorization", "Bearer "+c.token)

	var resp twitterSearch
	if err := c.http.getJSON(ctx, r, &resp); err != nil {
		return nil, err
	}

	snap := &models.RawTrendSnapshot{
		Platform:   models.PlatformTwitter,
		Origin:     models.OriginAPI,
		CapturedAt: now,
		Items:      make([]models.RawItem, 0, len(resp.Data)),
	}
	for _, t := range resp.Data {
		tags := make([]string, 0, len(t.Entities.Hashtags))
		for _, h := range t.Entities.Hashtags {
			tags = append(tags, h.Tag)
		}
		m := t.PublicMetrics
		snap.Items = append(snap.Items, models.RawItem{
			ID:          t.ID,
			Text:        t.Text,
			URL:         "https://x.com/i/web/status/" + t.ID,
			Author:      t.AuthorID,
			Tags:        tags,
			Views:       m.ImpressionCount,
			Likes:       m.LikeCount,
			Shares:      m.RetweetCount + m.QuoteCount,
			Comments:    m.ReplyCount,
			PublishedAt: t.CreatedAt,
		})
	}
	return snap, nil
}
