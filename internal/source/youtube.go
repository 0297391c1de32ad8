// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package source

import (
	"context"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/trendscope/internal/config"
	"github.com/tomtom215/trendscope/internal/models"
)

// youtubeClient reads the YouTube Data API v3 most-popular chart.
type youtubeClient struct {
	http   httpClient
	apiKey string
	region string
}

type youtubeVideoList struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title        string    `json:"title"`
			Description  string    `json:"description"`
			ChannelTitle string    `json:"channelTitle"`
			PublishedAt  time.Time `json:"publishedAt"`
			Tags         []string  `json:"tags"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount    int64 `json:"viewCount,string"`
			LikeCount    int64 `json:"likeCount,string"`
			CommentCount int64 `json:"commentCount,string"`
		} `json:"statistics"`
	} `json:"items"`
}

type youtubeError struct {
	Error struct {
		Code   int `json:"code"`
		Errors []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

func newYouTubeClient(hc httpClient, cfg config.PlatformConfig) *youtubeClient {
	hc.classify = func(status int, body []byte) error {
		var e youtubeError
		if json.Unmarshal(body, &e) != nil {
			return nil
		}
		for _, r := range e.Error.Errors {
			switch r.Reason {
			case "quotaExceeded", "dailyLimitExceeded", "rateLimitExceeded":
				return &models.SourceError{Code: models.ErrCodeRateLimited, Platform: models.PlatformYouTube, StatusCode: status, Message: "API quota exhausted: " + r.Reason}
			case "keyInvalid", "keyExpired", "authError":
				return &models.SourceError{Code: models.ErrCodeExpiredCredentials, Platform: models.PlatformYouTube, StatusCode: status, Message: "API key rejected: " + r.Reason}
			}
		}
		return nil
	}
	region := cfg.Region
	if region == "" {
		region = "US"
	}
	return &youtubeClient{http: hc, apiKey: cfg.APIKey, region: region}
}

func (c *youtubeClient) Platform() models.PlatformID { return models.PlatformYouTube }

// Fetch returns the current most-popular videos. The chart has no time
// filter, so the requested range is not applied.
func (c *youtubeClient) Fetch(ctx context.Context, req Request) (*models.RawTrendSnapshot, error) {
	var list youtubeVideoList
	r := newAPIRequest("/youtube/v3/videos").
		addParam("part", "snippet,statistics").
		addParam("chart", "mostPopular").
		addParam("regionCode", c.region).
		addIntParam("maxResults", min(req.limit(), 50)).
		addParam("key", c.apiKey)
	if err := c.http.getJSON(ctx, r, &list); err != nil {
		return nil, err
	}

	snap := &models.RawTrendSnapshot{
		Platform:   models.PlatformYouTube,
		Origin:     models.OriginAPI,
		CapturedAt: time.Now().UTC(),
		Items:      make([]models.RawItem, 0, len(list.Items)),
	}
	for _, v := range list.Items {
		snap.Items = append(snap.Items, models.RawItem{
			ID:          v.ID,
			Title:       v.Snippet.Title,
			Text:        v.Snippet.Description,
			URL:         "https://www.youtube.com/watch?v=" + v.ID,
			Author:      v.Snippet.ChannelTitle,
			Tags:        v.Snippet.Tags,
			Views:       v.Statistics.ViewCount,
			Likes:       v.Statistics.LikeCount,
			Comments:    v.Statistics.CommentCount,
			PublishedAt: v.Snippet.PublishedAt,
		})
	}
	return snap, nil
}
