// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package source

import (
	"context"
	"strconv"
	"time"

	"github.com/tomtom215/trendscope/internal/config"
	"github.com/tomtom215/trendscope/internal/models"
)

// tiktokClient queries the TikTok Research API for recent videos in a region.
type tiktokClient struct {
	http   httpClient
	token  string
	region string
}

type tiktokQuery struct {
	Query struct {
		And []tiktokCondition `json:"and"`
	} `json:"query"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	MaxCount  int    `json:"max_count"`
}

type tiktokCondition struct {
	Operation   string   `json:"operation"`
	FieldName   string   `json:"field_name"`
	FieldValues []string `json:"field_values"`
}

type tiktokResponse struct {
	Data struct {
		Videos []struct {
			ID               int64    `json:"id"`
			VideoDescription string   `json:"video_description"`
			CreateTime       int64    `json:"create_time"`
			Username         string   `json:"username"`
			LikeCount        int64    `json:"like_count"`
			CommentCount     int64    `json:"comment_count"`
			ShareCount       int64    `json:"share_count"`
			ViewCount        int64    `json:"view_count"`
			HashtagNames     []string `json:"hashtag_names"`
		} `json:"videos"`
	} `json:"data"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTikTokClient(hc httpClient, cfg config.PlatformConfig) *tiktokClient {
	region := cfg.Region
	if region == "" {
		region = "US"
	}
	return &tiktokClient{http: hc, token: cfg.APIKey, region: region}
}

func (c *tiktokClient) Platform() models.PlatformID { return models.PlatformTikTok }

func (c *tiktokClient) Fetch(ctx context.Context, req Request) (*models.RawTrendSnapshot, error) {
	now := time.Now().UTC()

	var q tiktokQuery
	q.Query.And = []tiktokCondition{{Operation: "IN", FieldName: "region_code", FieldValues: []string{c.region}}}
	q.StartDate = req.since(now).Format("20060102")
	q.EndDate = now.Format("20060102")
	q.MaxCount = min(req.limit(), 100)

	r := newAPIRequest("/v2/research/video/query/").
		addParam("fields", "id,video_description,create_time,username,like_count,comment_count,share_count,view_count,hashtag_names").
		header("Authorization", "Bearer "+c.token)

	var resp tiktokResponse
	if err := c.http.postJSON(ctx, r, q, &resp); err != nil {
		return nil, err
	}
	switch resp.Error.Code {
	case "", "ok":
	case "access_token_invalid", "scope_not_authorized":
		return nil, &models.SourceError{Code: models.ErrCodeExpiredCredentials, Platform: models.PlatformTikTok, Message: resp.Error.Message}
	case "rate_limit_exceeded":
		return nil, &models.SourceError{Code: models.ErrCodeTransientUpstream, Platform: models.PlatformTikTok, Message: resp.Error.Message}
	default:
		return nil, &models.SourceError{Code: models.ErrCodeSourceError, Platform: models.PlatformTikTok, Message: resp.Error.Code + ": " + resp.Error.Message}
	}

	snap := &models.RawTrendSnapshot{
		Platform:   models.PlatformTikTok,
		Origin:     models.OriginAPI,
		CapturedAt: now,
		Items:      make([]models.RawItem, 0, len(resp.Data.Videos)),
	}
	for _, v := range resp.Data.Videos {
		id := strconv.FormatInt(v.ID, 10)
		snap.Items = append(snap.Items, models.RawItem{
			ID:          id,
			Title:       v.VideoDescription,
			URL:         "https://www.tiktok.com/@" + v.Username + "/video/" + id,
			Author:      v.Username,
			Tags:        v.HashtagNames,
			Views:       v.ViewCount,
			Likes:       v.LikeCount,
			Shares:      v.ShareCount,
			Comments:    v.CommentCount,
			PublishedAt: time.Unix(v.CreateTime, 0).UTC(),
		})
	}
	return snap, nil
}
