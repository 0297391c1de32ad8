// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package source

import (
	"context"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/trendscope/internal/config"
	"github.com/tomtom215/trendscope/internal/models"
)

const instagramGraphVersion = "v19.0"

// Graph API error codes.
const (
	igCodeTokenExpired = 190
	igCodeThrottled    = 4
	igCodeUserThrottle = 17
	igCodeAppThrottle  = 32
	igCodeCallLimit    = 613
)

// instagramClient reads recent media of a business account through the
// Instagram Graph API. Instagram exposes no global trending endpoint, so
// the account's own feed is the sample.
type instagramClient struct {
	http      httpClient
	token     string
	accountID string
}

type instagramMedia struct {
	Data []struct {
		ID            string `json:"id"`
		Caption       string `json:"caption"`
		Permalink     string `json:"permalink"`
		Timestamp     string `json:"timestamp"`
		LikeCount     int64  `json:"like_count"`
		CommentsCount int64  `json:"comments_count"`
		Username      string `json:"username"`
	} `json:"data"`
}

type graphError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func newInstagramClient(hc httpClient, cfg config.PlatformConfig) *instagramClient {
	hc.classify = func(status int, body []byte) error {
		var e graphError
		if json.Unmarshal(body, &e) != nil || e.Error.Code == 0 {
			return nil
		}
		se := &models.SourceError{Platform: models.PlatformInstagram, StatusCode: status, Message: e.Error.Message}
		switch e.Error.Code {
		case igCodeTokenExpired:
			se.Code = models.ErrCodeExpiredCredentials
		case igCodeThrottled, igCodeUserThrottle, igCodeAppThrottle, igCodeCallLimit:
			se.Code = models.ErrCodeTransientUpstream
		default:
			return nil
		}
		return se
	}
	return &instagramClient{http: hc, token: cfg.APIKey, accountID: cfg.AccountID}
}

func (c *instagramClient) Platform() models.PlatformID { return models.PlatformInstagram }

func (c *instagramClient) Fetch(ctx context.Context, req Request) (*models.RawTrendSnapshot, error) {
	now := time.Now().UTC()
	var media instagramMedia
	r := newAPIRequest("/" + instagramGraphVersion + "/" + c.accountID + "/media").
		addParam("fields", "id,caption,permalink,timestamp,like_count,comments_count,username").
		addIntParam("limit", req.limit()).
		addParam("since", strconv.FormatInt(req.since(now).Unix(), 10)).
		addParam("access_token", c.token)
	if err := c.http.getJSON(ctx, r, &media); err != nil {
		return nil, err
	}

	snap := &models.RawTrendSnapshot{
		Platform:   models.PlatformInstagram,
		Origin:     models.OriginAPI,
		CapturedAt: now,
		Items:      make([]models.RawItem, 0, len(media.Data)),
	}
	for _, m := range media.Data {
		// Graph timestamps use a +0000 offset without a colon.
		published, _ := time.Parse("2006-01-02T15:04:05-0700", m.Timestamp)
		snap.Items = append(snap.Items, models.RawItem{
			ID:          m.ID,
			Title:       m.Caption,
			URL:         m.Permalink,
			Author:      m.Username,
			Likes:       m.LikeCount,
			Comments:    m.CommentsCount,
			PublishedAt: published,
		})
	}
	return snap, nil
}
