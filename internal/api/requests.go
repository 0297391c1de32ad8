// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package api

import (
	"net/http"

	"github.com/tomtom215/trendscope/internal/models"
)

// DefaultPredictionLimit is used when the limit parameter is absent.
const DefaultPredictionLimit = 10

// TrendsRequest holds the query parameters of GET /api/v1/trends.
type TrendsRequest struct {
	Platforms []string `validate:"required,min=1,max=5,dive,platform"`
	Types     []string `validate:"omitempty,max=3,dive,datatype"`
	Range     string   `validate:"omitempty,timerange"`
}

// parseTrendsRequest reads the request. No platforms means every enabled one.
func parseTrendsRequest(r *http.Request, enabled []models.PlatformID) TrendsRequest {
	q := r.URL.Query()
	req := TrendsRequest{
		Platforms: parseCommaSeparated(q.Get("platforms")),
		Types:     parseCommaSeparated(q.Get("types")),
		Range:     q.Get("range"),
	}
	if len(req.Platforms) == 0 {
		for _, p := range enabled {
			req.Platforms = append(req.Platforms, string(p))
		}
	}
	return req
}

// Query converts a validated request.
func (req TrendsRequest) Query() (models.TrendQuery, error) {
	return models.NewTrendQuery(toPlatforms(req.Platforms), toDataTypes(req.Types), models.TimeRange(req.Range))
}

// PredictionsRequest holds the query parameters of GET /api/v1/trends/predictions.
type PredictionsRequest struct {
	Platforms []string `validate:"omitempty,max=5,dive,platform"`
	Limit     int      `validate:"min=1,max=100"`
}

func toPlatforms(ss []string) []models.PlatformID {
	out := make([]models.PlatformID, len(ss))
	for i, s := range ss {
		out[i] = models.PlatformID(s)
	}
	return out
}

func toDataTypes(ss []string) []models.DataType {
	out := make([]models.DataType, len(ss))
	for i, s := range ss {
		out[i] = models.DataType(s)
	}
	return out
}
