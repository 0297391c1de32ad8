// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/trendscope/internal/logging"
	"github.com/tomtom215/trendscope/internal/models"
)

// Trends answers a trend query with one result per platform. Platform
// failures are reported inside the results; the response is 200 whenever
// the parameters are valid.
//
//	GET /api/v1/trends?platforms=youtube,tiktok&types=hashtags&range=24h
func (h *Handler) Trends(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req := parseTrendsRequest(r, h.engine.Platforms())
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}
	q, err := req.Query()
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}

	results := h.engine.FetchTrends(r.Context(), q)
	logging.Ctx(r.Context()).Debug().
		Str("query", q.String()).
		Int("platforms", len(results)).
		Msg("served trend query")
	respondSuccess(w, results, start)
}

// Predictions returns identifiers expected to keep trending, based on the
// results recorded so far.
//
//	GET /api/v1/trends/predictions?platforms=tiktok&limit=10
func (h *Handler) Predictions(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	limit, err := getIntParam(r, "limit", DefaultPredictionLimit)
	if err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeValidation, err.Error(), nil)
		return
	}
	req := PredictionsRequest{
		Platforms: parseCommaSeparated(r.URL.Query().Get("platforms")),
		Limit:     limit,
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	platforms := toPlatforms(req.Platforms)
	identifiers := h.engine.Predict(r.Context(), platforms, req.Limit)
	if len(platforms) == 0 {
		platforms = h.engine.Platforms()
	}
	respondSuccess(w, models.PredictionResponse{
		Platforms:   platforms,
		Identifiers: identifiers,
		HistorySize: h.engine.HistoryLen(),
	}, start)
}

// Sources reports breaker state, request budget and health for every
// configured platform.
func (h *Handler) Sources(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, h.engine.Sources(), time.Now())
}

// SourceByPlatform reports one platform's source status.
func (h *Handler) SourceByPlatform(w http.ResponseWriter, r *http.Request) {
	p := models.PlatformID(chi.URLParam(r, "platform"))
	if !p.Valid() {
		respondError(w, http.StatusBadRequest, ErrCodeValidation, "unknown platform "+sanitizeLogValue(string(p)), nil)
		return
	}
	status, err := h.engine.Source(p)
	if err != nil {
		respondError(w, http.StatusNotFound, ErrCodeNotFound, err.Error(), nil)
		return
	}
	respondSuccess(w, status, time.Now())
}
