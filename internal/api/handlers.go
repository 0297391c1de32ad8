// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/trendscope/internal/config"
	"github.com/tomtom215/trendscope/internal/logging"
	"github.com/tomtom215/trendscope/internal/models"
	"github.com/tomtom215/trendscope/internal/source"
	ws "github.com/tomtom215/trendscope/internal/websocket"
)

// TrendEngine is the query surface the handlers need. *engine.Engine
// implements it.
type TrendEngine interface {
	FetchTrends(ctx context.Context, q models.TrendQuery) []models.TrendData
	Predict(ctx context.Context, platforms []models.PlatformID, limit int) []string
	Platforms() []models.PlatformID
	Sources() []source.Status
	Source(p models.PlatformID) (source.Status, error)
	HistoryLen() int
	Ready() bool
}

// Handler serves the HTTP API.
//
// Handler methods are split across files:
//   - handlers.go: Handler struct, constructor, websocket upgrade
//   - handlers_trends.go: trends, predictions and sources
//   - handlers_health.go: liveness and readiness
//   - handlers_helpers.go: response and parameter helpers
type Handler struct {
	engine      TrendEngine
	hub         *ws.Hub
	corsOrigins []string
	startTime   time.Time
}

// NewHandler creates a handler. hub may be nil, in which case the websocket
// endpoint reports 503.
func NewHandler(engine TrendEngine, hub *ws.Hub, cfg *config.Config) *Handler {
	h := &Handler{
		engine:    engine,
		hub:       hub,
		startTime: time.Now(),
	}
	if cfg != nil {
		h.corsOrigins = cfg.Server.CORSOrigins
	}
	return h
}

func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  4096,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin accepts requests without an Origin header (non-browser
// clients) and browser requests from a configured CORS origin.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.corsOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("websocket connection rejected from unauthorized origin")
	return false
}

// WebSocket upgrades the connection and streams fresh trend results.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		respondError(w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "websocket service unavailable", nil)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Ctx(r.Context()).Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	ws.NewClient(h.hub, conn).Start()
}
