// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/trendscope/internal/config"
	"github.com/tomtom215/trendscope/internal/models"
	ws "github.com/tomtom215/trendscope/internal/websocket"
)

func TestWebSocketStreamsTrendUpdates(t *testing.T) {
	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = hub.Serve(ctx) }()

	cfg := &config.Config{}
	cfg.Server.CORSOrigins = []string{"https://dashboard.example"}
	eng := &fakeEngine{platforms: []models.PlatformID{models.PlatformTikTok}}
	srv := httptest.NewServer(NewRouter(NewHandler(eng, hub, cfg), nil).SetupChi())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"

	header := http.Header{"Origin": []string{"https://evil.example"}}
	if _, resp, err := websocket.DefaultDialer.Dial(url, header); err == nil {
		t.Fatal("expected upgrade from unauthorized origin to fail")
	} else if resp != nil && resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}

	header.Set("Origin", "https://dashboard.example")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	_ = hub.Publish(context.Background(), models.TrendData{Platform: models.PlatformTikTok, Status: models.StatusOK})

	var msg struct {
		Type string           `json:"type"`
		Data models.TrendData `json:"data"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != ws.MessageTypeTrendUpdate || msg.Data.Platform != models.PlatformTikTok {
		t.Errorf("unexpected message %+v", msg)
	}
}
