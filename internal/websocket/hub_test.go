// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package websocket

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/trendscope/internal/metrics"
	"github.com/tomtom215/trendscope/internal/models"
)

// testClient returns a client with no connection; only its send queue is used.
func testClient(hub *Hub, buffer int) *Client {
	return &Client{id: clientIDCounter.Add(1), hub: hub, send: make(chan Message, buffer), pong: make(chan struct{}, 1)}
}

func runHub(t *testing.T) (*Hub, context.CancelFunc, <-chan error) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- hub.Serve(ctx) }()
	t.Cleanup(cancel)
	return hub, cancel, done
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case msg, ok := <-c.send:
		if !ok {
			t.Fatal("send queue closed")
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return Message{}
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()
	c := testClient(hub, 1)

	hub.Register(c)
	if hub.ClientCount() != 1 {
		t.Fatalf("ClientCount = %d, want 1", hub.ClientCount())
	}
	hub.Unregister(c)
	hub.Unregister(c)
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount = %d, want 0", hub.ClientCount())
	}
	if _, ok := <-c.send; ok {
		t.Error("expected send queue to be closed")
	}
}

func TestHub_PublishReachesAllClients(t *testing.T) {
	hub, _, _ := runHub(t)
	a, b := testClient(hub, 4), testClient(hub, 4)
	hub.Register(a)
	hub.Register(b)

	before := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(SinkWebSocket, "success"))
	td := models.TrendData{Platform: models.PlatformYouTube, Status: models.StatusOK}
	if err := hub.Publish(context.Background(), td); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	for _, c := range []*Client{a, b} {
		msg := receive(t, c)
		if msg.Type != MessageTypeTrendUpdate {
			t.Errorf("message type = %q", msg.Type)
		}
		if got, ok := msg.Data.(models.TrendData); !ok || got.Platform != models.PlatformYouTube {
			t.Errorf("unexpected payload %#v", msg.Data)
		}
	}
	if got := testutil.ToFloat64(metrics.EventsPublished.WithLabelValues(SinkWebSocket, "success")) - before; got != 1 {
		t.Errorf("expected one publish recorded, got %v", got)
	}
}

func TestHub_DropsSlowClient(t *testing.T) {
	hub, _, _ := runHub(t)
	slow, fast := testClient(hub, 1), testClient(hub, 8)
	hub.Register(slow)
	hub.Register(fast)

	for i := 0; i < 3; i++ {
		hub.Broadcast(Message{Type: MessageTypeTrendUpdate, Data: i})
		receive(t, fast)
	}

	if hub.ClientCount() != 1 {
		t.Errorf("expected slow client to be dropped, %d clients remain", hub.ClientCount())
	}
}

func TestHub_BroadcastQueueFull(t *testing.T) {
	t.Parallel()

	hub := NewHub()
	for i := 0; i < cap(hub.broadcast); i++ {
		if !hub.Broadcast(Message{Type: MessageTypeTrendUpdate}) {
			t.Fatalf("broadcast %d dropped before queue was full", i)
		}
	}
	if hub.Broadcast(Message{Type: MessageTypeTrendUpdate}) {
		t.Error("expected broadcast to be dropped when queue is full")
	}
}

func TestHub_ServeClosesClientsOnShutdown(t *testing.T) {
	hub, cancel, done := runHub(t)
	c := testClient(hub, 1)
	hub.Register(c)

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("expected no clients after shutdown, got %d", hub.ClientCount())
	}
	if _, ok := <-c.send; ok {
		t.Error("expected client queue to be closed")
	}
}
