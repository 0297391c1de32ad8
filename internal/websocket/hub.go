// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package websocket

import (
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/trendscope/internal/logging"
	"github.com/tomtom215/trendscope/internal/metrics"
	"github.com/tomtom215/trendscope/internal/models"
)

// SinkWebSocket labels hub broadcasts in metrics.
const SinkWebSocket = "websocket"

// Message types exchanged with clients.
const (
	MessageTypeTrendUpdate = "trend_update"
	MessageTypePing        = "ping"
	MessageTypePong        = "pong"
)

// Message is the frame sent to and read from clients.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub tracks connected clients and fans trend updates out to them.
type Hub struct {
	clients   map[*Client]struct{}
	broadcast chan Message
	mu        sync.RWMutex
	logger    zerolog.Logger
}

// NewHub creates a hub. Serve must be running for clients to receive
// messages.
func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*Client]struct{}),
		broadcast: make(chan Message, 256),
		logger:    logging.WithComponent("websocket-hub"),
	}
}

// Serve delivers queued broadcasts until ctx is canceled, then closes
// every client. It implements suture.Service.
func (h *Hub) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			n := h.closeAll()
			h.logger.Info().Int("clients_closed", n).Msg("websocket hub stopped")
			return ctx.Err()
		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) String() string {
	return "websocket-hub"
}

// Register adds a client. Every delivery after Register returns includes it.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.WebSocketConnections.Inc()
	h.logger.Debug().Int("total_clients", n).Msg("websocket client connected")
}

// Unregister removes a client and closes its send queue. It is safe to
// call more than once.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	if ok {
		metrics.WebSocketConnections.Dec()
		h.logger.Debug().Int("total_clients", n).Msg("websocket client disconnected")
	}
}

// deliver sends msg to every client in ID order. Clients whose buffer is
// full are dropped.
func (h *Hub) deliver(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.sortedLocked()
	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			close(c.send)
			delete(h.clients, c)
			metrics.WebSocketConnections.Dec()
			h.logger.Warn().Uint64("client_id", c.id).Msg("dropping slow websocket client")
		}
	}
}

func (h *Hub) closeAll() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.sortedLocked()
	for _, c := range clients {
		close(c.send)
		delete(h.clients, c)
		metrics.WebSocketConnections.Dec()
	}
	return len(clients)
}

func (h *Hub) sortedLocked() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	slices.SortFunc(clients, func(a, b *Client) int {
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		}
		return 0
	})
	return clients
}

// Broadcast queues msg for every connected client. It never blocks; when
// the queue is full the message is dropped and false is returned.
func (h *Hub) Broadcast(msg Message) bool {
	select {
	case h.broadcast <- msg:
		return true
	default:
		h.logger.Warn().Str("message_type", msg.Type).Msg("broadcast channel full, dropping message")
		return false
	}
}

// Publish pushes a fresh trend result to clients. It implements the
// engine's publisher interface.
func (h *Hub) Publish(_ context.Context, td models.TrendData) error {
	if h.Broadcast(Message{Type: MessageTypeTrendUpdate, Data: td}) {
		metrics.EventsPublished.WithLabelValues(SinkWebSocket, "success").Inc()
	} else {
		metrics.EventsPublished.WithLabelValues(SinkWebSocket, "dropped").Inc()
	}
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
