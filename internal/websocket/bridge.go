// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package websocket

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/tomtom215/trendscope/internal/events"
	"github.com/tomtom215/trendscope/internal/logging"
)

// NATSBridge forwards trend events from NATS to the hub, so clients see
// updates produced by every instance sharing the broker.
type NATSBridge struct {
	nc     *nats.Conn
	prefix string
	hub    *Hub
}

// NewNATSBridge creates a bridge subscribed to every platform under prefix.
func NewNATSBridge(nc *nats.Conn, prefix string, hub *Hub) *NATSBridge {
	return &NATSBridge{nc: nc, prefix: prefix, hub: hub}
}

// Serve subscribes until ctx is canceled. It implements suture.Service.
func (b *NATSBridge) Serve(ctx context.Context) error {
	sub, err := events.Subscribe(b.nc, b.prefix, func(ev events.Event) {
		b.hub.Broadcast(Message{Type: MessageTypeTrendUpdate, Data: ev.Data})
	})
	if err != nil {
		return err
	}
	logging.Ctx(ctx).Info().Str("subject", sub.Subject).Msg("forwarding trend events to websocket clients")

	<-ctx.Done()
	if err := sub.Unsubscribe(); err != nil && b.nc.IsConnected() {
		logging.Ctx(ctx).Warn().Err(err).Msg("failed to unsubscribe from trend events")
	}
	return ctx.Err()
}

func (b *NATSBridge) String() string {
	return "websocket-nats-bridge"
}
