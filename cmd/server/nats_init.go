// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package main

import (
	"context"
	"fmt"

	"github.com/tomtom215/trendscope/internal/config"
	"github.com/tomtom215/trendscope/internal/events"
	"github.com/tomtom215/trendscope/internal/logging"
	ws "github.com/tomtom215/trendscope/internal/websocket"
)

// NATSComponents holds the event pipeline when NATS is enabled.
type NATSComponents struct {
	server    *events.EmbeddedServer
	publisher *events.Publisher
	bridge    *ws.NATSBridge
}

// InitNATS starts the embedded broker if configured, connects the
// publisher and creates the bridge that feeds hub. It returns nil, nil when
// NATS is disabled.
func InitNATS(cfg config.NATSConfig, hub *ws.Hub) (*NATSComponents, error) {
	if !cfg.Enabled {
		logging.Info().Msg("NATS disabled, trend updates go directly to WebSocket clients")
		return nil, nil
	}

	c := &NATSComponents{}
	pubCfg := events.PublisherConfigFrom(cfg)

	if cfg.EmbeddedServer {
		srvCfg, err := events.ServerConfigFromURL(cfg.URL)
		if err != nil {
			return nil, err
		}
		srv, err := events.NewEmbeddedServer(srvCfg)
		if err != nil {
			return nil, fmt.Errorf("start embedded NATS server: %w", err)
		}
		c.server = srv
		pubCfg.URL = srv.ClientURL()
		logging.Info().Str("url", srv.ClientURL()).Msg("Embedded NATS server started")
	}

	pub, err := events.NewPublisher(pubCfg)
	if err != nil {
		c.Shutdown(context.Background())
		return nil, fmt.Errorf("connect NATS publisher: %w", err)
	}
	c.publisher = pub
	c.bridge = ws.NewNATSBridge(pub.Conn(), pub.SubjectPrefix(), hub)

	logging.Info().
		Str("url", pubCfg.URL).
		Str("subject", events.WildcardSubject(pub.SubjectPrefix())).
		Msg("NATS event publishing enabled")
	return c, nil
}

// Publisher returns the engine's NATS sink.
func (c *NATSComponents) Publisher() *events.Publisher {
	if c == nil {
		return nil
	}
	return c.publisher
}

// Bridge returns the NATS to WebSocket bridge service.
func (c *NATSComponents) Bridge() *ws.NATSBridge {
	if c == nil {
		return nil
	}
	return c.bridge
}

// Shutdown drains the publisher, then stops the embedded broker.
func (c *NATSComponents) Shutdown(ctx context.Context) {
	if c == nil {
		return
	}
	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			logging.Warn().Err(err).Msg("Error draining NATS publisher")
		}
	}
	if c.server != nil {
		if err := c.server.Shutdown(ctx); err != nil {
			logging.Warn().Err(err).Msg("Embedded NATS server did not stop in time")
		}
	}
}
