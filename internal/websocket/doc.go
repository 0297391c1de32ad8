// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

/*
Package websocket pushes fresh trend results to connected clients.

The Hub keeps the set of connected clients and delivers queued messages to
them in a fixed order. It implements the engine's publisher interface, so
every fresh platform result becomes a trend_update message:

	{"type":"trend_update","data":{"platform":"tiktok","status":"ok",...}}

When NATS is enabled the engine publishes to the broker instead and a
NATSBridge feeds the hub, so clients of any instance see updates fetched
by all of them.

Each Client runs a read pump, which answers {"type":"ping"} with a pong
and detects disconnects, and a write pump, which is the only goroutine
writing to the connection. A client whose send buffer fills up is dropped.

Usage:

	hub := websocket.NewHub()
	tree.AddAPIService(hub)

	conn, _ := upgrader.Upgrade(w, r, nil)
	websocket.NewClient(hub, conn).Start()
*/
package websocket
