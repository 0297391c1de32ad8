// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

// Package events publishes fresh trend results over NATS.
//
// Every fresh, non-failed platform result becomes an Event published on
// <prefix>.<platform>. Other instances and the WebSocket hub subscribe to
// <prefix>.> to push updates to clients. EmbeddedServer runs an in-process
// broker for single-instance deployments.
package events
