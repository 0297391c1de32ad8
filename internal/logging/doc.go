// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

/*
Package logging provides the zerolog-based structured logger used across
the trend engine.

# Quick Start

	logging.Init(logging.Config{Level: "info", Format: "json"})

	logging.Info().Str("platform", "youtube").Msg("Source adapter ready")
	logging.Err(err).Msg("Cache store unavailable, treating as miss")

	// Per-query correlation
	ctx = logging.ContextWithNewCorrelationID(ctx)
	logging.Ctx(ctx).Debug().Msg("Fan-out started")

# slog Bridge

The supervisor tree logs through sutureslog, which expects *slog.Logger.
NewSlogLogger returns one backed by the same zerolog output.

Always terminate chains with Msg or Send; an unterminated event is
never written.
*/
package logging
