// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

// Package supervisor runs long-lived services under a thejerf/suture tree.
//
// Services implement suture.Service (Serve(ctx) error plus String for log
// output). Supervisor events are logged through sutureslog and the
// zerolog-backed slog handler from the logging package. Wrappers for
// services that do not fit the interface directly, such as *http.Server,
// live in the services subpackage.
package supervisor
