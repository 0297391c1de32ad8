// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

//go:build integration

package testinfra

import (
	"os"
	"testing"

	"github.com/testcontainers/testcontainers-go"
)

// SkipIfNoDocker skips t when no container runtime is reachable, or when
// TRENDSCOPE_SKIP_CONTAINERS is set.
func SkipIfNoDocker(t *testing.T) {
	t.Helper()
	if os.Getenv("TRENDSCOPE_SKIP_CONTAINERS") != "" {
		t.Skip("container tests disabled by TRENDSCOPE_SKIP_CONTAINERS")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
}

// CleanupContainer terminates c when t finishes.
func CleanupContainer(t *testing.T, c testcontainers.Container) {
	t.Helper()
	testcontainers.CleanupContainer(t, c)
}
