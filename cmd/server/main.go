// Trendscope - Trend Intelligence Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendscope

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/trendscope/internal/api"
	"github.com/tomtom215/trendscope/internal/cache"
	"github.com/tomtom215/trendscope/internal/config"
	"github.com/tomtom215/trendscope/internal/engine"
	"github.com/tomtom215/trendscope/internal/logging"
	"github.com/tomtom215/trendscope/internal/supervisor"
	"github.com/tomtom215/trendscope/internal/supervisor/services"
	ws "github.com/tomtom215/trendscope/internal/websocket"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})
	logging.Info().Msg("Starting Trendscope with supervisor tree")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openStore(ctx, cfg.Cache)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open cache store")
	}
	trendCache := cache.New(store, cfg.Cache.TTLFor, cache.WithFetchTimeout(cfg.Cache.FetchTimeout))
	defer func() {
		if err := trendCache.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing cache store")
		}
	}()

	adapters, err := initSources(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize sources")
	}

	hub := ws.NewHub()
	natsComponents, err := InitNATS(cfg.NATS, hub)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize NATS")
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()
		natsComponents.Shutdown(shutdownCtx)
	}()

	sources := make([]engine.Source, 0, len(adapters))
	for _, a := range adapters {
		sources = append(sources, a)
	}
	opts := []engine.Option{
		engine.WithQueryTimeout(cfg.Engine.QueryTimeout),
		engine.WithMaxConcurrency(cfg.Engine.MaxConcurrency),
		engine.WithHistory(engine.NewHistory(cfg.Engine.HistorySize)),
	}
	// With NATS the bridge feeds the hub, so the hub must not also be a
	// direct publisher.
	if pub := natsComponents.Publisher(); pub != nil {
		opts = append(opts, engine.WithPublisher(pub))
	} else {
		opts = append(opts, engine.WithPublisher(hub))
	}
	trendEngine := engine.New(trendCache, sources, opts...)

	handler := api.NewHandler(trendEngine, hub, cfg)
	router := api.NewRouter(handler, api.NewChiMiddleware(api.NewChiMiddlewareConfig(cfg.Server)))
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddDataService(cache.NewSweeper(trendCache, cfg.Cache.SweepInterval))
	for _, a := range adapters {
		tree.AddSourceService(a.Budget())
	}
	tree.AddAPIService(hub)
	if bridge := natsComponents.Bridge(); bridge != nil {
		tree.AddAPIService(bridge)
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().
		Str("addr", server.Addr).
		Int("platforms", len(adapters)).
		Str("cache_backend", cfg.Cache.Backend).
		Bool("nats", cfg.NATS.Enabled).
		Msg("Services added to supervisor tree")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	// The channel delivers exactly one result and is never closed.
	errCh := tree.ServeBackground(ctx)
	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
		serveErr = <-errCh
	case serveErr = <-errCh:
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logging.Error().Err(serveErr).Msg("Supervisor tree error")
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Trendscope stopped gracefully")
}
