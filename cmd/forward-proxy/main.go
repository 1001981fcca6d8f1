// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/go-core-stack/l8-proxy-chain/pkg/config"
	"github.com/go-core-stack/l8-proxy-chain/pkg/fp"
	"github.com/go-core-stack/l8-proxy-chain/pkg/logging"
)

func main() {
	cfg, err := config.LoadFP()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load forward proxy configuration")
	}

	logger, err := logging.New(logging.Options{
		Level:    cfg.LogLevel,
		Format:   cfg.LogFormat,
		Path:     cfg.LogPath,
		Filename: cfg.LogFilename,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build logger")
	}
	log.Logger = logger

	handler, err := fp.New(cfg, logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to construct forward proxy")
	}

	sweepCtx, cancelSweep := context.WithCancel(context.Background())
	defer cancelSweep()
	handler.RunSweeper(sweepCtx)

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler.Metrics())
	mux.Handle("/", handler)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      mux,
		ReadTimeout:  cfg.ServerTimeout,
		WriteTimeout: cfg.ServerTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("listen_addr", cfg.Addr()).Msg("starting forward proxy")
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("forward proxy server exited unexpectedly")
		}
	}()

	waitForShutdown(context.Background(), server, cfg.GracefulShutdownTimeout)
}

func waitForShutdown(ctx context.Context, srv *http.Server, timeout time.Duration) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop

	log.Info().Msg("shutting down forward proxy")

	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed; forcing close")
		if closeErr := srv.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("forced close failed")
		}
	}

	log.Info().Msg("forward proxy stopped")
}
