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
	"github.com/go-core-stack/l8-proxy-chain/pkg/logging"
	"github.com/go-core-stack/l8-proxy-chain/pkg/rp"
	"github.com/go-core-stack/l8-proxy-chain/pkg/tlsconfig"
)

func main() {
	cfg, err := config.LoadRP()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load reverse proxy configuration")
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

	handler, err := rp.New(cfg, logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to construct reverse proxy")
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

	if cfg.TLS.Enabled {
		tlsCfg, err := tlsconfig.Server(cfg.TLS.CACert, cfg.TLS.Cert, cfg.TLS.Key)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build mTLS server configuration")
		}
		server.TLSConfig = tlsCfg
	}

	go func() {
		log.Info().Str("listen_addr", cfg.Addr()).Bool("tls", cfg.TLS.Enabled).Msg("starting reverse proxy")

		var err error
		if cfg.TLS.Enabled {
			// Certificates are already loaded into server.TLSConfig from PEM
			// strings in configuration; no file paths are used here.
			err = server.ListenAndServeTLS("", "")
		} else {
			err = server.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("reverse proxy server exited unexpectedly")
		}
	}()

	waitForShutdown(context.Background(), server, cfg.GracefulShutdownTimeout)
}

func waitForShutdown(ctx context.Context, srv *http.Server, timeout time.Duration) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop

	log.Info().Msg("shutting down reverse proxy")

	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed; forcing close")
		if closeErr := srv.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("forced close failed")
		}
	}

	log.Info().Msg("reverse proxy stopped")
}
