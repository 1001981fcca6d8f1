// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package rp implements the Reverse Proxy: the backend-facing gateway
// that terminates the nTor handshake with the interceptor, decrypts each
// subsequent client request, reconstructs it as an ordinary HTTP call
// against the protected backend, and re-encrypts the response. See spec
// §4.3 and §4.4.
package rp

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/go-core-stack/l8-proxy-chain/pkg/config"
	"github.com/go-core-stack/l8-proxy-chain/pkg/jwtutil"
	"github.com/go-core-stack/l8-proxy-chain/pkg/ntor"
	"github.com/go-core-stack/l8-proxy-chain/pkg/router"
	"github.com/go-core-stack/l8-proxy-chain/pkg/sessions"
	"github.com/go-core-stack/l8-proxy-chain/pkg/telemetry"
)

// Handler owns the reverse proxy's configuration, nTor server identity,
// shared-secret table, and backend HTTP client, all shared across request
// goroutines. It implements http.Handler.
type Handler struct {
	cfg config.RPConfig

	ntorServer *ntor.Server
	jwtIssuer  *jwtutil.Issuer
	sessions   *sessions.RPTable

	backendClient *http.Client

	telemetry    telemetry.Sink
	promRegistry *prometheus.Registry
	logger       zerolog.Logger

	router *router.Router
}

// New constructs a Handler from configuration, wiring its session sweeper
// and telemetry sinks, and returns it ready to serve HTTP.
func New(cfg config.RPConfig, logger zerolog.Logger) (*Handler, error) {
	ntorServer, err := ntor.NewServer(cfg.NtorServerID, cfg.NtorStaticSecret)
	if err != nil {
		return nil, err
	}

	h := &Handler{
		cfg:        cfg,
		ntorServer: ntorServer,
		jwtIssuer:  jwtutil.NewIssuer(cfg.JWTKey, cfg.JWTExpInHours),
		sessions:   sessions.NewRPTable(),
		backendClient: &http.Client{
			Timeout: cfg.UpstreamTimeout,
		},
		logger: logger.With().Str("component", "reverse-proxy").Logger(),
	}

	promSink := telemetry.NewPromSink("l8_rp")
	var influxSink telemetry.Sink
	if is := telemetry.NewInfluxSink(cfg.Telemetry.InfluxURL, cfg.Telemetry.InfluxOrg, cfg.Telemetry.InfluxBkt, cfg.Telemetry.InfluxToken, h.logger); is != nil {
		influxSink = is
	}
	if influxSink != nil {
		h.telemetry = telemetry.NewMultiSink(promSink, influxSink)
	} else {
		h.telemetry = promSink
	}
	h.promRegistry = promSink.Registry

	h.router = h.buildRouter()

	return h, nil
}

// RunSweeper starts the shared-secret table's TTL eviction goroutine
// until ctx is cancelled.
func (h *Handler) RunSweeper(ctx context.Context) {
	h.sessions.RunSweeper(ctx, h.cfg.SessionSweepInterval, func(n int) {
		h.logger.Info().Int("evicted", n).Msg("swept expired nTor sessions")
	})
}

// Metrics exposes the node's private Prometheus registry for mounting on
// /metrics.
func (h *Handler) Metrics() http.Handler {
	return promhttp.HandlerFor(h.promRegistry, promhttp.HandlerOpts{})
}
