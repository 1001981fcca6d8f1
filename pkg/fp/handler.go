// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package fp implements the Forward Proxy: the client-facing ingress that
// resolves a backend's nTor credentials from the auth server, binds a
// client session to an upstream reverse proxy, and streams opaque
// encrypted payloads onward. See spec §4.1 and §4.2.
package fp

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/go-core-stack/l8-proxy-chain/pkg/config"
	"github.com/go-core-stack/l8-proxy-chain/pkg/jwtutil"
	"github.com/go-core-stack/l8-proxy-chain/pkg/router"
	"github.com/go-core-stack/l8-proxy-chain/pkg/sessions"
	"github.com/go-core-stack/l8-proxy-chain/pkg/telemetry"
)

// Handler owns the forward proxy's configuration, JWT issuer, session
// table, and in-flight collaborators, all shared across request
// goroutines. It implements http.Handler.
type Handler struct {
	cfg config.FPConfig

	jwtIssuer *jwtutil.Issuer
	sessions  *sessions.FPTable

	authClient   *http.Client
	upstreamDial func(ctx context.Context, network, addr string) (net.Conn, error)
	upstreamTLS  *tls.Config

	telemetry    telemetry.Sink
	promRegistry *prometheus.Registry
	logger       zerolog.Logger

	router *router.Router
}

// New constructs a Handler from configuration, wiring its session sweeper
// and telemetry sinks, and returns it ready to serve HTTP.
func New(cfg config.FPConfig, logger zerolog.Logger) (*Handler, error) {
	h := &Handler{
		cfg:       cfg,
		jwtIssuer: jwtutil.NewIssuer(cfg.JWTKey, cfg.JWTExpInHours),
		sessions:  sessions.NewFPTable(),
		authClient: &http.Client{
			Timeout: cfg.UpstreamTimeout,
		},
		logger: logger.With().Str("component", "forward-proxy").Logger(),
	}

	if cfg.TLS.Enabled {
		tlsCfg, err := buildClientTLS(cfg.TLS)
		if err != nil {
			return nil, err
		}
		h.upstreamTLS = tlsCfg
	}

	h.upstreamDial = (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}).DialContext

	promSink := telemetry.NewPromSink("l8_fp")
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

// RunSweeper starts the session table's TTL eviction goroutine until ctx is
// cancelled.
func (h *Handler) RunSweeper(ctx context.Context) {
	h.sessions.RunSweeper(ctx, h.cfg.SessionSweepInterval, func(n int) {
		h.logger.Info().Int("evicted", n).Msg("swept expired forward-proxy sessions")
	})
}

// Metrics exposes the node's private Prometheus registry for mounting on
// /metrics.
func (h *Handler) Metrics() http.Handler {
	return promhttp.HandlerFor(h.promRegistry, promhttp.HandlerOpts{})
}
