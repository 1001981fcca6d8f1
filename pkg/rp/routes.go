// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package rp

import (
	"net/http"

	"github.com/go-core-stack/l8-proxy-chain/pkg/router"
)

// buildRouter wires the three reverse-proxy routes.
func (h *Handler) buildRouter() *router.Router {
	rt := router.New()
	rt.Handle(http.MethodPost, "/init-tunnel", h.handleInitTunnel)
	rt.Handle(http.MethodPost, "/proxy", h.handleProxy)
	rt.Handle(http.MethodGet, "/healthcheck", h.handleHealthcheck)
	return rt
}
