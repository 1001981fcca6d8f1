// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package fp

import (
	"net/http"

	"github.com/go-core-stack/l8-proxy-chain/pkg/router"
)

// buildRouter wires the three forward-proxy routes. Each handler chain is
// a single Handler that does the route's full work (request validation,
// upstream forward, response transform) because the forward phase needs
// the Handler's http.Client and session table, not just the request
// context — spec §4.1's numbered phases are expressed as ordered steps
// inside each of these methods rather than as separate chain entries.
func (h *Handler) buildRouter() *router.Router {
	rt := router.New()
	rt.Handle(http.MethodPost, "/init-tunnel", h.handleInitTunnel)
	rt.Handle(http.MethodPost, "/proxy", h.handleProxy)
	rt.Handle(http.MethodGet, "/healthcheck", h.handleHealthcheck)
	return rt
}
