// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package rp

import (
	"net/http"

	"github.com/go-core-stack/l8-proxy-chain/pkg/reqctx"
)

// handleHealthcheck answers GET /healthcheck?error=true|false with one of
// two fixed placeholder bodies, matching the FP's identical behavior.
func (h *Handler) handleHealthcheck(r *http.Request, ctx *reqctx.Context) (int, []byte) {
	if ctx.Summary.Params["error"] == "true" {
		return http.StatusTeapot, []byte(`{"rp_healthcheck_error":"this is placeholder for a custom error"}`)
	}
	ctx.ResponseHeader.Set("x-rp-healthcheck-success", "response-header-success")
	return http.StatusOK, []byte(`{"rp_healthcheck_success":"this is placeholder for a custom body"}`)
}
