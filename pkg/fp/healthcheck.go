// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package fp

import (
	"net/http"

	"github.com/go-core-stack/l8-proxy-chain/pkg/reqctx"
)

// handleHealthcheck answers GET /healthcheck?error=true|false with one of
// two fixed placeholder bodies, matching the RP's identical behavior.
func (h *Handler) handleHealthcheck(r *http.Request, ctx *reqctx.Context) (int, []byte) {
	if ctx.Summary.Params["error"] == "true" {
		return http.StatusTeapot, []byte(`{"fp_healthcheck_error":"this is placeholder for a custom error"}`)
	}
	ctx.ResponseHeader.Set("x-fp-healthcheck-success", "response-header-success")
	return http.StatusOK, []byte(`{"fp_healthcheck_success":"this is placeholder for a custom body"}`)
}
