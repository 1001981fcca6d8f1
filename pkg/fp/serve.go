// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package fp

import (
	"io"
	"net/http"
	"time"

	"github.com/go-core-stack/l8-proxy-chain/pkg/proxyutil"
	"github.com/go-core-stack/l8-proxy-chain/pkg/reqctx"
	"github.com/go-core-stack/l8-proxy-chain/pkg/telemetry"
)

// ServeHTTP drives one request through the phase machine spec §4.1
// describes: request filter, request body filter + route dispatch,
// response filter, logging. OPTIONS and unrouted paths short-circuit
// before a route ever runs.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	ctx := reqctx.FromRequest(r)
	ctx.CorrelationID = proxyutil.CorrelationID(r)

	event := h.logger.With().
		Str("correlation_id", ctx.CorrelationID).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Logger()
	event.Info().Msg("access start")

	if r.Method == http.MethodOptions {
		h.writeOptions(w)
		event.Info().Int("status", http.StatusNoContent).Dur("duration", time.Since(start)).Msg("access end")
		return
	}

	route, ok := h.router.Lookup(r.Method, r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		event.Info().Int("status", http.StatusNotFound).Dur("duration", time.Since(start)).Msg("access end")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusRequestEntityTooLarge)
		w.Write([]byte(`{"error":"request body too large"}`))
		event.Warn().Int("status", http.StatusRequestEntityTooLarge).Msg("request body exceeded cap")
		return
	}
	ctx.RequestBody = body

	status := h.router.Dispatch(route, r, ctx)

	proxyutil.ApplyCORS(ctx.ResponseHeader)
	proxyutil.RewriteChunked(ctx.ResponseHeader)

	for k, vv := range ctx.ResponseHeader {
		for _, v := range vv {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("Content-Type", contentTypeOrDefault(ctx))
	w.WriteHeader(status)
	if len(ctx.ResponseBody) > 0 {
		w.Write(ctx.ResponseBody)
	}

	clientID, _ := ctx.Get("client_id")
	if clientID == "" {
		clientID = "unknown"
	}
	telemetry.Dispatch(h.telemetry, telemetry.Update{
		ClientID:          clientID,
		Path:              r.URL.Path,
		Status:            status,
		RequestBodyBytes:  int64(len(ctx.RequestBody)),
		ResponseBodyBytes: int64(len(ctx.ResponseBody)),
	}, func(rec any) {
		event.Error().Interface("panic", rec).Msg("telemetry dispatch panicked")
	})

	event.Info().
		Int("status", status).
		Int("request_bytes", len(ctx.RequestBody)).
		Int("response_bytes", len(ctx.ResponseBody)).
		Str("user_agent", r.UserAgent()).
		Str("referer", r.Referer()).
		Dur("duration", time.Since(start)).
		Msg("access end")
}

func (h *Handler) writeOptions(w http.ResponseWriter) {
	proxyutil.ApplyCORS(w.Header())
	w.Header().Set("Connection", "close")
	w.WriteHeader(http.StatusNoContent)
}

func contentTypeOrDefault(ctx *reqctx.Context) string {
	if ct := ctx.ResponseHeader.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/json"
}
