// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package rp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-core-stack/l8-proxy-chain/pkg/l8obj"
	"github.com/go-core-stack/l8-proxy-chain/pkg/ntor"
	"github.com/go-core-stack/l8-proxy-chain/pkg/proxyutil"
	"github.com/go-core-stack/l8-proxy-chain/pkg/reqctx"
)

const (
	headerFPRPJWT  = "fp_rp_jwt"
	headerIntRPJWT = "int_rp_jwt"
)

// handleProxy decrypts one opaque envelope, reconstructs the backend
// call, and re-encrypts the response under the same nTor shared secret
// (spec §4.3).
func (h *Handler) handleProxy(r *http.Request, ctx *reqctx.Context) (int, []byte) {
	fpRPJWT, err := requiredHeader(r, headerFPRPJWT)
	if err != nil {
		return http.StatusBadRequest, errorBody(err.Error())
	}
	intRPJWTRaw, err := requiredHeader(r, headerIntRPJWT)
	if err != nil {
		return http.StatusBadRequest, errorBody(err.Error())
	}

	if _, err := h.jwtIssuer.Verify(fpRPJWT); err != nil {
		return http.StatusBadRequest, errorBody(err.Error())
	}
	intRPClaims, err := h.jwtIssuer.Verify(intRPJWTRaw)
	if err != nil {
		return http.StatusBadRequest, errorBody(err.Error())
	}

	sessionID := intRPClaims.SID
	if sessionID == "" {
		return http.StatusBadRequest, errorBody("Missing ntor_session_id in JWT claims")
	}

	sharedSecret, ok := h.sessions.Lookup(sessionID)
	if !ok {
		return http.StatusUnauthorized, []byte("Invalid or expired nTor session ID")
	}

	var envelope ntor.Envelope
	if err := json.Unmarshal(ctx.RequestBody, &envelope); err != nil {
		return http.StatusBadRequest, errorBody(fmt.Sprintf("malformed envelope: %v", err))
	}

	plaintext, err := ntor.Decrypt(sharedSecret, envelope)
	if err != nil {
		return http.StatusBadRequest, errorBody(fmt.Sprintf("Decryption failed: %v", err))
	}

	var reqObj l8obj.L8RequestObject
	if err := json.Unmarshal(plaintext, &reqObj); err != nil {
		return http.StatusBadRequest, errorBody(fmt.Sprintf("malformed request object: %v", err))
	}

	respObj, status, err := h.callBackend(r.Context(), reqObj)
	if err != nil {
		return status, errorBody(err.Error())
	}

	respPlaintext, err := json.Marshal(respObj)
	if err != nil {
		return http.StatusInternalServerError, errorBody(err.Error())
	}

	outEnvelope, err := ntor.Encrypt(sharedSecret, respPlaintext)
	if err != nil {
		return http.StatusInternalServerError, errorBody(err.Error())
	}

	ctx.Set("client_id", sessionID)

	body, err := json.Marshal(outEnvelope)
	if err != nil {
		return http.StatusInternalServerError, errorBody(err.Error())
	}
	return http.StatusOK, body
}

// callBackend reconstructs and issues the decrypted HTTP call against the
// configured backend, returning the wrapped response object or an error
// status (502 for transport failures) to surface instead.
func (h *Handler) callBackend(ctx context.Context, reqObj l8obj.L8RequestObject) (l8obj.L8ResponseObject, int, error) {
	targetURL := h.cfg.BackendURL + reqObj.URI

	req, err := http.NewRequestWithContext(ctx, reqObj.Method, targetURL, bytes.NewReader(reqObj.Body))
	if err != nil {
		return l8obj.L8ResponseObject{}, http.StatusInternalServerError, fmt.Errorf("rp: build backend request: %w", err)
	}
	req.Header = l8obj.ToHTTPHeader(reqObj.Headers)
	proxyutil.StripHopHeaders(req.Header)

	resp, err := h.backendClient.Do(req)
	if err != nil {
		return l8obj.L8ResponseObject{}, http.StatusBadGateway, fmt.Errorf("rp: backend request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return l8obj.L8ResponseObject{}, http.StatusBadGateway, fmt.Errorf("rp: read backend response: %w", err)
	}

	redirected := false
	if resp.Request != nil && resp.Request.URL != nil {
		redirected = resp.Request.URL.String() != targetURL
	}

	return l8obj.L8ResponseObject{
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		Headers:    l8obj.FromHTTPHeader(resp.Header),
		Body:       body,
		OK:         resp.StatusCode >= 200 && resp.StatusCode < 300,
		URL:        targetURL,
		Redirected: redirected,
	}, http.StatusOK, nil
}

func requiredHeader(r *http.Request, name string) (string, error) {
	values, present := r.Header[http.CanonicalHeaderKey(name)]
	if !present || len(values) == 0 || values[0] == "" {
		return "", fmt.Errorf("Missing or empty %s header", name)
	}
	return values[0], nil
}
