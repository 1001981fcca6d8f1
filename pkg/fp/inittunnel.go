// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package fp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-core-stack/l8-proxy-chain/pkg/certutil"
	"github.com/go-core-stack/l8-proxy-chain/pkg/jwtutil"
	"github.com/go-core-stack/l8-proxy-chain/pkg/proxyutil"
	"github.com/go-core-stack/l8-proxy-chain/pkg/reqctx"
	"github.com/go-core-stack/l8-proxy-chain/pkg/sessions"
)

const headerClientID = "X-Client-ID"

// byteArray is the wire shape byte slices use across this package's JSON
// bodies: an array of small ints rather than a base64 string, matching
// the interceptor's envelope encoding (pkg/ntor.Envelope).
type byteArray []byte

func (b byteArray) MarshalJSON() ([]byte, error) {
	ints := make([]int, len(b))
	for i, v := range b {
		ints[i] = int(v)
	}
	return json.Marshal(ints)
}

func (b *byteArray) UnmarshalJSON(data []byte) error {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return err
	}
	out := make([]byte, len(ints))
	for i, v := range ints {
		out[i] = byte(v)
	}
	*b = out
	return nil
}

type initTunnelRequest struct {
	PublicKey byteArray `json:"public_key"`
}

type certLookupResponse struct {
	X509Certificate string `json:"x509_certificate"`
}

type rpInitTunnelResponse struct {
	PublicKey byteArray `json:"public_key"`
	TBHash    byteArray `json:"t_b_hash"`
	JWT1      string    `json:"jwt1"`
	JWT2      string    `json:"jwt2"`
}

type interceptorInitTunnelResponse struct {
	EphemeralPublicKey byteArray `json:"ephemeral_public_key"`
	TBHash             byteArray `json:"t_b_hash"`
	JWT1               string    `json:"jwt1"`
	JWT2               string    `json:"jwt2"`
	PublicKey          byteArray `json:"public_key"`
	ServerID           string    `json:"server_id"`
}

// handleInitTunnel fetches the target backend's certificate from the auth
// server, forwards the client's ephemeral key to the bound reverse proxy,
// and binds the resulting session under a freshly minted int_fp_jwt (spec
// §4.2).
func (h *Handler) handleInitTunnel(r *http.Request, ctx *reqctx.Context) (int, []byte) {
	backendURL := ctx.Summary.Params["backend_url"]
	if backendURL == "" {
		return http.StatusBadRequest, errorBody("backend_url query parameter is required")
	}

	var req initTunnelRequest
	if err := json.Unmarshal(ctx.RequestBody, &req); err != nil {
		return http.StatusBadRequest, errorBody(fmt.Sprintf("invalid request body: %v", err))
	}

	pemCert, err := h.fetchBackendCertificate(r.Context(), backendURL)
	if err != nil {
		return http.StatusInternalServerError, errorBody(err.Error())
	}

	staticPublicKey, err := certutil.ExtractSPKIPublicKey(pemCert)
	if err != nil {
		return http.StatusInternalServerError, errorBody(err.Error())
	}

	ctx.Set("ntor_server_id", backendURL)

	addrs, host, err := proxyutil.SocketAddrs(r.Context(), backendURL)
	if err != nil {
		return http.StatusInternalServerError, errorBody(err.Error())
	}
	scheme := "http"
	if strings.HasPrefix(backendURL, "https://") {
		scheme = "https"
	}

	outHeader := r.Header.Clone()
	proxyutil.StripHopHeaders(outHeader)
	proxyutil.RewriteChunked(outHeader)

	resp, err := h.forwardWithRetry(r.Context(), scheme, host, "/init-tunnel", addrs, outHeader, ctx.RequestBody)
	if err != nil {
		return http.StatusBadGateway, errorBody(err.Error())
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return http.StatusBadGateway, errorBody(err.Error())
	}
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, rawBody
	}

	var rpResp rpInitTunnelResponse
	if err := json.Unmarshal(rawBody, &rpResp); err != nil {
		return http.StatusInternalServerError, errorBody(fmt.Sprintf("malformed reverse proxy response: %v", err))
	}

	clientID := r.Header.Get(headerClientID)
	if clientID == "" {
		clientID = "unknown"
	}

	intFPJWT, err := h.jwtIssuer.Issue(jwtutil.IssueOpts{Subject: clientID, Upstream: backendURL})
	if err != nil {
		return http.StatusInternalServerError, errorBody(err.Error())
	}

	expiresAt := h.jwtIssuer.Now().Add(durationFromHours(h.cfg.JWTExpInHours))
	h.sessions.Insert(intFPJWT, sessions.IntFPSession{
		RPBaseURL: backendURL,
		FPRPJWT:   rpResp.JWT2,
		ClientID:  clientID,
	}, expiresAt)

	ctx.Set("client_id", clientID)

	out := interceptorInitTunnelResponse{
		EphemeralPublicKey: byteArray(rpResp.PublicKey),
		TBHash:             byteArray(rpResp.TBHash),
		JWT1:               rpResp.JWT1,
		JWT2:               intFPJWT,
		PublicKey:          byteArray(staticPublicKey),
		ServerID:           backendURL,
	}
	body, err := json.Marshal(out)
	if err != nil {
		return http.StatusInternalServerError, errorBody(err.Error())
	}
	return http.StatusOK, body
}

// fetchBackendCertificate retrieves the PEM certificate for backendURL
// from the configured auth server (spec §4.2 step 2, §6).
func (h *Handler) fetchBackendCertificate(ctx context.Context, backendURL string) (string, error) {
	withoutScheme := strings.TrimPrefix(strings.TrimPrefix(backendURL, "https://"), "http://")
	lookupURL := h.cfg.AuthCertURL + withoutScheme

	reqCtx, cancel := context.WithTimeout(ctx, h.cfg.UpstreamTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return "", fmt.Errorf("fp: build cert lookup request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+h.cfg.AuthAccessToken)

	resp, err := h.authClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fp: cert lookup request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("fp: read cert lookup response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fp: cert lookup returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}

	var parsed certLookupResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("fp: decode cert lookup response: %w", err)
	}
	if parsed.X509Certificate == "" {
		return "", fmt.Errorf("fp: cert lookup response missing x509_certificate")
	}
	return parsed.X509Certificate, nil
}

// durationFromHours turns a configured JWT lifetime into a time.Duration,
// matching the way jwtutil.Issuer computes exp internally.
func durationFromHours(hours int64) time.Duration {
	return time.Duration(hours) * time.Hour
}
