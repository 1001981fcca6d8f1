// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package fp

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-core-stack/l8-proxy-chain/pkg/proxyutil"
	"github.com/go-core-stack/l8-proxy-chain/pkg/reqctx"
)

const headerIntFPJWT = "int_fp_jwt"
const headerFPRPJWT = "fp_rp_jwt"

// handleProxy admits a /proxy request bound to an earlier /init-tunnel
// session, rewrites the bearer token, and forwards the opaque nTor
// envelope on to the bound reverse proxy (spec §4.2, §4.1 phases 3-7).
func (h *Handler) handleProxy(r *http.Request, ctx *reqctx.Context) (int, []byte) {
	values, present := r.Header[http.CanonicalHeaderKey(headerIntFPJWT)]
	if !present {
		return http.StatusBadRequest, errorBody("Missing int_fp_jwt header")
	}
	intFPJWT := values[0]
	if intFPJWT == "" {
		return http.StatusBadRequest, errorBody("int_fp_jwt header is empty")
	}

	if _, err := h.jwtIssuer.Verify(intFPJWT); err != nil {
		return http.StatusBadRequest, errorBody(err.Error())
	}

	session, ok := h.sessions.Lookup(intFPJWT)
	if !ok {
		return http.StatusBadRequest, errorBody("token not found!")
	}

	addrs, host, err := proxyutil.SocketAddrs(r.Context(), session.RPBaseURL)
	if err != nil {
		return http.StatusInternalServerError, errorBody(err.Error())
	}
	scheme := "http"
	if u, err := url.Parse(session.RPBaseURL); err == nil && u.Scheme != "" {
		scheme = u.Scheme
	}

	ctx.Set("upstream_address", strings.Join(addrs, ","))
	ctx.Set("upstream_sni", host)
	ctx.Set("fp_rp_jwt", session.FPRPJWT)
	ctx.Set("client_id", session.ClientID)

	outHeader := r.Header.Clone()
	proxyutil.StripHopHeaders(outHeader)
	outHeader.Del(headerIntFPJWT)
	outHeader.Set(headerFPRPJWT, session.FPRPJWT)
	proxyutil.RewriteChunked(outHeader)

	resp, retryErr := h.forwardWithRetry(r.Context(), scheme, host, "/proxy", addrs, outHeader, ctx.RequestBody)
	if retryErr != nil {
		return http.StatusBadGateway, errorBody(retryErr.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return http.StatusBadGateway, errorBody(err.Error())
	}

	proxyutil.CopyHeaders(ctx.ResponseHeader, resp.Header)
	return resp.StatusCode, body
}

// forwardWithRetry walks the candidate address list in order (spec §4.1
// phase 7), dropping the failing address and trying the next on a
// connect-level failure, surfacing the error only once the list is
// exhausted.
func (h *Handler) forwardWithRetry(ctx context.Context, scheme, sni, path string, addrs []string, header http.Header, body []byte) (*http.Response, error) {
	remaining := strings.Join(addrs, ",")
	var lastErr error
	for remaining != "" {
		var addr string
		remaining, addr = proxyutil.PopAddr(remaining)
		if addr == "" {
			continue
		}

		resp, err := h.forwardOnce(ctx, scheme, sni, path, addr, header, body)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("fp: no upstream address available")
	}
	return nil, lastErr
}

// forwardOnce dials exactly one candidate address and issues the request,
// presenting the FP's client certificate when mTLS is enabled. The SNI
// sent to the peer is always the bound reverse proxy's host, independent
// of which candidate address in the comma-separated list actually answers.
func (h *Handler) forwardOnce(ctx context.Context, scheme, sni, path, addr string, header http.Header, body []byte) (*http.Response, error) {
	transport := &http.Transport{
		DialContext: func(dialCtx context.Context, network, _ string) (net.Conn, error) {
			conn, err := h.upstreamDial(dialCtx, network, addr)
			if err != nil {
				return nil, err
			}
			if h.cfg.TLS.Enabled && h.upstreamTLS != nil {
				tlsCfg := h.upstreamTLS.Clone()
				tlsCfg.ServerName = sni
				tlsConn := tls.Client(conn, tlsCfg)
				if err := tlsConn.HandshakeContext(dialCtx); err != nil {
					tlsConn.Close()
					return nil, err
				}
				return tlsConn, nil
			}
			return conn, nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s://%s%s", scheme, addr, path), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header = header

	client := &http.Client{Transport: transport, Timeout: h.cfg.UpstreamTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fp: connect %s: %w", addr, err)
	}
	return resp, nil
}

func errorBody(msg string) []byte {
	encoded, err := json.Marshal(map[string]string{"error": msg})
	if err != nil {
		return []byte(`{"error":"internal error"}`)
	}
	return encoded
}
