// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package proxyutil holds the header rewriting and CORS helpers shared by
// the forward and reverse proxy phase machines.
package proxyutil

import "net/http"

// hopHeaders lists standard hop-by-hop headers that must be stripped
// before a request is proxied so the upstream connection semantics remain
// correct.
var hopHeaders = map[string]struct{}{
	"Connection":          {},
	"Proxy-Connection":    {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Te":                  {},
	"Trailer":             {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
}

// StripHopHeaders removes hop-by-hop headers that should not be forwarded.
func StripHopHeaders(h http.Header) {
	for k := range hopHeaders {
		h.Del(k)
	}
}

// CopyHeaders appends all headers from src into dst.
func CopyHeaders(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}

// ApplyCORS sets the permissive CORS allow-* headers spec §4.1 requires on
// both the OPTIONS short-circuit and every ordinary response.
func ApplyCORS(h http.Header) {
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "*")
	h.Set("Access-Control-Max-Age", "86400")
}

// RewriteChunked converts a non-zero Content-Length into
// Transfer-Encoding: chunked, unless the sentinel x-empty-body header is
// present (spec §4.1 phase 4 and §9's note on the undocumented sentinel,
// FP-only but harmless to honor uniformly).
func RewriteChunked(h http.Header) {
	if h.Get("x-empty-body") != "" {
		return
	}
	if cl := h.Get("Content-Length"); cl != "" && cl != "0" {
		h.Del("Content-Length")
		h.Set("Transfer-Encoding", "chunked")
	}
}
