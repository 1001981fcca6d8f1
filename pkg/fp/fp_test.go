// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package fp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/go-core-stack/l8-proxy-chain/pkg/config"
	"github.com/go-core-stack/l8-proxy-chain/pkg/jwtutil"
	"github.com/go-core-stack/l8-proxy-chain/pkg/sessions"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	cfg := config.FPConfig{
		JWTKey:               []byte("test-signing-key"),
		JWTExpInHours:        1,
		AuthAccessToken:      "token",
		AuthCertURL:          "https://auth.example.com/certs/",
		SessionSweepInterval: time.Minute,
		MaxBodyBytes:         8 * 1024 * 1024,
		UpstreamTimeout:      5 * time.Second,
	}
	h, err := New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return h
}

func TestHealthcheckSuccess(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/healthcheck?error=false", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("x-fp-healthcheck-success"); got != "response-header-success" {
		t.Errorf("missing success header, got %q", got)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["fp_healthcheck_success"] != "this is placeholder for a custom body" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestHealthcheckError(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/healthcheck?error=true", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d, want 418", rec.Code)
	}
}

func TestOptionsShortCircuitsWithCORS(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodOptions, "/anything", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("missing CORS header")
	}
}

func TestUnroutedPathReturns404(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/no-such-route", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestProxyMissingJWTHeader(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/proxy", strings.NewReader("{}"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] != "Missing int_fp_jwt header" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestProxyEmptyJWTHeaderDistinctFromMissing(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/proxy", strings.NewReader("{}"))
	req.Header.Set("int_fp_jwt", "")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["error"] == "Missing int_fp_jwt header" {
		t.Errorf("expected empty-header message distinct from missing-header message")
	}
}

func TestProxyUnknownTokenReturnsTokenNotFound(t *testing.T) {
	h := newTestHandler(t)
	token, err := h.jwtIssuer.Issue(jwtutil.IssueOpts{Subject: "client-1", Upstream: "https://rp.example.com"})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/proxy", strings.NewReader("{}"))
	req.Header.Set("int_fp_jwt", token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["error"] != "token not found!" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestProxyResolvesBoundSessionAndForwards(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("fp_rp_jwt") != "bound-fp-rp-jwt" {
			t.Errorf("expected bound fp_rp_jwt header, got %q", r.Header.Get("fp_rp_jwt"))
		}
		if r.Header.Get("int_fp_jwt") != "" {
			t.Errorf("int_fp_jwt should have been stripped")
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()

	h := newTestHandler(t)
	intFPJWT, err := h.jwtIssuer.Issue(jwtutil.IssueOpts{Subject: "client-1", Upstream: upstream.URL})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	h.sessions.Insert(intFPJWT, sessions.IntFPSession{
		RPBaseURL: upstream.URL,
		FPRPJWT:   "bound-fp-rp-jwt",
		ClientID:  "client-1",
	}, time.Now().Add(time.Hour))

	req := httptest.NewRequest(http.MethodPost, "/proxy", strings.NewReader(`{"nonce":[],"data":[]}`))
	req.Header.Set("int_fp_jwt", intFPJWT)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}
}

// TestRequestBodyExceedingCapReturns413 exercises the spec §8 boundary
// behavior "request body exceeding the configured cap yields 413".
func TestRequestBodyExceedingCapReturns413(t *testing.T) {
	h := newTestHandler(t)
	h.cfg.MaxBodyBytes = 8

	req := httptest.NewRequest(http.MethodPost, "/proxy", strings.NewReader(strings.Repeat("a", 1024)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
}

// TestForwardWithRetryFallsThroughOnFirstAddressFailure drives the
// fail-to-connect retry phase (spec §4.1 phase 7, §8 property 7)
// end-to-end: the first candidate address refuses the connection, and
// forwardWithRetry must pop it via proxyutil.PopAddr and succeed against
// the second.
func TestForwardWithRetryFallsThroughOnFirstAddressFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok-from-second-address"))
	}))
	defer upstream.Close()

	h := newTestHandler(t)

	// Port 1 on loopback refuses connections immediately, standing in for
	// a dead first candidate address.
	addrs := []string{"127.0.0.1:1", upstream.Listener.Addr().String()}

	resp, err := h.forwardWithRetry(context.Background(), "http", "upstream.example", "/", addrs, http.Header{}, nil)
	if err != nil {
		t.Fatalf("forwardWithRetry: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(body) != "ok-from-second-address" {
		t.Errorf("got body %q, want response from the second address", body)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

// TestForwardWithRetryExhaustsAllAddresses confirms the retry loop
// surfaces an error once every candidate has failed, rather than hanging
// or silently succeeding.
func TestForwardWithRetryExhaustsAllAddresses(t *testing.T) {
	h := newTestHandler(t)
	addrs := []string{"127.0.0.1:1", "127.0.0.1:2"}

	if _, err := h.forwardWithRetry(context.Background(), "http", "upstream.example", "/", addrs, http.Header{}, nil); err == nil {
		t.Errorf("expected an error once all candidate addresses are exhausted")
	}
}
