// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package rp

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/curve25519"

	"github.com/go-core-stack/l8-proxy-chain/pkg/config"
	"github.com/go-core-stack/l8-proxy-chain/pkg/jwtutil"
	"github.com/go-core-stack/l8-proxy-chain/pkg/l8obj"
	"github.com/go-core-stack/l8-proxy-chain/pkg/ntor"
)

func newTestHandler(t *testing.T, backendURL string) *Handler {
	t.Helper()
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		t.Fatalf("generate static secret: %v", err)
	}
	cfg := config.RPConfig{
		JWTKey:               []byte("test-signing-key"),
		JWTExpInHours:        1,
		NtorServerID:         "rp-1",
		NtorStaticSecret:     secret,
		BackendURL:           backendURL,
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
	h := newTestHandler(t, "http://backend.invalid")
	req := httptest.NewRequest(http.MethodGet, "/healthcheck?error=false", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestInitTunnelRejectsWrongKeyLength(t *testing.T) {
	h := newTestHandler(t, "http://backend.invalid")
	body, _ := json.Marshal(map[string][]int{"public_key": {1, 2, 3}})
	req := httptest.NewRequest(http.MethodPost, "/init-tunnel", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestInitTunnelHandshakeSucceeds(t *testing.T) {
	h := newTestHandler(t, "http://backend.invalid")

	clientPriv := make([]byte, 32)
	rand.Read(clientPriv)
	clientPub, err := curve25519.X25519(clientPriv, curve25519.Basepoint)
	if err != nil {
		t.Fatalf("derive client pub: %v", err)
	}

	ints := make([]int, len(clientPub))
	for i, b := range clientPub {
		ints[i] = int(b)
	}
	body, _ := json.Marshal(map[string][]int{"public_key": ints})
	req := httptest.NewRequest(http.MethodPost, "/init-tunnel", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}

	var resp initTunnelResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.PublicKey) != ntor.KeyLen {
		t.Errorf("ephemeral public key length = %d, want %d", len(resp.PublicKey), ntor.KeyLen)
	}
	if resp.JWT1 == "" || resp.JWT2 == "" {
		t.Errorf("expected both jwt1 and jwt2 to be issued")
	}
	if h.sessions.Len() != 1 {
		t.Errorf("expected exactly one shared-secret table entry, got %d", h.sessions.Len())
	}
}

// TestRequestBodyExceedingCapReturns413 exercises the spec §8 boundary
// behavior "request body exceeding the configured cap yields 413".
func TestRequestBodyExceedingCapReturns413(t *testing.T) {
	h := newTestHandler(t, "http://backend.invalid")
	h.cfg.MaxBodyBytes = 8

	req := httptest.NewRequest(http.MethodPost, "/proxy", bytes.NewReader([]byte(strings.Repeat("a", 1024))))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
}

func TestProxyMissingJWTHeaders(t *testing.T) {
	h := newTestHandler(t, "http://backend.invalid")
	req := httptest.NewRequest(http.MethodPost, "/proxy", bytes.NewReader([]byte("{}")))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestProxyUnknownSessionReturns401(t *testing.T) {
	h := newTestHandler(t, "http://backend.invalid")

	fpRPJWT, err := h.jwtIssuer.Issue(jwtutil.IssueOpts{})
	if err != nil {
		t.Fatalf("issue fp_rp_jwt: %v", err)
	}
	intRPJWT, err := h.jwtIssuer.Issue(jwtutil.IssueOpts{SID: "nonexistent-session"})
	if err != nil {
		t.Fatalf("issue int_rp_jwt: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/proxy", bytes.NewReader([]byte("{}")))
	req.Header.Set(headerFPRPJWT, fpRPJWT)
	req.Header.Set(headerIntRPJWT, intRPJWT)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestProxyDecryptsForwardsAndEncrypts(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/widgets" {
			t.Errorf("unexpected backend path %q", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "hello" {
			t.Errorf("unexpected backend body %q", body)
		}
		w.Header().Set("X-Backend", "1")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("world"))
	}))
	defer backend.Close()

	h := newTestHandler(t, backend.URL)

	var sharedSecret [32]byte
	rand.Read(sharedSecret[:])
	h.sessions.Insert("session-1", sharedSecret, time.Hour)

	fpRPJWT, err := h.jwtIssuer.Issue(jwtutil.IssueOpts{})
	if err != nil {
		t.Fatalf("issue fp_rp_jwt: %v", err)
	}
	intRPJWT, err := h.jwtIssuer.Issue(jwtutil.IssueOpts{SID: "session-1"})
	if err != nil {
		t.Fatalf("issue int_rp_jwt: %v", err)
	}

	reqObj := l8obj.L8RequestObject{
		Method:  http.MethodPost,
		URI:     "/widgets",
		Headers: l8obj.HeaderMap{},
		Body:    []byte("hello"),
	}
	plaintext, _ := json.Marshal(reqObj)
	envelope, err := ntor.Encrypt(sharedSecret, plaintext)
	if err != nil {
		t.Fatalf("encrypt request: %v", err)
	}
	envelopeBody, _ := json.Marshal(envelope)

	req := httptest.NewRequest(http.MethodPost, "/proxy", bytes.NewReader(envelopeBody))
	req.Header.Set(headerFPRPJWT, fpRPJWT)
	req.Header.Set(headerIntRPJWT, intRPJWT)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}

	var outEnvelope ntor.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &outEnvelope); err != nil {
		t.Fatalf("decode response envelope: %v", err)
	}
	respPlaintext, err := ntor.Decrypt(sharedSecret, outEnvelope)
	if err != nil {
		t.Fatalf("decrypt response: %v", err)
	}
	var respObj l8obj.L8ResponseObject
	if err := json.Unmarshal(respPlaintext, &respObj); err != nil {
		t.Fatalf("decode response object: %v", err)
	}
	if respObj.Status != http.StatusOK || string(respObj.Body) != "world" || !respObj.OK {
		t.Errorf("unexpected response object: %+v", respObj)
	}
}
