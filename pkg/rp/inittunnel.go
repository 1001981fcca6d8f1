// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package rp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/go-core-stack/l8-proxy-chain/pkg/jwtutil"
	"github.com/go-core-stack/l8-proxy-chain/pkg/ntor"
	"github.com/go-core-stack/l8-proxy-chain/pkg/reqctx"
)

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

type initTunnelResponse struct {
	PublicKey byteArray `json:"public_key"`
	TBHash    byteArray `json:"t_b_hash"`
	JWT1      string    `json:"jwt1"`
	JWT2      string    `json:"jwt2"`
}

// handleInitTunnel terminates the nTor handshake, caches the derived
// shared secret under a fresh session id, and issues the two JWTs the
// forward proxy and interceptor use on every subsequent /proxy call
// (spec §4.3).
func (h *Handler) handleInitTunnel(r *http.Request, ctx *reqctx.Context) (int, []byte) {
	var req initTunnelRequest
	if err := json.Unmarshal(ctx.RequestBody, &req); err != nil {
		return http.StatusBadRequest, errorBody(fmt.Sprintf("invalid request body: %v", err))
	}

	if len(req.PublicKey) != ntor.KeyLen {
		return http.StatusBadRequest, errorBody(fmt.Sprintf("public_key must be %d bytes, got %d", ntor.KeyLen, len(req.PublicKey)))
	}

	msg, err := ntor.NewInitSessionMessage(req.PublicKey)
	if err != nil {
		return http.StatusBadRequest, errorBody(err.Error())
	}

	resp, sharedSecret, err := h.ntorServer.Accept(msg)
	if err != nil {
		return http.StatusBadRequest, errorBody(err.Error())
	}

	sessionID := uuid.NewString()
	ttl := time.Duration(h.cfg.JWTExpInHours) * time.Hour
	h.sessions.Insert(sessionID, sharedSecret, ttl)

	intRPJWT, err := h.jwtIssuer.Issue(jwtutil.IssueOpts{SID: sessionID})
	if err != nil {
		return http.StatusInternalServerError, errorBody(err.Error())
	}
	fpRPJWT, err := h.jwtIssuer.Issue(jwtutil.IssueOpts{})
	if err != nil {
		return http.StatusInternalServerError, errorBody(err.Error())
	}

	out := initTunnelResponse{
		PublicKey: byteArray(resp.EphemeralPublicKey[:]),
		TBHash:    byteArray(resp.TBHash[:]),
		JWT1:      intRPJWT,
		JWT2:      fpRPJWT,
	}
	body, err := json.Marshal(out)
	if err != nil {
		return http.StatusInternalServerError, errorBody(err.Error())
	}
	return http.StatusOK, body
}

func errorBody(msg string) []byte {
	encoded, err := json.Marshal(map[string]string{"error": msg})
	if err != nil {
		return []byte(`{"error":"internal error"}`)
	}
	return encoded
}
