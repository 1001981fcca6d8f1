// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package jwtutil mints and verifies the three bearer tokens that bind the
// interceptor<->FP, interceptor<->RP, and FP<->RP hops together: int_fp_jwt,
// int_rp_jwt, and fp_rp_jwt. All three share the same claims shape; which
// custom claim is populated (upstream vs sid) depends on which hop the
// token rides.
package jwtutil

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carries the registered claims plus the two custom claims named in
// spec §3. Zero-value optional fields are omitted on serialization via the
// "omitempty" tags, matching "numeric fields omitted when zero".
type Claims struct {
	jwt.RegisteredClaims
	Upstream string `json:"upstream,omitempty"`
	SID      string `json:"sid,omitempty"`
}

// Issuer mints and verifies tokens against a single signing key. Now is
// overridable for deterministic tests, the same pattern the HMAC request
// signer this package replaces used.
type Issuer struct {
	Key      []byte
	ExpHours int64
	Now      func() time.Time
	Issuer   string
	Audience string
}

// NewIssuer constructs an Issuer with sane defaults.
func NewIssuer(key []byte, expHours int64) *Issuer {
	return &Issuer{
		Key:      key,
		ExpHours: expHours,
		Now:      time.Now,
		Issuer:   "layer8-tunnel",
	}
}

// IssueOpts customizes the claims minted for one token.
type IssueOpts struct {
	Subject  string
	Upstream string
	SID      string
}

// Issue mints a signed JWT with a fresh uuid jti and exp = now +
// ExpHours.
func (s *Issuer) Issue(opts IssueOpts) (string, error) {
	if len(s.Key) == 0 {
		return "", fmt.Errorf("jwtutil: signing key must be set")
	}

	now := s.Now()
	exp := now.Add(time.Duration(s.ExpHours) * time.Hour)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   opts.Subject,
			Issuer:    s.Issuer,
			Audience:  audienceOrNil(s.Audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Upstream: opts.Upstream,
		SID:      opts.SID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.Key)
}

// Verify parses and validates a signed token, returning its claims.
func (s *Issuer) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.Key, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("jwtutil: token is not valid")
	}
	return claims, nil
}

func audienceOrNil(aud string) jwt.ClaimStrings {
	if aud == "" {
		return nil
	}
	return jwt.ClaimStrings{aud}
}
