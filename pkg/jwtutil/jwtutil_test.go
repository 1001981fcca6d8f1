// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package jwtutil

import (
	"testing"
	"time"
)

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	issuer := NewIssuer([]byte("top-secret"), 1)
	issuer.Now = func() time.Time {
		return time.Unix(1_700_000_000, 0).UTC()
	}

	raw, err := issuer.Issue(IssueOpts{Upstream: "https://svc.example:8443/"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := issuer.Verify(raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if claims.Upstream != "https://svc.example:8443/" {
		t.Errorf("upstream claim mismatch: got %q", claims.Upstream)
	}
	if claims.SID != "" {
		t.Errorf("expected empty sid claim, got %q", claims.SID)
	}
	if claims.ID == "" {
		t.Errorf("expected a jti to be minted")
	}

	wantExp := issuer.Now().Add(time.Hour).Unix()
	if claims.ExpiresAt.Unix() != wantExp {
		t.Errorf("exp mismatch: got %d, want %d", claims.ExpiresAt.Unix(), wantExp)
	}
	if claims.IssuedAt.Unix() > claims.ExpiresAt.Unix() {
		t.Errorf("iat must be <= exp")
	}
}

func TestVerifyRejectsTamperedKey(t *testing.T) {
	issuer := NewIssuer([]byte("correct-key"), 1)
	raw, err := issuer.Issue(IssueOpts{SID: "session-1"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	other := NewIssuer([]byte("wrong-key"), 1)
	if _, err := other.Verify(raw); err == nil {
		t.Errorf("expected verification with mismatched key to fail")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	issuer := NewIssuer([]byte("secret"), 1)
	issuer.Now = func() time.Time {
		return time.Now().Add(-2 * time.Hour)
	}

	raw, err := issuer.Issue(IssueOpts{SID: "session-2"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := issuer.Verify(raw); err == nil {
		t.Errorf("expected expired token to fail verification")
	}
}
