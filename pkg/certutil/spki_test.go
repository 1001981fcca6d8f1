// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package certutil

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"
)

func selfSignedEd25519PEM(t *testing.T) (string, ed25519.PublicKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "backend.example"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, pub, priv)
	if err != nil {
		t.Fatalf("CreateCertificate: %v", err)
	}

	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	return string(pemBytes), pub
}

func TestExtractSPKIPublicKeyEd25519(t *testing.T) {
	pemCert, pub := selfSignedEd25519PEM(t)

	got, err := ExtractSPKIPublicKey(pemCert)
	if err != nil {
		t.Fatalf("ExtractSPKIPublicKey: %v", err)
	}
	if len(got) != SPKIKeyLen {
		t.Fatalf("expected %d bytes, got %d", SPKIKeyLen, len(got))
	}
	if string(got) != string([]byte(pub)) {
		t.Errorf("expected ed25519 key to pass through unchanged")
	}
}

func TestExtractSPKIPublicKeyRejectsGarbage(t *testing.T) {
	if _, err := ExtractSPKIPublicKey("not a pem"); err == nil {
		t.Errorf("expected error for non-PEM input")
	}
}
