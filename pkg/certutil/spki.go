// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package certutil extracts the raw Subject Public Key bytes from a PEM
// x509 certificate, the way the forward proxy turns the auth server's
// certificate response into the nTor static public key it hands the
// interceptor.
package certutil

import (
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

// SPKIKeyLen is the length callers of ExtractSPKIPublicKey can rely on:
// the nTor static public key is always exactly 32 bytes.
const SPKIKeyLen = 32

// ExtractSPKIPublicKey parses a PEM-encoded x509 certificate and returns 32
// bytes derived from its Subject Public Key Info. An ed25519 key (already
// 32 bytes) passes through unchanged; any other key algorithm's raw SPKI
// bytes are folded down to 32 bytes with SHA-256, since the certificate's
// native key algorithm (commonly RSA or ECDSA) need not match the 32-byte
// key nTor requires.
func ExtractSPKIPublicKey(pemCert string) ([]byte, error) {
	block, _ := pem.Decode([]byte(pemCert))
	if block == nil {
		return nil, fmt.Errorf("certutil: no PEM block found in certificate")
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("certutil: parse certificate: %w", err)
	}

	if pub, ok := cert.PublicKey.(ed25519.PublicKey); ok && len(pub) == SPKIKeyLen {
		return []byte(pub), nil
	}

	if len(cert.RawSubjectPublicKeyInfo) == 0 {
		return nil, fmt.Errorf("certutil: certificate has no Subject Public Key Info")
	}

	sum := sha256.Sum256(cert.RawSubjectPublicKeyInfo)
	return sum[:], nil
}
