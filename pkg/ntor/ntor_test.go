// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package ntor

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"io"
	"testing"

	"golang.org/x/crypto/curve25519"
)

func clientKeyPair(t *testing.T) (priv, pub []byte) {
	t.Helper()
	priv = make([]byte, KeyLen)
	if _, err := io.ReadFull(rand.Reader, priv); err != nil {
		t.Fatalf("generate client key: %v", err)
	}
	pub, err := curve25519.X25519(priv, curve25519.Basepoint)
	if err != nil {
		t.Fatalf("derive client public key: %v", err)
	}
	return priv, pub
}

func staticSecret(t *testing.T) []byte {
	t.Helper()
	secret := make([]byte, KeyLen)
	if _, err := io.ReadFull(rand.Reader, secret); err != nil {
		t.Fatalf("generate static secret: %v", err)
	}
	return secret
}

func TestAcceptRejectsWrongKeyLength(t *testing.T) {
	if _, err := NewInitSessionMessage(make([]byte, 31)); err == nil {
		t.Errorf("expected error for 31-byte public key")
	}
	if _, err := NewInitSessionMessage(make([]byte, 33)); err == nil {
		t.Errorf("expected error for 33-byte public key")
	}
}

func TestHandshakeProducesUsableSharedSecret(t *testing.T) {
	_, clientPub := clientKeyPair(t)
	secret := staticSecret(t)

	server, err := NewServer("backend-1", secret)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}

	msg, err := NewInitSessionMessage(clientPub)
	if err != nil {
		t.Fatalf("NewInitSessionMessage: %v", err)
	}

	resp, sharedSecret, err := server.Accept(msg)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}

	var zero [32]byte
	if sharedSecret == zero {
		t.Errorf("expected a non-zero shared secret")
	}
	if resp.TBHash == [32]byte{} {
		t.Errorf("expected a non-zero t_b_hash")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	var secret [32]byte
	if _, err := io.ReadFull(rand.Reader, secret[:]); err != nil {
		t.Fatalf("generate secret: %v", err)
	}

	plaintext := []byte(`{"method":"GET","uri":"/v1/widgets"}`)

	env, err := Encrypt(secret, plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if len(env.Nonce) != NonceLen {
		t.Errorf("nonce length = %d, want %d", len(env.Nonce), NonceLen)
	}

	got, err := Decrypt(secret, env)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("round trip mismatch: got %q, want %q", got, plaintext)
	}
}

func TestDecryptFailsOnWrongSecret(t *testing.T) {
	var secretA, secretB [32]byte
	io.ReadFull(rand.Reader, secretA[:])
	io.ReadFull(rand.Reader, secretB[:])

	env, err := Encrypt(secretA, []byte("hello"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	if _, err := Decrypt(secretB, env); err == nil {
		t.Errorf("expected decryption with wrong secret to fail")
	}
}

func TestEnvelopeJSONRoundTrip(t *testing.T) {
	env := Envelope{Nonce: []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, Data: []byte{0xde, 0xad, 0xbe, 0xef}}

	raw, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got Envelope
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if !bytes.Equal(got.Nonce, env.Nonce) || !bytes.Equal(got.Data, env.Data) {
		t.Errorf("envelope JSON round trip mismatch: got %+v, want %+v", got, env)
	}
}

func TestTwoEncryptionsNeverReuseNonce(t *testing.T) {
	var secret [32]byte
	io.ReadFull(rand.Reader, secret[:])

	a, err := Encrypt(secret, []byte("one"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	b, err := Encrypt(secret, []byte("two"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	if bytes.Equal(a.Nonce, b.Nonce) {
		t.Errorf("expected distinct nonces across encryptions")
	}
}
