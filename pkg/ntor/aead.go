// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package ntor

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// Envelope is the wire shape of an encrypted nTor message: a 12-byte nonce
// and the AEAD ciphertext. It is the sole body of /proxy in both
// directions between the interceptor and the reverse proxy.
type Envelope struct {
	Nonce []byte `json:"nonce"`
	Data  []byte `json:"data"`
}

// MarshalJSON encodes nonce/data as JSON arrays of byte values, matching
// the interceptor's byte-array-as-JSON-array wire format (spec §6) rather
// than the base64 encoding encoding/json would otherwise use for []byte.
func (e Envelope) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Nonce []int `json:"nonce"`
		Data  []int `json:"data"`
	}{
		Nonce: bytesToInts(e.Nonce),
		Data:  bytesToInts(e.Data),
	})
}

// UnmarshalJSON decodes nonce/data from JSON arrays of byte values.
func (e *Envelope) UnmarshalJSON(data []byte) error {
	var wire struct {
		Nonce []int `json:"nonce"`
		Data  []int `json:"data"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	e.Nonce = intsToBytes(wire.Nonce)
	e.Data = intsToBytes(wire.Data)
	return nil
}

func bytesToInts(b []byte) []int {
	out := make([]int, len(b))
	for i, v := range b {
		out[i] = int(v)
	}
	return out
}

func intsToBytes(ints []int) []byte {
	out := make([]byte, len(ints))
	for i, v := range ints {
		out[i] = byte(v)
	}
	return out
}

// Encrypt seals plaintext under the shared secret with a freshly generated
// 12-byte nonce, never reused for the same secret within the process's
// lifetime because crypto/rand is the source.
func Encrypt(sharedSecret [32]byte, plaintext []byte) (Envelope, error) {
	aead, err := chacha20poly1305.New(sharedSecret[:])
	if err != nil {
		return Envelope{}, fmt.Errorf("ntor: build AEAD: %w", err)
	}

	nonce := make([]byte, NonceLen)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return Envelope{}, fmt.Errorf("ntor: generate nonce: %w", err)
	}

	data := aead.Seal(nil, nonce, plaintext, nil)
	return Envelope{Nonce: nonce, Data: data}, nil
}

// Decrypt opens an Envelope under the shared secret, returning the
// original plaintext. decrypt(secret, encrypt(secret, p)) == p for all p.
func Decrypt(sharedSecret [32]byte, env Envelope) ([]byte, error) {
	if len(env.Nonce) != NonceLen {
		return nil, fmt.Errorf("ntor: nonce must be %d bytes, got %d", NonceLen, len(env.Nonce))
	}

	aead, err := chacha20poly1305.New(sharedSecret[:])
	if err != nil {
		return nil, fmt.Errorf("ntor: build AEAD: %w", err)
	}

	plaintext, err := aead.Open(nil, env.Nonce, env.Data, nil)
	if err != nil {
		return nil, fmt.Errorf("decryption failed: %w", err)
	}
	return plaintext, nil
}

