// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package ntor is the in-repo stand-in for the nTor handshake library spec
// §1 names as an external, assumed-to-exist dependency
// (InitSessionMessage, NTorServer.Accept, Encrypt, Decrypt). It is built
// from golang.org/x/crypto primitives (curve25519, hkdf, chacha20poly1305)
// rather than a paper re-derivation, since the handshake math itself is an
// explicit non-goal.
package ntor

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"hash"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
)

func newSHA256() hash.Hash {
	return sha256.New()
}

const (
	// KeyLen is the size in bytes of an X25519 public or private key, and
	// the required length of a client-supplied public_key / the server's
	// configured static secret.
	KeyLen = 32
	// NonceLen is the size in bytes of the AEAD nonce carried in every
	// encrypted envelope.
	NonceLen = chacha20poly1305.NonceSize
)

const (
	hkdfInfoSharedSecret = "layer8-ntor-shared-secret"
	hkdfInfoAuth         = "layer8-ntor-auth"
)

// InitSessionMessage is the client's ephemeral public key, submitted as the
// body of /init-tunnel.
type InitSessionMessage struct {
	PublicKey [KeyLen]byte
}

// NewInitSessionMessage validates and wraps a raw client public key.
func NewInitSessionMessage(raw []byte) (InitSessionMessage, error) {
	var msg InitSessionMessage
	if len(raw) != KeyLen {
		return msg, fmt.Errorf("ntor: public_key must be %d bytes, got %d", KeyLen, len(raw))
	}
	copy(msg.PublicKey[:], raw)
	return msg, nil
}

// HandshakeResponse is returned to the caller of Accept: the server's
// ephemeral public key and a transcript confirmation hash the client can
// use to verify it is talking to the expected server.
type HandshakeResponse struct {
	EphemeralPublicKey [KeyLen]byte
	TBHash             [32]byte
}

// Server terminates the nTor handshake with a fixed identity and 32-byte
// static secret, the way the reverse proxy does for every /init-tunnel.
type Server struct {
	ServerID     string
	StaticSecret [KeyLen]byte

	// randReader is overridable in tests for deterministic ephemeral keys.
	randReader io.Reader
}

// NewServer constructs a Server bound to the given id and static secret.
func NewServer(serverID string, staticSecret []byte) (*Server, error) {
	if len(staticSecret) != KeyLen {
		return nil, fmt.Errorf("ntor: static secret must be %d bytes, got %d", KeyLen, len(staticSecret))
	}
	s := &Server{ServerID: serverID, randReader: rand.Reader}
	copy(s.StaticSecret[:], staticSecret)
	return s, nil
}

// Accept performs the server side of the handshake against a client's
// InitSessionMessage, returning the response to hand back to the client and
// the derived shared secret to cache against the minted session id.
func (s *Server) Accept(msg InitSessionMessage) (HandshakeResponse, [32]byte, error) {
	var resp HandshakeResponse
	var sharedSecret [32]byte

	ephemeralPriv := make([]byte, KeyLen)
	if _, err := io.ReadFull(s.reader(), ephemeralPriv); err != nil {
		return resp, sharedSecret, fmt.Errorf("ntor: generate ephemeral key: %w", err)
	}

	ephemeralPub, err := curve25519.X25519(ephemeralPriv, curve25519.Basepoint)
	if err != nil {
		return resp, sharedSecret, fmt.Errorf("ntor: derive ephemeral public key: %w", err)
	}

	staticPub, err := curve25519.X25519(s.StaticSecret[:], curve25519.Basepoint)
	if err != nil {
		return resp, sharedSecret, fmt.Errorf("ntor: derive static public key: %w", err)
	}

	dhEphemeral, err := curve25519.X25519(ephemeralPriv, msg.PublicKey[:])
	if err != nil {
		return resp, sharedSecret, fmt.Errorf("ntor: ephemeral ECDH: %w", err)
	}

	dhStatic, err := curve25519.X25519(s.StaticSecret[:], msg.PublicKey[:])
	if err != nil {
		return resp, sharedSecret, fmt.Errorf("ntor: static ECDH: %w", err)
	}

	transcript := transcript(dhEphemeral, dhStatic, s.ServerID, staticPub, msg.PublicKey[:], ephemeralPub)

	secret, tbHash, err := deriveKeys(transcript)
	if err != nil {
		return resp, sharedSecret, err
	}

	copy(resp.EphemeralPublicKey[:], ephemeralPub)
	resp.TBHash = tbHash
	return resp, secret, nil
}

func (s *Server) reader() io.Reader {
	if s.randReader != nil {
		return s.randReader
	}
	return rand.Reader
}

// transcript assembles the nTor-style secret_input: both ECDH outputs
// followed by the server identity, static key, client key, and ephemeral
// key, binding the derived keys to this exact handshake.
func transcript(dhEphemeral, dhStatic []byte, serverID string, staticPub, clientPub, ephemeralPub []byte) []byte {
	out := make([]byte, 0, len(dhEphemeral)+len(dhStatic)+len(serverID)+len(staticPub)+len(clientPub)+len(ephemeralPub))
	out = append(out, dhEphemeral...)
	out = append(out, dhStatic...)
	out = append(out, []byte(serverID)...)
	out = append(out, staticPub...)
	out = append(out, clientPub...)
	out = append(out, ephemeralPub...)
	return out
}

// deriveKeys expands the handshake transcript into the AEAD shared secret
// and the transcript confirmation hash via HKDF-SHA256, each under its own
// info label so the two outputs are independent.
func deriveKeys(transcript []byte) (sharedSecret [32]byte, tbHash [32]byte, err error) {
	extract := hkdf.Extract(newSHA256, transcript, nil)

	secretReader := hkdf.Expand(newSHA256, extract, []byte(hkdfInfoSharedSecret))
	if _, err = io.ReadFull(secretReader, sharedSecret[:]); err != nil {
		return sharedSecret, tbHash, fmt.Errorf("ntor: expand shared secret: %w", err)
	}

	authReader := hkdf.Expand(newSHA256, extract, []byte(hkdfInfoAuth))
	if _, err = io.ReadFull(authReader, tbHash[:]); err != nil {
		return sharedSecret, tbHash, fmt.Errorf("ntor: expand auth hash: %w", err)
	}

	return sharedSecret, tbHash, nil
}
