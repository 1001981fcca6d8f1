// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package l8obj defines the wrapped HTTP objects that travel as plaintext
// inside the nTor AEAD: L8RequestObject and L8ResponseObject, and the
// dynamic header-value representation the interceptor sends them with.
package l8obj

import "encoding/json"

// HeaderValue is the sum type `String(s) | OtherJson(v)` spec §9
// prescribes for header-map values that arrive as arbitrary JSON from the
// interceptor: a plain string passes through untouched, anything else is
// re-encoded canonically when rebuilt as an outbound HTTP header.
type HeaderValue struct {
	str   string
	isStr bool
	other json.RawMessage
}

// NewStringHeaderValue wraps a plain string header value.
func NewStringHeaderValue(s string) HeaderValue {
	return HeaderValue{str: s, isStr: true}
}

// NewOtherHeaderValue wraps an arbitrary JSON header value.
func NewOtherHeaderValue(raw json.RawMessage) HeaderValue {
	return HeaderValue{other: raw}
}

// String returns the plain string value and whether this HeaderValue holds
// one.
func (h HeaderValue) String() (string, bool) {
	return h.str, h.isStr
}

// Other returns the raw JSON for a non-string value.
func (h HeaderValue) Other() json.RawMessage {
	return h.other
}

// MarshalJSON emits the string directly, or the raw JSON value otherwise.
func (h HeaderValue) MarshalJSON() ([]byte, error) {
	if h.isStr {
		return json.Marshal(h.str)
	}
	if len(h.other) == 0 {
		return []byte("null"), nil
	}
	return h.other, nil
}

// UnmarshalJSON stores a JSON string as the String variant, anything else
// as the OtherJson variant.
func (h *HeaderValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		h.str = s
		h.isStr = true
		h.other = nil
		return nil
	}
	h.isStr = false
	h.str = ""
	raw := make(json.RawMessage, len(data))
	copy(raw, data)
	h.other = raw
	return nil
}

// HeaderMap is the wire shape of headers carried inside a wrapped HTTP
// object: string keys to dynamically-typed JSON values.
type HeaderMap map[string]HeaderValue

// L8RequestObject is the plaintext decrypted from a /proxy envelope on the
// reverse proxy, representing the HTTP call to reconstruct against the
// backend.
type L8RequestObject struct {
	Method  string    `json:"method"`
	URI     string    `json:"uri"`
	Headers HeaderMap `json:"headers"`
	Body    []byte    `json:"body"`
}

// L8ResponseObject is the plaintext encrypted back to the interceptor,
// representing the backend's response.
type L8ResponseObject struct {
	Status     int       `json:"status"`
	StatusText string    `json:"status_text"`
	Headers    HeaderMap `json:"headers"`
	Body       []byte    `json:"body"`
	OK         bool      `json:"ok"`
	URL        string    `json:"url"`
	Redirected bool      `json:"redirected"`
}
