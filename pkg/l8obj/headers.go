// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package l8obj

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"unicode/utf8"
)

// base64Prefix marks a header value that had to fall back to base64
// because the underlying bytes were not valid UTF-8.
const base64Prefix = "base64:"

// ToHTTPHeader translates a HeaderMap into a standard http.Header,
// stringifying OtherJson values via canonical JSON encoding. Callers
// building an outbound reconstructed backend request use this.
func ToHTTPHeader(headers HeaderMap) http.Header {
	out := make(http.Header, len(headers))
	for k, v := range headers {
		if s, ok := v.String(); ok {
			out.Set(k, s)
			continue
		}
		if raw := v.Other(); len(raw) > 0 {
			out.Set(k, string(raw))
		}
	}
	return out
}

// FromHTTPHeader translates an http.Header into a HeaderMap, preserving
// UTF-8 values as strings and falling back to a base64-prefixed string for
// non-UTF-8 byte sequences, so round-tripping through JSON never corrupts
// binary header values.
func FromHTTPHeader(h http.Header) HeaderMap {
	out := make(HeaderMap, len(h))
	for k, vv := range h {
		if len(vv) == 0 {
			continue
		}
		value := vv[0]
		if utf8.ValidString(value) {
			out[k] = NewStringHeaderValue(value)
			continue
		}
		encoded := base64Prefix + base64.StdEncoding.EncodeToString([]byte(value))
		out[k] = NewStringHeaderValue(encoded)
	}
	return out
}

// MarshalHeaders is a convenience for encoding a HeaderMap to canonical
// JSON, used when re-encoding OtherJson header values for outbound
// requests that expect a literal string.
func MarshalHeaders(headers HeaderMap) (json.RawMessage, error) {
	return json.Marshal(headers)
}
