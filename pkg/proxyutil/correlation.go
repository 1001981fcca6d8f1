// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package proxyutil

import (
	"net/http"

	"github.com/google/uuid"
)

// CorrelationID resolves the per-request id: X-Correlation-ID first, then
// X-Request-ID, else a fresh v4 uuid (spec §4.1 phase 1).
func CorrelationID(r *http.Request) string {
	if v := r.Header.Get("X-Correlation-ID"); v != "" {
		return v
	}
	if v := r.Header.Get("X-Request-ID"); v != "" {
		return v
	}
	return uuid.NewString()
}
