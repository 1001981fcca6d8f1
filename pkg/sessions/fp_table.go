// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package sessions holds the two in-memory tables shared across request
// goroutines on each node: the forward proxy's jwts_storage
// (int_fp_jwt -> IntFPSession) and the reverse proxy's ntor_shared_secrets
// (ntor_session_id -> shared secret). Both are guarded by a mutex and
// TTL-evicted by a background sweep goroutine, since the upstream source
// defines no eviction policy (spec §9).
package sessions

import (
	"context"
	"sync"
	"time"
)

// IntFPSession is the record the forward proxy binds to a minted
// int_fp_jwt: which reverse proxy to forward to, the bearer token to
// present there, and a tagging-only client identifier.
type IntFPSession struct {
	RPBaseURL string
	FPRPJWT   string
	ClientID  string

	expiresAt time.Time
}

// FPTable is the forward proxy's jwts_storage.
type FPTable struct {
	mu      sync.Mutex
	entries map[string]IntFPSession
}

// NewFPTable constructs an empty table.
func NewFPTable() *FPTable {
	return &FPTable{entries: make(map[string]IntFPSession)}
}

// Insert atomically creates the session entry for a freshly minted
// int_fp_jwt. expiresAt should match the JWT's own exp claim so the sweep
// goroutine evicts both together.
func (t *FPTable) Insert(intFPJWT string, session IntFPSession, expiresAt time.Time) {
	session.expiresAt = expiresAt
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[intFPJWT] = session
}

// Lookup reads the session bound to int_fp_jwt, if any.
func (t *FPTable) Lookup(intFPJWT string) (IntFPSession, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	session, ok := t.entries[intFPJWT]
	return session, ok
}

// Len reports the current entry count; used by tests and health reporting.
func (t *FPTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// sweepOnce evicts all entries whose expiresAt has passed as of now.
func (t *FPTable) sweepOnce(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	evicted := 0
	for key, session := range t.entries {
		if now.After(session.expiresAt) {
			delete(t.entries, key)
			evicted++
		}
	}
	return evicted
}

// RunSweeper starts a background goroutine that evicts expired entries
// every interval until ctx is cancelled. onEvict, if non-nil, is called
// with the count evicted on each sweep (used for logging).
func (t *FPTable) RunSweeper(ctx context.Context, interval time.Duration, onEvict func(int)) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				if n := t.sweepOnce(now); n > 0 && onEvict != nil {
					onEvict(n)
				}
			}
		}
	}()
}
