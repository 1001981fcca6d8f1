// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package reqctx defines the per-request Context threaded through the
// phased proxy pipeline on both the forward and reverse proxy nodes. A
// Context is single-owner: it is created at request entry, mutated only by
// the goroutine handling that request, and discarded at the logging phase.
package reqctx

import (
	"net/http"
	"time"
)

// Summary captures the request line metadata extracted at the request
// filter phase.
type Summary struct {
	Method string
	Scheme string
	Host   string
	Path   string
	Params map[string]string
}

// Context is the scratch space threaded through every phase of the proxy
// pipeline. Header maps use canonical casing via http.Header so lookups
// stay case-insensitive; the scratch map is intentionally a plain
// string-to-string map, accessed only through Get/Set, mirroring the
// discipline the phase machine this is modeled on documents for its own
// context type.
type Context struct {
	Summary Summary

	RequestHeader http.Header
	RequestBody   []byte

	ResponseStatus int
	ResponseHeader http.Header
	ResponseBody   []byte

	CorrelationID string
	CreatedAt     time.Time

	scratch map[string]string
}

// New builds an empty Context stamped with the creation time.
func New() *Context {
	return &Context{
		RequestHeader:  make(http.Header),
		ResponseHeader: make(http.Header),
		scratch:        make(map[string]string),
		CreatedAt:      time.Now(),
	}
}

// Get reads a scratch value set earlier in the pipeline. The bool result
// distinguishes an absent key from one holding the empty string.
func (c *Context) Get(key string) (string, bool) {
	v, ok := c.scratch[key]
	return v, ok
}

// Set records a scratch value for later phases to read.
func (c *Context) Set(key, value string) {
	c.scratch[key] = value
}

// FromRequest populates Summary and RequestHeader from an inbound HTTP
// request. It does not read the body; that is the request body filter's
// job.
func FromRequest(r *http.Request) *Context {
	ctx := New()
	ctx.Summary = Summary{
		Method: r.Method,
		Scheme: schemeOf(r),
		Host:   r.Host,
		Path:   r.URL.Path,
		Params: ParseQuery(r.URL.RawQuery),
	}
	for k, vv := range r.Header {
		for _, v := range vv {
			ctx.RequestHeader.Add(k, v)
		}
	}
	return ctx
}

func schemeOf(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		return proto
	}
	return "http"
}
