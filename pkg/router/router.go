// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package router implements the (method, path) route table shared by the
// forward and reverse proxy nodes. It is built once at startup and is
// read-only thereafter.
package router

import (
	"net/http"
	"strings"

	"github.com/go-core-stack/l8-proxy-chain/pkg/reqctx"
)

// Handler processes one route's worth of work against ctx and returns the
// status code to emit and an optional response body. A non-2xx status
// short-circuits the handler chain for that route.
type Handler func(r *http.Request, ctx *reqctx.Context) (status int, body []byte)

// Route is one (method, path) -> ordered handler chain entry.
type Route struct {
	Method   string
	Path     string
	Handlers []Handler
}

// Router is the immutable route table. OPTIONS is handled by the caller
// before Router.Dispatch ever runs, matching spec: OPTIONS on any path is
// always 204 + CORS, never routed.
type Router struct {
	routes map[string]Route
}

// New builds an empty Router.
func New() *Router {
	return &Router{routes: make(map[string]Route)}
}

// Handle registers a route. path is matched exactly against the portion of
// the request path with any query string stripped, since the router
// pattern's base_path is "the portion of the configured pattern up to ?".
func (rt *Router) Handle(method, path string, handlers ...Handler) {
	rt.routes[key(method, path)] = Route{Method: method, Path: path, Handlers: handlers}
}

// Lookup returns the route registered for (method, path), or false if
// unrouted — the caller maps that to 404.
func (rt *Router) Lookup(method, path string) (Route, bool) {
	route, ok := rt.routes[key(method, basePath(path))]
	return route, ok
}

// Dispatch walks a route's handler chain in order, threading the returned
// body into ctx.ResponseBody and stopping at the first non-200 status.
func (rt *Router) Dispatch(route Route, r *http.Request, ctx *reqctx.Context) int {
	status := http.StatusOK
	for _, h := range route.Handlers {
		var body []byte
		status, body = h(r, ctx)
		if body != nil {
			ctx.ResponseBody = body
		}
		if status != http.StatusOK {
			break
		}
	}
	return status
}

func key(method, path string) string {
	return method + " " + path
}

func basePath(path string) string {
	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		return path[:idx]
	}
	return path
}
