package server

import (
	"httplab/internal/wire"
)

// HandlerFunc handles a request whose path the guard already accepted.
type HandlerFunc func(req *wire.Request, target Resolved) *wire.Response

// Router dispatches on the first path segment, like a tiny ServeMux. A
// request whose path fails the guard never reaches a handler.
type Router struct {
	guard    *Guard
	routes   map[string]HandlerFunc
	fallback HandlerFunc
}

func NewRouter(guard *Guard, fallback HandlerFunc) *Router {
	return &Router{
		guard:    guard,
		routes:   make(map[string]HandlerFunc),
		fallback: fallback,
	}
}

// Handle mounts h at the first segment route, e.g. "resources" for
// /resources/...
func (m *Router) Handle(route string, h HandlerFunc) {
	m.routes[route] = h
}

func (m *Router) Serve(req *wire.Request) *wire.Response {
	target, err := m.guard.Resolve(req.Path)
	if err != nil {
		return wire.Status(wire.StatusForbidden)
	}
	if len(target.Segments) > 0 {
		if h, ok := m.routes[target.Segments[0]]; ok {
			return h(req, target)
		}
	}
	return m.fallback(req, target)
}

// Mount adapts a ResourceAPI to the router, stripping the mount segment.
func (a *ResourceAPI) Mount() HandlerFunc {
	return func(req *wire.Request, target Resolved) *wire.Response {
		return a.Serve(req, target.Segments[1:])
	}
}
