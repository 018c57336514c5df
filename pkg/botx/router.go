package botx

import (
	"context"
	"sort"
)

// Router dispatches requests to handlers by their commands.
type Router struct {
	notFound    Handler
	handlers    map[string]Handler
	middlewares []Middleware
}

// NewRouter returns a multiplexer for handlers.
func NewRouter() *Router {
	return &Router{
		handlers: make(map[string]Handler),
		notFound: NotFound,
	}
}

// Add adds a handler of the command, e.g. "/search".
func (r *Router) Add(command string, h Handler) {
	r.handlers[command] = h
}

// Use applies middleware to all handlers.
func (r *Router) Use(mws ...Middleware) *Router {
	r.middlewares = append(r.middlewares, mws...)
	return r
}

// With returns a new router with middleware applied.
func (r *Router) With(mws ...Middleware) *Router {
	return r.Clone().Use(mws...)
}

// Clone returns a copy of the router.
func (r *Router) Clone() *Router {
	rtr := NewRouter()
	rtr.notFound = r.notFound

	for command, h := range r.handlers {
		rtr.Add(command, h)
	}

	rtr.middlewares = make([]Middleware, len(r.middlewares))
	copy(rtr.middlewares, r.middlewares)

	return rtr
}

// Group groups handlers, middlewares of the group apply only to its handlers.
func (r *Router) Group(f func(rtr *Router)) {
	nested := NewRouter()
	f(nested)

	for command, h := range nested.handlers {
		r.Add(command, h.With(nested.middlewares...))
	}
}

// NotFound sets a not found handler to the router.
func (r *Router) NotFound(h Handler) {
	r.notFound = h
}

// Commands returns registered commands in alphabetical order.
func (r *Router) Commands() []string {
	res := make([]string, 0, len(r.handlers))
	for command := range r.handlers {
		res = append(res, command)
	}
	sort.Strings(res)
	return res
}

// Handle handles request.
func (r *Router) Handle(ctx context.Context, req Request) ([]Response, error) {
	if req.Text == "" {
		return nil, nil
	}

	h, ok := r.handlers[req.Command()]
	if !ok {
		h = r.notFound
	}

	return h.With(r.middlewares...)(ctx, req)
}
