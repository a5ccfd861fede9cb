package server

import (
	"net/http"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// The stack here covers panics, request ids, logging, CORS and per-IP rate limits.
type Middleware func(http.Handler) http.Handler

// Handler owns several routes, like the page handler serving every site path.
type Handler interface {
	http.Handler
	Routes() []string // path patterns this handler serves
}

// Router is the surface the function handlers mount onto.
type Router interface {
	Use(middleware ...Middleware)
	Handle(method, path string, handler http.Handler)
	HandleFunc(method, path string, handler http.HandlerFunc)
	Handler(handler Handler)
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}

var _ Router = (*BasicRouter)(nil)
