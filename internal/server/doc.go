// Package server provides HTTP routing, middleware, and JSON response helpers for the Second Brain API.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering. Several methods may
// share a path; a method without a handler gets a JSON 405.
//
// # Middleware
//
//   - [CORS] answers OPTIONS with an empty 200
//   - [RequestID] tags requests and responses with X-Request-ID
//   - [Logging] logs completed requests with charmbracelet/log and records Prometheus metrics
//   - [Recover] converts panics into a JSON 500
//   - [RateLimit] limits public form endpoints per client IP using httprate
//
// # Responses
//
// Every response is JSON. Errors use the {"error": "..."} envelope written by [WriteError], and [StatusFor]
// maps the sentinel errors in the shared package onto status codes.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
