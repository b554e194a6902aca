// Package middleware provides the HTTP middleware chain: request IDs,
// structured request logging, rate limiting, Prometheus metrics, and
// security headers.
package middleware
