// Package server provides the HTTP server for groupd: Gin behind an h2c
// handler so streaming clients can use HTTP/2 without TLS.
//
// # Middleware
//
// Built-in middleware (server/middleware):
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: X-Request-ID generation and propagation into log context
//   - Telemetry: OpenTelemetry server spans and request metrics
//   - CORS: cross-origin resource sharing
//   - BodySizeLimit: request body size limits
//   - RequestLogger: request logging with duration tracking
//   - JWTAuth: HS256 bearer token authentication
//   - ConcurrencyLimit: bulkhead admission control with Retry-After
//
// # Endpoints
//
// Built-in endpoints (server/endpoint):
//
//   - /health: health check aggregation
//   - /info: build information
package server
