// Package errors provides structured application errors with machine-readable
// codes, HTTP status mapping, and retryable detection following RFC 7807.
//
// The grouping engine itself never wraps errors; the service layer converts
// failures into AppError values at the HTTP boundary.
package errors
