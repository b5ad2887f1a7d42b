// Package service provides application-level services for users, creations,
// and the asynchronous generation pipeline.
package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// Callers check for these with errors.Is(); the API layer maps them to HTTP
// status codes.
var (
	// ErrNotOwned indicates a resource is owned by a different user than the
	// one making the request. API layer should map this to HTTP 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrInvalidCredentials indicates a login attempt with an unknown email
	// or a wrong password. Deliberately does not distinguish the two.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrQuotaExceeded indicates the user has reached their daily generation
	// limit. API layer should map this to HTTP 429 Too Many Requests.
	ErrQuotaExceeded = errors.New("daily generation quota exceeded")
)
