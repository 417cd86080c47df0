package auth

import "errors"

var (
	// ErrNoToken is returned when a request requiring authentication carries
	// no bearer token
	ErrNoToken = errors.New("authentication required")

	// ErrInvalidToken is returned for malformed, expired or wrongly signed
	// tokens
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrPermissionDenied is returned when the principal's grant level is
	// below what the operation requires
	ErrPermissionDenied = errors.New("permission denied")
)
