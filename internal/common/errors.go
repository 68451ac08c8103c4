// Package common defines shared constants and sentinel errors used across
// client and server layers of snipkeep. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Validation of user-supplied snippet fields.
	ErrValidation = errors.New("validation error")

	// Import payload is unparseable or has the wrong shape.
	ErrBadFormat = errors.New("bad format")

	// Import found nothing new to add; distinct from ErrBadFormat so callers
	// can say "nothing new" instead of "bad file".
	ErrNothingToImport = errors.New("nothing to import")

	// Export called with zero snippets.
	ErrEmptyCollection = errors.New("empty collection")

	// A remote operation failed after the local/in-memory change was already
	// applied. Reported for observability, never rolled back.
	ErrSyncFailure = errors.New("recoverable sync failure")

	// Auth errors.
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Server-level errors.
	ErrInternal      = errors.New("internal error")
	ErrAlreadyExists = errors.New("already exists")
	ErrUnavailable   = errors.New("server unavailable")
)
