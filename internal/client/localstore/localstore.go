// Package localstore implements the device-local durable cache: a small
// key-value store holding the serialized snippet collection and the theme
// flag. Operations are synchronous and never suspend; there is no failure
// recovery beyond surfacing serialization/storage errors to the caller.
package localstore

import "context"

// Store is the local persistence contract consumed by the engine.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key string, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
