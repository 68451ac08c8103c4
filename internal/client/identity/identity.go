// Package identity models the optional external authentication source.
// The interactive sign-in surface (browser popup, device flow, form) is not
// part of this module; only its outcome, an authenticated identity or
// "signed out", is consumed and broadcast to registered listeners.
package identity

import "context"

// Identity is a signed-in user as seen by the client: the remote store
// scopes every document collection to UserID, and Token authenticates
// remote calls.
type Identity struct {
	UserID string
	Email  string
	Token  string
}

// Provider yields the current identity and pushes state changes.
type Provider interface {
	// OnAuthStateChanged registers fn and invokes it immediately with the
	// current state (nil when signed out). Returns a deregistration func.
	OnAuthStateChanged(fn func(*Identity)) (cancel func())

	// SignIn runs the provider's authentication exchange. It may fail or be
	// cancelled by the user; no state change is broadcast in that case.
	SignIn(ctx context.Context) (*Identity, error)

	// SignOut drops the current identity and broadcasts the signed-out state.
	SignOut(ctx context.Context) error
}
