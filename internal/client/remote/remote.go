// Package remote adapts the optional authoritative per-user snippet store.
// The engine talks to it through the Store interface; the concrete
// implementation speaks HTTP JSON to the snipkeep server, with change
// notifications over a server-sent-event stream.
package remote

import (
	"context"

	"github.com/okutsen/snipkeep/internal/client/models"
)

// Update is a partial snippet record for write-through edits. Nil fields are
// left untouched on the server (last-write-wins per field).
type Update struct {
	Title   *string `json:"title,omitempty"`
	Message *string `json:"message,omitempty"`
}

// OrderUpdate assigns a snippet its new dense zero-based position.
type OrderUpdate struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
}

// Store is the remote store contract. All operations are scoped to the
// authenticated user carried by the adapter's credentials and may suspend
// the caller; they attempt exactly one round trip each.
type Store interface {
	// Create stores a new snippet document and returns the id the remote
	// store assigned to it.
	Create(ctx context.Context, snippet models.Snippet) (string, error)

	// Update applies a partial record to the document with the given id.
	Update(ctx context.Context, id string, upd Update) error

	// Delete removes the document with the given id.
	Delete(ctx context.Context, id string) error

	// BatchUpdateOrder commits all position changes as one atomic batch.
	BatchUpdateOrder(ctx context.Context, updates []OrderUpdate) error

	// SubscribeOrdered opens a change subscription. onSnapshot receives the
	// complete collection, ordered by position, once on subscribe and then
	// after every change, in the order the store emits them. onError receives
	// stream failures. The returned cancel tears the subscription down
	// synchronously: after cancel returns, neither callback fires again.
	SubscribeOrdered(ctx context.Context, onSnapshot func([]models.Snippet), onError func(error)) (cancel func(), err error)
}
