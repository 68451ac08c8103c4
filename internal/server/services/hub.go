// Package services contains server-side business logic: account handling,
// snippet CRUD with ordered snapshots, the per-user change fan-out, and
// collection archiving to object storage.
package services

import (
	"sync"

	"github.com/okutsen/snipkeep/internal/server/models"
)

// Hub fans ordered collection snapshots out to the subscribers of each
// user. Every subscriber channel holds at most one snapshot; when a
// subscriber lags, older snapshots are replaced so the latest one always
// wins.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[chan []*models.Snippet]struct{}
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan []*models.Snippet]struct{})}
}

// Subscribe registers a new subscriber for userID. The returned cancel
// removes the subscription and closes the channel; it is safe to call
// more than once.
func (h *Hub) Subscribe(userID string) (<-chan []*models.Snippet, func()) {
	ch := make(chan []*models.Snippet, 1)

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan []*models.Snippet]struct{})
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[userID], ch)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			close(ch)
			h.mu.Unlock()
		})
	}

	return ch, cancel
}

// Publish delivers snapshot to every subscriber of userID without
// blocking. A pending undelivered snapshot is replaced by the new one.
func (h *Hub) Publish(userID string, snapshot []*models.Snippet) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs[userID] {
		select {
		case ch <- snapshot:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snapshot:
			default:
			}
		}
	}
}

// Subscribers reports the number of active subscriptions for userID.
func (h *Hub) Subscribers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}
