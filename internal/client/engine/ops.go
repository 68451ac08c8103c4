package engine

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/okutsen/snipkeep/internal/client/models"
	"github.com/okutsen/snipkeep/internal/client/remote"
	"github.com/okutsen/snipkeep/internal/common"
)

// Create appends a new snippet at the end of the collection. Signed in, the
// remote store allocates the id and it is backfilled before the snippet is
// appended; if the remote call fails a locally generated id is used instead
// and the failure is surfaced through the sync failure handler.
func (e *Engine) Create(ctx context.Context, title, message string) (*models.Snippet, error) {
	title = strings.TrimSpace(title)
	message = strings.TrimSpace(message)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", common.ErrValidation)
	}
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", common.ErrValidation)
	}

	now := e.now()
	snip := models.Snippet{Title: title, Message: message, CreatedAt: now, UpdatedAt: now}

	e.mu.Lock()
	mode := e.mode
	snip.Order = len(e.snippets)
	e.mu.Unlock()

	if mode == ModeRemote && e.remote != nil {
		id, err := e.remote.Create(ctx, snip)
		if err != nil {
			e.reportSyncFailure(ctx, "create", err)
			snip.ID = e.newID()
		} else {
			snip.ID = id
		}
	} else {
		snip.ID = e.newID()
	}

	e.mu.Lock()
	// the subscription can deliver a snapshot carrying the new id before
	// the ack is processed here; if so the collection already holds it
	if idx := indexOf(e.snippets, snip.ID); idx >= 0 {
		existing := e.snippets[idx]
		e.mu.Unlock()
		return &existing, nil
	}
	snip.Order = len(e.snippets)
	next := append(slices.Clone(e.snippets), snip)
	e.snippets = next
	backup := slices.Clone(next)
	e.mu.Unlock()

	e.writeBackup(ctx, backup)
	return &snip, nil
}

// Update edits a snippet's title, message and updatedAt. Blank fields fail
// with ErrValidation, same as Create. An unknown id is an explicit no-op
// rather than an error; the view only offers edits on snippets it rendered.
func (e *Engine) Update(ctx context.Context, id, title, message string) error {
	title = strings.TrimSpace(title)
	message = strings.TrimSpace(message)
	if title == "" {
		return fmt.Errorf("%w: title is required", common.ErrValidation)
	}
	if message == "" {
		return fmt.Errorf("%w: message is required", common.ErrValidation)
	}
	now := e.now()

	e.mu.Lock()
	idx := indexOf(e.snippets, id)
	if idx < 0 {
		e.mu.Unlock()
		return nil
	}
	next := slices.Clone(e.snippets)
	next[idx].Title = title
	next[idx].Message = message
	next[idx].UpdatedAt = now
	e.snippets = next
	mode := e.mode
	backup := slices.Clone(next)
	e.mu.Unlock()

	if mode == ModeRemote && e.remote != nil {
		upd := remote.Update{Title: &title, Message: &message}
		if err := e.remote.Update(ctx, id, upd); err != nil {
			e.reportSyncFailure(ctx, "update", err)
		}
	}

	e.writeBackup(ctx, backup)
	return nil
}

// Delete removes a snippet. In local mode it is spliced out of the
// collection immediately; in remote mode only the remote delete is issued
// and the removal arrives with the next snapshot push. An absent id is not
// an error.
func (e *Engine) Delete(ctx context.Context, id string) error {
	e.mu.Lock()
	idx := indexOf(e.snippets, id)
	mode := e.mode
	if idx < 0 {
		e.mu.Unlock()
		return nil
	}

	if mode == ModeRemote && e.remote != nil {
		e.mu.Unlock()
		if err := e.remote.Delete(ctx, id); err != nil {
			e.reportSyncFailure(ctx, "delete", err)
		}
		return nil
	}

	next := slices.Delete(slices.Clone(e.snippets), idx, idx+1)
	for i := range next {
		next[i].Order = i
	}
	e.snippets = next
	backup := slices.Clone(next)
	e.mu.Unlock()

	e.writeBackup(ctx, backup)
	return nil
}

// Reorder moves the snippet at fromIndex to toIndex, both zero-based
// positions into the current collection. The caller supplies only indices
// it observed, so out-of-range values are treated as a stale gesture and
// ignored. In remote mode the new positions are committed as one atomic
// batch; if the batch fails the in-memory order stays authoritative and
// unreconciled until the next successful write or inbound snapshot.
func (e *Engine) Reorder(ctx context.Context, fromIndex, toIndex int) {
	e.mu.Lock()
	n := len(e.snippets)
	if fromIndex < 0 || fromIndex >= n || toIndex < 0 || toIndex >= n || fromIndex == toIndex {
		e.mu.Unlock()
		return
	}

	next := slices.Clone(e.snippets)
	moved := next[fromIndex]
	next = slices.Delete(next, fromIndex, fromIndex+1)
	next = slices.Insert(next, toIndex, moved)
	for i := range next {
		next[i].Order = i
	}
	e.snippets = next
	mode := e.mode
	backup := slices.Clone(next)
	e.mu.Unlock()

	if mode == ModeRemote && e.remote != nil {
		updates := make([]remote.OrderUpdate, len(backup))
		for i, snip := range backup {
			updates[i] = remote.OrderUpdate{ID: snip.ID, Order: snip.Order}
		}
		if err := e.remote.BatchUpdateOrder(ctx, updates); err != nil {
			e.reportSyncFailure(ctx, "reorder", err)
		}
	}

	e.writeBackup(ctx, backup)
}

func indexOf(snippets []models.Snippet, id string) int {
	for i := range snippets {
		if snippets[i].ID == id {
			return i
		}
	}
	return -1
}
