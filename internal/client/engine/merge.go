package engine

import (
	"context"
	"slices"

	"github.com/okutsen/snipkeep/internal/client/models"
	"github.com/okutsen/snipkeep/internal/common"
)

// ImportResult reports what an import actually added.
type ImportResult struct {
	Added int
	IDs   []string
}

// Import merges an externally supplied batch into the collection. The
// payload may be a bare snippet array or a {"snippets": [...]} wrapper;
// any other shape fails with ErrBadFormat. Records missing id, title or
// message are silently dropped, and records whose id already exists are
// skipped. When nothing novel remains the import fails with
// ErrNothingToImport so callers can say "nothing new" rather than "bad
// file". Signed in, one remote create is issued per added record,
// sequentially, continuing past individual failures.
func (e *Engine) Import(ctx context.Context, payload []byte) (*ImportResult, error) {
	batch, err := models.DecodeBatch(payload)
	if err != nil {
		return nil, err
	}

	valid := batch[:0:0]
	for _, rec := range batch {
		if rec.ID == "" || rec.Title == "" || rec.Message == "" {
			continue
		}
		valid = append(valid, rec)
	}

	e.mu.Lock()
	existing := make(map[string]struct{}, len(e.snippets))
	for _, snip := range e.snippets {
		existing[snip.ID] = struct{}{}
	}

	novel := make([]models.Snippet, 0, len(valid))
	for _, rec := range valid {
		if _, ok := existing[rec.ID]; ok {
			continue
		}
		existing[rec.ID] = struct{}{}
		novel = append(novel, rec)
	}

	if len(novel) == 0 {
		e.mu.Unlock()
		return nil, common.ErrNothingToImport
	}

	now := e.now()
	next := slices.Clone(e.snippets)
	for _, rec := range novel {
		rec.Order = len(next)
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = now
		}
		if rec.UpdatedAt.IsZero() {
			rec.UpdatedAt = now
		}
		next = append(next, rec)
	}
	e.snippets = next
	mode := e.mode
	backup := slices.Clone(next)
	e.mu.Unlock()

	e.writeBackup(ctx, backup)

	added := backup[len(backup)-len(novel):]
	result := &ImportResult{Added: len(added)}
	for _, snip := range added {
		result.IDs = append(result.IDs, snip.ID)
	}

	if mode == ModeRemote && e.remote != nil {
		for _, snip := range added {
			if _, err := e.remote.Create(ctx, snip); err != nil {
				e.reportSyncFailure(ctx, "import", err)
			}
		}
	}

	return result, nil
}

// Export serializes the collection in its current order as an indented
// bare array, the form Import accepts back. An empty collection fails with
// ErrEmptyCollection.
func (e *Engine) Export() ([]byte, error) {
	e.mu.Lock()
	snippets := slices.Clone(e.snippets)
	e.mu.Unlock()

	if len(snippets) == 0 {
		return nil, common.ErrEmptyCollection
	}
	return models.EncodeCollection(snippets)
}
