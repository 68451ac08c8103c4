// Package engine owns the canonical in-memory snippet collection and keeps
// it consistent across the local cache and the optional remote store.
//
// Exactly one storage mode is active at a time. In local mode every
// mutation is applied in memory and persisted to the local store. In remote
// mode mutations are written through to the remote store and the in-memory
// collection tracks the snapshots its change subscription pushes; the local
// store is still updated after every mutation as a backup.
//
// Remote calls are best effort: a failed remote write never aborts or rolls
// back the user-visible change, it is only surfaced through the sync
// failure handler. Overlapping remote writes are deliberately not
// serialized against each other; whichever acknowledgment or snapshot
// lands last wins.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/okutsen/snipkeep/internal/client/identity"
	"github.com/okutsen/snipkeep/internal/client/localstore"
	"github.com/okutsen/snipkeep/internal/client/models"
	"github.com/okutsen/snipkeep/internal/client/remote"
	"github.com/okutsen/snipkeep/internal/client/seed"
	"github.com/okutsen/snipkeep/internal/common"
	"github.com/okutsen/snipkeep/internal/logging"
)

// Mode identifies the active storage strategy.
type Mode int

const (
	ModeLocal Mode = iota
	ModeRemote
)

// Option configures an Engine.
type Option func(*Engine)

// WithSyncFailureHandler installs fn to receive recoverable sync failures:
// remote operations that failed after the local change was already applied.
func WithSyncFailureHandler(fn func(error)) Option {
	return func(e *Engine) { e.onSyncFailure = fn }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides the offline id generator (tests).
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// Engine is the reconciliation engine. The view layer reads the collection
// through Snippets and routes every user intent through the methods below;
// it never mutates the collection directly.
type Engine struct {
	local  localstore.Store
	remote remote.Store // nil when no remote store is configured
	seeds  *seed.Source // nil when no sample dataset is configured
	logger logging.Logger

	onSyncFailure func(error)
	now           func() time.Time
	newID         func() string

	mu          sync.Mutex
	mode        Mode
	ident       *identity.Identity
	snippets    []models.Snippet
	unsubscribe func()
}

// New constructs an Engine in local mode with an empty collection. Call
// Initialize to populate it.
func New(local localstore.Store, remoteStore remote.Store, seeds *seed.Source, logger logging.Logger, opts ...Option) *Engine {
	e := &Engine{
		local:  local,
		remote: remoteStore,
		seeds:  seeds,
		logger: logger.With("module", "engine"),
		now:    time.Now,
		newID:  func() string { return xid.New().String() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initialize populates the collection at startup. With an identity present
// it enters remote mode and subscribes for snapshots; otherwise it loads
// the local cache, bootstrapping from the sample dataset when the cache is
// empty.
func (e *Engine) Initialize(ctx context.Context, ident *identity.Identity) error {
	if ident != nil {
		e.OnIdentityChanged(ctx, ident)
		return nil
	}

	if err := e.loadLocal(ctx); err != nil {
		return err
	}

	e.mu.Lock()
	empty := len(e.snippets) == 0
	e.mu.Unlock()

	if empty && e.seeds != nil {
		samples := e.seeds.Load(ctx)
		if len(samples) > 0 {
			e.mu.Lock()
			e.snippets = normalize(samples)
			backup := slices.Clone(e.snippets)
			e.mu.Unlock()
			e.writeBackup(ctx, backup)
			e.logger.Info(ctx, "bootstrapped sample snippets", "count", len(samples))
		}
	}
	return nil
}

// OnIdentityChanged switches the storage mode. On sign-in it tears down
// local-only state and begins a remote subscription whose snapshots replace
// the collection (last snapshot wins). On sign-out it cancels the
// subscription synchronously, so no snapshot is delivered afterwards, and
// reloads the collection from the local cache.
func (e *Engine) OnIdentityChanged(ctx context.Context, ident *identity.Identity) {
	e.mu.Lock()
	unsub := e.unsubscribe
	e.unsubscribe = nil
	e.mu.Unlock()
	if unsub != nil {
		unsub()
	}

	if ident == nil {
		e.mu.Lock()
		e.mode = ModeLocal
		e.ident = nil
		e.mu.Unlock()

		if err := e.loadLocal(ctx); err != nil {
			e.logger.Error(ctx, "reload after sign-out failed", "error", err.Error())
		}
		return
	}

	e.mu.Lock()
	e.mode = ModeRemote
	e.ident = ident
	e.mu.Unlock()

	if e.remote == nil {
		e.logger.Warn(ctx, "signed in but no remote store configured")
		return
	}

	cancel, err := e.remote.SubscribeOrdered(ctx, func(snapshot []models.Snippet) {
		e.applySnapshot(ctx, snapshot)
	}, func(err error) {
		e.reportSyncFailure(ctx, "subscription", err)
	})
	if err != nil {
		e.reportSyncFailure(ctx, "subscribe", err)
		return
	}

	e.mu.Lock()
	if e.mode != ModeRemote || e.ident != ident {
		// signed out while the subscription handshake was in flight
		e.mu.Unlock()
		cancel()
		return
	}
	e.unsubscribe = cancel
	e.mu.Unlock()

	e.logger.Info(ctx, "remote subscription established", "user", ident.UserID)
}

// Snippets returns a copy of the canonical collection in display order.
func (e *Engine) Snippets() []models.Snippet {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.snippets)
}

// CurrentMode reports the active storage mode.
func (e *Engine) CurrentMode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Theme returns the persisted theme flag, defaulting to light.
func (e *Engine) Theme(ctx context.Context) string {
	v, ok, err := e.local.Get(ctx, common.LocalStoreThemeKey)
	if err != nil {
		e.logger.Warn(ctx, "theme load failed", "error", err.Error())
	}
	if !ok || v != common.ThemeDark {
		return common.ThemeLight
	}
	return common.ThemeDark
}

// SetTheme persists the theme flag.
func (e *Engine) SetTheme(ctx context.Context, theme string) error {
	if theme != common.ThemeDark && theme != common.ThemeLight {
		return fmt.Errorf("%w: unknown theme %q", common.ErrValidation, theme)
	}
	return e.local.Set(ctx, common.LocalStoreThemeKey, theme)
}

// applySnapshot replaces the collection with a freshly built slice, never
// mutating in place, so a user mutation racing the callback sees either the
// old or the new collection and not a half-applied one.
func (e *Engine) applySnapshot(ctx context.Context, snapshot []models.Snippet) {
	fresh := normalize(slices.Clone(snapshot))

	e.mu.Lock()
	e.snippets = fresh
	backup := slices.Clone(fresh)
	e.mu.Unlock()

	e.writeBackup(ctx, backup)
}

// loadLocal replaces the collection with the local cache's contents.
func (e *Engine) loadLocal(ctx context.Context) error {
	raw, ok, err := e.local.Get(ctx, common.LocalStoreSnippetsKey)
	if err != nil {
		return fmt.Errorf("load local cache: %w", err)
	}

	var snippets []models.Snippet
	if ok {
		if err := json.Unmarshal([]byte(raw), &snippets); err != nil {
			// A corrupt cache behaves like an empty one.
			e.logger.Error(ctx, "local cache corrupt, starting empty", "error", err.Error())
			snippets = nil
		}
	}

	e.mu.Lock()
	e.snippets = normalize(snippets)
	e.mu.Unlock()
	return nil
}

// writeBackup persists the given collection to the local cache. Failures
// are logged, never propagated: the in-memory collection remains current
// truth.
func (e *Engine) writeBackup(ctx context.Context, snippets []models.Snippet) {
	data, err := json.Marshal(snippets)
	if err != nil {
		e.logger.Error(ctx, "backup serialization failed", "error", err.Error())
		return
	}
	if err := e.local.Set(ctx, common.LocalStoreSnippetsKey, string(data)); err != nil {
		e.logger.Error(ctx, "backup write failed", "error", err.Error())
	}
}

func (e *Engine) reportSyncFailure(ctx context.Context, op string, err error) {
	wrapped := fmt.Errorf("%w: %s: %v", common.ErrSyncFailure, op, err)
	e.logger.Warn(ctx, "remote sync failure", "op", op, "error", err.Error())
	if e.onSyncFailure != nil {
		e.onSyncFailure(wrapped)
	}
}

// normalize makes positions dense and zero-based in sequence order. Inputs
// that carry an order field (remote snapshots, import files) are sorted by
// it first; ties and missing fields keep their sequence order.
func normalize(snippets []models.Snippet) []models.Snippet {
	sort.SliceStable(snippets, func(i, j int) bool {
		return snippets[i].Order < snippets[j].Order
	})
	for i := range snippets {
		snippets[i].Order = i
	}
	return snippets
}
