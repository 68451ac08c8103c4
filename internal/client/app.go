// Package client assembles the snipkeep client library: configuration,
// the sqlite-backed local cache, the remote store adapter, the identity
// provider, and the reconciliation engine on top of them. The view layer
// embedding this library talks to App and the engine it exposes.
package client

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/okutsen/snipkeep/internal/client/config"
	"github.com/okutsen/snipkeep/internal/client/engine"
	"github.com/okutsen/snipkeep/internal/client/identity"
	"github.com/okutsen/snipkeep/internal/client/localstore"
	"github.com/okutsen/snipkeep/internal/client/remote"
	"github.com/okutsen/snipkeep/internal/client/seed"
	"github.com/okutsen/snipkeep/internal/filex"
	"github.com/okutsen/snipkeep/internal/logging"
)

const dataDirName = "data"

// App owns the wired-together client components and their lifecycles.
type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	engine   *engine.Engine
	identity *identity.HTTPProvider // nil when no server is configured

	unsubscribe func()
}

// NewApp builds the client from cfg and populates the engine's collection.
// codeSource runs the external Google authorization flow; it may be nil
// when only password sign-in is used. Engine options are passed through.
func NewApp(ctx context.Context, cfg *config.Config, codeSource identity.CodeSource, opts ...engine.Option) (*App, error) {

	slogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	logger := logging.NewSlogLogger(slogger)

	dsn, err := resolveCacheDSN(cfg.LocalCacheDSN)
	if err != nil {
		return nil, fmt.Errorf("cache location: %w", err)
	}

	store, db, err := localstore.Open(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("local cache init: %w", err)
	}

	var seeds *seed.Source
	if cfg.SeedURL != "" {
		seeds = seed.NewSource(cfg.SeedURL, nil)
	} else {
		seeds = seed.NewSource("", nil)
	}

	var remoteStore remote.Store
	var remoteClient *remote.HTTPClient
	var provider *identity.HTTPProvider
	if cfg.ServerURL != "" {
		remoteClient = remote.NewHTTPClient(cfg.ServerURL, nil)
		remoteStore = remoteClient
		provider = identity.NewHTTPProvider(cfg.ServerURL, nil, codeSource)
	}

	eng := engine.New(store, remoteStore, seeds, logger, opts...)

	app := &App{
		config:   cfg,
		logger:   logger,
		db:       db,
		engine:   eng,
		identity: provider,
	}

	if provider != nil {
		// The registration callback fires once immediately with the current
		// state; Initialize below covers that, so only subsequent changes
		// are routed to the engine.
		initial := true
		app.unsubscribe = provider.OnAuthStateChanged(func(ident *identity.Identity) {
			if ident == nil {
				remoteClient.SetToken("")
			} else {
				remoteClient.SetToken(ident.Token)
			}
			if initial {
				initial = false
				return
			}
			eng.OnIdentityChanged(ctx, ident)
		})
	}

	var current *identity.Identity
	if provider != nil {
		current = provider.Current()
	}
	if err := eng.Initialize(ctx, current); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("engine init: %w", err)
	}

	return app, nil
}

// Engine exposes the reconciliation engine.
func (a *App) Engine() *engine.Engine { return a.engine }

// Identity exposes the identity provider, or nil in local-only setups.
func (a *App) Identity() *identity.HTTPProvider { return a.identity }

// Close tears down the auth listener and the local cache connection.
func (a *App) Close() error {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	return a.db.Close()
}

// resolveCacheDSN places a bare "file:<name>" sqlite DSN into the app data
// directory, creating it if needed. DSNs that already carry a path or use
// in-memory mode are passed through untouched.
func resolveCacheDSN(dsn string) (string, error) {
	name, ok := strings.CutPrefix(dsn, "file:")
	if !ok || strings.ContainsAny(name, "/\\") || strings.Contains(name, "mode=memory") {
		return dsn, nil
	}

	dir, err := filex.EnsureSubdDir(dataDirName)
	if err != nil {
		return "", err
	}
	return "file:" + filepath.Join(dir, name), nil
}
