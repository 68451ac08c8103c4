// Package server initializes and runs the snipkeep server: it opens the
// database, applies migrations, wires services together, and starts the
// HTTP API with graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/okutsen/snipkeep/internal/logging"
	"github.com/okutsen/snipkeep/internal/server/auth"
	"github.com/okutsen/snipkeep/internal/server/config"
	"github.com/okutsen/snipkeep/internal/server/httpapi"
	"github.com/okutsen/snipkeep/internal/server/repositories/repomanager"
	"github.com/okutsen/snipkeep/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	api    *httpapi.HTTPServer
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	hub := services.NewHub()
	google := auth.NewGoogleVerifier(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)

	us := services.NewUserService(db, rm, google, cfg)
	ss := services.NewSnippetService(db, rm, hub, logger)
	as := services.NewArchiveService(db, rm, cfg)

	api := httpapi.NewHTTPServer(cfg.EndpointAddrHTTP, logger, us, ss, as, hub, cfg.SecretKey)

	return &App{config: cfg, logger: logger, db: db, api: api}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.api.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
}
