// Package httpapi exposes the server's HTTP surface: authentication
// endpoints, the authenticated snippet API, and the per-user server-sent
// event stream that pushes ordered collection snapshots.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/okutsen/snipkeep/internal/logging"
	"github.com/okutsen/snipkeep/internal/server/models"
	"github.com/okutsen/snipkeep/internal/server/services"
)

// UserAuthenticator is the slice of the user service the API needs.
type UserAuthenticator interface {
	Register(ctx context.Context, email, password string) (*services.AuthResult, error)
	Login(ctx context.Context, email, password string) (*services.AuthResult, error)
	LoginWithGoogle(ctx context.Context, code string) (*services.AuthResult, error)
}

// SnippetStore is the slice of the snippet service the API needs.
type SnippetStore interface {
	List(ctx context.Context, userID string) ([]*models.Snippet, error)
	Create(ctx context.Context, userID, title, message string) (*models.Snippet, error)
	Update(ctx context.Context, userID, id string, title, message *string) (*models.Snippet, error)
	Delete(ctx context.Context, userID, id string) error
	Reorder(ctx context.Context, userID string, updates []services.OrderUpdate) error
	Snapshot(ctx context.Context, userID string) ([]*models.Snippet, error)
}

// Archiver uploads a user's collection and returns a download URL.
type Archiver interface {
	Archive(ctx context.Context, userID string) (string, error)
}

// Subscriber registers event-stream listeners; *services.Hub satisfies it.
type Subscriber interface {
	Subscribe(userID string) (<-chan []*models.Snippet, func())
}

// HTTPServer serves the snipkeep API.
type HTTPServer struct {
	address   string
	logger    logging.Logger
	users     UserAuthenticator
	snippets  SnippetStore
	archive   Archiver
	hub       Subscriber
	jwtSecret []byte
}

// NewHTTPServer constructs the API server.
func NewHTTPServer(a string, l logging.Logger, us UserAuthenticator, ss SnippetStore, ar Archiver, hub Subscriber, secretKey string) *HTTPServer {
	return &HTTPServer{
		address:   a,
		logger:    l.With("module", "http_server"),
		users:     us,
		snippets:  ss,
		archive:   ar,
		hub:       hub,
		jwtSecret: []byte(secretKey),
	}
}

// Router assembles the chi router with all API routes.
func (s *HTTPServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/google", s.handleGoogleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/snippets", s.handleListSnippets)
			r.Post("/snippets", s.handleCreateSnippet)
			r.Patch("/snippets/{id}", s.handleUpdateSnippet)
			r.Delete("/snippets/{id}", s.handleDeleteSnippet)
			r.Put("/snippets/order", s.handleReorderSnippets)
			r.Get("/snippets/stream", s.handleStream)
			r.Post("/snippets/archive", s.handleArchive)
		})
	})

	return r
}

// Run starts the HTTP listener and shuts it down gracefully once ctx is
// cancelled.
func (s *HTTPServer) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
