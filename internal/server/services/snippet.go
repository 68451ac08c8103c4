package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/okutsen/snipkeep/internal/common"
	"github.com/okutsen/snipkeep/internal/dbx"
	"github.com/okutsen/snipkeep/internal/logging"
	"github.com/okutsen/snipkeep/internal/server/models"
	"github.com/okutsen/snipkeep/internal/server/repositories/repomanager"
)

// OrderUpdate assigns a snippet its new zero-based position.
type OrderUpdate struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
}

// SnippetService implements snippet CRUD and reordering for the
// authenticated user. Every successful mutation publishes a fresh ordered
// snapshot of the owner's collection through the Hub, which feeds the
// event streams of that user's connected devices.
type SnippetService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hub         *Hub
	logger      logging.Logger
}

// NewSnippetService constructs a SnippetService.
func NewSnippetService(db *sql.DB, m repomanager.RepositoryManager, hub *Hub, logger logging.Logger) *SnippetService {
	return &SnippetService{
		db:          db,
		repomanager: m,
		hub:         hub,
		logger:      logger.With("service", "snippets"),
	}
}

// List returns the user's collection ordered by position.
func (s *SnippetService) List(ctx context.Context, userID string) ([]*models.Snippet, error) {
	return s.repomanager.Snippets(s.db).SelectOrdered(ctx, userID)
}

// Create stores a new snippet at the end of the user's collection. Title
// and message must be non-blank after trimming.
func (s *SnippetService) Create(ctx context.Context, userID, title, message string) (*models.Snippet, error) {
	title = strings.TrimSpace(title)
	message = strings.TrimSpace(message)
	if title == "" || message == "" {
		return nil, fmt.Errorf("title and message must be non-empty: %w", common.ErrValidation)
	}

	snippet := &models.Snippet{
		ID:      uuid.NewString(),
		UserID:  userID,
		Title:   title,
		Message: message,
	}
	if err := s.repomanager.Snippets(s.db).Insert(ctx, snippet); err != nil {
		return nil, err
	}

	s.broadcast(ctx, userID)
	return snippet, nil
}

// Update applies a partial edit to a snippet the user owns. Provided
// fields must be non-blank after trimming.
func (s *SnippetService) Update(ctx context.Context, userID, id string, title, message *string) (*models.Snippet, error) {
	if title != nil {
		t := strings.TrimSpace(*title)
		if t == "" {
			return nil, fmt.Errorf("title must be non-empty: %w", common.ErrValidation)
		}
		title = &t
	}
	if message != nil {
		m := strings.TrimSpace(*message)
		if m == "" {
			return nil, fmt.Errorf("message must be non-empty: %w", common.ErrValidation)
		}
		message = &m
	}

	snippet, err := s.repomanager.Snippets(s.db).Update(ctx, id, userID, title, message)
	if err != nil {
		return nil, err
	}

	s.broadcast(ctx, userID)
	return snippet, nil
}

// Delete removes a snippet the user owns.
func (s *SnippetService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repomanager.Snippets(s.db).Delete(ctx, id, userID); err != nil {
		return err
	}

	s.broadcast(ctx, userID)
	return nil
}

// Reorder commits a batch of position assignments in one transaction. Any
// unknown snippet in the batch rolls back the whole reorder.
func (s *SnippetService) Reorder(ctx context.Context, userID string, updates []OrderUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Snippets(tx)
		for _, u := range updates {
			if err := repo.UpdateOrd(ctx, u.ID, userID, u.Order); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.broadcast(ctx, userID)
	return nil
}

// broadcast publishes the user's current ordered collection to the hub.
// Failures are logged only: the mutation that triggered the broadcast has
// already been committed.
func (s *SnippetService) broadcast(ctx context.Context, userID string) {
	snapshot, err := s.repomanager.Snippets(s.db).SelectOrdered(ctx, userID)
	if err != nil {
		s.logger.Error(ctx, "snapshot select failed", "user_id", userID, "error", err.Error())
		return
	}
	if snapshot == nil {
		snapshot = []*models.Snippet{}
	}
	s.hub.Publish(userID, snapshot)
}

// Snapshot returns the user's collection for a fresh event-stream
// subscriber, never nil.
func (s *SnippetService) Snapshot(ctx context.Context, userID string) ([]*models.Snippet, error) {
	snapshot, err := s.repomanager.Snippets(s.db).SelectOrdered(ctx, userID)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		snapshot = []*models.Snippet{}
	}
	return snapshot, nil
}
