package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/okutsen/snipkeep/internal/common"
	"github.com/okutsen/snipkeep/internal/dbx"
	"github.com/okutsen/snipkeep/internal/logging"
	"github.com/okutsen/snipkeep/internal/server/models"
	"github.com/okutsen/snipkeep/internal/server/repositories/snippets"
	"github.com/okutsen/snipkeep/internal/server/repositories/users"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// fakeRepoMgr vends the in-memory fakes below regardless of the DBTX
// handle it is given.
type fakeRepoMgr struct {
	users *fakeUserRepo
	snips *fakeSnippetRepo
}

func newFakeRepoMgr() *fakeRepoMgr {
	return &fakeRepoMgr{
		users: &fakeUserRepo{},
		snips: &fakeSnippetRepo{},
	}
}

func (m *fakeRepoMgr) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }

func (m *fakeRepoMgr) Users(db dbx.DBTX) users.Repository       { return m.users }
func (m *fakeRepoMgr) Snippets(db dbx.DBTX) snippets.Repository { return m.snips }

type fakeUserRepo struct {
	items     []*models.User
	createErr error
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	for _, u := range r.items {
		if u.Email == user.Email || (user.GoogleSub != "" && u.GoogleSub == user.GoogleSub) {
			return nil, common.ErrAlreadyExists
		}
	}
	user.ID = fmt.Sprintf("u%d", len(r.items)+1)
	user.CreatedAt = time.Now()
	r.items = append(r.items, user)
	return user, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.items {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeUserRepo) GetByGoogleSub(ctx context.Context, sub string) (*models.User, error) {
	for _, u := range r.items {
		if u.GoogleSub == sub {
			return u, nil
		}
	}
	return nil, common.ErrNotFound
}

type fakeSnippetRepo struct {
	items     []*models.Snippet
	insertErr error
	selectErr error
}

func (r *fakeSnippetRepo) Insert(ctx context.Context, snippet *models.Snippet) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	ord := 0
	for _, s := range r.items {
		if s.UserID == snippet.UserID && s.Ord >= ord {
			ord = s.Ord + 1
		}
	}
	snippet.Ord = ord
	snippet.CreatedAt = time.Now()
	snippet.UpdatedAt = snippet.CreatedAt
	r.items = append(r.items, snippet)
	return nil
}

func (r *fakeSnippetRepo) Update(ctx context.Context, id, userID string, title, message *string) (*models.Snippet, error) {
	for _, s := range r.items {
		if s.ID == id && s.UserID == userID {
			if title != nil {
				s.Title = *title
			}
			if message != nil {
				s.Message = *message
			}
			s.UpdatedAt = time.Now()
			return s, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeSnippetRepo) Delete(ctx context.Context, id, userID string) error {
	for i, s := range r.items {
		if s.ID == id && s.UserID == userID {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return nil
		}
	}
	return common.ErrNotFound
}

func (r *fakeSnippetRepo) SelectOrdered(ctx context.Context, userID string) ([]*models.Snippet, error) {
	if r.selectErr != nil {
		return nil, r.selectErr
	}
	var result []*models.Snippet
	for _, s := range r.items {
		if s.UserID == userID {
			result = append(result, s)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Ord < result[j].Ord })
	return result, nil
}

func (r *fakeSnippetRepo) UpdateOrd(ctx context.Context, id, userID string, ord int) error {
	for _, s := range r.items {
		if s.ID == id && s.UserID == userID {
			s.Ord = ord
			return nil
		}
	}
	return common.ErrNotFound
}
