package repomanager

import (
	"context"
	"database/sql"

	"github.com/okutsen/snipkeep/internal/dbx"
	"github.com/okutsen/snipkeep/internal/server/repositories/snippets"
	"github.com/okutsen/snipkeep/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Snippets(db dbx.DBTX) snippets.Repository
}
