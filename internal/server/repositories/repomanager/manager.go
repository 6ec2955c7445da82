package repomanager

import (
	"context"
	"database/sql"

	"github.com/artstore/artstore/internal/dbx"
	"github.com/artstore/artstore/internal/server/repositories/records"
	"github.com/artstore/artstore/internal/server/repositories/refreshtokens"
	"github.com/artstore/artstore/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Records(db dbx.DBTX) records.Repository
}
