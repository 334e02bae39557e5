// Package repomanager binds repository implementations to a database handle.
// Passing a transactional dbx.DBTX makes every repository obtained from it
// participate in the same transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/lodeworks/quarry/internal/dbx"
	"github.com/lodeworks/quarry/internal/server/repositories/accounts"
	"github.com/lodeworks/quarry/internal/server/repositories/audit"
	"github.com/lodeworks/quarry/internal/server/repositories/codes"
	"github.com/lodeworks/quarry/internal/server/repositories/credentials"
	"github.com/lodeworks/quarry/internal/server/repositories/projects"
	"github.com/lodeworks/quarry/internal/server/repositories/versions"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Credentials(db dbx.DBTX) credentials.Repository
	Codes(db dbx.DBTX) codes.Repository
	Projects(db dbx.DBTX) projects.Repository
	Versions(db dbx.DBTX) versions.Repository
	Audit(db dbx.DBTX) audit.Repository
}
