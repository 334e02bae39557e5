// Package credentials provides a PostgreSQL-backed repository for typed
// account credentials. The (account_id, type) primary key carries the
// at-most-one-credential-per-type invariant.
package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lodeworks/quarry/internal/common"
	"github.com/lodeworks/quarry/internal/dbx"
	"github.com/lodeworks/quarry/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Register inserts a new credential. A second credential of the same type for
// the same account returns common.ErrConflict; callers must use Update instead.
func (r *PostgresRepository) Register(ctx context.Context, credential *models.Credential) error {
	query := `
		INSERT INTO account_credentials (account_id, type, payload)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query,
		credential.AccountID, credential.Type, credential.Payload); err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Update replaces the payload of an existing (account, type) credential.
// Absent rows return common.ErrNotFound.
func (r *PostgresRepository) Update(ctx context.Context, credential *models.Credential) error {
	query := `
		UPDATE account_credentials SET payload = $3
		WHERE account_id = $1 AND type = $2
	`
	res, err := r.db.ExecContext(ctx, query,
		credential.AccountID, credential.Type, credential.Payload)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}

// Remove deletes the (account, type) credential. Removing an absent row is a
// no-op.
func (r *PostgresRepository) Remove(ctx context.Context, accountID string, credentialType models.CredentialType) error {
	query := `
		DELETE FROM account_credentials
		WHERE account_id = $1 AND type = $2
	`
	if _, err := r.db.ExecContext(ctx, query, accountID, credentialType); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetByType returns the credential of the given type, or common.ErrNotFound.
func (r *PostgresRepository) GetByType(ctx context.Context, accountID string, credentialType models.CredentialType) (*models.Credential, error) {
	query := `
		SELECT account_id, type, payload, created_at
		FROM account_credentials
		WHERE account_id = $1 AND type = $2
	`
	credential := &models.Credential{}
	err := r.db.QueryRowContext(ctx, query, accountID, credentialType).
		Scan(&credential.AccountID, &credential.Type, &credential.Payload, &credential.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return credential, nil
}
