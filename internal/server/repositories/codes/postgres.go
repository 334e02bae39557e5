// Package codes provides a PostgreSQL-backed repository for verification
// codes. The service layer decides expiry; rows only carry the creation time.
package codes

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

// Insert stores a new code row. CreatedAt is supplied by the caller so the
// clock stays injectable. The unique index on (account_id, purpose) rejects a
// second live code with common.ErrConflict, even when two issuers race.
func (r *PostgresRepository) Insert(ctx context.Context, code *models.VerificationCode) error {
	query := `
		INSERT INTO verification_codes (account_id, purpose, code, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		code.AccountID, code.Purpose, code.Code, code.CreatedAt).Scan(&code.ID)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrConflict
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetByPurpose returns the live code for (account, purpose), or
// common.ErrNotFound.
func (r *PostgresRepository) GetByPurpose(ctx context.Context, accountID string, purpose models.VerificationPurpose) (*models.VerificationCode, error) {
	query := `
		SELECT id, account_id, purpose, code, created_at
		FROM verification_codes
		WHERE account_id = $1 AND purpose = $2
	`
	code := &models.VerificationCode{}
	err := r.db.QueryRowContext(ctx, query, accountID, purpose).
		Scan(&code.ID, &code.AccountID, &code.Purpose, &code.Code, &code.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return code, nil
}

// DeleteByPurpose removes every code for (account, purpose). Used to
// invalidate prior codes before issuing a new one.
func (r *PostgresRepository) DeleteByPurpose(ctx context.Context, accountID string, purpose models.VerificationPurpose) error {
	query := `
		DELETE FROM verification_codes
		WHERE account_id = $1 AND purpose = $2
	`
	if _, err := r.db.ExecContext(ctx, query, accountID, purpose); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Delete removes one code row by id (consumption after a successful verify).
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	query := `
		DELETE FROM verification_codes
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
