// Package accounts provides a PostgreSQL-backed repository for user accounts
// and their append-only rename history.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lodeworks/quarry/internal/common"
	"github.com/lodeworks/quarry/internal/dbx"
	"github.com/lodeworks/quarry/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new account. Uniqueness of name and email is enforced by
// the insert itself; a violation returns common.ErrConflict.
func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query := `
		INSERT INTO accounts (id, name, email, locked, locale, theme)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		account.ID, account.Name, account.Email, account.Locked, account.Locale, account.Theme).
		Scan(&account.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return account, nil
}

// GetByID returns the account with the given id, or common.ErrNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `
		SELECT id, name, email, locked, locale, theme, created_at
		FROM accounts
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetByName returns the account with the given name, or common.ErrNotFound.
func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*models.Account, error) {
	query := `
		SELECT id, name, email, locked, locale, theme, created_at
		FROM accounts
		WHERE name = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, name))
}

// GetByEmail returns the account with the given email, or common.ErrNotFound.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `
		SELECT id, name, email, locked, locale, theme, created_at
		FROM accounts
		WHERE email = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.Account, error) {
	account := &models.Account{}
	err := row.Scan(&account.ID, &account.Name, &account.Email,
		&account.Locked, &account.Locale, &account.Theme, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return account, nil
}

// UpdateName renames the account. A taken name returns common.ErrConflict,
// an unknown account common.ErrNotFound.
func (r *PostgresRepository) UpdateName(ctx context.Context, accountID, newName string) error {
	query := `
		UPDATE accounts SET name = $2
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, accountID, newName)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrConflict
		}
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

// NameHistory returns the account's rename history, most recent first.
func (r *PostgresRepository) NameHistory(ctx context.Context, accountID string) ([]models.NameChange, error) {
	query := `
		SELECT account_id, old_name, new_name, date
		FROM account_name_history
		WHERE account_id = $1
		ORDER BY date DESC
	`
	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var history []models.NameChange
	for rows.Next() {
		var change models.NameChange
		if err := rows.Scan(&change.AccountID, &change.OldName, &change.NewName, &change.Date); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		history = append(history, change)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return history, nil
}

// RecordNameChange appends one rename entry. History rows are never updated.
func (r *PostgresRepository) RecordNameChange(ctx context.Context, change *models.NameChange) error {
	query := `
		INSERT INTO account_name_history (account_id, old_name, new_name, date)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query,
		change.AccountID, change.OldName, change.NewName, change.Date); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
