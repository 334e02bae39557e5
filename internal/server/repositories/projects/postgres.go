// Package projects provides a PostgreSQL-backed repository for projects, the
// parents of versioned artifacts.
package projects

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

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.Project, error) {
	query := `
		SELECT id, owner_name, slug, name, visibility, created_at
		FROM projects
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetBySlug(ctx context.Context, ownerName, slug string) (*models.Project, error) {
	query := `
		SELECT id, owner_name, slug, name, visibility, created_at
		FROM projects
		WHERE owner_name = $1 AND slug = $2
	`
	return r.scanOne(r.db.QueryRowContext(ctx, query, ownerName, slug))
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.Project, error) {
	project := &models.Project{}
	err := row.Scan(&project.ID, &project.OwnerName, &project.Slug,
		&project.Name, &project.Visibility, &project.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return project, nil
}

func (r *PostgresRepository) UpdateVisibility(ctx context.Context, id int64, visibility models.Visibility) error {
	query := `
		UPDATE projects SET visibility = $2
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, visibility)
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
