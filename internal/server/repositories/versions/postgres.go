// Package versions provides a PostgreSQL-backed repository for project
// versions and their platform tags.
package versions

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

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.Version, error) {
	query := `
		SELECT id, project_id, version_string, visibility, post_id, created_at
		FROM project_versions
		WHERE id = $1
	`
	version := &models.Version{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&version.ID, &version.ProjectID, &version.VersionString,
			&version.Visibility, &version.PostID, &version.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return version, nil
}

// ListByProject returns all versions of a project regardless of visibility.
func (r *PostgresRepository) ListByProject(ctx context.Context, projectID int64) ([]*models.Version, error) {
	query := `
		SELECT id, project_id, version_string, visibility, post_id, created_at
		FROM project_versions
		WHERE project_id = $1
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var list []*models.Version
	for rows.Next() {
		version := &models.Version{}
		if err := rows.Scan(&version.ID, &version.ProjectID, &version.VersionString,
			&version.Visibility, &version.PostID, &version.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		list = append(list, version)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return list, nil
}

func (r *PostgresRepository) UpdateVisibility(ctx context.Context, id int64, visibility models.Visibility) error {
	query := `
		UPDATE project_versions SET visibility = $2
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

// SetPostID links an external discussion post to the version.
func (r *PostgresRepository) SetPostID(ctx context.Context, id int64, postID int64) error {
	query := `
		UPDATE project_versions SET post_id = $2
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, postID)
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

// Platforms returns every platform the version was published under.
func (r *PostgresRepository) Platforms(ctx context.Context, id int64) ([]models.Platform, error) {
	query := `
		SELECT platform
		FROM project_version_platforms
		WHERE version_id = $1
		ORDER BY platform
	`
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var platforms []models.Platform
	for rows.Next() {
		var p models.Platform
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		platforms = append(platforms, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return platforms, nil
}

// Dependencies returns the version's platform-scoped dependency declarations.
func (r *PostgresRepository) Dependencies(ctx context.Context, id int64) ([]models.Dependency, error) {
	query := `
		SELECT platform, name, required, external_url
		FROM project_version_dependencies
		WHERE version_id = $1
		ORDER BY platform, name
	`
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var deps []models.Dependency
	for rows.Next() {
		var d models.Dependency
		if err := rows.Scan(&d.Platform, &d.Name, &d.Required, &d.ExternalURL); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		deps = append(deps, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return deps, nil
}

// Delete permanently removes the version row; platform and dependency rows
// cascade.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	query := `
		DELETE FROM project_versions
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
