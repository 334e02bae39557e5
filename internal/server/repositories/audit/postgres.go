// Package audit provides the append-only audit log for lifecycle transitions.
package audit

import (
	"context"
	"fmt"

	"github.com/lodeworks/quarry/internal/dbx"
	"github.com/lodeworks/quarry/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Append(ctx context.Context, entry *models.AuditEntry) error {
	query := `
		INSERT INTO audit_log (action, project_id, version_id, message, prev_visibility)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		entry.Action, entry.ProjectID, entry.VersionID, entry.Message, entry.PrevVisibility).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListByProject(ctx context.Context, projectID int64) ([]models.AuditEntry, error) {
	query := `
		SELECT id, action, project_id, version_id, message, prev_visibility, created_at
		FROM audit_log
		WHERE project_id = $1
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var entries []models.AuditEntry
	for rows.Next() {
		var entry models.AuditEntry
		if err := rows.Scan(&entry.ID, &entry.Action, &entry.ProjectID,
			&entry.VersionID, &entry.Message, &entry.PrevVisibility, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return entries, nil
}
