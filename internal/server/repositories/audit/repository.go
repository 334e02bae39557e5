package audit

import (
	"context"

	"github.com/lodeworks/quarry/internal/server/models"
)

type Repository interface {
	Append(ctx context.Context, entry *models.AuditEntry) error
	ListByProject(ctx context.Context, projectID int64) ([]models.AuditEntry, error)
}
