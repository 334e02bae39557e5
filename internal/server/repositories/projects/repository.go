package projects

import (
	"context"

	"github.com/lodeworks/quarry/internal/server/models"
)

type Repository interface {
	Get(ctx context.Context, id int64) (*models.Project, error)
	GetBySlug(ctx context.Context, ownerName, slug string) (*models.Project, error)
	UpdateVisibility(ctx context.Context, id int64, visibility models.Visibility) error
}
