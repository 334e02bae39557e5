package versions

import (
	"context"

	"github.com/lodeworks/quarry/internal/server/models"
)

type Repository interface {
	Get(ctx context.Context, id int64) (*models.Version, error)
	ListByProject(ctx context.Context, projectID int64) ([]*models.Version, error)
	UpdateVisibility(ctx context.Context, id int64, visibility models.Visibility) error
	SetPostID(ctx context.Context, id int64, postID int64) error
	Platforms(ctx context.Context, id int64) ([]models.Platform, error)
	Dependencies(ctx context.Context, id int64) ([]models.Dependency, error)
	Delete(ctx context.Context, id int64) error
}
