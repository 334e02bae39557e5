package codes

import (
	"context"

	"github.com/lodeworks/quarry/internal/server/models"
)

type Repository interface {
	Insert(ctx context.Context, code *models.VerificationCode) error
	GetByPurpose(ctx context.Context, accountID string, purpose models.VerificationPurpose) (*models.VerificationCode, error)
	DeleteByPurpose(ctx context.Context, accountID string, purpose models.VerificationPurpose) error
	Delete(ctx context.Context, id int64) error
}
