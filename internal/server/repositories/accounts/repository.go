package accounts

import (
	"context"

	"github.com/lodeworks/quarry/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByName(ctx context.Context, name string) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	UpdateName(ctx context.Context, accountID, newName string) error
	NameHistory(ctx context.Context, accountID string) ([]models.NameChange, error)
	RecordNameChange(ctx context.Context, change *models.NameChange) error
}
