package credentials

import (
	"context"

	"github.com/lodeworks/quarry/internal/server/models"
)

type Repository interface {
	Register(ctx context.Context, credential *models.Credential) error
	Update(ctx context.Context, credential *models.Credential) error
	Remove(ctx context.Context, accountID string, credentialType models.CredentialType) error
	GetByType(ctx context.Context, accountID string, credentialType models.CredentialType) (*models.Credential, error)
}
