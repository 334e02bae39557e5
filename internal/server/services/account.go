package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lodeworks/quarry/internal/common"
	"github.com/lodeworks/quarry/internal/dbx"
	"github.com/lodeworks/quarry/internal/logging"
	"github.com/lodeworks/quarry/internal/server/config"
	"github.com/lodeworks/quarry/internal/server/mail"
	"github.com/lodeworks/quarry/internal/server/models"
	"github.com/lodeworks/quarry/internal/server/repositories/repomanager"
	"github.com/lodeworks/quarry/internal/server/validation"
)

const (
	defaultLocale = "en"
	defaultTheme  = "light"

	resetMailSubject = "Quarry Password Reset"
	resetMailBody    = `Hi %s,

we received a request to reset the password for your account.
Enter %s within the next 10 minutes to continue.

If you did not request this email, you can ignore it.
`
)

// PasswordHasher derives a one-way hash of a password. Comparison happens at
// the authentication boundary, not here.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// CodeRegistry is the slice of VerificationService the account flows use.
type CodeRegistry interface {
	Issue(ctx context.Context, accountID string, purpose models.VerificationPurpose) (string, error)
	Verify(ctx context.Context, accountID string, purpose models.VerificationPurpose, candidate string, consume bool) (bool, error)
}

// AccountService orchestrates registration, login-identity lookup, password
// resets, credential management, and renames.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	codes       CodeRegistry
	sender      mail.Sender
	cooldown    time.Duration
	log         logging.Logger

	// validators and clock are fields so tests can substitute them.
	validUsername func(string) bool
	validPassword func(string) bool
	now           func() time.Time
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, hasher PasswordHasher, codes CodeRegistry, sender mail.Sender, cfg *config.Config, log logging.Logger) *AccountService {
	return &AccountService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		codes:       codes,
		sender:      sender,
		cooldown:    cfg.NameChangeCooldown,
		log:         log,

		validUsername: validation.Username,
		validPassword: validation.Password,
		now:           time.Now,
	}
}

// Register validates the signup input and creates the account together with
// its password credential in one transaction; a failure on either insert
// leaves no partial row. Taken names or emails surface as common.ErrConflict.
func (s *AccountService) Register(ctx context.Context, username, email, password string) (*models.Account, error) {
	if !s.validUsername(username) {
		return nil, fmt.Errorf("%w: invalid username", common.ErrValidation)
	}
	if !s.validPassword(password) {
		return nil, fmt.Errorf("%w: password does not meet the policy", common.ErrValidation)
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	account := &models.Account{
		ID:     uuid.NewString(),
		Name:   username,
		Email:  email,
		Locale: defaultLocale,
		Theme:  defaultTheme,
	}

	credential, err := models.NewPasswordCredential(account.ID, hashed)
	if err != nil {
		return nil, fmt.Errorf("encoding credential: %w", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Accounts(tx).Create(ctx, account); err != nil {
			return err
		}
		return s.repomanager.Credentials(tx).Register(ctx, credential)
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// FindPrincipalByUsername resolves the login identity for the authentication
// boundary. Empty names, unknown accounts, and accounts without a password
// credential all fail with common.ErrNotFound.
func (s *AccountService) FindPrincipalByUsername(ctx context.Context, username string) (*models.Principal, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: empty username", common.ErrNotFound)
	}

	account, err := s.repomanager.Accounts(s.db).GetByName(ctx, username)
	if err != nil {
		return nil, err
	}

	credential, err := s.repomanager.Credentials(s.db).GetByType(ctx, account.ID, models.CredentialPassword)
	if err != nil {
		return nil, err
	}

	pc, err := credential.Password()
	if err != nil {
		return nil, fmt.Errorf("decoding credential: %w", err)
	}

	return &models.Principal{
		AccountID:      account.ID,
		Name:           account.Name,
		Locked:         account.Locked,
		Permissions:    models.PermViewPublicInfo,
		HashedPassword: pc.HashedPassword,
	}, nil
}

// RequestPasswordReset issues a fresh reset code and mails it to the account.
// An unknown email completes silently so callers cannot probe for accounts.
// A failed send surfaces as common.ErrNotification but the issued code stays
// valid.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	account, err := s.repomanager.Accounts(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.log.Debug(ctx, "reset requested for unknown email")
			return nil
		}
		return err
	}

	code, err := s.codes.Issue(ctx, account.ID, models.PurposePasswordReset)
	if err != nil {
		return err
	}

	body := fmt.Sprintf(resetMailBody, account.Name, code)
	if err := s.sender.Send(resetMailSubject, account.Email, body); err != nil {
		return fmt.Errorf("%w: %v", common.ErrNotification, err)
	}
	return nil
}

// VerifyPasswordReset checks a candidate reset code. Unknown emails yield
// (false, nil), indistinguishable from a wrong code.
func (s *AccountService) VerifyPasswordReset(ctx context.Context, email, candidate string, consume bool) (bool, error) {
	account, err := s.repomanager.Accounts(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return s.codes.Verify(ctx, account.ID, models.PurposePasswordReset, candidate, consume)
}

// ResetPassword consumes a valid reset code and replaces the password
// credential. Returns false when the code does not verify. The new password is
// validated before the code is consumed so a rejected password does not burn
// the code.
func (s *AccountService) ResetPassword(ctx context.Context, email, candidate, newPassword string) (bool, error) {
	if !s.validPassword(newPassword) {
		return false, fmt.Errorf("%w: password does not meet the policy", common.ErrValidation)
	}

	ok, err := s.VerifyPasswordReset(ctx, email, candidate, true)
	if err != nil || !ok {
		return false, err
	}

	account, err := s.repomanager.Accounts(s.db).GetByEmail(ctx, email)
	if err != nil {
		return false, err
	}

	hashed, err := s.hasher.Hash(newPassword)
	if err != nil {
		return false, fmt.Errorf("hashing password: %w", err)
	}
	credential, err := models.NewPasswordCredential(account.ID, hashed)
	if err != nil {
		return false, fmt.Errorf("encoding credential: %w", err)
	}

	if err := s.repomanager.Credentials(s.db).Update(ctx, credential); err != nil {
		return false, err
	}
	return true, nil
}

// Rename changes the account name. Taken names fail with common.ErrConflict;
// a rename inside the cooldown window fails with *common.RateLimitError
// carrying the earliest allowed time. The history row and the account update
// commit together.
func (s *AccountService) Rename(ctx context.Context, accountID, newName string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)

		if _, err := repo.GetByName(ctx, newName); err == nil {
			return common.ErrConflict
		} else if !errors.Is(err, common.ErrNotFound) {
			return err
		}

		account, err := repo.GetByID(ctx, accountID)
		if err != nil {
			return err
		}

		history, err := repo.NameHistory(ctx, accountID)
		if err != nil {
			return err
		}
		if len(history) > 0 {
			nextAllowed := history[0].Date.Add(s.cooldown)
			if s.now().Before(nextAllowed) {
				return &common.RateLimitError{NextAllowed: nextAllowed}
			}
		}

		if err := repo.RecordNameChange(ctx, &models.NameChange{
			AccountID: accountID,
			OldName:   account.Name,
			NewName:   newName,
			Date:      s.now(),
		}); err != nil {
			return err
		}
		return repo.UpdateName(ctx, accountID, newName)
	})
}

// RegisterCredential attaches a new typed credential to an account. A second
// credential of the same type fails with common.ErrConflict.
func (s *AccountService) RegisterCredential(ctx context.Context, credential *models.Credential) error {
	return s.repomanager.Credentials(s.db).Register(ctx, credential)
}

// UpdateCredential replaces the payload of an existing credential.
func (s *AccountService) UpdateCredential(ctx context.Context, credential *models.Credential) error {
	return s.repomanager.Credentials(s.db).Update(ctx, credential)
}

// RemoveCredential deletes the (account, type) credential; absent rows are a
// no-op.
func (s *AccountService) RemoveCredential(ctx context.Context, accountID string, credentialType models.CredentialType) error {
	return s.repomanager.Credentials(s.db).Remove(ctx, accountID, credentialType)
}

// Credential returns the credential of the given type, or nil when absent.
func (s *AccountService) Credential(ctx context.Context, accountID string, credentialType models.CredentialType) (*models.Credential, error) {
	credential, err := s.repomanager.Credentials(s.db).GetByType(ctx, accountID, credentialType)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return credential, nil
}
