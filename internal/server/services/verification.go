// Package services contains the server-side business logic: account and
// credential lifecycle, verification codes, and version visibility
// transitions.
package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/lodeworks/quarry/internal/common"
	"github.com/lodeworks/quarry/internal/dbx"
	"github.com/lodeworks/quarry/internal/server/models"
	"github.com/lodeworks/quarry/internal/server/repositories/repomanager"
)

// codeTTL is how long an issued verification code stays valid. Expiry is
// evaluated at verification time; nothing sweeps expired rows.
const codeTTL = 10 * time.Minute

// issueAttempts bounds the retries when two issuers race on the unique
// (account, purpose) index.
const issueAttempts = 3

var codeSpace = big.NewInt(1_000_000)

// VerificationService owns the short-lived numeric codes that prove control of
// an account for a single purpose. A code moves Unissued -> Live ->
// {Expired | Consumed}; Expired is derived from CreatedAt, never stored.
type VerificationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager

	// now and randSource are swapped out in tests.
	now        func() time.Time
	randSource io.Reader
}

func NewVerificationService(db *sql.DB, m repomanager.RepositoryManager) *VerificationService {
	return &VerificationService{
		db:          db,
		repomanager: m,
		now:         time.Now,
		randSource:  rand.Reader,
	}
}

// generateCode draws a uniform value from [0, 999999] and zero-pads it to six
// digits.
func (s *VerificationService) generateCode() (string, error) {
	n, err := rand.Int(s.randSource, codeSpace)
	if err != nil {
		return "", fmt.Errorf("generating code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Issue invalidates every live code for (accountID, purpose) and stores a new
// one, as a single transaction. The unique index on (account, purpose) is what
// holds the at-most-one-live-code invariant against concurrent issuers: under
// read committed two racing transactions can both delete zero rows and insert,
// so the loser surfaces common.ErrConflict and the whole transaction is
// retried, now seeing the winner's row. The code value is returned for
// delivery to the account holder.
func (s *VerificationService) Issue(ctx context.Context, accountID string, purpose models.VerificationPurpose) (string, error) {
	code, err := s.generateCode()
	if err != nil {
		return "", err
	}

	for attempt := 0; attempt < issueAttempts; attempt++ {
		err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			repo := s.repomanager.Codes(tx)
			if err := repo.DeleteByPurpose(ctx, accountID, purpose); err != nil {
				return err
			}
			return repo.Insert(ctx, &models.VerificationCode{
				AccountID: accountID,
				Purpose:   purpose,
				Code:      code,
				CreatedAt: s.now(),
			})
		})
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, common.ErrConflict) {
			return "", err
		}
	}
	return "", err
}

// Verify fails closed: a missing row, a code aged codeTTL or more, or any
// non-exact candidate all yield (false, nil). Errors are reserved for storage
// failures. With consume=true a successful verification deletes the code so it
// cannot be replayed.
func (s *VerificationService) Verify(ctx context.Context, accountID string, purpose models.VerificationPurpose, candidate string, consume bool) (bool, error) {
	repo := s.repomanager.Codes(s.db)

	vc, err := repo.GetByPurpose(ctx, accountID, purpose)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if s.now().Sub(vc.CreatedAt) >= codeTTL {
		return false, nil
	}

	if subtle.ConstantTimeCompare([]byte(vc.Code), []byte(candidate)) != 1 {
		return false, nil
	}

	if consume {
		if err := repo.Delete(ctx, vc.ID); err != nil {
			return false, err
		}
	}
	return true, nil
}
