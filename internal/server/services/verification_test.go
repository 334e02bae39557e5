package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/lodeworks/quarry/internal/common"
	"github.com/lodeworks/quarry/internal/dbx"
	"github.com/lodeworks/quarry/internal/server/models"
	accountsrepo "github.com/lodeworks/quarry/internal/server/repositories/accounts"
	auditrepo "github.com/lodeworks/quarry/internal/server/repositories/audit"
	codesrepo "github.com/lodeworks/quarry/internal/server/repositories/codes"
	credentialsrepo "github.com/lodeworks/quarry/internal/server/repositories/credentials"
	projectsrepo "github.com/lodeworks/quarry/internal/server/repositories/projects"
	versionsrepo "github.com/lodeworks/quarry/internal/server/repositories/versions"
)

// --- helpers shared by the service tests ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// zeroReader makes code generation deterministic: all-zero entropy always
// yields "000000".
type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

type fakeCodesRepo struct {
	inserted        []*models.VerificationCode
	insertErr       error
	insertConflicts int

	getOut *models.VerificationCode
	getErr error

	purgedAccounts     []string
	deleteByPurposeErr error

	deletedIDs []int64
	deleteErr  error
}

func (f *fakeCodesRepo) Insert(ctx context.Context, code *models.VerificationCode) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	if f.insertConflicts > 0 {
		f.insertConflicts--
		return common.ErrConflict
	}
	f.inserted = append(f.inserted, code)
	return nil
}

func (f *fakeCodesRepo) GetByPurpose(ctx context.Context, accountID string, purpose models.VerificationPurpose) (*models.VerificationCode, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeCodesRepo) DeleteByPurpose(ctx context.Context, accountID string, purpose models.VerificationPurpose) error {
	if f.deleteByPurposeErr != nil {
		return f.deleteByPurposeErr
	}
	f.purgedAccounts = append(f.purgedAccounts, accountID)
	return nil
}

func (f *fakeCodesRepo) Delete(ctx context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedIDs = append(f.deletedIDs, id)
	return nil
}

type fakeRepoManager struct {
	accounts    *fakeAccountsRepo
	credentials *fakeCredentialsRepo
	codes       *fakeCodesRepo
	projects    *fakeProjectsRepo
	versions    *fakeVersionsRepo
	audit       *fakeAuditRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Accounts(dbx.DBTX) accountsrepo.Repository   { return m.accounts }
func (m *fakeRepoManager) Credentials(dbx.DBTX) credentialsrepo.Repository {
	return m.credentials
}
func (m *fakeRepoManager) Codes(dbx.DBTX) codesrepo.Repository       { return m.codes }
func (m *fakeRepoManager) Projects(dbx.DBTX) projectsrepo.Repository { return m.projects }
func (m *fakeRepoManager) Versions(dbx.DBTX) versionsrepo.Repository { return m.versions }
func (m *fakeRepoManager) Audit(dbx.DBTX) auditrepo.Repository       { return m.audit }

func newVerificationService(t *testing.T, db *sql.DB, rm *fakeRepoManager, at time.Time) *VerificationService {
	t.Helper()
	s := NewVerificationService(db, rm)
	s.now = func() time.Time { return at }
	s.randSource = zeroReader{}
	return s
}

// --- tests ---

func TestIssue_ReplacesLiveCode(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	issuedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeCodesRepo{}
	s := newVerificationService(t, db, &fakeRepoManager{codes: repo}, issuedAt)

	code, err := s.Issue(context.Background(), "acc-1", models.PurposePasswordReset)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if code != "000000" {
		t.Fatalf("want deterministic code 000000, got %q", code)
	}
	if len(repo.purgedAccounts) != 1 || repo.purgedAccounts[0] != "acc-1" {
		t.Fatalf("old codes not purged first: %v", repo.purgedAccounts)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("want one inserted code, got %d", len(repo.inserted))
	}
	got := repo.inserted[0]
	if got.Code != code || got.AccountID != "acc-1" || got.Purpose != models.PurposePasswordReset {
		t.Fatalf("inserted code mismatch: %+v", got)
	}
	if !got.CreatedAt.Equal(issuedAt) {
		t.Fatalf("CreatedAt: want %v, got %v", issuedAt, got.CreatedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestIssue_InsertErrRollsBack(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectRollback()

	repo := &fakeCodesRepo{insertErr: errBoom{}}
	s := newVerificationService(t, db, &fakeRepoManager{codes: repo}, time.Now())

	if _, err := s.Issue(context.Background(), "acc-1", models.PurposePasswordReset); err == nil {
		t.Fatal("expected insert error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestIssue_RetriesOnRacedInsert(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	// the losing transaction rolls back and the retry commits
	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectCommit()

	repo := &fakeCodesRepo{insertConflicts: 1}
	s := newVerificationService(t, db, &fakeRepoManager{codes: repo}, time.Now())

	code, err := s.Issue(context.Background(), "acc-1", models.PurposePasswordReset)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if len(repo.inserted) != 1 || repo.inserted[0].Code != code {
		t.Fatalf("retry did not insert exactly one code: %+v", repo.inserted)
	}
	// the retry re-runs the purge so the winner's row is gone before insert
	if len(repo.purgedAccounts) != 2 {
		t.Fatalf("want purge on both attempts, got %v", repo.purgedAccounts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestIssue_GivesUpAfterRepeatedConflicts(t *testing.T) {
	db, mock := newSQLMockDB(t)
	defer db.Close()
	for i := 0; i < issueAttempts; i++ {
		mock.ExpectBegin()
		mock.ExpectRollback()
	}

	repo := &fakeCodesRepo{insertConflicts: issueAttempts}
	s := newVerificationService(t, db, &fakeRepoManager{codes: repo}, time.Now())

	if _, err := s.Issue(context.Background(), "acc-1", models.PurposePasswordReset); !errors.Is(err, common.ErrConflict) {
		t.Fatalf("want ErrConflict after exhausted retries, got %v", err)
	}
	if len(repo.inserted) != 0 {
		t.Fatalf("no code may be left behind: %+v", repo.inserted)
	}
}

func TestVerify_MissingCode(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	repo := &fakeCodesRepo{getErr: common.ErrNotFound}
	s := newVerificationService(t, db, &fakeRepoManager{codes: repo}, time.Now())

	ok, err := s.Verify(context.Background(), "acc-1", models.PurposePasswordReset, "123456", true)
	if err != nil || ok {
		t.Fatalf("missing code: want (false, nil), got (%v, %v)", ok, err)
	}
}

func TestVerify_StorageErr(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	repo := &fakeCodesRepo{getErr: errBoom{}}
	s := newVerificationService(t, db, &fakeRepoManager{codes: repo}, time.Now())

	ok, err := s.Verify(context.Background(), "acc-1", models.PurposePasswordReset, "123456", true)
	if ok || err == nil {
		t.Fatalf("want storage error, got (%v, %v)", ok, err)
	}
}

func TestVerify_ExpiryBoundary(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	createdAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeCodesRepo{
		getOut: &models.VerificationCode{ID: 7, AccountID: "acc-1", Code: "123456", CreatedAt: createdAt},
	}

	// one nanosecond before the deadline the code is still live
	s := newVerificationService(t, db, &fakeRepoManager{codes: repo}, createdAt.Add(10*time.Minute-time.Nanosecond))
	ok, err := s.Verify(context.Background(), "acc-1", models.PurposePasswordReset, "123456", false)
	if err != nil || !ok {
		t.Fatalf("just before deadline: want (true, nil), got (%v, %v)", ok, err)
	}

	// at exactly the deadline it is expired
	s = newVerificationService(t, db, &fakeRepoManager{codes: repo}, createdAt.Add(10*time.Minute))
	ok, err = s.Verify(context.Background(), "acc-1", models.PurposePasswordReset, "123456", false)
	if err != nil || ok {
		t.Fatalf("at deadline: want (false, nil), got (%v, %v)", ok, err)
	}
}

func TestVerify_WrongCandidate(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	createdAt := time.Now()
	repo := &fakeCodesRepo{
		getOut: &models.VerificationCode{ID: 7, AccountID: "acc-1", Code: "123456", CreatedAt: createdAt},
	}
	s := newVerificationService(t, db, &fakeRepoManager{codes: repo}, createdAt.Add(time.Minute))

	ok, err := s.Verify(context.Background(), "acc-1", models.PurposePasswordReset, "654321", true)
	if err != nil || ok {
		t.Fatalf("wrong candidate: want (false, nil), got (%v, %v)", ok, err)
	}
	if len(repo.deletedIDs) != 0 {
		t.Fatalf("wrong candidate must not consume the code: %v", repo.deletedIDs)
	}

	// a numerically equal candidate without the leading zeros is still wrong
	repo.getOut = &models.VerificationCode{ID: 8, AccountID: "acc-1", Code: "001234", CreatedAt: createdAt}
	ok, err = s.Verify(context.Background(), "acc-1", models.PurposePasswordReset, "1234", true)
	if err != nil || ok {
		t.Fatalf("stripped leading zeros: want (false, nil), got (%v, %v)", ok, err)
	}
	if len(repo.deletedIDs) != 0 {
		t.Fatalf("mismatch must not consume the code: %v", repo.deletedIDs)
	}
}

func TestVerify_Consume(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	createdAt := time.Now()
	repo := &fakeCodesRepo{
		getOut: &models.VerificationCode{ID: 7, AccountID: "acc-1", Code: "123456", CreatedAt: createdAt},
	}
	s := newVerificationService(t, db, &fakeRepoManager{codes: repo}, createdAt.Add(time.Minute))

	ok, err := s.Verify(context.Background(), "acc-1", models.PurposePasswordReset, "123456", true)
	if err != nil || !ok {
		t.Fatalf("consume: want (true, nil), got (%v, %v)", ok, err)
	}
	if len(repo.deletedIDs) != 1 || repo.deletedIDs[0] != 7 {
		t.Fatalf("code not consumed: %v", repo.deletedIDs)
	}

	// without consume the row stays
	repo.deletedIDs = nil
	ok, err = s.Verify(context.Background(), "acc-1", models.PurposePasswordReset, "123456", false)
	if err != nil || !ok {
		t.Fatalf("peek: want (true, nil), got (%v, %v)", ok, err)
	}
	if len(repo.deletedIDs) != 0 {
		t.Fatalf("peek must not consume the code: %v", repo.deletedIDs)
	}
}

func TestVerify_ConsumeDeleteErr(t *testing.T) {
	db, _ := newSQLMockDB(t)
	defer db.Close()

	createdAt := time.Now()
	repo := &fakeCodesRepo{
		getOut:    &models.VerificationCode{ID: 7, AccountID: "acc-1", Code: "123456", CreatedAt: createdAt},
		deleteErr: errBoom{},
	}
	s := newVerificationService(t, db, &fakeRepoManager{codes: repo}, createdAt.Add(time.Minute))

	ok, err := s.Verify(context.Background(), "acc-1", models.PurposePasswordReset, "123456", true)
	if ok || !errors.Is(err, errBoom{}) {
		t.Fatalf("want delete error, got (%v, %v)", ok, err)
	}
}
