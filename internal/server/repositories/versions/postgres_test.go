package versions

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lodeworks/quarry/internal/common"
	"github.com/lodeworks/quarry/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestGet_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "project_id", "version_string", "visibility", "post_id", "created_at"}).
		AddRow(int64(1), int64(10), "1.2.0", string(models.VisibilityPublic), nil, time.Now())

	mock.ExpectQuery(`FROM\s+project_versions\s+WHERE\s+id`).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	version, err := repo.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if version.VersionString != "1.2.0" || version.PostID != nil {
		t.Fatalf("unexpected version: %+v", version)
	}
}

func TestGet_Missing(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+project_versions\s+WHERE\s+id`).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), 99)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListByProject(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "project_id", "version_string", "visibility", "post_id", "created_at"}).
		AddRow(int64(1), int64(10), "1.0.0", string(models.VisibilityPublic), nil, time.Now()).
		AddRow(int64(2), int64(10), "1.1.0", string(models.VisibilitySoftDelete), nil, time.Now())

	mock.ExpectQuery(`FROM\s+project_versions\s+WHERE\s+project_id`).
		WithArgs(int64(10)).
		WillReturnRows(rows)

	list, err := repo.ListByProject(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 || list[1].Visibility != models.VisibilitySoftDelete {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestUpdateVisibility_MissingIsNotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+project_versions\s+SET\s+visibility`).
		WithArgs(int64(99), string(models.VisibilitySoftDelete)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateVisibility(context.Background(), 99, models.VisibilitySoftDelete)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPlatforms(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"platform"}).
		AddRow(string(models.PlatformPaper)).
		AddRow(string(models.PlatformVelocity))

	mock.ExpectQuery(`FROM\s+project_version_platforms`).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	platforms, err := repo.Platforms(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(platforms) != 2 || platforms[0] != models.PlatformPaper {
		t.Fatalf("unexpected platforms: %v", platforms)
	}
}

func TestDependencies(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	url := "https://example.com/worldedit"
	rows := sqlmock.NewRows([]string{"platform", "name", "required", "external_url"}).
		AddRow(string(models.PlatformPaper), "worldedit", true, url).
		AddRow(string(models.PlatformVelocity), "floodgate", false, nil)

	mock.ExpectQuery(`SELECT\s+platform,\s*name,\s*required,\s*external_url\s+FROM\s+project_version_dependencies`).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	deps, err := repo.Dependencies(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(deps) != 2 {
		t.Fatalf("expected 2 dependencies, got %d", len(deps))
	}
	if deps[0].Name != "worldedit" || !deps[0].Required || deps[0].ExternalURL == nil || *deps[0].ExternalURL != url {
		t.Fatalf("unexpected dependency: %+v", deps[0])
	}
	if deps[1].Platform != models.PlatformVelocity || deps[1].ExternalURL != nil {
		t.Fatalf("unexpected dependency: %+v", deps[1])
	}
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`DELETE\s+FROM\s+project_versions`).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Delete(context.Background(), 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSetPostID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`UPDATE\s+project_versions\s+SET\s+post_id`).
		WithArgs(int64(1), int64(555)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SetPostID(context.Background(), 1, 555); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
