package services

import (
	"context"
	"database/sql"

	"github.com/lodeworks/quarry/internal/common"
	"github.com/lodeworks/quarry/internal/dbx"
	"github.com/lodeworks/quarry/internal/logging"
	"github.com/lodeworks/quarry/internal/server/models"
	"github.com/lodeworks/quarry/internal/server/repositories/repomanager"
	"github.com/lodeworks/quarry/internal/server/storage"
)

// VersionService drives the visibility lifecycle of project versions:
// soft delete, restore, and the terminal hard delete that also removes the
// published artifacts.
type VersionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	files       storage.ArtifactStore
	log         logging.Logger
}

func NewVersionService(db *sql.DB, m repomanager.RepositoryManager, files storage.ArtifactStore, log logging.Logger) *VersionService {
	return &VersionService{
		db:          db,
		repomanager: m,
		files:       files,
		log:         log,
	}
}

// Get resolves a version and applies the read-visibility rule for the given
// permissions. Invisible versions are indistinguishable from absent ones.
func (s *VersionService) Get(ctx context.Context, versionID int64, perms models.Permission) (*models.Version, error) {
	version, err := s.repomanager.Versions(s.db).Get(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if !perms.CanSee(version.Visibility) {
		return nil, common.ErrNotFound
	}
	return version, nil
}

// Project resolves a project by its owner/slug coordinate under the same
// visibility rule as Get.
func (s *VersionService) Project(ctx context.Context, ownerName, slug string, perms models.Permission) (*models.Project, error) {
	project, err := s.repomanager.Projects(s.db).GetBySlug(ctx, ownerName, slug)
	if err != nil {
		return nil, err
	}
	if !perms.CanSee(project.Visibility) {
		return nil, common.ErrNotFound
	}
	return project, nil
}

func countPublic(versions []*models.Version) int {
	n := 0
	for _, v := range versions {
		if v.Visibility == models.VisibilityPublic {
			n++
		}
	}
	return n
}

// SoftDelete hides a version. Already soft-deleted versions are a no-op.
// Deleting the only public version of a project fails with
// common.ErrLastPublicVersion. The count-then-write runs serializable: under
// read committed two racing deletes of the last two public versions would
// each count the other as remaining and both pass the check.
func (s *VersionService) SoftDelete(ctx context.Context, projectID, versionID int64, comment string) error {
	opts := &sql.TxOptions{Isolation: sql.LevelSerializable}
	return dbx.WithTx(ctx, s.db, opts, func(ctx context.Context, tx dbx.DBTX) error {
		versionRepo := s.repomanager.Versions(tx)

		version, err := versionRepo.Get(ctx, versionID)
		if err != nil {
			return err
		}
		if version.Visibility == models.VisibilitySoftDelete {
			return nil
		}

		if version.Visibility == models.VisibilityPublic {
			all, err := versionRepo.ListByProject(ctx, projectID)
			if err != nil {
				return err
			}
			if countPublic(all) <= 1 {
				return common.ErrLastPublicVersion
			}
		}

		oldVisibility := version.Visibility
		if err := versionRepo.UpdateVisibility(ctx, versionID, models.VisibilitySoftDelete); err != nil {
			return err
		}
		return s.repomanager.Audit(tx).Append(ctx, &models.AuditEntry{
			Action:         models.ActionVersionDeleted,
			ProjectID:      projectID,
			VersionID:      &versionID,
			Message:        "Soft Delete: " + comment,
			PrevVisibility: oldVisibility,
		})
	})
}

// Restore brings a soft-deleted version back to public. Any other state is a
// no-op.
func (s *VersionService) Restore(ctx context.Context, projectID, versionID int64) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		versionRepo := s.repomanager.Versions(tx)

		version, err := versionRepo.Get(ctx, versionID)
		if err != nil {
			return err
		}
		if version.Visibility != models.VisibilitySoftDelete {
			return nil
		}

		if err := versionRepo.UpdateVisibility(ctx, versionID, models.VisibilityPublic); err != nil {
			return err
		}
		return s.repomanager.Audit(tx).Append(ctx, &models.AuditEntry{
			Action:         models.ActionVersionRestored,
			ProjectID:      projectID,
			VersionID:      &versionID,
			Message:        "Version Restored",
			PrevVisibility: models.VisibilitySoftDelete,
		})
	})
}

// HardDelete permanently removes a version: row, platform tags, and on-disk
// artifacts. No invariant blocks it; if the project would be left public with
// no public version, its visibility is reset to new with its own audit entry.
// Artifact deletion is best-effort per platform: a failing platform is logged
// and does not stop the others or the row delete.
func (s *VersionService) HardDelete(ctx context.Context, project *models.Project, version *models.Version, comment string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		versionRepo := s.repomanager.Versions(tx)
		auditRepo := s.repomanager.Audit(tx)

		all, err := versionRepo.ListByProject(ctx, project.ID)
		if err != nil {
			return err
		}
		hasOtherPublic := false
		for _, v := range all {
			if v.ID != version.ID && v.Visibility == models.VisibilityPublic {
				hasOtherPublic = true
				break
			}
		}

		if !hasOtherPublic && project.Visibility == models.VisibilityPublic {
			if err := s.repomanager.Projects(tx).UpdateVisibility(ctx, project.ID, models.VisibilityNew); err != nil {
				return err
			}
			if err := auditRepo.Append(ctx, &models.AuditEntry{
				Action:         models.ActionProjectVisibilityChanged,
				ProjectID:      project.ID,
				Message:        "Visibility reset to new because no public versions exist",
				PrevVisibility: project.Visibility,
			}); err != nil {
				return err
			}
		}

		if err := auditRepo.Append(ctx, &models.AuditEntry{
			Action:         models.ActionVersionDeleted,
			ProjectID:      project.ID,
			VersionID:      &version.ID,
			Message:        "Deleted: " + comment,
			PrevVisibility: version.Visibility,
		}); err != nil {
			return err
		}

		platforms, err := versionRepo.Platforms(ctx, version.ID)
		if err != nil {
			return err
		}
		for _, platform := range platforms {
			if err := s.files.DeleteVersionDir(ctx, project.OwnerName, project.Slug, version.VersionString, platform); err != nil {
				s.log.Warn(ctx, "artifact directory deletion failed",
					"project", project.Slug, "version", version.VersionString,
					"platform", platform, "error", err)
			}
		}

		return versionRepo.Delete(ctx, version.ID)
	})
}

// Dependencies lists a version's platform-scoped dependency declarations.
func (s *VersionService) Dependencies(ctx context.Context, versionID int64) ([]models.Dependency, error) {
	return s.repomanager.Versions(s.db).Dependencies(ctx, versionID)
}

// AuditLog returns a project's lifecycle history in insertion order.
func (s *VersionService) AuditLog(ctx context.Context, projectID int64) ([]models.AuditEntry, error) {
	return s.repomanager.Audit(s.db).ListByProject(ctx, projectID)
}

// SaveExternalPost links an external discussion post to a version. No
// state-machine involvement.
func (s *VersionService) SaveExternalPost(ctx context.Context, versionID, postID int64) error {
	return s.repomanager.Versions(s.db).SetPostID(ctx, versionID, postID)
}
