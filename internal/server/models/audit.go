package models

import "time"

// AuditAction identifies the kind of lifecycle event being recorded.
type AuditAction string

const (
	ActionVersionDeleted           AuditAction = "version_deleted"
	ActionVersionRestored          AuditAction = "version_restored"
	ActionProjectVisibilityChanged AuditAction = "project_visibility_changed"
)

// AuditEntry is one append-only record of a lifecycle transition. VersionID is
// nil for project-level entries. PrevVisibility keeps the state the subject
// was in before the transition.
type AuditEntry struct {
	ID             int64
	Action         AuditAction
	ProjectID      int64
	VersionID      *int64
	Message        string
	PrevVisibility Visibility
	CreatedAt      time.Time
}
