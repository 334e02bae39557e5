package models

import "time"

// Visibility is the publication state of a project or version.
type Visibility string

const (
	VisibilityPublic        Visibility = "public"
	VisibilityNew           Visibility = "new"
	VisibilityNeedsChanges  Visibility = "needsChanges"
	VisibilityNeedsApproval Visibility = "needsApproval"
	VisibilitySoftDelete    Visibility = "softDelete"
)

// Project is the parent of versioned artifacts. A public project must keep at
// least one public version; the rule is enforced on the transition that would
// break it.
type Project struct {
	ID         int64
	OwnerName  string
	Slug       string
	Name       string
	Visibility Visibility
	CreatedAt  time.Time
}
