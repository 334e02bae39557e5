package models

import "time"

// Platform tags the runtime a version was published for.
type Platform string

const (
	PlatformPaper     Platform = "paper"
	PlatformWaterfall Platform = "waterfall"
	PlatformVelocity  Platform = "velocity"
)

// Version is a published, versioned artifact belonging to a project. PostID
// optionally links an external discussion thread.
type Version struct {
	ID            int64
	ProjectID     int64
	VersionString string
	Visibility    Visibility
	PostID        *int64
	CreatedAt     time.Time
}

// Dependency is a platform-scoped dependency declaration of a version.
// ExternalURL is set when the dependency lives outside this registry.
type Dependency struct {
	Platform    Platform `json:"platform"`
	Name        string   `json:"name"`
	Required    bool     `json:"required"`
	ExternalURL *string  `json:"external_url,omitempty"`
}
