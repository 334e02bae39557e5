// Package storage gives the server access to published version artifacts in
// object storage.
package storage

import (
	"context"

	"github.com/lodeworks/quarry/internal/server/models"
)

// ArtifactStore exposes the artifact operations the lifecycle needs. Each call
// reports its own success or failure; the caller decides how to combine them.
type ArtifactStore interface {
	// DeleteVersionDir removes every object under the directory of one
	// (owner, project, version, platform) coordinate.
	DeleteVersionDir(ctx context.Context, ownerName, slug, versionString string, platform models.Platform) error
}
