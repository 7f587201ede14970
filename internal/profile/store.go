// Package profile persists versioned ICP profiles. History is
// append-only: saving a new profile supersedes the workspace's prior
// active version inside one transaction and never deletes anything.
package profile

import (
	"context"

	"github.com/sells-group/icp-discovery/internal/model"
)

// Store defines the persistence interface for discovered profiles.
type Store interface {
	// SaveProfile writes result as the workspace's new active profile
	// with the next monotonic version, marking the prior active version
	// superseded. The supersede+insert pair is a single transaction so
	// concurrent runs for the same workspace cannot interleave.
	SaveProfile(ctx context.Context, workspaceID string, result *model.DiscoveryResult) (*model.Profile, error)

	// ActiveProfile returns the workspace's active profile, or nil when
	// none exists.
	ActiveProfile(ctx context.Context, workspaceID string) (*model.Profile, error)

	// ListVersions returns all profile versions for a workspace, newest
	// first.
	ListVersions(ctx context.Context, workspaceID string) ([]model.Profile, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
