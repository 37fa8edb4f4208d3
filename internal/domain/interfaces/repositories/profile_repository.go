// Package repositories defines interfaces for data access layers.
package repositories

import (
	"context"

	"github.com/ochairo/reachstrap/internal/domain/entities"
)

// ProfileRepository loads launch profiles
type ProfileRepository interface {
	// Load reads the profile at path on top of the defaults. An empty path
	// returns the defaults.
	Load(ctx context.Context, path string) (*entities.LaunchProfile, error)
}
