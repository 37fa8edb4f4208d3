package entities

import (
	"errors"

	"github.com/Masterminds/semver/v3"
)

// Version sources
const (
	VersionFromMarker   = "marker"
	VersionFromDeclared = "declared"
)

// ResolvedVersion is the normalized game version
type ResolvedVersion struct {
	*semver.Version
	Raw    string
	Source string
}

// ErrVersionAlreadySet is returned when a VersionCell is written twice
var ErrVersionAlreadySet = errors.New("game version already resolved")

// VersionCell holds the game version for the lifetime of a launch.
// It accepts exactly one value.
type VersionCell struct {
	v *ResolvedVersion
}

// Set stores v unless a version is already present
func (c *VersionCell) Set(v *ResolvedVersion) error {
	if v == nil {
		return nil
	}
	if c.v != nil {
		return ErrVersionAlreadySet
	}
	c.v = v
	return nil
}

// Get returns the stored version, or nil before resolution
func (c *VersionCell) Get() *ResolvedVersion {
	return c.v
}
