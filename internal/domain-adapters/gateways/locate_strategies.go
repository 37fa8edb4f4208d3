package gateways

import (
	"context"
	"path/filepath"

	"github.com/ochairo/reachstrap/internal/domain/entities"
)

// FallbackJar is the jar name of the first itch.io releases
const FallbackJar = "Cosmic Reach-0.1.0.jar"

// OverrideStrategy uses an explicitly configured jar path. The path is
// trusted as is; the informational strategies only contribute the entry
// class and declared version.
type OverrideStrategy struct {
	Path          string
	Informational []LocateStrategy
}

// Name implements LocateStrategy
func (s *OverrideStrategy) Name() string { return entities.SourceOverride }

// Attempt implements LocateStrategy
func (s *OverrideStrategy) Attempt(ctx context.Context) (*Candidate, bool, error) {
	if s.Path == "" {
		return nil, false, nil
	}

	c := &Candidate{Path: s.Path}
	for _, info := range s.Informational {
		found, claimed, err := info.Attempt(ctx)
		if err != nil || !claimed {
			continue
		}
		c.EntryClass, c.Version = found.EntryClass, found.Version
		break
	}
	return c, true, nil
}

// FallbackStrategy always claims the launch with the historical jar name
type FallbackStrategy struct {
	AppDir string
}

// Name implements LocateStrategy
func (s *FallbackStrategy) Name() string { return entities.SourceFallback }

// Attempt implements LocateStrategy
func (s *FallbackStrategy) Attempt(_ context.Context) (*Candidate, bool, error) {
	return &Candidate{Path: filepath.Join(s.AppDir, FallbackJar)}, true, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
