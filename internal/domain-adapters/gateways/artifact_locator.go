package gateways

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ochairo/reachstrap/internal/domain/entities"
	"github.com/ochairo/reachstrap/internal/domain/interfaces"
	"github.com/ochairo/reachstrap/internal/domain/interfaces/gateways"
)

// Candidate is what a locate strategy found before any checks ran
type Candidate struct {
	Path       string
	EntryClass string  // empty means the default launcher class
	Version    *string // declared version, if the source names one
}

// LocateStrategy is one way of finding the game jar.
//
// Attempt reports claimed=false when the strategy does not apply, letting the
// next strategy run. A claimed attempt ends the search even when the
// candidate carries no path.
type LocateStrategy interface {
	Name() string
	Attempt(ctx context.Context) (c *Candidate, claimed bool, err error)
}

// LocatorConfig contains configuration for the artifact locator
type LocatorConfig struct {
	AppDir string
	Verify entities.ArtifactVerification
}

// ArtifactLocator finds the game jar through an ordered strategy chain and
// checks the result.
type ArtifactLocator struct {
	appDir    string
	verify    entities.ArtifactVerification
	integrity gateways.IntegrityGateway
	logger    interfaces.Logger
}

// NewArtifactLocator creates a locator rooted at cfg.AppDir. A nil integrity
// gateway falls back to NewIntegrityGateway.
func NewArtifactLocator(cfg LocatorConfig, integrity gateways.IntegrityGateway, logger interfaces.Logger) *ArtifactLocator {
	if integrity == nil {
		integrity = NewIntegrityGateway()
	}
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &ArtifactLocator{
		appDir:    cfg.AppDir,
		verify:    cfg.Verify,
		integrity: integrity,
		logger:    logger,
	}
}

// Strategies returns the chain in priority order
func (l *ArtifactLocator) Strategies(override string) []LocateStrategy {
	manifest := &ManifestStrategy{AppDir: l.appDir}
	config := &ConfigStrategy{AppDir: l.appDir}
	return []LocateStrategy{
		&OverrideStrategy{Path: override, Informational: []LocateStrategy{manifest, config}},
		manifest,
		config,
		&FallbackStrategy{AppDir: l.appDir},
	}
}

// Locate runs the strategy chain. The first strategy to claim the launch
// decides the candidate; nothing is merged from later strategies.
func (l *ArtifactLocator) Locate(ctx context.Context, override string) (*entities.ArtifactDescriptor, error) {
	for _, strategy := range l.Strategies(override) {
		candidate, claimed, err := strategy.Attempt(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s strategy: %w", strategy.Name(), err)
		}
		if !claimed {
			l.logger.Debug("Locate strategy not applicable", interfaces.F("source", strategy.Name()))
			continue
		}
		l.logger.Info("Loading game jar data", interfaces.F("source", strategy.Name()))
		return l.describe(ctx, strategy.Name(), candidate)
	}
	return nil, entities.ErrNoStrategyApplicable
}

func (l *ArtifactLocator) describe(ctx context.Context, source string, c *Candidate) (*entities.ArtifactDescriptor, error) {
	if c == nil || c.Path == "" {
		return nil, fmt.Errorf("%w: %s strategy yielded no path", entities.ErrNoStrategyApplicable, source)
	}
	path := filepath.Clean(c.Path)

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (from %s strategy)", entities.ErrArtifactNotFound, path, source)
		}
		return nil, fmt.Errorf("%w: %s (from %s strategy): %w", entities.ErrArtifactNotFound, path, source, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory (from %s strategy)", entities.ErrArtifactNotFound, path, source)
	}

	if err := l.checkIntegrity(ctx, path); err != nil {
		return nil, err
	}

	entry := c.EntryClass
	if entry == "" {
		entry = entities.DefaultEntryClass
	}
	found, err := HasEntry(path, entities.ClassEntryName(entry))
	if err != nil {
		return nil, fmt.Errorf("failed to scan game jar %s: %w", path, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s in %s", entities.ErrEntryClassMissing, entry, path)
	}

	return &entities.ArtifactDescriptor{
		ArtifactPath:    path,
		EntryClassName:  entry,
		DeclaredVersion: c.Version,
		Source:          source,
	}, nil
}

func (l *ArtifactLocator) checkIntegrity(ctx context.Context, path string) error {
	if l.verify.SHA256 != "" {
		if err := l.integrity.VerifyChecksum(ctx, path, l.verify.SHA256); err != nil {
			return fmt.Errorf("%w: %w", entities.ErrArtifactIntegrity, err)
		}
		l.logger.Debug("Game jar checksum verified", interfaces.F("path", path))
	}
	if l.verify.Signature != "" {
		if err := l.integrity.VerifySignature(ctx, path, l.verify.Signature, l.verify.PublicKey); err != nil {
			return fmt.Errorf("%w: %w", entities.ErrArtifactIntegrity, err)
		}
		l.logger.Debug("Game jar signature verified", interfaces.F("path", path))
	}
	return nil
}
