// Package orchestrators coordinates complex workflows across multiple domain services.
package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ochairo/reachstrap/internal/domain/entities"
	"github.com/ochairo/reachstrap/internal/domain/interfaces"
	"github.com/ochairo/reachstrap/internal/domain/interfaces/gateways"
	"github.com/ochairo/reachstrap/internal/domain/services"
)

// ArtifactLocator interface for finding the game jar
type ArtifactLocator interface {
	Locate(ctx context.Context, override string) (*entities.ArtifactDescriptor, error)
}

// VersionMarkerReader interface for reading the version embedded in the game jar
type VersionMarkerReader interface {
	ReadMarker(ctx context.Context, jarPath string) (*string, error)
}

// ClassPipelineFactory opens the class pipeline for a located game jar
type ClassPipelineFactory func(artifact *entities.ArtifactDescriptor, gameDir string) gateways.ClassPipeline

// LibraryLister lists the library jars of a directory in classpath order
type LibraryLister func(dir string) ([]string, error)

// LaunchConfig holds configuration for the coordinator
type LaunchConfig struct {
	GameDir        string // default for --gameDir
	GameJar        string // locate override
	HooksJar       string
	ExtraClasspath []string
	Patches        []entities.InstructionPatch
	Sanitization   entities.SanitizationRule
	DebugToggle    func()
}

// LaunchCoordinator drives one launch through the state machine
// Idle -> Located -> Versioned -> PatchRegistered -> ClasspathUnlocked -> Launched.
// Any failure moves it to Crashed; nothing is retried.
type LaunchCoordinator struct {
	locator   ArtifactLocator
	marker    VersionMarkerReader
	pipelines ClassPipelineFactory
	libraries LibraryLister
	invoker   gateways.EntryPointInvoker
	resolver  *services.VersionResolver
	patcher   *services.MethodPatcher
	config    LaunchConfig
	logger    interfaces.Logger

	runID     string
	state     entities.LaunchState
	version   entities.VersionCell
	artifact  *entities.ArtifactDescriptor
	classpath []string
	arguments []string
}

// NewLaunchCoordinator creates a new launch coordinator
func NewLaunchCoordinator(
	locator ArtifactLocator,
	marker VersionMarkerReader,
	pipelines ClassPipelineFactory,
	libraries LibraryLister,
	invoker gateways.EntryPointInvoker,
	config LaunchConfig,
	logger interfaces.Logger,
) *LaunchCoordinator {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	if config.GameDir == "" {
		config.GameDir = "."
	}
	if config.Patches == nil {
		config.Patches = []entities.InstructionPatch{entities.DefaultRenderPatch}
	}
	if config.Sanitization == nil {
		config.Sanitization = entities.DefaultSanitizationRule
	}

	runID := uuid.NewString()
	logger = logger.With(interfaces.F("run_id", runID))

	return &LaunchCoordinator{
		locator:   locator,
		marker:    marker,
		pipelines: pipelines,
		libraries: libraries,
		invoker:   invoker,
		resolver:  services.NewVersionResolver(logger),
		patcher:   services.NewMethodPatcher(logger),
		config:    config,
		logger:    logger,
		runID:     runID,
		state:     entities.StateIdle,
	}
}

// State returns the current launch state
func (c *LaunchCoordinator) State() entities.LaunchState { return c.state }

// RunID returns the identifier attached to this launch's log lines
func (c *LaunchCoordinator) RunID() string { return c.runID }

// Artifact returns the located game jar, or nil before discovery
func (c *LaunchCoordinator) Artifact() *entities.ArtifactDescriptor { return c.artifact }

// Version returns the resolved game version, or nil before resolution
func (c *LaunchCoordinator) Version() *entities.ResolvedVersion { return c.version.Get() }

// Classpath returns the assembled classpath, or nil before assembly
func (c *LaunchCoordinator) Classpath() []string { return c.classpath }

// Arguments returns the arguments forwarded to the entry point
func (c *LaunchCoordinator) Arguments() []string { return c.arguments }

// Module describes the game as a built-in module once the version is known
func (c *LaunchCoordinator) Module() *entities.BuiltinModule {
	if c.artifact == nil || c.version.Get() == nil {
		return nil
	}
	return services.BuildBuiltinModule(c.artifact, c.version.Get())
}

// Discover locates the game jar and resolves its version
func (c *LaunchCoordinator) Discover(ctx context.Context) (*entities.ArtifactDescriptor, *entities.ResolvedVersion, error) {
	if c.state != entities.StateIdle {
		return nil, nil, fmt.Errorf("launch already started (state %s)", c.state)
	}

	// Step 1: Locate the game jar
	artifact, err := c.locator.Locate(ctx, c.config.GameJar)
	if err != nil {
		return nil, nil, c.fail(entities.PhaseDiscovery, err)
	}
	c.artifact = artifact
	c.advance(entities.StateLocated)
	c.logger.Info("Located game jar",
		interfaces.F("path", artifact.ArtifactPath),
		interfaces.F("source", artifact.Source),
		interfaces.F("entry", artifact.EntryClassName))

	// Step 2: Resolve the version, marker first
	marker, err := c.marker.ReadMarker(ctx, artifact.ArtifactPath)
	if err != nil {
		return nil, nil, c.fail(entities.PhaseVersion, err)
	}
	version, err := c.resolver.Resolve(marker, artifact.DeclaredVersion)
	if err != nil {
		return nil, nil, c.fail(entities.PhaseVersion, err)
	}
	if err := c.version.Set(version); err != nil {
		return nil, nil, c.fail(entities.PhaseVersion, err)
	}
	c.advance(entities.StateVersioned)
	c.logger.Info("Resolved game version",
		interfaces.F("version", version.String()),
		interfaces.F("source", version.Source))

	return artifact, version, nil
}

// Run performs the whole launch and blocks until the game exits
func (c *LaunchCoordinator) Run(ctx context.Context, args []string) error {
	c.logger.Info("Launching Cosmic Reach",
		interfaces.F("args", services.SanitizeArguments(args, c.config.Sanitization, c.config.DebugToggle)))

	artifact, version, err := c.Discover(ctx)
	if err != nil {
		return err
	}
	module := services.BuildBuiltinModule(artifact, version)
	c.logger.Debug("Registered built-in module",
		interfaces.F("id", module.ID),
		interfaces.F("version", module.Version))

	launchArgs, gameDir, err := c.launchArguments(args)
	if err != nil {
		return c.fail(entities.PhaseClasspath, err)
	}

	// Step 3: Patch registration
	pipeline := c.pipelines(artifact, gameDir)
	if err := c.registerPatches(ctx, artifact, pipeline); err != nil {
		return c.fail(entities.PhasePatch, err)
	}
	c.advance(entities.StatePatchRegistered)

	// Step 4: Classpath unlock
	classpath, err := c.assembleClasspath(artifact, pipeline, gameDir)
	if err != nil {
		return c.fail(entities.PhaseClasspath, err)
	}
	c.classpath = classpath
	c.arguments = launchArgs
	c.advance(entities.StateClasspathUnlocked)

	// Step 5: Hand over to the game
	entry := entities.EntryPoint{Class: artifact.EntryClassName, Method: entities.MainMethod}
	if err := c.invoker.Invoke(ctx, entry, classpath, launchArgs); err != nil {
		return c.fail(entities.PhaseInvoke, err)
	}
	c.advance(entities.StateLaunched)
	return nil
}

// launchArguments inserts --gameDir when missing and returns the game directory
func (c *LaunchCoordinator) launchArguments(args []string) ([]string, string, error) {
	parsed := services.ParseLaunchArguments(args)
	gameDir, ok := parsed.Get("gameDir")
	if !ok || gameDir == "" {
		abs, err := filepath.Abs(c.config.GameDir)
		if err != nil {
			return nil, "", fmt.Errorf("failed to resolve game directory: %w", err)
		}
		gameDir = filepath.Clean(abs)
		parsed.Put("gameDir", gameDir)
	}
	c.logger.Info("Launch directory", interfaces.F("game_dir", gameDir))
	return parsed.ToArgs(), gameDir, nil
}

func (c *LaunchCoordinator) registerPatches(ctx context.Context, artifact *entities.ArtifactDescriptor, pipeline gateways.ClassPipeline) error {
	for _, patch := range c.config.Patches {
		if !patch.AppliesTo(artifact.EntryClassName) {
			c.logger.Warn("Skipping patch for foreign entry class",
				interfaces.F("patch", patch.Selector.String()),
				interfaces.F("entry", artifact.EntryClassName))
			continue
		}

		cf, err := pipeline.LoadClass(ctx, patch.Selector.Owner)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("%w: class %s is not in %s", entities.ErrMethodNotFound, patch.Selector.Owner, artifact.ArtifactPath)
			}
			return err
		}

		patched, err := c.patcher.Patch(cf, patch.Selector, patch)
		if err != nil {
			return err
		}
		if err := pipeline.Define(ctx, patch.Selector, patched); err != nil {
			return fmt.Errorf("failed to define patched %s: %w", patch.Selector.Owner, err)
		}
		c.logger.Info("Registered patch",
			interfaces.F("method", patch.Selector.String()),
			interfaces.F("hook", patch.Call.Owner+"."+patch.Call.Name))
	}
	return nil
}

// assembleClasspath orders the overlay, hooks jar, game jar, library jars
// and extra entries
func (c *LaunchCoordinator) assembleClasspath(artifact *entities.ArtifactDescriptor, pipeline gateways.ClassPipeline, gameDir string) ([]string, error) {
	classpath := append([]string(nil), pipeline.Classpath()...)

	if hooks := c.config.HooksJar; hooks != "" {
		if _, err := os.Stat(hooks); err != nil {
			return nil, fmt.Errorf("hooks jar: %w", err)
		}
		classpath = append(classpath, hooks)
	}

	classpath = append(classpath, artifact.ArtifactPath)

	if c.libraries != nil {
		libs, err := c.libraries(filepath.Join(gameDir, "lib"))
		if err != nil {
			return nil, err
		}
		classpath = append(classpath, libs...)
	}

	classpath = append(classpath, c.config.ExtraClasspath...)
	c.logger.Debug("Classpath unlocked", interfaces.F("entries", len(classpath)))
	return classpath, nil
}

func (c *LaunchCoordinator) advance(next entities.LaunchState) {
	c.logger.Debug("Launch state changed",
		interfaces.F("from", c.state.String()),
		interfaces.F("to", next.String()))
	c.state = next
}

func (c *LaunchCoordinator) fail(phase entities.Phase, err error) error {
	c.advance(entities.StateCrashed)
	c.logger.Error("Launch failed", interfaces.F("phase", string(phase)), interfaces.F("error", err))
	return &entities.PhaseError{Phase: phase, Err: err}
}
