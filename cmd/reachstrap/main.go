package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ochairo/reachstrap/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/reachstrap/internal/domain-orchestrators"
	"github.com/ochairo/reachstrap/internal/domain/entities"
	gw "github.com/ochairo/reachstrap/internal/domain/interfaces/gateways"
	"github.com/ochairo/reachstrap/internal/domain/interfaces/repositories"
	"github.com/ochairo/reachstrap/internal/external-adapters/profile"
	"github.com/ochairo/reachstrap/internal/external-adapters/zaplog"
)

// app carries global flags and shared collaborators between subcommands
type app struct {
	profilePath string
	appDir      string
	gameJar     string
	verbose     bool

	profiles repositories.ProfileRepository
	logger   *zaplog.Logger
	out      io.Writer
	errOut   io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	a := &app{profiles: profile.NewRepository(), out: os.Stdout, errOut: os.Stderr}
	err := newRootCmd(a).ExecuteContext(ctx)
	stop()

	if a.logger != nil {
		_ = a.logger.Sync()
	}
	os.Exit(exitCode(a.errOut, err))
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "reachstrap",
		Short: "Bootstrap launcher for Cosmic Reach",
		Long: `reachstrap locates the Cosmic Reach game jar, resolves its version,
installs the render hook and starts the game in a child JVM.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.logger != nil {
				return nil
			}
			logger, err := zaplog.New(a.verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.logger = logger
			return nil
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	root.PersistentFlags().StringVarP(&a.profilePath, "profile", "p", "", "Launch profile (.yaml or .toml, or set "+profile.EnvProfile+")")
	root.PersistentFlags().StringVar(&a.appDir, "app-dir", "", "Directory holding the game jar and jpackage files")
	root.PersistentFlags().StringVar(&a.gameJar, "game-jar", "", "Explicit game jar path (or set "+profile.EnvGameJar+")")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newLaunchCmd(a))
	root.AddCommand(newLocateCmd(a))
	root.AddCommand(newPatchCmd(a))
	root.AddCommand(newMetadataCmd(a))
	root.AddCommand(newSanitizeCmd(a))
	return root
}

// exitCode reports err and maps it to a process exit status. A game that
// crashed after starting passes its own exit status through.
func exitCode(w io.Writer, err error) int {
	if err == nil {
		return 0
	}

	var failure *entities.EntryPointInvocationFailure
	if errors.As(err, &failure) && failure.Started {
		fmt.Fprintln(w, failure.Error())
		if failure.ExitCode > 0 {
			return failure.ExitCode
		}
		return 1
	}

	fmt.Fprintf(w, "Error: %v\n", err)
	return 1
}

// loadProfile merges the profile with the global flags
func (a *app) loadProfile(cmd *cobra.Command) (*entities.LaunchProfile, error) {
	p, err := a.profiles.Load(cmd.Context(), a.profilePath)
	if err != nil {
		return nil, err
	}
	if a.appDir != "" {
		p.AppDir = a.appDir
	}
	if a.gameJar != "" {
		p.GameJar = a.gameJar
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Development {
		a.logger.EnableDebug()
	}
	return p, nil
}

// resolveAppDir anchors a relative app directory at the game directory
func resolveAppDir(p *entities.LaunchProfile) string {
	if filepath.IsAbs(p.AppDir) {
		return p.AppDir
	}
	return filepath.Join(p.GameDir, p.AppDir)
}

func (a *app) newCoordinator(p *entities.LaunchProfile, invoker gw.EntryPointInvoker) *orchestrators.LaunchCoordinator {
	locator := gateways.NewArtifactLocator(
		gateways.LocatorConfig{AppDir: resolveAppDir(p), Verify: p.Verify},
		gateways.NewIntegrityGateway(),
		a.logger,
	)

	pipelines := func(artifact *entities.ArtifactDescriptor, gameDir string) gw.ClassPipeline {
		dir := p.OverlayDir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(gameDir, dir)
		}
		return gateways.NewOverlayJarPipeline(artifact.ArtifactPath, dir, a.logger)
	}

	return orchestrators.NewLaunchCoordinator(
		locator,
		gateways.NewVersionMarkerReader(a.logger),
		pipelines,
		gateways.LibraryJars,
		invoker,
		orchestrators.LaunchConfig{
			GameDir:        p.GameDir,
			GameJar:        p.GameJar,
			HooksJar:       p.HooksJar,
			ExtraClasspath: p.ExtraClasspath,
			DebugToggle:    a.logger.EnableDebug,
		},
		a.logger,
	)
}
