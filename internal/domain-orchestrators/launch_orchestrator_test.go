package orchestrators

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ochairo/reachstrap/internal/classfile"
	"github.com/ochairo/reachstrap/internal/domain-adapters/gateways"
	"github.com/ochairo/reachstrap/internal/domain/entities"
	gw "github.com/ochairo/reachstrap/internal/domain/interfaces/gateways"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// Mock implementations for testing
type mockLocator struct {
	artifact *entities.ArtifactDescriptor
	err      error
	override string
}

func (m *mockLocator) Locate(_ context.Context, override string) (*entities.ArtifactDescriptor, error) {
	m.override = override
	return m.artifact, m.err
}

type mockMarker struct {
	version *string
	err     error
}

func (m *mockMarker) ReadMarker(_ context.Context, _ string) (*string, error) {
	return m.version, m.err
}

type mockPipeline struct {
	classes map[string]*classfile.ClassFile
	defined []entities.MethodSelector
	err     error
}

func (m *mockPipeline) LoadClass(_ context.Context, internalName string) (*classfile.ClassFile, error) {
	cf, ok := m.classes[internalName]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", internalName, fs.ErrNotExist)
	}
	return cf, nil
}

func (m *mockPipeline) Define(_ context.Context, target entities.MethodSelector, _ *classfile.ClassFile) error {
	if m.err != nil {
		return m.err
	}
	m.defined = append(m.defined, target)
	return nil
}

func (m *mockPipeline) Classpath() []string {
	if len(m.defined) == 0 {
		return nil
	}
	return []string{"overlay.jar"}
}

type mockInvoker struct {
	entry     entities.EntryPoint
	classpath []string
	args      []string
	err       error
}

func (m *mockInvoker) Invoke(_ context.Context, entry entities.EntryPoint, classpath, args []string) error {
	m.entry, m.classpath, m.args = entry, classpath, args
	return m.err
}

func strPtr(s string) *string { return &s }

func blockGame(t *testing.T) *classfile.ClassFile {
	t.Helper()
	cf, err := classfile.NewClass(entities.DefaultRenderPatch.Selector.Owner, "java/lang/Object")
	require.NoError(t, err)
	require.NoError(t, cf.AddMethod(classfile.AccPublic, "render", "()V",
		&classfile.Code{Instructions: []classfile.Instruction{{Op: classfile.OpReturn}}}))
	return cf
}

type harness struct {
	locator  *mockLocator
	marker   *mockMarker
	pipeline *mockPipeline
	invoker  *mockInvoker
	config   LaunchConfig
}

func newHarness(t *testing.T) *harness {
	return &harness{
		locator: &mockLocator{artifact: &entities.ArtifactDescriptor{
			ArtifactPath:    "/games/cr/app/Cosmic Reach-0.3.2.jar",
			EntryClassName:  entities.DefaultEntryClass,
			DeclaredVersion: strPtr("0.3.2"),
			Source:          entities.SourceConfig,
		}},
		marker: &mockMarker{version: strPtr("0.3.2-alpha")},
		pipeline: &mockPipeline{classes: map[string]*classfile.ClassFile{
			entities.DefaultRenderPatch.Selector.Owner: blockGame(t),
		}},
		invoker: &mockInvoker{},
		config:  LaunchConfig{GameDir: "/games/cr"},
	}
}

func (h *harness) coordinator() *LaunchCoordinator {
	return NewLaunchCoordinator(
		h.locator,
		h.marker,
		func(*entities.ArtifactDescriptor, string) gw.ClassPipeline { return h.pipeline },
		func(dir string) ([]string, error) { return []string{filepath.Join(dir, "gdx.jar")}, nil },
		h.invoker,
		h.config,
		nil,
	)
}

func TestLaunchCoordinator_Run_Success(t *testing.T) {
	h := newHarness(t)
	h.config.GameJar = "/override.jar"
	h.config.ExtraClasspath = []string{"mods/extra.jar"}

	var toggles int
	h.config.DebugToggle = func() { toggles++ }

	c := h.coordinator()
	assert.Equal(t, entities.StateIdle, c.State())
	assert.NotEmpty(t, c.RunID())

	err := c.Run(context.Background(), []string{"--debug", "1", "--savedir", "/secret"})
	require.NoError(t, err)

	assert.Equal(t, entities.StateLaunched, c.State())
	assert.Equal(t, "/override.jar", h.locator.override)
	assert.Equal(t, 1, toggles)
	assert.Equal(t, "0.3.2-alpha", c.Version().String())
	assert.Equal(t, entities.VersionFromMarker, c.Version().Source)
	assert.Equal(t, "0.3.2-alpha", c.Module().Version)

	assert.Equal(t, []entities.MethodSelector{entities.DefaultRenderPatch.Selector}, h.pipeline.defined)
	assert.Equal(t, entities.EntryPoint{Class: entities.DefaultEntryClass, Method: "main"}, h.invoker.entry)
	assert.Equal(t, []string{
		"overlay.jar",
		"/games/cr/app/Cosmic Reach-0.3.2.jar",
		filepath.Join("/games/cr", "lib", "gdx.jar"),
		"mods/extra.jar",
	}, h.invoker.classpath)

	gameDir, err := filepath.Abs("/games/cr")
	require.NoError(t, err)
	assert.Equal(t, []string{"--debug", "1", "--savedir", "/secret", "--gameDir", gameDir}, h.invoker.args,
		"the game still receives unsanitized arguments")
}

func TestLaunchCoordinator_Run_KeepsExplicitGameDir(t *testing.T) {
	h := newHarness(t)
	c := h.coordinator()

	require.NoError(t, c.Run(context.Background(), []string{"--gameDir", "saves/dev", "--username", "me"}))

	assert.Equal(t, []string{"--gameDir", "saves/dev", "--username", "me"}, h.invoker.args)
	assert.Contains(t, h.invoker.classpath, filepath.Join("saves/dev", "lib", "gdx.jar"))
}

func TestLaunchCoordinator_Run_ForwardsEmptyValues(t *testing.T) {
	h := newHarness(t)
	c := h.coordinator()

	args := []string{"--gameDir", "/g", "--username", "", "--fullscreen", "--width", "800", "positional"}
	require.NoError(t, c.Run(context.Background(), args))

	assert.Equal(t, args, h.invoker.args)
}

func TestLaunchCoordinator_Run_SkipsPatchForForeignEntry(t *testing.T) {
	h := newHarness(t)
	h.locator.artifact.EntryClassName = "com.example.Main"

	c := h.coordinator()
	require.NoError(t, c.Run(context.Background(), nil))

	assert.Empty(t, h.pipeline.defined)
	assert.Equal(t, "/games/cr/app/Cosmic Reach-0.3.2.jar", h.invoker.classpath[0], "no overlay without patches")
}

func TestLaunchCoordinator_Run_Failures(t *testing.T) {
	crash := &entities.EntryPointInvocationFailure{Started: true, ExitCode: 3, Err: errors.New("exit status 3")}

	tests := []struct {
		name      string
		mutate    func(t *testing.T, h *harness)
		wantPhase entities.Phase
		wantErr   error
		wantState entities.LaunchState
	}{
		{
			name:      "locator fails",
			mutate:    func(_ *testing.T, h *harness) { h.locator.artifact, h.locator.err = nil, entities.ErrArtifactNotFound },
			wantPhase: entities.PhaseDiscovery,
			wantErr:   entities.ErrArtifactNotFound,
		},
		{
			name: "no version anywhere",
			mutate: func(_ *testing.T, h *harness) {
				h.marker.version = nil
				h.locator.artifact.DeclaredVersion = nil
			},
			wantPhase: entities.PhaseVersion,
			wantErr:   entities.ErrNoVersionAvailable,
		},
		{
			name: "unparsable declared version",
			mutate: func(_ *testing.T, h *harness) {
				h.marker.version = nil
				h.locator.artifact.DeclaredVersion = strPtr("banana")
			},
			wantPhase: entities.PhaseVersion,
			wantErr:   entities.ErrVersionParse,
		},
		{
			name:      "target class missing",
			mutate:    func(_ *testing.T, h *harness) { h.pipeline.classes = nil },
			wantPhase: entities.PhasePatch,
			wantErr:   entities.ErrMethodNotFound,
		},
		{
			name: "ambiguous target",
			mutate: func(t *testing.T, h *harness) {
				cf := blockGame(t)
				require.NoError(t, cf.AddMethod(classfile.AccPublic, "render", "()V",
					&classfile.Code{Instructions: []classfile.Instruction{{Op: classfile.OpReturn}}}))
				h.pipeline.classes[entities.DefaultRenderPatch.Selector.Owner] = cf
			},
			wantPhase: entities.PhasePatch,
			wantErr:   entities.ErrAmbiguousMethod,
		},
		{
			name:      "hooks jar missing",
			mutate:    func(_ *testing.T, h *harness) { h.config.HooksJar = "/nonexistent/hooks.jar" },
			wantPhase: entities.PhaseClasspath,
			wantErr:   fs.ErrNotExist,
		},
		{
			name:      "game crashes",
			mutate:    func(_ *testing.T, h *harness) { h.invoker.err = crash },
			wantPhase: entities.PhaseInvoke,
			wantErr:   entities.ErrEntryPointInvocation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tt.mutate(t, h)
			c := h.coordinator()

			err := c.Run(context.Background(), nil)

			var phaseErr *entities.PhaseError
			require.ErrorAs(t, err, &phaseErr)
			assert.Equal(t, tt.wantPhase, phaseErr.Phase)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, entities.StateCrashed, c.State())
			assert.True(t, c.State().Terminal())
		})
	}
}

func TestLaunchCoordinator_RunsOnce(t *testing.T) {
	h := newHarness(t)
	c := h.coordinator()
	require.NoError(t, c.Run(context.Background(), nil))

	err := c.Run(context.Background(), nil)
	assert.Error(t, err)
	assert.Equal(t, entities.StateLaunched, c.State())
}

func TestLaunchCoordinator_Discover(t *testing.T) {
	h := newHarness(t)
	h.marker.version = strPtr("not a version")
	c := h.coordinator()

	artifact, version, err := c.Discover(context.Background())
	require.NoError(t, err)

	assert.Equal(t, entities.StateVersioned, c.State())
	assert.Same(t, h.locator.artifact, artifact)
	assert.Equal(t, "0.3.2", version.String())
	assert.Equal(t, entities.VersionFromDeclared, version.Source)
	assert.Nil(t, h.invoker.classpath, "discovery never launches")
}

// writeJar creates a jar holding the given entries
func writeJar(t *testing.T, path string, entries map[string][]byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, body := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(body)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func newRealCoordinator(gameDir, appDir string, invoker gw.EntryPointInvoker, config LaunchConfig) *LaunchCoordinator {
	config.GameDir = gameDir
	return NewLaunchCoordinator(
		gateways.NewArtifactLocator(gateways.LocatorConfig{AppDir: appDir}, nil, nil),
		gateways.NewVersionMarkerReader(nil),
		func(a *entities.ArtifactDescriptor, dir string) gw.ClassPipeline {
			return gateways.NewOverlayJarPipeline(a.ArtifactPath, filepath.Join(dir, ".reachstrap"), nil)
		},
		gateways.LibraryJars,
		invoker,
		config,
		nil,
	)
}

func TestLaunchCoordinator_EndToEnd_ManifestWinsOverConfig(t *testing.T) {
	gameDir := t.TempDir()
	appDir := filepath.Join(gameDir, "app")

	manifest := `<?xml version="1.0" ?>
<jpackage-state>
  <app-version>2.0.0</app-version>
  <main-launcher>Cosmic Reach</main-launcher>
  <main-class>com.example.Main</main-class>
</jpackage-state>`
	require.NoError(t, os.MkdirAll(appDir, 0750))
	require.NoError(t, os.WriteFile(filepath.Join(appDir, gateways.ManifestFile), []byte(manifest), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(appDir, gateways.ConfigFile),
		[]byte("app.classpath=$APPDIR\\cfg.jar\napp.mainclass=com.example.Other\njava-options=-Djpackage.app-version=1.0.0\n"), 0600))
	writeJar(t, filepath.Join(appDir, "Cosmic Reach-2.0.0.jar"), map[string][]byte{"com/example/Main.class": []byte("x")})
	writeJar(t, filepath.Join(appDir, "cfg.jar"), map[string][]byte{"com/example/Other.class": []byte("x")})

	invoker := &mockInvoker{}
	c := newRealCoordinator(gameDir, appDir, invoker, LaunchConfig{})
	require.NoError(t, c.Run(context.Background(), nil))

	assert.Equal(t, entities.SourceManifest, c.Artifact().Source)
	assert.Equal(t, "com.example.Main", invoker.entry.Class)
	assert.Equal(t, "2.0.0", c.Version().String())
	assert.Equal(t, entities.VersionFromDeclared, c.Version().Source)
	assert.Equal(t, []string{filepath.Join(appDir, "Cosmic Reach-2.0.0.jar")}, invoker.classpath)
}

func TestLaunchCoordinator_EndToEnd_PatchedLaunch(t *testing.T) {
	gameDir := t.TempDir()
	appDir := filepath.Join(gameDir, "app")
	gameJar := filepath.Join(appDir, gateways.FallbackJar)

	writeJar(t, gameJar, map[string][]byte{
		entities.ClassEntryName(entities.DefaultEntryClass): []byte("x"),
		"finalforeach/cosmicreach/BlockGame.class":          blockGame(t).Bytes(),
		gateways.VersionMarkerEntry:                         []byte("0.3.27\n"),
	})
	writeJar(t, filepath.Join(gameDir, "lib", "b.jar"), nil)
	writeJar(t, filepath.Join(gameDir, "lib", "a.jar"), nil)
	hooks := filepath.Join(gameDir, "hooks.jar")
	writeJar(t, hooks, nil)

	invoker := &mockInvoker{}
	c := newRealCoordinator(gameDir, appDir, invoker, LaunchConfig{HooksJar: hooks, ExtraClasspath: []string{"extra.jar"}})
	require.NoError(t, c.Run(context.Background(), []string{"--username", "me"}))

	overlay := filepath.Join(gameDir, ".reachstrap", gateways.OverlayJarName)
	assert.Equal(t, []string{
		overlay,
		hooks,
		gameJar,
		filepath.Join(gameDir, "lib", "a.jar"),
		filepath.Join(gameDir, "lib", "b.jar"),
		"extra.jar",
	}, invoker.classpath)
	assert.Equal(t, []string{"--username", "me", "--gameDir", gameDir}, invoker.args)
	assert.Equal(t, "0.3.27", c.Version().String())

	registry, err := gateways.ReadPatchRegistry(overlay)
	require.NoError(t, err)
	require.Len(t, registry.Patches, 1)
	assert.Equal(t, "render", registry.Patches[0].Method)

	data, err := gateways.ReadEntry(overlay, "finalforeach/cosmicreach/BlockGame.class")
	require.NoError(t, err)
	patched, err := classfile.Parse(data)
	require.NoError(t, err)
	code, err := patched.MethodCode(0)
	require.NoError(t, err)
	assert.Equal(t, classfile.OpInvokestatic, code.Instructions[0].Op)
}
