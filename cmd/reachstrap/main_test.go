package main

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/ochairo/reachstrap/internal/classfile"
	"github.com/ochairo/reachstrap/internal/domain/entities"
	"github.com/ochairo/reachstrap/internal/domain/services"
	"github.com/ochairo/reachstrap/internal/external-adapters/profile"
	"github.com/ochairo/reachstrap/internal/external-adapters/zaplog"
)

func newTestApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()
	t.Setenv(profile.EnvProfile, "")
	t.Setenv(profile.EnvGameJar, "")
	t.Setenv(profile.EnvDevelopment, "")

	out := &bytes.Buffer{}
	logger := zaplog.NewWithCore(zapcore.NewNopCore(), zap.NewAtomicLevelAt(zapcore.InfoLevel))
	return &app{profiles: profile.NewRepository(), logger: logger, out: out, errOut: io.Discard}, out
}

func execute(a *app, args ...string) error {
	root := newRootCmd(a)
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

// install lays out a jpackage-style game directory and returns the profile path
func install(t *testing.T) (profilePath, gameDir, jar string) {
	t.Helper()
	gameDir = t.TempDir()
	appDir := filepath.Join(gameDir, "app")
	require.NoError(t, os.MkdirAll(appDir, 0o755))

	jar = filepath.Join(appDir, "game.jar")
	f, err := os.Create(jar)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range map[string]string{
		"com/example/Main.class":   "\xca\xfe\xba\xbe",
		"build_assets/version.txt": "0.3.2\n",
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	cfg := "[Application]\napp.classpath=$APPDIR\\game.jar\napp.mainclass=com.example.Main\n\n" +
		"[JavaOptions]\njava-options=-Djpackage.app-version=0.3.1\n"
	require.NoError(t, os.WriteFile(filepath.Join(appDir, "Cosmic Reach.cfg"), []byte(cfg), 0o644))

	profilePath = filepath.Join(gameDir, "reachstrap.yaml")
	data, err := yaml.Marshal(map[string]any{
		"game_dir": gameDir,
		"jvm_args": []string{"-Xmx2G"},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(profilePath, data, 0o644))
	return profilePath, gameDir, jar
}

func TestSanitizeCommand(t *testing.T) {
	a, out := newTestApp(t)

	err := execute(a, "sanitize", "--", "--savedir", "/home/me/saves", "--debug", "1", "--width", "800")
	require.NoError(t, err)
	assert.Equal(t, "--width 800\ndebug logging would be enabled\n", out.String())
}

func TestSanitizeCommand_UpperCaseDebugIsHiddenOnly(t *testing.T) {
	a, out := newTestApp(t)

	require.NoError(t, execute(a, "sanitize", "--", "--DEBUG", "1", "--width", "800"))
	assert.Equal(t, "--width 800\n", out.String())
}

func TestLocateCommand(t *testing.T) {
	a, out := newTestApp(t)
	profilePath, _, jar := install(t)

	require.NoError(t, execute(a, "--profile", profilePath, "locate"))

	var report locateReport
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &report))

	data, err := os.ReadFile(jar)
	require.NoError(t, err)
	sum := sha256.Sum256(data)

	assert.Equal(t, jar, report.Path)
	assert.Equal(t, entities.SourceConfig, report.Source)
	assert.Equal(t, "com.example.Main", report.EntryClass)
	require.NotNil(t, report.DeclaredVersion)
	assert.Equal(t, "0.3.1", *report.DeclaredVersion)
	assert.Equal(t, "0.3.2", report.Version)
	assert.Equal(t, entities.VersionFromMarker, report.VersionSource)
	assert.Equal(t, hex.EncodeToString(sum[:]), report.SHA256)
}

func TestLocateCommand_GameJarFlagMissingFile(t *testing.T) {
	a, _ := newTestApp(t)
	profilePath, gameDir, _ := install(t)

	err := execute(a, "--profile", profilePath, "--game-jar", filepath.Join(gameDir, "nope.jar"), "locate")

	var phaseErr *entities.PhaseError
	require.ErrorAs(t, err, &phaseErr)
	assert.Equal(t, entities.PhaseDiscovery, phaseErr.Phase)
	assert.ErrorIs(t, err, entities.ErrArtifactNotFound)
}

func TestMetadataCommand(t *testing.T) {
	a, out := newTestApp(t)
	profilePath, _, jar := install(t)

	require.NoError(t, execute(a, "--profile", profilePath, "metadata", "--json"))

	var module entities.BuiltinModule
	require.NoError(t, json.Unmarshal(out.Bytes(), &module))
	assert.Equal(t, services.GameID, module.ID)
	assert.Equal(t, "0.3.2", module.Version)
	assert.Equal(t, []string{jar}, module.Paths)
}

func TestLaunchCommand_DryRun(t *testing.T) {
	a, out := newTestApp(t)
	profilePath, gameDir, jar := install(t)

	require.NoError(t, execute(a, "--profile", profilePath, "launch", "--dry-run", "--", "--savedir", "saves"))

	line := strings.TrimSpace(out.String())
	assert.True(t, strings.HasPrefix(line, "java -Xmx2G -cp "+jar+" com.example.Main "), line)
	assert.Contains(t, line, "--savedir saves")
	assert.Contains(t, line, "--gameDir "+gameDir)

	_, err := os.Stat(filepath.Join(gameDir, ".reachstrap"))
	assert.True(t, os.IsNotExist(err), "no overlay for a foreign entry class")
}

func TestLaunchCommand_InvalidProfile(t *testing.T) {
	a, _ := newTestApp(t)
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("java = \"\"\n"), 0o644))

	err := execute(a, "--profile", path, "launch", "--dry-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "java binary must not be empty")
}

func renderClass(t *testing.T) []byte {
	t.Helper()
	cf, err := classfile.NewClass(entities.DefaultRenderPatch.Selector.Owner, "java/lang/Object")
	require.NoError(t, err)
	require.NoError(t, cf.AddMethod(classfile.AccPublic, "render", "()V",
		&classfile.Code{MaxLocals: 1, Instructions: []classfile.Instruction{{Op: classfile.OpReturn}}}))
	return cf.Bytes()
}

func TestPatchCommand(t *testing.T) {
	a, out := newTestApp(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "BlockGame.class")
	dst := filepath.Join(dir, "patched", "BlockGame.class")
	require.NoError(t, os.WriteFile(in, renderClass(t), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o755))

	require.NoError(t, execute(a, "patch", "--in", in, "--out", dst))
	assert.Contains(t, out.String(), "called 1 time(s)")

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	cf, err := classfile.Parse(data)
	require.NoError(t, err)

	def := entities.DefaultRenderPatch
	calls, err := services.CountCalls(cf, def.Selector, def.Call)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestPatchCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "BlockGame.class")
	dst := filepath.Join(dir, "out.class")
	require.NoError(t, os.WriteFile(in, renderClass(t), 0o644))

	tests := []struct {
		name string
		args []string
		want error
	}{
		{name: "bad insertion point", args: []string{"--at", "middle"}},
		{name: "unknown method", args: []string{"--method", "update"}, want: entities.ErrMethodNotFound},
		{name: "hook with arguments", args: []string{"--hook-desc", "(I)V"}, want: entities.ErrPatchNotApplicable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newTestApp(t)
			err := execute(a, append([]string{"patch", "--in", in, "--out", dst}, tt.args...)...)
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
			_, statErr := os.Stat(dst)
			assert.True(t, os.IsNotExist(statErr))
		})
	}
}

func TestExitCode(t *testing.T) {
	entry := entities.EntryPoint{Class: "com.example.Main", Method: "main"}

	tests := []struct {
		name string
		err  error
		want int
		msg  string
	}{
		{name: "success", err: nil, want: 0},
		{
			name: "bootstrap failure",
			err:  &entities.PhaseError{Phase: entities.PhaseDiscovery, Err: entities.ErrNoStrategyApplicable},
			want: 1,
			msg:  "Error: artifact discovery: ",
		},
		{
			name: "never started",
			err: &entities.PhaseError{Phase: entities.PhaseInvoke, Err: &entities.EntryPointInvocationFailure{
				Entry: entry, ExitCode: -1, Err: errors.New("exec: not found"),
			}},
			want: 1,
			msg:  "Error: entry-point invocation: Failed to start Cosmic Reach",
		},
		{
			name: "game crash keeps exit status",
			err: &entities.PhaseError{Phase: entities.PhaseInvoke, Err: &entities.EntryPointInvocationFailure{
				Entry: entry, Started: true, ExitCode: 3, Err: errors.New("exit status 3"),
			}},
			want: 3,
			msg:  "Cosmic Reach has crashed!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			assert.Equal(t, tt.want, exitCode(&buf, tt.err))
			if tt.msg == "" {
				assert.Empty(t, buf.String())
				return
			}
			assert.True(t, strings.HasPrefix(buf.String(), tt.msg), buf.String())
		})
	}
}
