package gateways

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ochairo/reachstrap/internal/domain/entities"
)

// ConfigFile is the jpackage launcher configuration of the game
const ConfigFile = "Cosmic Reach.cfg"

const (
	cfgClasspathKey = "app.classpath="
	cfgMainClassKey = "app.mainclass="
	cfgVersionKey   = "java-options=-Djpackage.app-version="
)

// launcherConfig holds the keys read from the .cfg file. When a key repeats,
// the last line wins.
type launcherConfig struct {
	Classpath string
	MainClass string
	Version   string
}

func parseLauncherConfig(r io.Reader) (*launcherConfig, error) {
	cfg := &launcherConfig{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if v, ok := cutPrefixFold(line, cfgClasspathKey); ok {
			cfg.Classpath = v
		}
		if v, ok := cutPrefixFold(line, cfgMainClassKey); ok {
			cfg.MainClass = v
		}
		if v, ok := cutPrefixFold(line, cfgVersionKey); ok {
			cfg.Version = v
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ConfigFile, err)
	}
	return cfg, nil
}

// JarPath resolves the classpath value against appDir, expanding $APPDIR
func (c *launcherConfig) JarPath(appDir string) string {
	raw := c.Classpath
	for _, prefix := range []string{`$APPDIR\`, "$APPDIR/"} {
		if rest, ok := strings.CutPrefix(raw, prefix); ok {
			raw = rest
			break
		}
	}
	if raw == "" {
		return ""
	}
	raw = filepath.FromSlash(strings.ReplaceAll(raw, `\`, "/"))
	if filepath.IsAbs(raw) {
		return raw
	}
	return filepath.Join(appDir, raw)
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}

// ConfigStrategy reads <app_dir>/Cosmic Reach.cfg
type ConfigStrategy struct {
	AppDir string
}

// Name implements LocateStrategy
func (s *ConfigStrategy) Name() string { return entities.SourceConfig }

// Attempt implements LocateStrategy
func (s *ConfigStrategy) Attempt(_ context.Context) (*Candidate, bool, error) {
	//nolint:gosec // G304: path is derived from the configured app directory
	f, err := os.Open(filepath.Join(s.AppDir, ConfigFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to open %s: %w", ConfigFile, err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	cfg, err := parseLauncherConfig(f)
	if err != nil {
		return nil, false, err
	}

	return &Candidate{
		Path:       cfg.JarPath(s.AppDir),
		EntryClass: cfg.MainClass,
		Version:    optional(cfg.Version),
	}, true, nil
}
