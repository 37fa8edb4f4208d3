package gateways

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ochairo/reachstrap/internal/domain/entities"
)

// ManifestFile is the jpackage state file shipped with itch.io builds
const ManifestFile = ".jpackage.xml"

// jpackageManifest holds the elements of .jpackage.xml the launcher reads.
// Signed and AppStore are parsed but not acted on.
type jpackageManifest struct {
	AppVersion   string
	MainLauncher string
	MainClass    string
	Signed       bool
	AppStore     bool
}

// JarPath returns <launcher>-<version>.jar, or "" unless both are set
func (m *jpackageManifest) JarPath(appDir string) string {
	if m.MainLauncher == "" || m.AppVersion == "" {
		return ""
	}
	return filepath.Join(appDir, m.MainLauncher+"-"+m.AppVersion+".jar")
}

// parseManifest scans the document for the known elements at any depth.
// Element names compare case-insensitively.
func parseManifest(r io.Reader) (*jpackageManifest, error) {
	dec := xml.NewDecoder(r)
	m := &jpackageManifest{}
	var current string

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return m, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", ManifestFile, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			current = strings.ToLower(t.Name.Local)
		case xml.EndElement:
			current = ""
		case xml.CharData:
			value := strings.TrimSpace(string(t))
			if value == "" {
				continue
			}
			switch current {
			case "app-version":
				m.AppVersion = value
			case "main-launcher":
				m.MainLauncher = value
			case "main-class":
				m.MainClass = value
			case "signed":
				m.Signed = strings.EqualFold(value, "true")
			case "app-store":
				m.AppStore = strings.EqualFold(value, "true")
			}
		}
	}
}

// ManifestStrategy reads <app_dir>/.jpackage.xml. When the file exists it
// is authoritative, even if it does not name a jar.
type ManifestStrategy struct {
	AppDir string
}

// Name implements LocateStrategy
func (s *ManifestStrategy) Name() string { return entities.SourceManifest }

// Attempt implements LocateStrategy
func (s *ManifestStrategy) Attempt(_ context.Context) (*Candidate, bool, error) {
	//nolint:gosec // G304: path is derived from the configured app directory
	f, err := os.Open(filepath.Join(s.AppDir, ManifestFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to open %s: %w", ManifestFile, err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	m, err := parseManifest(f)
	if err != nil {
		return nil, false, err
	}

	return &Candidate{
		Path:       m.JarPath(s.AppDir),
		EntryClass: m.MainClass,
		Version:    optional(m.AppVersion),
	}, true, nil
}
