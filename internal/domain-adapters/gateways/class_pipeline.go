package gateways

import (
	"archive/zip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/ochairo/reachstrap/internal/classfile"
	"github.com/ochairo/reachstrap/internal/domain/entities"
	"github.com/ochairo/reachstrap/internal/domain/interfaces"
)

const (
	// OverlayJarName is the file name of the overlay jar inside the overlay directory
	OverlayJarName = "overlay.jar"
	// PatchRegistryEntry records which methods the overlay jar patches
	PatchRegistryEntry = "META-INF/reachstrap/patches.yaml"

	overlayManifest = "Manifest-Version: 1.0\r\nCreated-By: reachstrap\r\n\r\n"
)

// PatchRegistry is the YAML document stored at PatchRegistryEntry
type PatchRegistry struct {
	GameJar string        `yaml:"game_jar"`
	Patches []PatchRecord `yaml:"patches"`
}

// PatchRecord describes one patched class
type PatchRecord struct {
	Class      string `yaml:"class"`
	Method     string `yaml:"method"`
	Descriptor string `yaml:"descriptor"`
	SHA256     string `yaml:"sha256"`
}

// OverlayJarPipeline reads classes from the game jar and writes patched
// replacements into an overlay jar that is placed before the game jar on the
// classpath.
type OverlayJarPipeline struct {
	gameJar string
	path    string
	logger  interfaces.Logger

	classes map[string][]byte // entry name -> class bytes
	records map[string]PatchRecord
}

// NewOverlayJarPipeline creates a pipeline writing <overlayDir>/overlay.jar
func NewOverlayJarPipeline(gameJar, overlayDir string, logger interfaces.Logger) *OverlayJarPipeline {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &OverlayJarPipeline{
		gameJar: gameJar,
		path:    filepath.Join(overlayDir, OverlayJarName),
		logger:  logger,
		classes: make(map[string][]byte),
		records: make(map[string]PatchRecord),
	}
}

// Path returns the overlay jar location
func (p *OverlayJarPipeline) Path() string {
	return p.path
}

// LoadClass parses a class from the game jar
func (p *OverlayJarPipeline) LoadClass(ctx context.Context, internalName string) (*classfile.ClassFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := ReadEntry(p.gameJar, internalName+".class")
	if err != nil {
		return nil, fmt.Errorf("failed to read class %s: %w", internalName, err)
	}
	cf, err := classfile.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse class %s: %w", internalName, err)
	}
	return cf, nil
}

// Define stores the patched class and rewrites the overlay jar
func (p *OverlayJarPipeline) Define(ctx context.Context, target entities.MethodSelector, cf *classfile.ClassFile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := cf.Name()
	if err != nil {
		return fmt.Errorf("failed to read class name: %w", err)
	}
	if name != target.Owner {
		return fmt.Errorf("patched class %s does not own %s", name, target)
	}

	data := cf.Bytes()
	sum := sha256.Sum256(data)
	entry := name + ".class"
	p.classes[entry] = data
	p.records[entry] = PatchRecord{
		Class:      name,
		Method:     target.Name,
		Descriptor: target.Descriptor,
		SHA256:     hex.EncodeToString(sum[:]),
	}

	if err := p.write(); err != nil {
		return fmt.Errorf("failed to write overlay jar: %w", err)
	}
	p.logger.Debug("Defined patched class",
		interfaces.F("class", name),
		interfaces.F("overlay", p.path))
	return nil
}

// Classpath returns the overlay jar once at least one class was defined
func (p *OverlayJarPipeline) Classpath() []string {
	if len(p.classes) == 0 {
		return nil
	}
	return []string{p.path}
}

// write replaces the overlay jar atomically
func (p *OverlayJarPipeline) write() error {
	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create overlay directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, OverlayJarName+".*")
	if err != nil {
		return err
	}
	//nolint:errcheck // Best-effort cleanup; fails harmlessly after the rename
	defer os.Remove(tmp.Name())

	if err := p.writeJar(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p.path)
}

func (p *OverlayJarPipeline) writeJar(w io.Writer) error {
	zw := zip.NewWriter(w)

	if err := writeZipEntry(zw, "META-INF/MANIFEST.MF", []byte(overlayManifest)); err != nil {
		return err
	}

	entries := make([]string, 0, len(p.classes))
	for name := range p.classes {
		entries = append(entries, name)
	}
	sort.Strings(entries)

	registry := PatchRegistry{GameJar: p.gameJar}
	for _, name := range entries {
		if err := writeZipEntry(zw, name, p.classes[name]); err != nil {
			return err
		}
		registry.Patches = append(registry.Patches, p.records[name])
	}

	doc, err := yaml.Marshal(&registry)
	if err != nil {
		return fmt.Errorf("failed to encode patch registry: %w", err)
	}
	if err := writeZipEntry(zw, PatchRegistryEntry, doc); err != nil {
		return err
	}

	return zw.Close()
}

func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	fw, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", name, err)
	}
	if _, err := fw.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// ReadPatchRegistry decodes the patch registry of an overlay jar
func ReadPatchRegistry(overlayJar string) (*PatchRegistry, error) {
	data, err := ReadEntry(overlayJar, PatchRegistryEntry)
	if err != nil {
		return nil, err
	}
	var registry PatchRegistry
	if err := yaml.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("failed to decode patch registry: %w", err)
	}
	return &registry, nil
}
