// Package profile loads launch profiles from YAML or TOML files.
package profile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/ochairo/reachstrap/internal/domain/entities"
)

// Format is the encoding of a profile file
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the format from the file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported profile format %q (want .yaml, .yml or .toml)", filepath.Ext(path))
	}
}

// rawProfile is the file structure. Pointer fields distinguish an absent key
// from an empty value, so only keys present in the file override defaults.
type rawProfile struct {
	GameDir        *string   `yaml:"game_dir" toml:"game_dir"`
	AppDir         *string   `yaml:"app_dir" toml:"app_dir"`
	GameJar        *string   `yaml:"game_jar" toml:"game_jar"`
	Java           *string   `yaml:"java" toml:"java"`
	JVMArgs        []string  `yaml:"jvm_args" toml:"jvm_args"`
	HooksJar       *string   `yaml:"hooks_jar" toml:"hooks_jar"`
	OverlayDir     *string   `yaml:"overlay_dir" toml:"overlay_dir"`
	ExtraClasspath []string  `yaml:"extra_classpath" toml:"extra_classpath"`
	Development    *bool     `yaml:"development" toml:"development"`
	Verify         rawVerify `yaml:"verify" toml:"verify"`
}

type rawVerify struct {
	SHA256    *string `yaml:"sha256" toml:"sha256"`
	Signature *string `yaml:"signature" toml:"signature"`
	PublicKey *string `yaml:"public_key" toml:"public_key"`
}

// Parser decodes profile files
type Parser struct{}

// NewParser creates a new profile parser
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile decodes the file at path on top of base
func (p *Parser) ParseFile(path string, base *entities.LaunchProfile) (*entities.LaunchProfile, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	//nolint:gosec // G304: path is the user-selected profile
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	}
	return p.Parse(data, format, base)
}

// Parse decodes data on top of base. base is not modified. Unknown keys are
// rejected.
func (p *Parser) Parse(data []byte, format Format, base *entities.LaunchProfile) (*entities.LaunchProfile, error) {
	var raw rawProfile
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case FormatTOML:
		meta, err := toml.Decode(string(data), &raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("failed to parse TOML: unknown key %s", undecoded[0])
		}
	default:
		return nil, fmt.Errorf("unsupported profile format %q", format)
	}

	out := *base
	out.JVMArgs = append([]string(nil), base.JVMArgs...)
	out.ExtraClasspath = append([]string(nil), base.ExtraClasspath...)
	raw.apply(&out)
	return &out, nil
}

func (r *rawProfile) apply(p *entities.LaunchProfile) {
	setString(&p.GameDir, r.GameDir)
	setString(&p.AppDir, r.AppDir)
	setString(&p.GameJar, r.GameJar)
	setString(&p.Java, r.Java)
	setString(&p.HooksJar, r.HooksJar)
	setString(&p.OverlayDir, r.OverlayDir)
	setString(&p.Verify.SHA256, r.Verify.SHA256)
	setString(&p.Verify.Signature, r.Verify.Signature)
	setString(&p.Verify.PublicKey, r.Verify.PublicKey)
	if r.JVMArgs != nil {
		p.JVMArgs = r.JVMArgs
	}
	if r.ExtraClasspath != nil {
		p.ExtraClasspath = r.ExtraClasspath
	}
	if r.Development != nil {
		p.Development = *r.Development
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
