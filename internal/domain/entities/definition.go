package entities

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// LaunchProfile is the launcher configuration, merged from defaults, the
// profile file, REACHSTRAP_* environment variables and command-line flags.
type LaunchProfile struct {
	GameDir        string
	AppDir         string
	GameJar        string // explicit artifact path; overrides every locate strategy
	Java           string
	JVMArgs        []string
	HooksJar       string
	OverlayDir     string
	ExtraClasspath []string
	Development    bool
	Verify         ArtifactVerification
}

// ArtifactVerification holds optional integrity checks for the game jar
type ArtifactVerification struct {
	SHA256    string // expected hex digest
	Signature string // detached OpenPGP signature file
	PublicKey string // armored or binary public key file
}

// Enabled reports whether any integrity check is configured
func (v ArtifactVerification) Enabled() bool {
	return v.SHA256 != "" || v.Signature != ""
}

// DefaultLaunchProfile returns the layout of an itch.io install run from its root
func DefaultLaunchProfile() *LaunchProfile {
	return &LaunchProfile{
		GameDir:    ".",
		AppDir:     "app",
		Java:       "java",
		OverlayDir: ".reachstrap",
	}
}

// Validate rejects profiles the launcher cannot act on
func (p *LaunchProfile) Validate() error {
	var errs []error
	if strings.TrimSpace(p.Java) == "" {
		errs = append(errs, errors.New("java binary must not be empty"))
	}
	if p.GameDir == "" {
		errs = append(errs, errors.New("game_dir must not be empty"))
	}
	if sum := p.Verify.SHA256; sum != "" {
		if b, err := hex.DecodeString(NormalizeSHA256(sum)); err != nil || len(b) != 32 {
			errs = append(errs, fmt.Errorf("verify.sha256 %q is not a hex SHA256 digest", sum))
		}
	}
	if p.Verify.Signature != "" && p.Verify.PublicKey == "" {
		errs = append(errs, errors.New("verify.signature requires verify.public_key"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid launch profile: %w", err)
	}
	return nil
}

// NormalizeSHA256 trims a digest, drops an optional "sha256:" prefix and
// lower-cases it
func NormalizeSHA256(sum string) string {
	sum = strings.ToLower(strings.TrimSpace(sum))
	return strings.TrimSpace(strings.TrimPrefix(sum, "sha256:"))
}

// ClassEntryName converts a binary class name into its archive entry name
func ClassEntryName(className string) string {
	return strings.ReplaceAll(className, ".", "/") + ".class"
}

// InternalName converts a binary class name (a.b.C) into an internal name (a/b/C)
func InternalName(className string) string {
	return strings.ReplaceAll(className, ".", "/")
}
