package gateways

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ochairo/reachstrap/internal/domain/entities"
)

// checksumVerifier digests game jars with SHA256
type checksumVerifier struct{}

// NewChecksumVerifier creates a new checksum verifier
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewChecksumVerifier() *checksumVerifier {
	return &checksumVerifier{}
}

// VerifyChecksum compares the digest of jarPath with expectedSum, which may
// carry a "sha256:" prefix and any letter case.
func (v *checksumVerifier) VerifyChecksum(ctx context.Context, jarPath, expectedSum string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	want := entities.NormalizeSHA256(expectedSum)
	got, err := v.CalculateChecksum(jarPath)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("checksum mismatch for %s: expected %s, got %s", filepath.Base(jarPath), want, got)
	}
	return nil
}

// CalculateChecksum returns the lower-case hex SHA256 digest of a jar
func (v *checksumVerifier) CalculateChecksum(jarPath string) (string, error) {
	//nolint:gosec // G304: the path is the located game jar
	f, err := os.Open(jarPath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // read-only
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to digest %s: %w", filepath.Base(jarPath), err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
