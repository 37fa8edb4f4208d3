package gateways

import (
	"context"
	"fmt"

	"github.com/ochairo/reachstrap/internal/external-adapters/gpg"
)

// gpgVerifier wraps the external OpenPGP adapter. Keys are loaded per call
// so one verifier can check artifacts signed by different release keys.
type gpgVerifier struct{}

// NewGPGVerifier creates a new GPG verifier gateway
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewGPGVerifier() *gpgVerifier {
	return &gpgVerifier{}
}

// VerifySignature checks sigPath as a detached signature of filePath made by
// a key in keyPath
func (g *gpgVerifier) VerifySignature(ctx context.Context, filePath, sigPath, keyPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if keyPath == "" {
		return fmt.Errorf("no public key configured for signature %s", sigPath)
	}

	verifier := gpg.NewVerifier()
	if err := verifier.ImportKeyFromFile(keyPath); err != nil {
		return fmt.Errorf("failed to import GPG key from file: %w", err)
	}
	if err := verifier.VerifySignatureFromFile(filePath, sigPath); err != nil {
		return fmt.Errorf("GPG signature verification failed: %w", err)
	}
	return nil
}
