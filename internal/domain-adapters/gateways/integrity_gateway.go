package gateways

import (
	"context"

	"github.com/ochairo/reachstrap/internal/domain/interfaces/gateways"
)

// integrityGateway composes the checksum and signature verifiers
type integrityGateway struct {
	checksumVerifier *checksumVerifier
	gpgVerifier      *gpgVerifier
}

// NewIntegrityGateway creates an integrity gateway with the default verifiers
func NewIntegrityGateway() gateways.IntegrityGateway {
	return &integrityGateway{
		checksumVerifier: NewChecksumVerifier(),
		gpgVerifier:      NewGPGVerifier(),
	}
}

// VerifyChecksum compares the SHA256 digest of a file
func (c *integrityGateway) VerifyChecksum(ctx context.Context, filePath, expectedSum string) error {
	return c.checksumVerifier.VerifyChecksum(ctx, filePath, expectedSum)
}

// VerifySignature checks a detached OpenPGP signature
func (c *integrityGateway) VerifySignature(ctx context.Context, filePath, sigPath, keyPath string) error {
	return c.gpgVerifier.VerifySignature(ctx, filePath, sigPath, keyPath)
}
