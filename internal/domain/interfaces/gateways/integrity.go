package gateways

import "context"

// IntegrityGateway checks a located artifact before anything is loaded from it
type IntegrityGateway interface {
	// VerifyChecksum compares the SHA256 digest of filePath with expectedSum
	VerifyChecksum(ctx context.Context, filePath, expectedSum string) error

	// VerifySignature checks a detached OpenPGP signature against a public key file
	VerifySignature(ctx context.Context, filePath, sigPath, keyPath string) error
}
