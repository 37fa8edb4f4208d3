package gateways

import (
	"archive/zip"
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/ochairo/reachstrap/internal/domain/interfaces"
)

// VersionMarkerEntry is the jar entry whose first line is the game version
const VersionMarkerEntry = "build_assets/version.txt"

// HasEntry reports whether the jar at jarPath contains the named entry
func HasEntry(jarPath, name string) (bool, error) {
	zr, err := zip.OpenReader(jarPath)
	if err != nil {
		return false, err
	}
	//nolint:errcheck // Defer close on read-only archive
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// ReadEntry returns the contents of a jar entry. A missing entry yields an
// error matching fs.ErrNotExist.
func ReadEntry(jarPath, name string) ([]byte, error) {
	zr, err := zip.OpenReader(jarPath)
	if err != nil {
		return nil, err
	}
	//nolint:errcheck // Defer close on read-only archive
	defer zr.Close()

	rc, err := zr.Open(name)
	if err != nil {
		return nil, err
	}
	//nolint:errcheck // Defer close on read-only entry
	defer rc.Close()

	return io.ReadAll(rc)
}

// VersionMarkerReader reads the version marker embedded in the game jar
type VersionMarkerReader struct {
	logger interfaces.Logger
}

// NewVersionMarkerReader creates a new version marker reader
func NewVersionMarkerReader(logger interfaces.Logger) *VersionMarkerReader {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &VersionMarkerReader{logger: logger}
}

// ReadMarker returns the first line of build_assets/version.txt. A jar that
// cannot be opened or lacks the marker yields nil, which callers treat as
// an absent version.
func (r *VersionMarkerReader) ReadMarker(ctx context.Context, jarPath string) (*string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	zr, err := zip.OpenReader(jarPath)
	if err != nil {
		r.logger.Warn("Failed to open game jar for version marker",
			interfaces.F("path", jarPath),
			interfaces.F("error", err))
		return nil, nil
	}
	//nolint:errcheck // Defer close on read-only archive
	defer zr.Close()

	rc, err := zr.Open(VersionMarkerEntry)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.logger.Debug("Version marker not found in game jar", interfaces.F("path", jarPath))
		} else {
			r.logger.Warn("Failed to read version marker",
				interfaces.F("path", jarPath),
				interfaces.F("error", err))
		}
		return nil, nil
	}
	//nolint:errcheck // Defer close on read-only entry
	defer rc.Close()

	line, err := bufio.NewReader(rc).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read %s: %w", VersionMarkerEntry, err)
	}
	line = strings.TrimSpace(strings.TrimPrefix(line, "\ufeff"))
	if line == "" {
		return nil, nil
	}
	return &line, nil
}
