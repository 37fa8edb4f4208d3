// Package services implements domain business logic and use cases.
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/ochairo/reachstrap/internal/domain/entities"
	"github.com/ochairo/reachstrap/internal/domain/interfaces"
)

// VersionResolver turns raw version strings into a ResolvedVersion
type VersionResolver struct {
	logger interfaces.Logger
}

// NewVersionResolver creates a new version resolver
func NewVersionResolver(logger interfaces.Logger) *VersionResolver {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &VersionResolver{logger: logger}
}

// Resolve parses primary (the in-jar version marker) and falls back to
// fallback (the version declared by the install layout). An unparsable
// primary is logged and treated as absent. Blank strings count as absent.
func (r *VersionResolver) Resolve(primary, fallback *string) (*entities.ResolvedVersion, error) {
	candidates := []struct {
		source string
		raw    *string
	}{
		{source: entities.VersionFromMarker, raw: primary},
		{source: entities.VersionFromDeclared, raw: fallback},
	}

	var parseErrs []error
	for _, c := range candidates {
		if c.raw == nil {
			continue
		}
		raw := strings.TrimSpace(*c.raw)
		if raw == "" {
			continue
		}

		v, err := semver.NewVersion(raw)
		if err != nil {
			perr := &entities.VersionParseError{Source: c.source, Raw: raw, Err: err}
			r.logger.Warn("Ignoring unparsable game version",
				interfaces.F("source", c.source),
				interfaces.F("raw", raw),
				interfaces.F("error", err))
			parseErrs = append(parseErrs, perr)
			continue
		}

		r.logger.Debug("Resolved game version", interfaces.F("source", c.source), interfaces.F("version", v.String()))
		return &entities.ResolvedVersion{Version: v, Raw: raw, Source: c.source}, nil
	}

	if len(parseErrs) == 0 {
		return nil, entities.ErrNoVersionAvailable
	}
	return nil, fmt.Errorf("%w: %w", entities.ErrNoVersionAvailable, errors.Join(parseErrs...))
}
