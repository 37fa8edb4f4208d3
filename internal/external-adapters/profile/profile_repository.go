package profile

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/ochairo/reachstrap/internal/domain/entities"
	"github.com/ochairo/reachstrap/internal/domain/interfaces/repositories"
)

var _ repositories.ProfileRepository = (*Repository)(nil)

// Environment variables read by the repository
const (
	EnvProfile     = "REACHSTRAP_PROFILE"
	EnvGameJar     = "REACHSTRAP_GAME_JAR"
	EnvDevelopment = "REACHSTRAP_DEVELOPMENT"
)

// Repository implements repositories.ProfileRepository on top of profile
// files and REACHSTRAP_* environment variables.
type Repository struct {
	parser *Parser
	getenv func(string) string
}

// NewRepository creates a repository reading the process environment
func NewRepository() *Repository {
	return &Repository{
		parser: NewParser(),
		getenv: os.Getenv,
	}
}

// Load merges defaults, the profile file and the environment, in that order.
// An empty path falls back to $REACHSTRAP_PROFILE; with neither, no file is
// read.
func (r *Repository) Load(ctx context.Context, path string) (*entities.LaunchProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	profile := entities.DefaultLaunchProfile()
	if path == "" {
		path = strings.TrimSpace(r.getenv(EnvProfile))
	}
	if path != "" {
		parsed, err := r.parser.ParseFile(path, profile)
		if err != nil {
			return nil, err
		}
		profile = parsed
	}

	if jar := strings.TrimSpace(r.getenv(EnvGameJar)); jar != "" {
		profile.GameJar = jar
	}
	if dev, err := strconv.ParseBool(r.getenv(EnvDevelopment)); err == nil {
		profile.Development = dev
	}

	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return profile, nil
}
