package services

import "github.com/ochairo/reachstrap/internal/domain/entities"

// Identity of the wrapped game in a mod registry
const (
	GameID          = "cosmicreach"
	GameName        = "Cosmic Reach"
	GameAuthor      = "FinalForEach"
	GameDescription = "A futuristic themed block game made as part of a youtube devlog series."
)

// BuildBuiltinModule describes the located game as a built-in module
func BuildBuiltinModule(artifact *entities.ArtifactDescriptor, version *entities.ResolvedVersion) *entities.BuiltinModule {
	contact := map[string]string{
		"homepage": "https://finalforeach.itch.io/cosmic-reach",
		"wiki":     "https://cosmicreach.wiki/",
		"discord":  "https://discord.com/invite/R9JEMVzA",
		"issues":   "https://github.com/FinalForEach/Cosmic-Reach-Issue-Tracker",
	}

	m := &entities.BuiltinModule{
		ID:          GameID,
		Name:        GameName,
		Description: GameDescription,
		Authors:     []entities.ModuleAuthor{{Name: GameAuthor, Contact: contact}},
		Contact:     contact,
	}
	if version != nil {
		m.Version = version.String()
	}
	if artifact != nil {
		m.Paths = []string{artifact.ArtifactPath}
	}
	return m
}
