package services

import (
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"

	"github.com/ochairo/reachstrap/internal/domain/entities"
)

func TestBuildBuiltinModule(t *testing.T) {
	artifact := &entities.ArtifactDescriptor{ArtifactPath: "app/Cosmic Reach-0.1.30.jar"}
	version := &entities.ResolvedVersion{Version: semver.MustParse("0.1.30"), Raw: "0.1.30"}

	m := BuildBuiltinModule(artifact, version)

	assert.Equal(t, "cosmicreach", m.ID)
	assert.Equal(t, "Cosmic Reach", m.Name)
	assert.Equal(t, "0.1.30", m.Version)
	assert.Equal(t, []string{"app/Cosmic Reach-0.1.30.jar"}, m.Paths)
	assert.Equal(t, "FinalForEach", m.Authors[0].Name)
	assert.Contains(t, m.Contact, "issues")

	empty := BuildBuiltinModule(nil, nil)
	assert.Empty(t, empty.Version)
	assert.Empty(t, empty.Paths)
}
