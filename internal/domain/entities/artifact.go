// Package entities defines core domain models and data structures.
package entities

// Locate strategies, in priority order.
const (
	SourceOverride = "override"
	SourceManifest = "manifest"
	SourceConfig   = "config"
	SourceFallback = "fallback"
)

// DefaultEntryClass is the launcher class of the game when nothing else names one
const DefaultEntryClass = "finalforeach.cosmicreach.lwjgl3.Lwjgl3Launcher"

// ArtifactDescriptor describes the located game jar. It is created once by
// the locator and never modified afterwards.
type ArtifactDescriptor struct {
	ArtifactPath    string
	EntryClassName  string
	DeclaredVersion *string // version captured from the manifest or config file, if any
	Source          string  // which locate strategy produced the path
}

// EntryClassPath returns the archive entry name of the entry class
func (a *ArtifactDescriptor) EntryClassPath() string {
	return ClassEntryName(a.EntryClassName)
}
