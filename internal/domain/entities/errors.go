package entities

import (
	"errors"
	"fmt"
)

var (
	// ErrNoStrategyApplicable means no locate strategy produced an artifact path
	ErrNoStrategyApplicable = errors.New("no strategy could determine the game jar path")
	// ErrArtifactNotFound means a path was derived but nothing exists there
	ErrArtifactNotFound = errors.New("game jar not found")
	// ErrEntryClassMissing means the jar does not contain the entry class
	ErrEntryClassMissing = errors.New("entry class not found in game jar")
	// ErrArtifactIntegrity means a configured checksum or signature did not match
	ErrArtifactIntegrity = errors.New("game jar failed integrity check")
	// ErrNoVersionAvailable means neither version source yielded a usable version
	ErrNoVersionAvailable = errors.New("no game version available")
	// ErrVersionParse marks a single unparsable version string
	ErrVersionParse = errors.New("invalid version string")
	// ErrMethodNotFound means no method matched the selector
	ErrMethodNotFound = errors.New("method not found")
	// ErrAmbiguousMethod means more than one method matched the selector
	ErrAmbiguousMethod = errors.New("ambiguous method selector")
	// ErrPatchNotApplicable means the patch does not target this game or call
	ErrPatchNotApplicable = errors.New("patch not applicable")
	// ErrEntryPointInvocation marks failures of the forwarded entry point
	ErrEntryPointInvocation = errors.New("entry point invocation failed")
)

// VersionParseError records which source held an unparsable version
type VersionParseError struct {
	Source string
	Raw    string
	Err    error
}

func (e *VersionParseError) Error() string {
	return fmt.Sprintf("%s version %q: %v", e.Source, e.Raw, e.Err)
}

func (e *VersionParseError) Unwrap() []error {
	return []error{ErrVersionParse, e.Err}
}

// EntryPointInvocationFailure separates a game that crashed after starting
// from one that never started.
type EntryPointInvocationFailure struct {
	Entry    EntryPoint
	Started  bool
	ExitCode int // -1 when unknown
	Err      error
}

func (e *EntryPointInvocationFailure) Error() string {
	if e.Started {
		return fmt.Sprintf("Cosmic Reach has crashed! (%s.%s): %v", e.Entry.Class, e.Entry.Method, e.Err)
	}
	return fmt.Sprintf("Failed to start Cosmic Reach (%s.%s): %v", e.Entry.Class, e.Entry.Method, e.Err)
}

func (e *EntryPointInvocationFailure) Unwrap() []error {
	return []error{ErrEntryPointInvocation, e.Err}
}

// PhaseError is a fatal launch failure tagged with the step that failed
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}
