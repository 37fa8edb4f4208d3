package entities

// LaunchState is a step of the launch sequence. States only move forward.
type LaunchState int

const (
	StateIdle LaunchState = iota
	StateLocated
	StateVersioned
	StatePatchRegistered
	StateClasspathUnlocked
	StateLaunched
	StateCrashed
)

func (s LaunchState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLocated:
		return "located"
	case StateVersioned:
		return "versioned"
	case StatePatchRegistered:
		return "patch-registered"
	case StateClasspathUnlocked:
		return "classpath-unlocked"
	case StateLaunched:
		return "launched"
	case StateCrashed:
		return "crashed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible
func (s LaunchState) Terminal() bool {
	return s == StateLaunched || s == StateCrashed
}

// Phase names the launch step an error came from
type Phase string

const (
	PhaseDiscovery Phase = "artifact discovery"
	PhaseVersion   Phase = "version parsing"
	PhasePatch     Phase = "patch registration"
	PhaseClasspath Phase = "classpath assembly"
	PhaseInvoke    Phase = "entry-point invocation"
)

// EntryPoint is the method the launcher hands control to
type EntryPoint struct {
	Class  string // binary name
	Method string
}

// MainMethod is the conventional static entry method
const MainMethod = "main"
