package entities

import (
	"fmt"
	"strings"
)

// MethodSelector matches exactly one method by owner, name and descriptor.
// Owner is an internal name (a/b/C).
type MethodSelector struct {
	Owner      string
	Name       string
	Descriptor string
}

func (s MethodSelector) String() string {
	return s.Owner + "." + s.Name + s.Descriptor
}

// InsertionKind selects where the injected call goes
type InsertionKind int

const (
	// InsertAtStart puts the call before the first instruction
	InsertAtStart InsertionKind = iota
	// InsertAtEnd puts the call before the final return instruction
	InsertAtEnd
	// InsertBeforeCall puts the call before the n-th existing invoke instruction
	InsertBeforeCall
)

// InsertionPoint is a position inside a method body
type InsertionPoint struct {
	Kind    InsertionKind
	Ordinal int // only for InsertBeforeCall, zero-based
}

func (p InsertionPoint) String() string {
	switch p.Kind {
	case InsertAtStart:
		return "start"
	case InsertAtEnd:
		return "end"
	default:
		return fmt.Sprintf("call:%d", p.Ordinal)
	}
}

// ParseInsertionPoint parses "start", "end" or "call:<n>"
func ParseInsertionPoint(s string) (InsertionPoint, error) {
	switch {
	case s == "" || s == "start":
		return InsertionPoint{Kind: InsertAtStart}, nil
	case s == "end":
		return InsertionPoint{Kind: InsertAtEnd}, nil
	case strings.HasPrefix(s, "call:"):
		var n int
		if _, err := fmt.Sscanf(strings.TrimPrefix(s, "call:"), "%d", &n); err != nil || n < 0 {
			return InsertionPoint{}, fmt.Errorf("invalid call ordinal in %q", s)
		}
		return InsertionPoint{Kind: InsertBeforeCall, Ordinal: n}, nil
	default:
		return InsertionPoint{}, fmt.Errorf("unknown insertion point %q (want start, end or call:<n>)", s)
	}
}

// InjectedCall is the static method the patch calls
type InjectedCall struct {
	Owner      string // internal name
	Name       string
	Descriptor string
}

// ArgCount returns the number of parameters declared by the descriptor,
// or -1 if the descriptor is malformed.
func (c InjectedCall) ArgCount() int {
	d := c.Descriptor
	if !strings.HasPrefix(d, "(") {
		return -1
	}
	n := 0
	for i := 1; i < len(d); i++ {
		switch d[i] {
		case ')':
			return n
		case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
			n++
		case 'L':
			end := strings.IndexByte(d[i:], ';')
			if end < 0 {
				return -1
			}
			i += end
			n++
		case '[':
			// array prefix; the element type counts
		default:
			return -1
		}
	}
	return -1
}

// ReturnsVoid reports whether the descriptor returns nothing
func (c InjectedCall) ReturnsVoid() bool {
	return strings.HasSuffix(c.Descriptor, ")V")
}

// InstructionPatch inserts one call into one method
type InstructionPatch struct {
	Selector MethodSelector
	At       InsertionPoint
	Call     InjectedCall
	// EntryPrefix restricts the patch to entry classes in this package tree
	EntryPrefix string
}

// AppliesTo reports whether the patch targets the given entry class
func (p InstructionPatch) AppliesTo(entryClass string) bool {
	return strings.HasPrefix(entryClass, p.EntryPrefix)
}

// HooksClass is the loader-side class whose init method the game calls
const HooksClass = "net/cosmicreachfabric/cosmicreach/provider/services/CosmicReachHooks"

// DefaultRenderPatch hooks loader initialization into the per-frame render
// method of the game. The hook runs on every frame and guards itself.
var DefaultRenderPatch = InstructionPatch{
	Selector: MethodSelector{
		Owner:      "finalforeach/cosmicreach/BlockGame",
		Name:       "render",
		Descriptor: "()V",
	},
	At: InsertionPoint{Kind: InsertAtStart},
	Call: InjectedCall{
		Owner:      HooksClass,
		Name:       "init",
		Descriptor: "()V",
	},
	EntryPrefix: "finalforeach.",
}
