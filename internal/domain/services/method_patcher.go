package services

import (
	"errors"
	"fmt"

	"github.com/ochairo/reachstrap/internal/classfile"
	"github.com/ochairo/reachstrap/internal/domain/entities"
	"github.com/ochairo/reachstrap/internal/domain/interfaces"
)

// MethodPatcher inserts a static call into one method of a class.
//
// Patching is not idempotent: every application adds another call. Callers
// apply a patch at most once per class.
type MethodPatcher struct {
	logger interfaces.Logger
}

// NewMethodPatcher creates a new method patcher
func NewMethodPatcher(logger interfaces.Logger) *MethodPatcher {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &MethodPatcher{logger: logger}
}

// Patch returns a copy of cf in which the method matched by sel calls
// patch.Call at patch.At. cf itself is never modified.
func (p *MethodPatcher) Patch(cf *classfile.ClassFile, sel entities.MethodSelector, patch entities.InstructionPatch) (*classfile.ClassFile, error) {
	call := patch.Call
	if call.ArgCount() != 0 || !call.ReturnsVoid() {
		return nil, fmt.Errorf("%w: injected call %s.%s%s must take no arguments and return void",
			entities.ErrPatchNotApplicable, call.Owner, call.Name, call.Descriptor)
	}

	owner, err := cf.Name()
	if err != nil {
		return nil, fmt.Errorf("failed to read class name: %w", err)
	}
	if owner != sel.Owner {
		return nil, fmt.Errorf("%w: %s (class is %s)", entities.ErrMethodNotFound, sel, owner)
	}

	matches, err := cf.FindMethods(sel.Name, sel.Descriptor)
	if err != nil {
		return nil, fmt.Errorf("failed to scan methods of %s: %w", owner, err)
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", entities.ErrMethodNotFound, sel)
	case 1:
	default:
		return nil, fmt.Errorf("%w: %s matches %d methods", entities.ErrAmbiguousMethod, sel, len(matches))
	}
	p.logger.Debug("Found target method", interfaces.F("method", sel.String()))

	out := cf.Clone()
	method := matches[0]
	code, err := out.MethodCode(method)
	if err != nil {
		if errors.Is(err, classfile.ErrNoCode) {
			return nil, fmt.Errorf("%w: %s has no body", entities.ErrPatchNotApplicable, sel)
		}
		return nil, fmt.Errorf("failed to decode %s: %w", sel, err)
	}

	at, redirect, err := insertionIndex(code, patch.At)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", entities.ErrPatchNotApplicable, sel, err)
	}

	ref, err := out.Pool.AddMethodref(call.Owner, call.Name, call.Descriptor)
	if err != nil {
		return nil, fmt.Errorf("failed to reference %s.%s: %w", call.Owner, call.Name, err)
	}

	p.logger.Debug("Patching method",
		interfaces.F("method", sel.String()),
		interfaces.F("at", patch.At.String()),
		interfaces.F("hook", call.Owner+"."+call.Name+call.Descriptor))

	if err := code.Insert(at, classfile.NewInvokeStatic(ref), redirect); err != nil {
		return nil, err
	}
	if err := out.SetMethodCode(method, code); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", sel, err)
	}

	return out, nil
}

// insertionIndex maps an insertion point to an arena index. Jumps to the
// first instruction keep skipping the hook; jumps to a return or call anchor
// run it.
func insertionIndex(code *classfile.Code, at entities.InsertionPoint) (int, bool, error) {
	switch at.Kind {
	case entities.InsertAtStart:
		return 0, false, nil
	case entities.InsertAtEnd:
		idx := code.LastReturn()
		if idx < 0 {
			return 0, false, errors.New("method never returns")
		}
		return idx, true, nil
	case entities.InsertBeforeCall:
		calls := code.Calls()
		if at.Ordinal >= len(calls) {
			return 0, false, fmt.Errorf("call ordinal %d out of range, method has %d calls", at.Ordinal, len(calls))
		}
		return calls[at.Ordinal], true, nil
	default:
		return 0, false, fmt.Errorf("unknown insertion point %v", at)
	}
}

// CountCalls returns how many instructions of the selected method invoke call
func CountCalls(cf *classfile.ClassFile, sel entities.MethodSelector, call entities.InjectedCall) (int, error) {
	matches, err := cf.FindMethods(sel.Name, sel.Descriptor)
	if err != nil {
		return 0, err
	}
	if len(matches) != 1 {
		return 0, fmt.Errorf("%w: %s", entities.ErrMethodNotFound, sel)
	}
	code, err := cf.MethodCode(matches[0])
	if err != nil {
		return 0, err
	}

	n := 0
	for _, idx := range code.Calls() {
		ref, _ := code.Instructions[idx].RefIndex()
		owner, name, desc, err := cf.Pool.MemberRef(ref)
		if err != nil {
			continue // invokedynamic call sites are not member references
		}
		if owner == call.Owner && name == call.Name && desc == call.Descriptor {
			n++
		}
	}
	return n, nil
}
