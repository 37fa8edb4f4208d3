package classfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Nested Code attributes that carry bytecode positions.
const (
	AttrLineNumberTable        = "LineNumberTable"
	AttrLocalVariableTable     = "LocalVariableTable"
	AttrLocalVariableTypeTable = "LocalVariableTypeTable"
	AttrStackMapTable          = "StackMapTable"
)

var (
	// ErrNoCode is returned for abstract and native methods.
	ErrNoCode = errors.New("method has no code")
	// ErrBranchOverflow is returned when a jump no longer fits its encoding.
	ErrBranchOverflow = errors.New("branch offset out of range")
	// ErrCodeTooLarge is returned when a method body exceeds 65535 bytes.
	ErrCodeTooLarge = errors.New("method code exceeds 65535 bytes")
)

// Instruction is one entry of the instruction arena. Jump targets are
// arena indexes, never byte offsets; offsets only exist while decoding
// and encoding.
type Instruction struct {
	Op Opcode
	// Operands holds the fixed operand bytes. For wide instructions it holds
	// the widened opcode followed by its operands.
	Operands []byte
	// Target is the arena index a branch jumps to.
	Target int
	Switch *Switch
}

// Switch is the decoded body of a tableswitch or lookupswitch.
type Switch struct {
	Default int
	Low     int32
	High    int32
	Keys    []int32
	Targets []int
}

// Handler is an exception table entry. End is exclusive and may equal the
// number of instructions.
type Handler struct {
	Start     int
	End       int
	Handler   int
	CatchType uint16
}

// LineNumber maps an instruction to a source line.
type LineNumber struct {
	Start int
	Line  uint16
}

// LocalVariable is a LocalVariableTable or LocalVariableTypeTable entry.
type LocalVariable struct {
	Start           int
	End             int
	NameIndex       uint16
	DescriptorIndex uint16
	Index           uint16
}

// CodeAttribute is an attribute nested in Code. Attributes that reference
// bytecode positions are decoded; the rest stay in Raw.
type CodeAttribute struct {
	NameIndex uint16
	Name      string
	Lines     []LineNumber
	Locals    []LocalVariable
	Frames    []Frame
	Raw       []byte
}

// Code is a decoded Code attribute.
type Code struct {
	MaxStack     uint16
	MaxLocals    uint16
	Instructions []Instruction
	Handlers     []Handler
	Attributes   []CodeAttribute
}

// NewInvokeStatic builds an invokestatic instruction for a Methodref index.
func NewInvokeStatic(methodref uint16) Instruction {
	return Instruction{Op: OpInvokestatic, Operands: u2(methodref)}
}

// RefIndex returns the constant pool index operand of field and invoke
// instructions.
func (ins Instruction) RefIndex() (uint16, bool) {
	if (ins.Op >= OpGetstatic && ins.Op <= OpInvokedynamic) || ins.Op == OpNew {
		return binary.BigEndian.Uint16(ins.Operands), true
	}
	return 0, false
}

// DecodeCode decodes a Code attribute body.
func DecodeCode(pool *ConstantPool, data []byte) (*Code, error) {
	r := &reader{buf: data}
	c := &Code{MaxStack: r.u2(), MaxLocals: r.u2()}
	raw := r.take(int(r.u4()))
	if r.err != nil {
		return nil, fmt.Errorf("truncated code attribute: %w", r.err)
	}

	ins, offsets, err := decodeInstructions(raw)
	if err != nil {
		return nil, err
	}
	c.Instructions = ins
	index := make(map[int]int, len(offsets))
	for i, off := range offsets {
		index[off] = i
	}
	at := func(off int) (int, error) {
		i, ok := index[off]
		if !ok {
			return 0, fmt.Errorf("offset %d is not an instruction boundary", off)
		}
		return i, nil
	}
	if err := resolveTargets(c.Instructions, offsets, at); err != nil {
		return nil, err
	}

	n := int(r.u2())
	for i := 0; i < n && r.err == nil; i++ {
		start, end, handler, catch := int(r.u2()), int(r.u2()), int(r.u2()), r.u2()
		h := Handler{CatchType: catch}
		if h.Start, err = at(start); err != nil {
			return nil, fmt.Errorf("exception handler %d: %w", i, err)
		}
		if h.End, err = at(end); err != nil {
			return nil, fmt.Errorf("exception handler %d: %w", i, err)
		}
		if h.Handler, err = at(handler); err != nil {
			return nil, fmt.Errorf("exception handler %d: %w", i, err)
		}
		c.Handlers = append(c.Handlers, h)
	}

	n = int(r.u2())
	for i := 0; i < n && r.err == nil; i++ {
		nameIndex := r.u2()
		body := r.bytes(int(r.u4()))
		if r.err != nil {
			break
		}
		name, err := pool.Utf8(nameIndex)
		if err != nil {
			return nil, fmt.Errorf("code attribute %d: %w", i, err)
		}
		attr := CodeAttribute{NameIndex: nameIndex, Name: name}
		switch name {
		case AttrLineNumberTable:
			attr.Lines, err = decodeLines(body, at)
		case AttrLocalVariableTable, AttrLocalVariableTypeTable:
			attr.Locals, err = decodeLocals(body, at)
		case AttrStackMapTable:
			attr.Frames, err = decodeFrames(body, at)
		default:
			attr.Raw = body
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		c.Attributes = append(c.Attributes, attr)
	}
	if r.err != nil {
		return nil, fmt.Errorf("truncated code attribute: %w", r.err)
	}
	return c, nil
}

// decodeInstructions splits raw bytecode into the arena. Branch targets are
// left as absolute byte offsets for resolveTargets. The returned offsets
// have one extra element holding the code length.
func decodeInstructions(code []byte) ([]Instruction, []int, error) {
	r := &reader{buf: code}
	var ins []Instruction
	var offsets []int
	for !r.done() {
		pc := r.pos
		op := Opcode(r.u1())
		in := Instruction{Op: op}
		switch {
		case op.IsSwitch():
			r.take((4 - (pc+1)%4) % 4)
			sw := &Switch{Default: pc + int(int32(r.u4()))}
			if op == OpTableswitch {
				sw.Low, sw.High = int32(r.u4()), int32(r.u4())
				if sw.High < sw.Low {
					return nil, nil, fmt.Errorf("pc %d: tableswitch high < low", pc)
				}
				for k := int64(sw.Low); k <= int64(sw.High) && r.err == nil; k++ {
					sw.Targets = append(sw.Targets, pc+int(int32(r.u4())))
				}
			} else {
				pairs := int(int32(r.u4()))
				if pairs < 0 {
					return nil, nil, fmt.Errorf("pc %d: negative lookupswitch pair count", pc)
				}
				for k := 0; k < pairs && r.err == nil; k++ {
					sw.Keys = append(sw.Keys, int32(r.u4()))
					sw.Targets = append(sw.Targets, pc+int(int32(r.u4())))
				}
			}
			in.Switch = sw
		case op == OpWide:
			widened := Opcode(r.u1())
			n := 2
			if widened == OpIinc {
				n = 4
			}
			in.Operands = append([]byte{byte(widened)}, r.bytes(n)...)
		case op.IsWideBranch():
			in.Target = pc + int(int32(r.u4()))
		case op.IsBranch():
			in.Target = pc + int(int16(r.u2()))
		default:
			w := operandWidth[op]
			if w < 0 {
				return nil, nil, fmt.Errorf("pc %d: unknown opcode 0x%02x", pc, uint8(op))
			}
			in.Operands = r.bytes(int(w))
		}
		if r.err != nil {
			return nil, nil, fmt.Errorf("pc %d: truncated instruction: %w", pc, r.err)
		}
		ins = append(ins, in)
		offsets = append(offsets, pc)
	}
	offsets = append(offsets, len(code))
	return ins, offsets, nil
}

func resolveTargets(ins []Instruction, offsets []int, at func(int) (int, error)) error {
	var err error
	for i := range ins {
		in := &ins[i]
		if in.Op.IsBranch() {
			if in.Target, err = at(in.Target); err != nil {
				return fmt.Errorf("pc %d: %w", offsets[i], err)
			}
		}
		if in.Switch != nil {
			if in.Switch.Default, err = at(in.Switch.Default); err != nil {
				return fmt.Errorf("pc %d: %w", offsets[i], err)
			}
			for k, t := range in.Switch.Targets {
				if in.Switch.Targets[k], err = at(t); err != nil {
					return fmt.Errorf("pc %d: %w", offsets[i], err)
				}
			}
		}
	}
	return nil
}

func decodeLines(body []byte, at func(int) (int, error)) ([]LineNumber, error) {
	r := &reader{buf: body}
	n := int(r.u2())
	lines := make([]LineNumber, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		start, line := int(r.u2()), r.u2()
		idx, err := at(start)
		if err != nil {
			return nil, err
		}
		lines = append(lines, LineNumber{Start: idx, Line: line})
	}
	return lines, r.err
}

func decodeLocals(body []byte, at func(int) (int, error)) ([]LocalVariable, error) {
	r := &reader{buf: body}
	n := int(r.u2())
	locals := make([]LocalVariable, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		start, length := int(r.u2()), int(r.u2())
		lv := LocalVariable{NameIndex: r.u2(), DescriptorIndex: r.u2(), Index: r.u2()}
		var err error
		if lv.Start, err = at(start); err != nil {
			return nil, err
		}
		if lv.End, err = at(start + length); err != nil {
			return nil, err
		}
		locals = append(locals, lv)
	}
	return locals, r.err
}

// Calls returns the arena indexes of every invoke instruction in order.
func (c *Code) Calls() []int {
	var calls []int
	for i, in := range c.Instructions {
		if in.Op.IsInvoke() {
			calls = append(calls, i)
		}
	}
	return calls
}

// LastReturn returns the arena index of the final return instruction, or -1.
func (c *Code) LastReturn() int {
	for i := len(c.Instructions) - 1; i >= 0; i-- {
		if c.Instructions[i].Op.IsReturn() {
			return i
		}
	}
	return -1
}

// Insert places in before the instruction at index at and shifts every
// position reference. When redirect is false, jumps and ranges that pointed
// at the instruction at index at keep pointing at it; when true they land on
// the inserted instruction. References to a specific instruction (the new
// in an uninitialized verification type) always follow that instruction.
func (c *Code) Insert(at int, in Instruction, redirect bool) error {
	if at < 0 || at > len(c.Instructions) {
		return fmt.Errorf("insertion index %d out of range [0,%d]", at, len(c.Instructions))
	}
	pos := func(i int) int {
		if i > at || (i == at && !redirect) {
			return i + 1
		}
		return i
	}
	exact := func(i int) int {
		if i >= at {
			return i + 1
		}
		return i
	}

	for i := range c.Instructions {
		ins := &c.Instructions[i]
		if ins.Op.IsBranch() {
			ins.Target = pos(ins.Target)
		}
		if ins.Switch != nil {
			ins.Switch.Default = pos(ins.Switch.Default)
			for k, t := range ins.Switch.Targets {
				ins.Switch.Targets[k] = pos(t)
			}
		}
	}
	for i := range c.Handlers {
		h := &c.Handlers[i]
		h.Start, h.End, h.Handler = pos(h.Start), pos(h.End), pos(h.Handler)
	}
	for ai := range c.Attributes {
		a := &c.Attributes[ai]
		for i := range a.Lines {
			a.Lines[i].Start = pos(a.Lines[i].Start)
		}
		for i := range a.Locals {
			a.Locals[i].Start, a.Locals[i].End = pos(a.Locals[i].Start), pos(a.Locals[i].End)
		}
		for i := range a.Frames {
			f := &a.Frames[i]
			f.At = pos(f.At)
			shiftUninitialized(f.Locals, exact)
			shiftUninitialized(f.Stack, exact)
		}
	}

	c.Instructions = append(c.Instructions, Instruction{})
	copy(c.Instructions[at+1:], c.Instructions[at:])
	c.Instructions[at] = in
	return nil
}

func shiftUninitialized(types []VerificationType, exact func(int) int) {
	for i := range types {
		if types[i].Tag == VTUninitialized {
			types[i].New = exact(types[i].New)
		}
	}
}

// layout computes the byte offset of every instruction plus the code length.
func (c *Code) layout() []int {
	offsets := make([]int, len(c.Instructions)+1)
	pc := 0
	for i, in := range c.Instructions {
		offsets[i] = pc
		pc += in.size(pc)
	}
	offsets[len(c.Instructions)] = pc
	return offsets
}

func (in Instruction) size(pc int) int {
	switch {
	case in.Op == OpTableswitch:
		return 1 + (4-(pc+1)%4)%4 + 12 + 4*len(in.Switch.Targets)
	case in.Op == OpLookupswitch:
		return 1 + (4-(pc+1)%4)%4 + 8 + 8*len(in.Switch.Targets)
	case in.Op.IsWideBranch():
		return 5
	case in.Op.IsBranch():
		return 3
	default:
		return 1 + len(in.Operands)
	}
}

// Encode writes the Code attribute body.
func (c *Code) Encode() ([]byte, error) {
	offsets := c.layout()
	codeLen := offsets[len(c.Instructions)]
	if codeLen > math.MaxUint16 {
		return nil, ErrCodeTooLarge
	}

	code := &writer{}
	for i, in := range c.Instructions {
		pc := offsets[i]
		code.u1(uint8(in.Op))
		rel := func(target int) int { return offsets[target] - pc }
		switch {
		case in.Op.IsSwitch():
			for p := (4 - (pc+1)%4) % 4; p > 0; p-- {
				code.u1(0)
			}
			code.u4(uint32(int32(rel(in.Switch.Default))))
			if in.Op == OpTableswitch {
				code.u4(uint32(in.Switch.Low))
				code.u4(uint32(in.Switch.High))
				for _, t := range in.Switch.Targets {
					code.u4(uint32(int32(rel(t))))
				}
			} else {
				code.u4(uint32(len(in.Switch.Targets)))
				for k, t := range in.Switch.Targets {
					code.u4(uint32(in.Switch.Keys[k]))
					code.u4(uint32(int32(rel(t))))
				}
			}
		case in.Op.IsWideBranch():
			code.u4(uint32(int32(rel(in.Target))))
		case in.Op.IsBranch():
			d := rel(in.Target)
			if d < math.MinInt16 || d > math.MaxInt16 {
				return nil, fmt.Errorf("pc %d: %w", pc, ErrBranchOverflow)
			}
			code.u2(uint16(int16(d)))
		default:
			code.raw(in.Operands)
		}
	}

	w := &writer{}
	w.u2(c.MaxStack)
	w.u2(c.MaxLocals)
	w.u4(uint32(codeLen))
	w.raw(code.buf)
	w.u2(uint16(len(c.Handlers)))
	for _, h := range c.Handlers {
		w.u2(uint16(offsets[h.Start]))
		w.u2(uint16(offsets[h.End]))
		w.u2(uint16(offsets[h.Handler]))
		w.u2(h.CatchType)
	}
	w.u2(uint16(len(c.Attributes)))
	for _, a := range c.Attributes {
		body := a.Raw
		switch a.Name {
		case AttrLineNumberTable:
			body = encodeLines(a.Lines, offsets)
		case AttrLocalVariableTable, AttrLocalVariableTypeTable:
			body = encodeLocals(a.Locals, offsets)
		case AttrStackMapTable:
			body = encodeFrames(a.Frames, offsets)
		}
		w.u2(a.NameIndex)
		w.u4(uint32(len(body)))
		w.raw(body)
	}
	return w.buf, nil
}

func encodeLines(lines []LineNumber, offsets []int) []byte {
	w := &writer{}
	w.u2(uint16(len(lines)))
	for _, l := range lines {
		w.u2(uint16(offsets[l.Start]))
		w.u2(l.Line)
	}
	return w.buf
}

func encodeLocals(locals []LocalVariable, offsets []int) []byte {
	w := &writer{}
	w.u2(uint16(len(locals)))
	for _, lv := range locals {
		start := offsets[lv.Start]
		w.u2(uint16(start))
		w.u2(uint16(offsets[lv.End] - start))
		w.u2(lv.NameIndex)
		w.u2(lv.DescriptorIndex)
		w.u2(lv.Index)
	}
	return w.buf
}
