package classfile

import "fmt"

// Verification type tags (JVMS §4.7.4).
const (
	VTTop               uint8 = 0
	VTInteger           uint8 = 1
	VTFloat             uint8 = 2
	VTDouble            uint8 = 3
	VTLong              uint8 = 4
	VTNull              uint8 = 5
	VTUninitializedThis uint8 = 6
	VTObject            uint8 = 7
	VTUninitialized     uint8 = 8
)

// VerificationType is one stack map slot. Class is the constant pool index
// of an Object type; New is the arena index of the new instruction of an
// Uninitialized type.
type VerificationType struct {
	Tag   uint8
	Class uint16
	New   int
}

// FrameKind is the shape of a stack map frame; the compact or extended
// encoding is picked when writing.
type FrameKind uint8

const (
	FrameSame FrameKind = iota
	FrameSameLocals1Stack
	FrameChop
	FrameAppend
	FrameFull
)

// Frame is a stack map frame anchored at an arena index.
type Frame struct {
	Kind   FrameKind
	At     int
	Chop   int
	Locals []VerificationType
	Stack  []VerificationType
}

func decodeFrames(body []byte, at func(int) (int, error)) ([]Frame, error) {
	r := &reader{buf: body}
	n := int(r.u2())
	frames := make([]Frame, 0, n)
	prev := -1
	for i := 0; i < n && r.err == nil; i++ {
		typ := r.u1()
		var f Frame
		var delta int
		switch {
		case typ <= 63:
			f.Kind, delta = FrameSame, int(typ)
		case typ <= 127:
			f.Kind, delta = FrameSameLocals1Stack, int(typ-64)
			f.Stack = []VerificationType{readVType(r)}
		case typ == 247:
			f.Kind, delta = FrameSameLocals1Stack, int(r.u2())
			f.Stack = []VerificationType{readVType(r)}
		case typ >= 248 && typ <= 250:
			f.Kind, delta = FrameChop, int(r.u2())
			f.Chop = int(251 - typ)
		case typ == 251:
			f.Kind, delta = FrameSame, int(r.u2())
		case typ >= 252 && typ <= 254:
			f.Kind, delta = FrameAppend, int(r.u2())
			for k := 0; k < int(typ-251); k++ {
				f.Locals = append(f.Locals, readVType(r))
			}
		case typ == 255:
			f.Kind, delta = FrameFull, int(r.u2())
			nl := int(r.u2())
			for k := 0; k < nl && r.err == nil; k++ {
				f.Locals = append(f.Locals, readVType(r))
			}
			ns := int(r.u2())
			for k := 0; k < ns && r.err == nil; k++ {
				f.Stack = append(f.Stack, readVType(r))
			}
		default:
			return nil, fmt.Errorf("frame %d: reserved frame type %d", i, typ)
		}
		if r.err != nil {
			break
		}
		off := prev + delta + 1
		prev = off
		idx, err := at(off)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		f.At = idx
		if err := resolveUninitialized(f.Locals, at); err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		if err := resolveUninitialized(f.Stack, at); err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		frames = append(frames, f)
	}
	return frames, r.err
}

func readVType(r *reader) VerificationType {
	vt := VerificationType{Tag: r.u1()}
	switch vt.Tag {
	case VTObject:
		vt.Class = r.u2()
	case VTUninitialized:
		vt.New = int(r.u2())
	}
	return vt
}

func resolveUninitialized(types []VerificationType, at func(int) (int, error)) error {
	for i := range types {
		if types[i].Tag != VTUninitialized {
			continue
		}
		idx, err := at(types[i].New)
		if err != nil {
			return err
		}
		types[i].New = idx
	}
	return nil
}

func encodeFrames(frames []Frame, offsets []int) []byte {
	w := &writer{}
	w.u2(uint16(len(frames)))
	prev := -1
	for _, f := range frames {
		off := offsets[f.At]
		delta := off - prev - 1
		prev = off
		switch f.Kind {
		case FrameSame:
			if delta < 64 {
				w.u1(uint8(delta))
			} else {
				w.u1(251)
				w.u2(uint16(delta))
			}
		case FrameSameLocals1Stack:
			if delta < 64 {
				w.u1(uint8(64 + delta))
			} else {
				w.u1(247)
				w.u2(uint16(delta))
			}
			writeVType(w, f.Stack[0], offsets)
		case FrameChop:
			w.u1(uint8(251 - f.Chop))
			w.u2(uint16(delta))
		case FrameAppend:
			w.u1(uint8(251 + len(f.Locals)))
			w.u2(uint16(delta))
			for _, vt := range f.Locals {
				writeVType(w, vt, offsets)
			}
		case FrameFull:
			w.u1(255)
			w.u2(uint16(delta))
			w.u2(uint16(len(f.Locals)))
			for _, vt := range f.Locals {
				writeVType(w, vt, offsets)
			}
			w.u2(uint16(len(f.Stack)))
			for _, vt := range f.Stack {
				writeVType(w, vt, offsets)
			}
		}
	}
	return w.buf
}

func writeVType(w *writer, vt VerificationType, offsets []int) {
	w.u1(vt.Tag)
	switch vt.Tag {
	case VTObject:
		w.u2(vt.Class)
	case VTUninitialized:
		w.u2(uint16(offsets[vt.New]))
	}
}
