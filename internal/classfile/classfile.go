// Package classfile reads and writes JVM class files.
//
// Only the parts needed to patch method bodies are decoded: the constant pool,
// the member tables and the Code attribute. Everything else is carried as raw
// attribute bytes and written back unchanged.
package classfile

import (
	"errors"
	"fmt"
)

// Magic is the class file signature.
const Magic = 0xCAFEBABE

// AttrCode is the name of the method body attribute.
const AttrCode = "Code"

// ErrNotClassFile is returned for inputs without the class file magic.
var ErrNotClassFile = errors.New("not a class file")

// Attribute is an undecoded attribute.
type Attribute struct {
	NameIndex uint16
	Data      []byte
}

// Member is a field_info or method_info structure.
type Member struct {
	AccessFlags     uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []Attribute
}

// ClassFile is an in-memory class file.
type ClassFile struct {
	MinorVersion uint16
	MajorVersion uint16
	Pool         *ConstantPool
	AccessFlags  uint16
	ThisClass    uint16
	SuperClass   uint16
	Interfaces   []uint16
	Fields       []Member
	Methods      []Member
	Attributes   []Attribute
}

// Parse decodes a class file.
func Parse(data []byte) (*ClassFile, error) {
	r := &reader{buf: data}
	if r.u4() != Magic {
		return nil, ErrNotClassFile
	}
	cf := &ClassFile{
		MinorVersion: r.u2(),
		MajorVersion: r.u2(),
	}
	pool, err := readPool(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read constant pool: %w", err)
	}
	cf.Pool = pool
	cf.AccessFlags = r.u2()
	cf.ThisClass = r.u2()
	cf.SuperClass = r.u2()
	n := int(r.u2())
	for i := 0; i < n && r.err == nil; i++ {
		cf.Interfaces = append(cf.Interfaces, r.u2())
	}
	cf.Fields = readMembers(r)
	cf.Methods = readMembers(r)
	cf.Attributes = readAttributes(r)
	if r.err != nil {
		return nil, fmt.Errorf("truncated class file: %w", r.err)
	}
	if !r.done() {
		return nil, fmt.Errorf("%d trailing bytes after class file", len(r.buf)-r.pos)
	}
	return cf, nil
}

func readMembers(r *reader) []Member {
	n := int(r.u2())
	members := make([]Member, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		members = append(members, Member{
			AccessFlags:     r.u2(),
			NameIndex:       r.u2(),
			DescriptorIndex: r.u2(),
			Attributes:      readAttributes(r),
		})
	}
	return members
}

func readAttributes(r *reader) []Attribute {
	n := int(r.u2())
	attrs := make([]Attribute, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		name := r.u2()
		attrs = append(attrs, Attribute{NameIndex: name, Data: r.bytes(int(r.u4()))})
	}
	return attrs
}

// Bytes encodes the class file.
func (cf *ClassFile) Bytes() []byte {
	w := &writer{}
	w.u4(Magic)
	w.u2(cf.MinorVersion)
	w.u2(cf.MajorVersion)
	cf.Pool.write(w)
	w.u2(cf.AccessFlags)
	w.u2(cf.ThisClass)
	w.u2(cf.SuperClass)
	w.u2(uint16(len(cf.Interfaces)))
	for _, i := range cf.Interfaces {
		w.u2(i)
	}
	writeMembers(w, cf.Fields)
	writeMembers(w, cf.Methods)
	writeAttributes(w, cf.Attributes)
	return w.buf
}

func writeMembers(w *writer, members []Member) {
	w.u2(uint16(len(members)))
	for _, m := range members {
		w.u2(m.AccessFlags)
		w.u2(m.NameIndex)
		w.u2(m.DescriptorIndex)
		writeAttributes(w, m.Attributes)
	}
}

func writeAttributes(w *writer, attrs []Attribute) {
	w.u2(uint16(len(attrs)))
	for _, a := range attrs {
		w.u2(a.NameIndex)
		w.u4(uint32(len(a.Data)))
		w.raw(a.Data)
	}
}

// Clone returns a deep copy that shares no memory with cf.
func (cf *ClassFile) Clone() *ClassFile {
	out := *cf
	out.Pool = cf.Pool.clone()
	out.Interfaces = append([]uint16(nil), cf.Interfaces...)
	out.Fields = cloneMembers(cf.Fields)
	out.Methods = cloneMembers(cf.Methods)
	out.Attributes = cloneAttributes(cf.Attributes)
	return &out
}

func cloneMembers(in []Member) []Member {
	if in == nil {
		return nil
	}
	out := make([]Member, len(in))
	for i, m := range in {
		out[i] = m
		out[i].Attributes = cloneAttributes(m.Attributes)
	}
	return out
}

func cloneAttributes(in []Attribute) []Attribute {
	if in == nil {
		return nil
	}
	out := make([]Attribute, len(in))
	for i, a := range in {
		out[i] = Attribute{NameIndex: a.NameIndex, Data: append([]byte(nil), a.Data...)}
	}
	return out
}

// Name returns the internal name of the class.
func (cf *ClassFile) Name() (string, error) {
	return cf.Pool.ClassName(cf.ThisClass)
}

// MemberName returns the name and descriptor of a field or method.
func (cf *ClassFile) MemberName(m Member) (name, desc string, err error) {
	if name, err = cf.Pool.Utf8(m.NameIndex); err != nil {
		return "", "", err
	}
	if desc, err = cf.Pool.Utf8(m.DescriptorIndex); err != nil {
		return "", "", err
	}
	return name, desc, nil
}

// FindMethods returns the indexes of every method with exactly this name and descriptor.
func (cf *ClassFile) FindMethods(name, desc string) ([]int, error) {
	var found []int
	for i, m := range cf.Methods {
		n, d, err := cf.MemberName(m)
		if err != nil {
			return nil, fmt.Errorf("method %d: %w", i, err)
		}
		if n == name && d == desc {
			found = append(found, i)
		}
	}
	return found, nil
}

// CodeAttribute returns the position of the Code attribute of method i, or -1.
func (cf *ClassFile) CodeAttribute(method int) (int, error) {
	for j, a := range cf.Methods[method].Attributes {
		n, err := cf.Pool.Utf8(a.NameIndex)
		if err != nil {
			return -1, err
		}
		if n == AttrCode {
			return j, nil
		}
	}
	return -1, nil
}

// MethodCode decodes the body of method i.
func (cf *ClassFile) MethodCode(method int) (*Code, error) {
	j, err := cf.CodeAttribute(method)
	if err != nil {
		return nil, err
	}
	if j < 0 {
		return nil, ErrNoCode
	}
	return DecodeCode(cf.Pool, cf.Methods[method].Attributes[j].Data)
}

// SetMethodCode replaces the body of method i with the encoding of code.
func (cf *ClassFile) SetMethodCode(method int, code *Code) error {
	j, err := cf.CodeAttribute(method)
	if err != nil {
		return err
	}
	if j < 0 {
		return ErrNoCode
	}
	data, err := code.Encode()
	if err != nil {
		return err
	}
	cf.Methods[method].Attributes[j].Data = data
	return nil
}
