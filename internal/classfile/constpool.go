package classfile

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Tag identifies the kind of a constant pool entry.
type Tag uint8

// Constant pool tags (JVMS §4.4).
const (
	TagUtf8               Tag = 1
	TagInteger            Tag = 3
	TagFloat              Tag = 4
	TagLong               Tag = 5
	TagDouble             Tag = 6
	TagClass              Tag = 7
	TagString             Tag = 8
	TagFieldref           Tag = 9
	TagMethodref          Tag = 10
	TagInterfaceMethodref Tag = 11
	TagNameAndType        Tag = 12
	TagMethodHandle       Tag = 15
	TagMethodType         Tag = 16
	TagDynamic            Tag = 17
	TagInvokeDynamic      Tag = 18
	TagModule             Tag = 19
	TagPackage            Tag = 20
)

// ErrPoolFull is returned when a new constant would not fit in the u2 index space.
var ErrPoolFull = errors.New("constant pool is full")

var payloadSize = map[Tag]int{
	TagInteger:            4,
	TagFloat:              4,
	TagLong:               8,
	TagDouble:             8,
	TagClass:              2,
	TagString:             2,
	TagFieldref:           4,
	TagMethodref:          4,
	TagInterfaceMethodref: 4,
	TagNameAndType:        4,
	TagMethodHandle:       3,
	TagMethodType:         2,
	TagDynamic:            4,
	TagInvokeDynamic:      4,
	TagModule:             2,
	TagPackage:            2,
}

// Constant is one raw constant pool entry. Data holds the payload after the
// tag byte; for Utf8 entries it holds the modified UTF-8 bytes without the
// length prefix. Slots following Long and Double entries have Tag 0.
type Constant struct {
	Tag  Tag
	Data []byte
}

// ConstantPool is the 1-based constant pool of a class file.
type ConstantPool struct {
	entries []Constant
}

// Len returns the constant_pool_count value (number of slots plus one).
func (p *ConstantPool) Len() int {
	return len(p.entries)
}

// Get returns the entry at index i.
func (p *ConstantPool) Get(i uint16) (Constant, error) {
	if i == 0 || int(i) >= len(p.entries) || p.entries[i].Tag == 0 {
		return Constant{}, fmt.Errorf("invalid constant pool index %d", i)
	}
	return p.entries[i], nil
}

// Utf8 returns the string stored in the Utf8 entry at index i.
func (p *ConstantPool) Utf8(i uint16) (string, error) {
	c, err := p.Get(i)
	if err != nil {
		return "", err
	}
	if c.Tag != TagUtf8 {
		return "", fmt.Errorf("constant %d is tag %d, want Utf8", i, c.Tag)
	}
	return string(c.Data), nil
}

// ClassName returns the internal name referenced by the Class entry at index i.
func (p *ConstantPool) ClassName(i uint16) (string, error) {
	c, err := p.Get(i)
	if err != nil {
		return "", err
	}
	if c.Tag != TagClass {
		return "", fmt.Errorf("constant %d is tag %d, want Class", i, c.Tag)
	}
	return p.Utf8(binary.BigEndian.Uint16(c.Data))
}

// MemberRef resolves a Fieldref, Methodref or InterfaceMethodref entry into
// its owner, name and descriptor.
func (p *ConstantPool) MemberRef(i uint16) (owner, name, desc string, err error) {
	c, err := p.Get(i)
	if err != nil {
		return "", "", "", err
	}
	switch c.Tag {
	case TagFieldref, TagMethodref, TagInterfaceMethodref:
	default:
		return "", "", "", fmt.Errorf("constant %d is tag %d, want member reference", i, c.Tag)
	}
	if owner, err = p.ClassName(binary.BigEndian.Uint16(c.Data)); err != nil {
		return "", "", "", err
	}
	nat, err := p.Get(binary.BigEndian.Uint16(c.Data[2:]))
	if err != nil {
		return "", "", "", err
	}
	if nat.Tag != TagNameAndType {
		return "", "", "", fmt.Errorf("constant %d does not reference a NameAndType", i)
	}
	if name, err = p.Utf8(binary.BigEndian.Uint16(nat.Data)); err != nil {
		return "", "", "", err
	}
	if desc, err = p.Utf8(binary.BigEndian.Uint16(nat.Data[2:])); err != nil {
		return "", "", "", err
	}
	return owner, name, desc, nil
}

func (p *ConstantPool) find(tag Tag, data []byte) (uint16, bool) {
	for i := 1; i < len(p.entries); i++ {
		e := p.entries[i]
		if e.Tag == tag && string(e.Data) == string(data) {
			return uint16(i), true
		}
	}
	return 0, false
}

func (p *ConstantPool) add(tag Tag, data []byte) (uint16, error) {
	if i, ok := p.find(tag, data); ok {
		return i, nil
	}
	if len(p.entries) >= 0xffff {
		return 0, ErrPoolFull
	}
	p.entries = append(p.entries, Constant{Tag: tag, Data: data})
	return uint16(len(p.entries) - 1), nil
}

// AddUtf8 returns the index of a Utf8 entry holding s, appending one if needed.
func (p *ConstantPool) AddUtf8(s string) (uint16, error) {
	return p.add(TagUtf8, []byte(s))
}

// AddClass returns the index of a Class entry for the internal name.
func (p *ConstantPool) AddClass(internalName string) (uint16, error) {
	name, err := p.AddUtf8(internalName)
	if err != nil {
		return 0, err
	}
	return p.add(TagClass, u2(name))
}

// AddNameAndType returns the index of a NameAndType entry.
func (p *ConstantPool) AddNameAndType(name, desc string) (uint16, error) {
	n, err := p.AddUtf8(name)
	if err != nil {
		return 0, err
	}
	d, err := p.AddUtf8(desc)
	if err != nil {
		return 0, err
	}
	return p.add(TagNameAndType, append(u2(n), u2(d)...))
}

// AddMethodref returns the index of a Methodref entry for owner.name desc.
func (p *ConstantPool) AddMethodref(owner, name, desc string) (uint16, error) {
	c, err := p.AddClass(owner)
	if err != nil {
		return 0, err
	}
	nat, err := p.AddNameAndType(name, desc)
	if err != nil {
		return 0, err
	}
	return p.add(TagMethodref, append(u2(c), u2(nat)...))
}

func (p *ConstantPool) clone() *ConstantPool {
	out := &ConstantPool{entries: make([]Constant, len(p.entries))}
	for i, e := range p.entries {
		out.entries[i] = Constant{Tag: e.Tag, Data: append([]byte(nil), e.Data...)}
	}
	return out
}

func readPool(r *reader) (*ConstantPool, error) {
	count := int(r.u2())
	if r.err != nil {
		return nil, r.err
	}
	p := &ConstantPool{entries: make([]Constant, count)}
	for i := 1; i < count; i++ {
		tag := Tag(r.u1())
		var data []byte
		if tag == TagUtf8 {
			data = r.bytes(int(r.u2()))
		} else {
			n, ok := payloadSize[tag]
			if !ok {
				if r.err != nil {
					return nil, r.err
				}
				return nil, fmt.Errorf("constant %d: unknown tag %d", i, tag)
			}
			data = r.bytes(n)
		}
		if r.err != nil {
			return nil, fmt.Errorf("constant %d: %w", i, r.err)
		}
		p.entries[i] = Constant{Tag: tag, Data: data}
		if tag == TagLong || tag == TagDouble {
			i++
		}
	}
	return p, nil
}

func (p *ConstantPool) write(w *writer) {
	w.u2(uint16(len(p.entries)))
	for i := 1; i < len(p.entries); i++ {
		e := p.entries[i]
		if e.Tag == 0 {
			continue
		}
		w.u1(uint8(e.Tag))
		if e.Tag == TagUtf8 {
			w.u2(uint16(len(e.Data)))
		}
		w.raw(e.Data)
	}
}

func u2(v uint16) []byte {
	return []byte{byte(v >> 8), byte(v)}
}
