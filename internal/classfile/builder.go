package classfile

// Access flags used when synthesizing classes.
const (
	AccPublic = 0x0001
	AccStatic = 0x0008
	AccSuper  = 0x0020
)

// Java 8 class file version; the oldest version that requires stack maps.
const defaultMajorVersion = 52

// NewClass returns an empty public class with the given internal names.
func NewClass(name, super string) (*ClassFile, error) {
	cf := &ClassFile{
		MajorVersion: defaultMajorVersion,
		Pool:         &ConstantPool{entries: make([]Constant, 1)},
		AccessFlags:  AccPublic | AccSuper,
	}
	var err error
	if cf.ThisClass, err = cf.Pool.AddClass(name); err != nil {
		return nil, err
	}
	if cf.SuperClass, err = cf.Pool.AddClass(super); err != nil {
		return nil, err
	}
	return cf, nil
}

// AddMethod appends a method. A nil code produces a method without a body.
func (cf *ClassFile) AddMethod(access uint16, name, desc string, code *Code) error {
	m := Member{AccessFlags: access}
	var err error
	if m.NameIndex, err = cf.Pool.AddUtf8(name); err != nil {
		return err
	}
	if m.DescriptorIndex, err = cf.Pool.AddUtf8(desc); err != nil {
		return err
	}
	if code != nil {
		attrName, err := cf.Pool.AddUtf8(AttrCode)
		if err != nil {
			return err
		}
		for i := range code.Attributes {
			if code.Attributes[i].NameIndex == 0 {
				if code.Attributes[i].NameIndex, err = cf.Pool.AddUtf8(code.Attributes[i].Name); err != nil {
					return err
				}
			}
		}
		data, err := code.Encode()
		if err != nil {
			return err
		}
		m.Attributes = append(m.Attributes, Attribute{NameIndex: attrName, Data: data})
	}
	cf.Methods = append(cf.Methods, m)
	return nil
}
