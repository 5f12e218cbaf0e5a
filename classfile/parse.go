package classfile

import "io"

// Parse reads a class file from r. It decodes the full grammar (constant
// pool, interface table, field table, method table, attribute tables) well
// enough to stay byte-aligned throughout, but only interprets the
// constant pool and a method's Code attribute: field initializers, class
// and field attributes (other than knowing their length) are left as raw
// bytes, since nothing downstream of the boundary (spec §1, §6) needs them.
func Parse(r io.Reader) (*ClassFile, error) {
	magic, err := readU4(r)
	if err != nil {
		return nil, err
	}
	if magic != Magic {
		return nil, InvalidMagicError(magic)
	}
	cf := &ClassFile{}
	if cf.Minor, err = readU2(r); err != nil {
		return nil, err
	}
	if cf.Major, err = readU2(r); err != nil {
		return nil, err
	}
	if cf.ConstantPool, err = parseConstantPool(r); err != nil {
		return nil, err
	}
	if cf.AccessFlags, err = readU2(r); err != nil {
		return nil, err
	}
	if cf.ThisClass, err = readU2(r); err != nil {
		return nil, err
	}
	if cf.SuperClass, err = readU2(r); err != nil {
		return nil, err
	}
	if cf.Interfaces, err = parseU2Table(r); err != nil {
		return nil, err
	}
	if cf.Fields, err = parseMemberTable(r); err != nil {
		return nil, err
	}
	if cf.Methods, err = parseMemberTable(r); err != nil {
		return nil, err
	}
	if cf.Attributes, err = parseAttributeTable(r); err != nil {
		return nil, err
	}
	return cf, nil
}

func parseU2Table(r io.Reader) ([]uint16, error) {
	count, err := readU2(r)
	if err != nil {
		return nil, err
	}
	out := make([]uint16, count)
	for i := range out {
		if out[i], err = readU2(r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func parseMemberTable(r io.Reader) ([]MemberInfo, error) {
	count, err := readU2(r)
	if err != nil {
		return nil, err
	}
	out := make([]MemberInfo, count)
	for i := range out {
		accessFlags, err := readU2(r)
		if err != nil {
			return nil, err
		}
		nameIndex, err := readU2(r)
		if err != nil {
			return nil, err
		}
		descriptorIndex, err := readU2(r)
		if err != nil {
			return nil, err
		}
		attrs, err := parseAttributeTable(r)
		if err != nil {
			return nil, err
		}
		out[i] = MemberInfo{
			AccessFlags:     accessFlags,
			NameIndex:       nameIndex,
			DescriptorIndex: descriptorIndex,
			Attributes:      attrs,
		}
	}
	return out, nil
}

func parseAttributeTable(r io.Reader) ([]AttributeInfo, error) {
	count, err := readU2(r)
	if err != nil {
		return nil, err
	}
	out := make([]AttributeInfo, count)
	for i := range out {
		nameIndex, err := readU2(r)
		if err != nil {
			return nil, err
		}
		length, err := readU4(r)
		if err != nil {
			return nil, err
		}
		info, err := readBytes(r, int(length))
		if err != nil {
			return nil, err
		}
		out[i] = AttributeInfo{NameIndex: nameIndex, Info: info}
	}
	return out, nil
}
