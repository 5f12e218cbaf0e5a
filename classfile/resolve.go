package classfile

import (
	"github.com/classlift/unjavac/ir"
)

// Resolve builds the ir.Metadata a method's bytecode references by from a
// class file's constant pool. Every constant pool entry that can be the
// operand of ldc, getfield/putfield, invoke*, or new is resolved into the
// table ir.Metadata exposes for it, and every NameAndType entry is also
// recorded in NameRefs; Utf8, Float and Double entries are consulted but
// never surfaced on their own.
func Resolve(cf *ClassFile) (*ir.Metadata, error) {
	md := ir.NewMetadata()
	pool := cf.ConstantPool
	for i, entry := range pool.Entries {
		index := uint16(i)
		switch e := entry.(type) {
		case IntegerInfo:
			md.Literals[index] = ir.Integer(e.Value)
		case LongInfo:
			md.Literals[index] = ir.Long(e.Value)
		case StringInfo:
			s, err := pool.Utf8(e.StringIndex)
			if err != nil {
				return nil, err
			}
			md.StringConstants[index] = s
			md.Literals[index] = ir.String(s)
		case ClassInfo:
			name, err := pool.Utf8(e.NameIndex)
			if err != nil {
				return nil, err
			}
			md.ClassRefs[index] = ir.ClassRef{Name: dottedName(name)}
		case NameAndTypeInfo:
			name, err := pool.Utf8(e.NameIndex)
			if err != nil {
				return nil, err
			}
			descriptor, err := pool.Utf8(e.DescriptorIndex)
			if err != nil {
				return nil, err
			}
			md.NameRefs[index] = ir.NameRef{Name: name, Descriptor: descriptor}
		}
	}
	for i, entry := range pool.Entries {
		index := uint16(i)
		switch e := entry.(type) {
		case FieldrefInfo:
			class, err := resolveClassRefEntry(pool, e.ClassIndex)
			if err != nil {
				return nil, err
			}
			nameRef, err := resolveNameAndType(pool, e.NameAndTypeIndex)
			if err != nil {
				return nil, err
			}
			typ, err := ParseFieldDescriptor(nameRef.Descriptor)
			if err != nil {
				return nil, err
			}
			md.FieldRefs[index] = ir.FieldRef{Class: class, Name: nameRef.Name, Type: typ}
		case MethodrefInfo:
			class, err := resolveClassRefEntry(pool, e.ClassIndex)
			if err != nil {
				return nil, err
			}
			nameRef, err := resolveNameAndType(pool, e.NameAndTypeIndex)
			if err != nil {
				return nil, err
			}
			sig, err := ParseMethodDescriptor(nameRef.Descriptor)
			if err != nil {
				return nil, err
			}
			md.MethodRefs[index] = ir.MethodRef{Class: class, Name: nameRef.Name, Signature: sig}
		case InterfaceMethodrefInfo:
			class, err := resolveClassRefEntry(pool, e.ClassIndex)
			if err != nil {
				return nil, err
			}
			nameRef, err := resolveNameAndType(pool, e.NameAndTypeIndex)
			if err != nil {
				return nil, err
			}
			sig, err := ParseMethodDescriptor(nameRef.Descriptor)
			if err != nil {
				return nil, err
			}
			md.MethodRefs[index] = ir.MethodRef{Class: class, Name: nameRef.Name, Signature: sig}
		}
	}
	return md, nil
}

func resolveClassRefEntry(pool *ConstantPool, index uint16) (ir.ClassRef, error) {
	if int(index) >= len(pool.Entries) {
		return ir.ClassRef{}, InvalidConstantPoolIndexError(index)
	}
	ci, ok := pool.Entries[index].(ClassInfo)
	if !ok {
		return ir.ClassRef{}, UnexpectedConstantPoolEntryError{Index: index, Wanted: "Class"}
	}
	name, err := pool.Utf8(ci.NameIndex)
	if err != nil {
		return ir.ClassRef{}, err
	}
	return ir.ClassRef{Name: dottedName(name)}, nil
}

func resolveNameAndType(pool *ConstantPool, index uint16) (ir.NameRef, error) {
	if int(index) >= len(pool.Entries) {
		return ir.NameRef{}, InvalidConstantPoolIndexError(index)
	}
	nt, ok := pool.Entries[index].(NameAndTypeInfo)
	if !ok {
		return ir.NameRef{}, UnexpectedConstantPoolEntryError{Index: index, Wanted: "NameAndType"}
	}
	name, err := pool.Utf8(nt.NameIndex)
	if err != nil {
		return ir.NameRef{}, err
	}
	descriptor, err := pool.Utf8(nt.DescriptorIndex)
	if err != nil {
		return ir.NameRef{}, err
	}
	return ir.NameRef{Name: name, Descriptor: descriptor}, nil
}
