package classfile

import "fmt"

// Magic is the 4-byte signature every class file begins with.
const Magic uint32 = 0xCAFEBABE

// AttributeInfo is a single, uninterpreted class-file attribute: name index
// plus raw payload bytes. Attributes this pipeline does not interpret
// (everything but a method's Code attribute) are kept only so their length
// is known and the surrounding byte stream stays aligned.
type AttributeInfo struct {
	NameIndex uint16
	Info      []byte
}

// MemberInfo is a field_info or method_info structure; both share the same
// shape in the class file format.
type MemberInfo struct {
	AccessFlags     uint16
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []AttributeInfo
}

// ClassFile is the parsed structure of a .class file, the external
// collaborator's contract per spec §1/§6: the disassembler consumes this
// (by way of Resolve and a method's Code attribute), it never touches the
// byte stream itself.
type ClassFile struct {
	Minor, Major uint16
	ConstantPool *ConstantPool
	AccessFlags  uint16
	ThisClass    uint16
	SuperClass   uint16
	Interfaces   []uint16
	Fields       []MemberInfo
	Methods      []MemberInfo
	Attributes   []AttributeInfo
}

// InvalidMagicError is returned when the first four bytes of the input
// aren't the class file magic number.
type InvalidMagicError uint32

func (e InvalidMagicError) Error() string {
	return fmt.Sprintf("classfile: invalid magic number 0x%08X", uint32(e))
}

// ThisClassName resolves the class's own name.
func (c *ClassFile) ThisClassName() (string, error) {
	return c.resolveClassName(c.ThisClass)
}

// SuperClassName resolves the superclass's name. Returns "" for
// java.lang.Object (super_class == 0).
func (c *ClassFile) SuperClassName() (string, error) {
	if c.SuperClass == 0 {
		return "", nil
	}
	return c.resolveClassName(c.SuperClass)
}

func (c *ClassFile) resolveClassName(index uint16) (string, error) {
	if int(index) >= len(c.ConstantPool.Entries) {
		return "", InvalidConstantPoolIndexError(index)
	}
	ci, ok := c.ConstantPool.Entries[index].(ClassInfo)
	if !ok {
		return "", UnexpectedConstantPoolEntryError{Index: index, Wanted: "Class"}
	}
	name, err := c.ConstantPool.Utf8(ci.NameIndex)
	if err != nil {
		return "", err
	}
	return dottedName(name), nil
}

// MethodName resolves a method_info's name.
func (c *ClassFile) MethodName(m MemberInfo) (string, error) {
	return c.ConstantPool.Utf8(m.NameIndex)
}

// MethodDescriptor resolves a method_info's raw descriptor string.
func (c *ClassFile) MethodDescriptor(m MemberInfo) (string, error) {
	return c.ConstantPool.Utf8(m.DescriptorIndex)
}
