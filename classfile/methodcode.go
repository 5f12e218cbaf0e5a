package classfile

import (
	"bytes"
	"fmt"
)

const codeAttributeName = "Code"

// RawCode is the decoded body of a method's Code attribute (JVM spec
// §4.7.3), stopping short of interpreting the bytecode itself: that is the
// disassembler's job. Only the fields the disassembler and its callers need
// survive; the attribute's own nested attribute table (LineNumberTable and
// friends) is discarded since nothing downstream reads it.
type RawCode struct {
	MaxStack  uint16
	MaxLocals uint16
	Bytecode  []byte
}

// UnsupportedExceptionTableError is returned for a method whose Code
// attribute declares a non-empty exception table. try/catch recovery is a
// Non-goal of this pipeline; rather than silently drop handlers, the method
// is rejected so the gap is visible.
type UnsupportedExceptionTableError struct {
	EntryCount int
}

func (e UnsupportedExceptionTableError) Error() string {
	return fmt.Sprintf("classfile: method has %d exception table entries, which this pipeline cannot decompile", e.EntryCount)
}

// MethodCode locates and parses m's Code attribute. Returns (nil, nil) for
// an abstract or native method, which has no Code attribute at all.
func (c *ClassFile) MethodCode(m MemberInfo) (*RawCode, error) {
	for _, attr := range m.Attributes {
		name, err := c.ConstantPool.Utf8(attr.NameIndex)
		if err != nil {
			return nil, err
		}
		if name != codeAttributeName {
			continue
		}
		return parseRawCode(attr.Info)
	}
	return nil, nil
}

func parseRawCode(info []byte) (*RawCode, error) {
	r := bytes.NewReader(info)
	maxStack, err := readU2(r)
	if err != nil {
		return nil, err
	}
	maxLocals, err := readU2(r)
	if err != nil {
		return nil, err
	}
	codeLength, err := readU4(r)
	if err != nil {
		return nil, err
	}
	bytecode, err := readBytes(r, int(codeLength))
	if err != nil {
		return nil, err
	}
	exceptionTableLength, err := readU2(r)
	if err != nil {
		return nil, err
	}
	if exceptionTableLength > 0 {
		return nil, UnsupportedExceptionTableError{EntryCount: int(exceptionTableLength)}
	}
	// Trailing attributes (LineNumberTable, LocalVariableTable, StackMapTable)
	// are intentionally left unparsed; nothing downstream consumes them.
	return &RawCode{MaxStack: maxStack, MaxLocals: maxLocals, Bytecode: bytecode}, nil
}
