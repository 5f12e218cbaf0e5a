package classfile

import (
	"fmt"
	"io"
)

// Constant pool tags (JVM spec §4.4). Only the tags this pipeline's
// disassembler can ever reference are decoded; Float/Double are read (so
// the byte stream stays aligned) but carry no usable payload, matching the
// spec's dropped float/double literal support.
const (
	tagUtf8              = 1
	tagInteger           = 3
	tagFloat             = 4
	tagLong              = 5
	tagDouble            = 6
	tagClass             = 7
	tagString            = 8
	tagFieldref          = 9
	tagMethodref         = 10
	tagInterfaceMethodref = 11
	tagNameAndType       = 12
)

// CPInfo is one constant pool entry.
type CPInfo interface {
	isCPInfo()
	width() int // 2 for Long/Double (which occupy two pool slots), else 1
}

type Utf8Info struct{ Value string }

func (Utf8Info) isCPInfo()  {}
func (Utf8Info) width() int { return 1 }

type IntegerInfo struct{ Value int32 }

func (IntegerInfo) isCPInfo()  {}
func (IntegerInfo) width() int { return 1 }

type FloatInfo struct{}

func (FloatInfo) isCPInfo()  {}
func (FloatInfo) width() int { return 1 }

type LongInfo struct{ Value int64 }

func (LongInfo) isCPInfo()  {}
func (LongInfo) width() int { return 2 }

type DoubleInfo struct{}

func (DoubleInfo) isCPInfo()  {}
func (DoubleInfo) width() int { return 2 }

type ClassInfo struct{ NameIndex uint16 }

func (ClassInfo) isCPInfo()  {}
func (ClassInfo) width() int { return 1 }

type StringInfo struct{ StringIndex uint16 }

func (StringInfo) isCPInfo()  {}
func (StringInfo) width() int { return 1 }

type FieldrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (FieldrefInfo) isCPInfo()  {}
func (FieldrefInfo) width() int { return 1 }

type MethodrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (MethodrefInfo) isCPInfo()  {}
func (MethodrefInfo) width() int { return 1 }

type InterfaceMethodrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (InterfaceMethodrefInfo) isCPInfo()  {}
func (InterfaceMethodrefInfo) width() int { return 1 }

type NameAndTypeInfo struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

func (NameAndTypeInfo) isCPInfo()  {}
func (NameAndTypeInfo) width() int { return 1 }

// ConstantPool is the 1-indexed constant pool of a class file. Entries is
// indexed by the raw constant-pool index; index 0 and the second slot of
// any Long/Double entry are left nil, mirroring the JVM's own "unusable"
// slots.
type ConstantPool struct {
	Entries []CPInfo // Entries[0] is always nil
}

// InvalidConstantPoolTagError is returned for a byte outside the tag set
// this pipeline understands.
type InvalidConstantPoolTagError uint8

func (e InvalidConstantPoolTagError) Error() string {
	return fmt.Sprintf("classfile: invalid constant pool tag %d", uint8(e))
}

func parseConstantPool(r io.Reader) (*ConstantPool, error) {
	count, err := readU2(r)
	if err != nil {
		return nil, err
	}
	pool := &ConstantPool{Entries: make([]CPInfo, count)}
	for i := 1; i < int(count); i++ {
		tag, err := readU1(r)
		if err != nil {
			return nil, err
		}
		entry, err := parseCPEntry(r, tag)
		if err != nil {
			return nil, err
		}
		pool.Entries[i] = entry
		if entry.width() == 2 {
			i++ // Long/Double occupy the following slot too (JVM spec §4.4.5)
		}
	}
	return pool, nil
}

func parseCPEntry(r io.Reader, tag uint8) (CPInfo, error) {
	switch tag {
	case tagUtf8:
		length, err := readU2(r)
		if err != nil {
			return nil, err
		}
		buf, err := readBytes(r, int(length))
		if err != nil {
			return nil, err
		}
		return Utf8Info{Value: string(buf)}, nil
	case tagInteger:
		v, err := readU4(r)
		if err != nil {
			return nil, err
		}
		return IntegerInfo{Value: int32(v)}, nil
	case tagFloat:
		if _, err := readU4(r); err != nil {
			return nil, err
		}
		return FloatInfo{}, nil
	case tagLong:
		hi, err := readU4(r)
		if err != nil {
			return nil, err
		}
		lo, err := readU4(r)
		if err != nil {
			return nil, err
		}
		return LongInfo{Value: int64(hi)<<32 | int64(lo)}, nil
	case tagDouble:
		if _, err := readU4(r); err != nil {
			return nil, err
		}
		if _, err := readU4(r); err != nil {
			return nil, err
		}
		return DoubleInfo{}, nil
	case tagClass:
		idx, err := readU2(r)
		if err != nil {
			return nil, err
		}
		return ClassInfo{NameIndex: idx}, nil
	case tagString:
		idx, err := readU2(r)
		if err != nil {
			return nil, err
		}
		return StringInfo{StringIndex: idx}, nil
	case tagFieldref:
		c, n, err := readRefPair(r)
		if err != nil {
			return nil, err
		}
		return FieldrefInfo{ClassIndex: c, NameAndTypeIndex: n}, nil
	case tagMethodref:
		c, n, err := readRefPair(r)
		if err != nil {
			return nil, err
		}
		return MethodrefInfo{ClassIndex: c, NameAndTypeIndex: n}, nil
	case tagInterfaceMethodref:
		c, n, err := readRefPair(r)
		if err != nil {
			return nil, err
		}
		return InterfaceMethodrefInfo{ClassIndex: c, NameAndTypeIndex: n}, nil
	case tagNameAndType:
		n, d, err := readRefPair(r)
		if err != nil {
			return nil, err
		}
		return NameAndTypeInfo{NameIndex: n, DescriptorIndex: d}, nil
	default:
		return nil, InvalidConstantPoolTagError(tag)
	}
}

func readRefPair(r io.Reader) (uint16, uint16, error) {
	a, err := readU2(r)
	if err != nil {
		return 0, 0, err
	}
	b, err := readU2(r)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

// Utf8 looks up a UTF-8 constant pool entry by index.
func (p *ConstantPool) Utf8(index uint16) (string, error) {
	if int(index) >= len(p.Entries) {
		return "", InvalidConstantPoolIndexError(index)
	}
	u, ok := p.Entries[index].(Utf8Info)
	if !ok {
		return "", UnexpectedConstantPoolEntryError{Index: index, Wanted: "Utf8"}
	}
	return u.Value, nil
}

// InvalidConstantPoolIndexError is returned for an out-of-range constant
// pool index.
type InvalidConstantPoolIndexError uint16

func (e InvalidConstantPoolIndexError) Error() string {
	return fmt.Sprintf("classfile: constant pool index %d out of range", uint16(e))
}

// UnexpectedConstantPoolEntryError is returned when a constant pool index is
// resolved but holds an entry of the wrong kind.
type UnexpectedConstantPoolEntryError struct {
	Index  uint16
	Wanted string
}

func (e UnexpectedConstantPoolEntryError) Error() string {
	return fmt.Sprintf("classfile: constant pool entry %d is not a %s", e.Index, e.Wanted)
}
