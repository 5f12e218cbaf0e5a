package ir

import (
	"fmt"
	"strings"
)

// Type is a JVM value type, as decoded from a field or method descriptor.
// Unlike Literal, Type preserves Float/Double since descriptors must still be
// tagged correctly even though no Float/Double literal can be constructed.
type Type interface {
	isType()
	String() string
}

type primitiveType uint8

const (
	TypeByte primitiveType = iota
	TypeChar
	TypeDouble
	TypeFloat
	TypeInt
	TypeLong
	TypeShort
	TypeBoolean
	TypeVoid
)

func (primitiveType) isType() {}

func (t primitiveType) String() string {
	switch t {
	case TypeByte:
		return "byte"
	case TypeChar:
		return "char"
	case TypeDouble:
		return "double"
	case TypeFloat:
		return "float"
	case TypeInt:
		return "int"
	case TypeLong:
		return "long"
	case TypeShort:
		return "short"
	case TypeBoolean:
		return "boolean"
	case TypeVoid:
		return "void"
	default:
		return fmt.Sprintf("<unknown primitive type %d>", uint8(t))
	}
}

// RefType is a reference type, e.g. `java.lang.Object`.
type RefType struct {
	Class ClassRef
}

func (RefType) isType()          {}
func (t RefType) String() string { return t.Class.Name }

// ArrayType is an array of some element type. Arrays are only tagged, never
// indexed or allocated, per spec's Non-goals.
type ArrayType struct {
	Elem Type
}

func (ArrayType) isType()          {}
func (t ArrayType) String() string { return t.Elem.String() + "[]" }

// Signature is a method signature: parameter types plus a return type.
type Signature struct {
	Parameters []Type
	Return     Type
}

func (s Signature) String() string {
	parts := make([]string, len(s.Parameters))
	for i, p := range s.Parameters {
		parts[i] = p.String()
	}
	return "(" + strings.Join(parts, ", ") + ") " + s.Return.String()
}
