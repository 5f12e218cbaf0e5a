package ir

import "fmt"

// ClassRef is a resolved reference to a class or interface, dotted form
// (internal `/`-separated JVM names are rewritten to `.` at resolution time).
type ClassRef struct {
	Name string
}

func (c ClassRef) String() string { return c.Name }

// FieldRef is a resolved reference to a field on a class.
type FieldRef struct {
	Class ClassRef
	Name  string
	Type  Type
}

func (f FieldRef) String() string { return fmt.Sprintf("%s.%s", f.Class, f.Name) }

// MethodRef is a resolved reference to a method on a class.
type MethodRef struct {
	Class     ClassRef
	Name      string
	Signature Signature
}

func (m MethodRef) String() string { return fmt.Sprintf("%s.%s%s", m.Class, m.Name, m.Signature) }

// NameRef is a resolved name-and-type constant pool entry.
type NameRef struct {
	Name       string
	Descriptor string
}
