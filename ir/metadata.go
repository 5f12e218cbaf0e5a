package ir

// Metadata holds every constant-pool-derived entity a method's bytecode can
// reference, keyed by the 16-bit constant pool index the classfile used. The
// disassembler guarantees it only emits indices present here; any lookup
// miss is an UnresolvedConstantError, never a panic.
type Metadata struct {
	Literals        map[uint16]Literal
	StringConstants map[uint16]string
	ClassRefs       map[uint16]ClassRef
	FieldRefs       map[uint16]FieldRef
	MethodRefs      map[uint16]MethodRef
	NameRefs        map[uint16]NameRef
}

// NewMetadata returns an empty Metadata with all tables allocated.
func NewMetadata() *Metadata {
	return &Metadata{
		Literals:        map[uint16]Literal{},
		StringConstants: map[uint16]string{},
		ClassRefs:       map[uint16]ClassRef{},
		FieldRefs:       map[uint16]FieldRef{},
		MethodRefs:      map[uint16]MethodRef{},
		NameRefs:        map[uint16]NameRef{},
	}
}

func (m *Metadata) Literal(index uint16) (Literal, error) {
	v, ok := m.Literals[index]
	if !ok {
		return nil, UnresolvedConstantError{Table: "literals", Index: index}
	}
	return v, nil
}

func (m *Metadata) StringConstant(index uint16) (string, error) {
	v, ok := m.StringConstants[index]
	if !ok {
		return "", UnresolvedConstantError{Table: "string_constants", Index: index}
	}
	return v, nil
}

func (m *Metadata) ClassRef(index uint16) (ClassRef, error) {
	v, ok := m.ClassRefs[index]
	if !ok {
		return ClassRef{}, UnresolvedConstantError{Table: "class_refs", Index: index}
	}
	return v, nil
}

func (m *Metadata) FieldRef(index uint16) (FieldRef, error) {
	v, ok := m.FieldRefs[index]
	if !ok {
		return FieldRef{}, UnresolvedConstantError{Table: "field_refs", Index: index}
	}
	return v, nil
}

func (m *Metadata) MethodRef(index uint16) (MethodRef, error) {
	v, ok := m.MethodRefs[index]
	if !ok {
		return MethodRef{}, UnresolvedConstantError{Table: "method_refs", Index: index}
	}
	return v, nil
}

func (m *Metadata) NameRef(index uint16) (NameRef, error) {
	v, ok := m.NameRefs[index]
	if !ok {
		return NameRef{}, UnresolvedConstantError{Table: "name_refs", Index: index}
	}
	return v, nil
}
