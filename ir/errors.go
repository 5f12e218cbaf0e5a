package ir

import "fmt"

// UnresolvedConstantError is returned when a metadata lookup finds no entry
// for a constant-pool index that the disassembler (or a later pass) tried to
// resolve. Every index the disassembler emits must be present in Metadata;
// seeing this means that invariant was violated.
type UnresolvedConstantError struct {
	Table string
	Index uint16
}

func (e UnresolvedConstantError) Error() string {
	return fmt.Sprintf("ir: no entry in %s table for constant pool index %d", e.Table, e.Index)
}
