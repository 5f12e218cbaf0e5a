package decompile

import "github.com/classlift/unjavac/ir"

// JVM access_flags bits this pipeline cares about (JVM spec §4.1/§4.5/§4.6).
// ir.Modifier's own bit assignment is deliberately independent of these —
// the IR is a clean domain model, not a re-export of the class file's wire
// encoding — so building one from the other is an explicit table, not a cast.
const (
	accPublic       = 0x0001
	accPrivate      = 0x0002
	accProtected    = 0x0004
	accStatic       = 0x0008
	accFinal        = 0x0010
	accSynchronized = 0x0020
	accAbstract     = 0x0400
)

func mapModifiers(flags uint16) ir.Modifiers {
	var m ir.Modifiers
	set := func(bit uint16, mod ir.Modifier) {
		if flags&bit != 0 {
			m |= ir.Modifiers(mod)
		}
	}
	set(accPublic, ir.Public)
	set(accPrivate, ir.Private)
	set(accProtected, ir.Protected)
	set(accStatic, ir.Static)
	set(accFinal, ir.Final)
	set(accSynchronized, ir.Synchronized)
	set(accAbstract, ir.Abstract)
	return m
}
