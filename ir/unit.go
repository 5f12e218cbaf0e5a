package ir

import "fmt"

// Modifier is a single class/member modifier flag.
type Modifier uint16

const (
	Public Modifier = 1 << iota
	Private
	Protected
	Static
	Final
	Synchronized
	Abstract
)

// Modifiers is a set of Modifier flags.
type Modifiers uint16

func (m Modifiers) Has(mod Modifier) bool { return m&Modifiers(mod) != 0 }

// FieldDecl is a field declaration. Field initializers and the full field
// type system are out of this pipeline's scope (the disassembler's input
// contract only requires resolving fields that are read/written by some
// method's bytecode); this type exists so CompilationUnit's declaration
// list can carry fields through unchanged across every pass.
type FieldDecl struct {
	Modifiers Modifiers
	Name      string
	Type      Type
}

func (*FieldDecl) isDeclaration() {}

// MethodDecl is a method declaration whose body has type C, the
// pipeline-stage-specific body representation (Code, Cfg[Instruction,
// JumpCondition], Cfg[Statement,Expr] or Block).
type MethodDecl[C any] struct {
	Modifiers Modifiers
	Name      string
	Signature Signature
	Code      C
}

func (*MethodDecl[C]) isDeclaration() {}

// ConstructorDecl is what a MethodDecl named "<init>" becomes after the
// constructor pass (spec §4.6).
type ConstructorDecl[C any] struct {
	Modifiers  Modifiers
	Parameters []Type
	Code       C
}

func (*ConstructorDecl[C]) isDeclaration() {}

// Declaration is a class member: a field, a method or (post constructor-pass)
// a constructor. C is the method/constructor body representation.
type Declaration[C any] interface {
	isDeclaration()
}

// CompilationUnit is a class or interface: a name, a modifier set, its
// member declarations and the Metadata table shared read-only by every
// pass. C is the body representation carried by this stage of the pipeline.
type CompilationUnit[C any] struct {
	Name        string
	Modifiers   Modifiers
	SuperClass  ClassRef
	Declarations []Declaration[C]
	Metadata    *Metadata
}

// MapUnit lifts fn, a per-method transformation keyed by the method's name,
// over every method and constructor declaration of cu, producing a new
// CompilationUnit with the same field declarations, name, modifiers and
// (shared) Metadata table. This is the pipeline's one, pure mechanism for
// moving from one body representation to the next (spec §3, §9: "each pass
// implements a map that lifts a per-method function over the container").
// A fn error is wrapped with the method's name, per spec §7's requirement
// that every fatal error is propagated with its method identifier attached.
func MapUnit[C1, C2 any](cu *CompilationUnit[C1], fn func(name string, code C1) (C2, error)) (*CompilationUnit[C2], error) {
	out := &CompilationUnit[C2]{
		Name:       cu.Name,
		Modifiers:  cu.Modifiers,
		SuperClass: cu.SuperClass,
		Metadata:   cu.Metadata,
	}
	for _, decl := range cu.Declarations {
		switch d := decl.(type) {
		case *FieldDecl:
			out.Declarations = append(out.Declarations, d)
		case *MethodDecl[C1]:
			code, err := fn(d.Name, d.Code)
			if err != nil {
				return nil, fmt.Errorf("method %s: %w", d.Name, err)
			}
			out.Declarations = append(out.Declarations, &MethodDecl[C2]{
				Modifiers: d.Modifiers,
				Name:      d.Name,
				Signature: d.Signature,
				Code:      code,
			})
		case *ConstructorDecl[C1]:
			code, err := fn("<init>", d.Code)
			if err != nil {
				return nil, fmt.Errorf("method <init>: %w", err)
			}
			out.Declarations = append(out.Declarations, &ConstructorDecl[C2]{
				Modifiers:  d.Modifiers,
				Parameters: d.Parameters,
				Code:       code,
			})
		}
	}
	return out, nil
}
