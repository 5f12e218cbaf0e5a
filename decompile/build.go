// Package decompile wires the pipeline's six stages together: given a
// parsed class file it disassembles every method, builds its control-flow
// graph, lifts the operand stack into named variables, propagates those
// variables into their use sites, reclassifies `<init>` into a constructor
// and finally structures the graph back into if/while/break/continue
// statements.
package decompile

import (
	"github.com/pkg/errors"

	"github.com/classlift/unjavac/classfile"
	"github.com/classlift/unjavac/disasm"
	"github.com/classlift/unjavac/ir"
)

// BuildUnit resolves cf's constant pool into an ir.Metadata table and
// assembles the class's initial CompilationUnit, with every method's
// bytecode already disassembled into ir.Code. This is the seam between the
// class-file reader and the rest of the pipeline, which never looks at a
// byte stream again.
func BuildUnit(cf *classfile.ClassFile) (*ir.CompilationUnit[ir.Code], error) {
	metadata, err := classfile.Resolve(cf)
	if err != nil {
		return nil, errors.Wrap(err, "decompile: resolving constant pool")
	}

	name, err := cf.ThisClassName()
	if err != nil {
		return nil, errors.Wrap(err, "decompile: resolving class name")
	}
	superName, err := cf.SuperClassName()
	if err != nil {
		return nil, errors.Wrap(err, "decompile: resolving superclass name")
	}

	cu := &ir.CompilationUnit[ir.Code]{
		Name:       name,
		Modifiers:  mapModifiers(cf.AccessFlags),
		SuperClass: ir.ClassRef{Name: superName},
		Metadata:   metadata,
	}

	for _, f := range cf.Fields {
		decl, err := buildFieldDecl(cf, f)
		if err != nil {
			return nil, errors.Wrapf(err, "decompile: field %#v", f)
		}
		cu.Declarations = append(cu.Declarations, decl)
	}

	for _, m := range cf.Methods {
		decl, err := buildMethodDecl(cf, m)
		if err != nil {
			name, nameErr := cf.MethodName(m)
			if nameErr != nil {
				name = "<unknown>"
			}
			return nil, errors.Wrapf(err, "decompile: method %s", name)
		}
		cu.Declarations = append(cu.Declarations, decl)
	}

	return cu, nil
}

func buildFieldDecl(cf *classfile.ClassFile, f classfile.MemberInfo) (*ir.FieldDecl, error) {
	name, err := cf.MethodName(f)
	if err != nil {
		return nil, err
	}
	descriptor, err := cf.MethodDescriptor(f)
	if err != nil {
		return nil, err
	}
	typ, err := classfile.ParseFieldDescriptor(descriptor)
	if err != nil {
		return nil, err
	}
	return &ir.FieldDecl{Modifiers: mapModifiers(f.AccessFlags), Name: name, Type: typ}, nil
}

func buildMethodDecl(cf *classfile.ClassFile, m classfile.MemberInfo) (*ir.MethodDecl[ir.Code], error) {
	name, err := cf.MethodName(m)
	if err != nil {
		return nil, err
	}
	descriptor, err := cf.MethodDescriptor(m)
	if err != nil {
		return nil, err
	}
	sig, err := classfile.ParseMethodDescriptor(descriptor)
	if err != nil {
		return nil, err
	}

	raw, err := cf.MethodCode(m)
	if err != nil {
		return nil, err
	}

	var code ir.Code
	if raw != nil {
		decoded, err := disasm.Disassemble(raw.Bytecode, int(raw.MaxStack), int(raw.MaxLocals))
		if err != nil {
			return nil, err
		}
		code = *decoded
	}

	return &ir.MethodDecl[ir.Code]{
		Modifiers: mapModifiers(m.AccessFlags),
		Name:      name,
		Signature: sig,
		Code:      code,
	}, nil
}
