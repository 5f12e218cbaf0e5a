// Package ctor reclassifies a class's `<init>` method into a constructor
// declaration and rewrites its `this`/`super` construction calls, the fifth
// stage of the decompilation pipeline.
package ctor

import (
	"fmt"

	"github.com/classlift/unjavac/ir"
)

// MalformedConstructorCallError is returned when an `<init>` invocation's
// receiver is not the instance being constructed.
type MalformedConstructorCallError struct {
	Receiver string
}

func (e MalformedConstructorCallError) Error() string {
	return fmt.Sprintf("ctor: <init> call receiver %q is not `this`", e.Receiver)
}

// thisSlot is the local variable JVM bytecode always reserves for the
// receiver in an instance method, including a constructor.
const thisSlot = "local_0"

// Reclassify walks cu's declarations and, for every MethodDecl named
// "<init>", replaces it with a ConstructorDecl whose body has had every
// `this.<init>(...)`/`super.<init>(...)` call statement rewritten from a
// plain invocation expression into a ThisCallStmt/SuperCallStmt.
func Reclassify(cu *ir.CompilationUnit[*ir.Cfg[ir.Statement, ir.Expr]]) (*ir.CompilationUnit[*ir.Cfg[ir.Statement, ir.Expr]], error) {
	out := &ir.CompilationUnit[*ir.Cfg[ir.Statement, ir.Expr]]{
		Name:       cu.Name,
		Modifiers:  cu.Modifiers,
		SuperClass: cu.SuperClass,
		Metadata:   cu.Metadata,
	}

	for _, decl := range cu.Declarations {
		method, ok := decl.(*ir.MethodDecl[*ir.Cfg[ir.Statement, ir.Expr]])
		if !ok || method.Name != "<init>" {
			out.Declarations = append(out.Declarations, decl)
			continue
		}

		if err := rewriteConstructorBody(cu.Name, method.Code); err != nil {
			return nil, fmt.Errorf("method <init>: %w", err)
		}
		logger.Printf("%s.<init>: reclassified as constructor", cu.Name)
		out.Declarations = append(out.Declarations, &ir.ConstructorDecl[*ir.Cfg[ir.Statement, ir.Expr]]{
			Modifiers:  method.Modifiers,
			Parameters: method.Signature.Parameters,
			Code:       method.Code,
		})
	}

	return out, nil
}

func rewriteConstructorBody(className string, cfg *ir.Cfg[ir.Statement, ir.Expr]) error {
	for _, label := range cfg.Labels() {
		block := cfg.Nodes[label]
		for i, stmt := range block.Stmts {
			rewritten, err := rewriteStatement(className, stmt)
			if err != nil {
				return err
			}
			block.Stmts[i] = rewritten
		}
	}
	return nil
}

func rewriteStatement(className string, stmt ir.Statement) (ir.Statement, error) {
	es, ok := stmt.(ir.ExprStmt)
	if !ok {
		return stmt, nil
	}
	invoke, ok := es.Value.(ir.InvokeExpr)
	if !ok || invoke.Method.Name != "<init>" {
		return stmt, nil
	}

	if !isThis(invoke.Receiver) {
		return nil, MalformedConstructorCallError{Receiver: fmt.Sprintf("%#v", invoke.Receiver)}
	}

	if invoke.Class.Name == className {
		logger.Printf("rewriting this.<init>(...) call in %s", className)
		return ir.ThisCallStmt{Args: invoke.Args}, nil
	}
	logger.Printf("rewriting super.<init>(...) call in %s to %s", className, invoke.Class.Name)
	return ir.SuperCallStmt{Args: invoke.Args}, nil
}

// isThis reports whether expr is the receiver of the enclosing instance
// method: either the ThisExpr literal, or a (post-propagation) read of local
// slot 0, the JVM's implicit receiver local.
func isThis(expr ir.Expr) bool {
	if _, ok := expr.(ir.ThisExpr); ok {
		return true
	}
	ae, ok := expr.(ir.AssignableExpr)
	if !ok {
		return false
	}
	v, ok := ae.Value.(ir.VariableAssignable)
	return ok && v.Name == thisSlot
}
