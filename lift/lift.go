// Package lift turns a Cfg of raw bytecode Instructions into a Cfg of
// Statements and Exprs, giving every operand-stack slot a name. This is the
// third stage of the decompilation pipeline.
package lift

import (
	"fmt"

	"github.com/classlift/unjavac/ir"
)

// StackUnderflowError is returned when an instruction pops more values than
// the symbolic layout has recorded as live — a malformed or unsupported
// bytecode stream slipped past the disassembler.
type StackUnderflowError struct{}

func (StackUnderflowError) Error() string { return "lift: operand stack underflow" }

// StackJoinMismatchError is returned when two edges into the same block
// disagree on the operand stack depth at that point — the method's bytecode
// is not stack-map-verifiable the way this pipeline assumes.
type StackJoinMismatchError struct {
	Block ir.Label
}

func (e StackJoinMismatchError) Error() string {
	return fmt.Sprintf("lift: block %d reached with inconsistent stack depth", e.Block)
}

// UnsupportedInstructionError is returned for a decoded Instruction variant
// this stage has no lowering for (the Non-goal placeholders: TypeConv,
// ObjManip, StackManage, Synchronized). No opcode the disassembler decodes
// today produces one; this exists so the switch in executeInstruction stays
// exhaustive.
type UnsupportedInstructionError struct {
	Instr string
}

func (e UnsupportedInstructionError) Error() string {
	return fmt.Sprintf("lift: unsupported instruction %s", e.Instr)
}

// StackLayout tracks the symbolic operand stack as a single counter: top is
// the number of live values and the id that the next pushed value will
// receive. Pop frees the topmost id and the next Push hands it out again, so
// an id names a stack depth, which is what lets each stack slot become one
// named variable.
type StackLayout struct {
	top int
}

// Push allocates a fresh id for a value about to be written to the stack.
func (s *StackLayout) Push() ir.StackVarId {
	id := ir.StackVarId(s.top)
	s.top++
	return id
}

// Pop retires the most recently pushed id and returns it.
func (s *StackLayout) Pop() (ir.StackVarId, error) {
	s.top--
	if s.top < 0 {
		return 0, StackUnderflowError{}
	}
	return ir.StackVarId(s.top), nil
}

// Peek resolves a pre-lift stack reference to a concrete id. Pre-lift
// references are always non-positive, counting slots below the current top
// (id -1 is the value just below top); a value already non-negative is
// returned unchanged, since it is already a resolved id.
func (s *StackLayout) Peek(id ir.StackVarId) ir.StackVarId {
	if id < 0 {
		return ir.StackVarId(s.top) + id
	}
	return id
}

func stackName(id ir.StackVarId) string { return fmt.Sprintf("stack_%d", int(id)) }
func localName(index int) string       { return fmt.Sprintf("local_%d", index) }

func stackAssignable(id ir.StackVarId) ir.VariableAssignable {
	return ir.VariableAssignable{Name: stackName(id)}
}

// Lift rewrites g, a Cfg of decoded Instructions, into a Cfg of Statements
// and Exprs: it walks the graph depth-first from the entry node, threading a
// StackLayout along each edge. A block reached by more than one edge must
// see the same layout from every predecessor (StackJoinMismatchError
// otherwise) — the bytecode verifier guarantees this for well-formed class
// files, so this check is a defense against malformed input rather than a
// normal code path.
func Lift(g *ir.Cfg[ir.Instruction, ir.JumpCondition], metadata *ir.Metadata) (*ir.Cfg[ir.Statement, ir.Expr], error) {
	out := ir.NewCfg[ir.Statement, ir.Expr]()
	out.EntryPoint = g.EntryPoint
	out.ExitPoint = g.ExitPoint
	out.Edges = append([]ir.Edge(nil), g.Edges...)

	layoutAt := map[ir.Label]StackLayout{g.EntryPoint: {}}
	visited := map[ir.Label]bool{}

	var visit func(label ir.Label) error
	visit = func(label ir.Label) error {
		if visited[label] {
			return nil
		}
		visited[label] = true

		layout := layoutAt[label]
		node := g.Nodes[label]
		block := &ir.BasicBlock[ir.Statement, ir.Expr]{}

		for _, instr := range node.Stmts {
			stmts, err := executeInstruction(instr, metadata, &layout)
			if err != nil {
				return fmt.Errorf("lift: block %d: %w", label, err)
			}
			block.Stmts = append(block.Stmts, stmts...)
		}
		if node.Terminator != nil {
			expr, err := liftCondition(*node.Terminator, &layout)
			if err != nil {
				return fmt.Errorf("lift: block %d: %w", label, err)
			}
			block.Terminator = &expr
		}
		out.Nodes[label] = block
		logger.Printf("block %d: lifted %d statements, stack top now %d", label, len(block.Stmts), layout.top)

		succ := g.Successors(label)
		for _, edge := range succ {
			if existing, ok := layoutAt[edge.To]; ok {
				if existing != layout {
					return StackJoinMismatchError{Block: edge.To}
				}
			} else {
				layoutAt[edge.To] = layout
			}
		}
		for _, edge := range succ {
			if err := visit(edge.To); err != nil {
				return err
			}
		}
		return nil
	}

	if err := visit(g.EntryPoint); err != nil {
		return nil, err
	}
	return out, nil
}

// liftLValue resolves lv to its assignable form by peeking the stack slots
// it names, without retiring them — the caller decides when those slots are
// actually consumed (see consumesStack), since for InstanceFieldLV that must
// happen only after the stored value itself has been popped.
func liftLValue(lv ir.LValue, md *ir.Metadata, layout *StackLayout) (ir.Assignable, error) {
	switch v := lv.(type) {
	case ir.Local:
		return ir.VariableAssignable{Name: localName(v.Index)}, nil
	case ir.Stack:
		idx := layout.Peek(v.ID)
		return ir.VariableAssignable{Name: stackName(idx)}, nil
	case ir.StaticFieldLV:
		fr, err := md.FieldRef(v.FieldIndex)
		if err != nil {
			return nil, err
		}
		return ir.FieldAssignable{Class: fr.Class, Field: fr}, nil
	case ir.InstanceFieldLV:
		fr, err := md.FieldRef(v.FieldIndex)
		if err != nil {
			return nil, err
		}
		idx := layout.Peek(v.ObjectStackIndex)
		return ir.FieldAssignable{This: ir.Variable(stackName(idx)), Class: fr.Class, Field: fr}, nil
	default:
		return nil, fmt.Errorf("lift: unsupported lvalue %T", lv)
	}
}

// consumesStack reports whether lv names a receiver or array slot still
// sitting on the operand stack, which the caller must retire once it is done
// peeking it.
func consumesStack(lv ir.LValue) bool {
	switch lv.(type) {
	case ir.Stack, ir.InstanceFieldLV:
		return true
	default:
		return false
	}
}

func liftRValue(rv ir.RValue, md *ir.Metadata, layout *StackLayout) (ir.Expr, error) {
	switch v := rv.(type) {
	case ir.ConstLiteral:
		return ir.LiteralExpr{Value: v.Value}, nil
	case ir.ConstantRef:
		lit, err := md.Literal(v.Index)
		if err != nil {
			return nil, err
		}
		return ir.LiteralExpr{Value: lit}, nil
	case ir.LValueRead:
		a, err := liftLValue(v.Value, md, layout)
		if err != nil {
			return nil, err
		}
		if consumesStack(v.Value) {
			layout.top--
		}
		return ir.AssignableExpr{Value: a}, nil
	default:
		return nil, fmt.Errorf("lift: unsupported rvalue %T", rv)
	}
}

func executeInstruction(instr ir.Instruction, md *ir.Metadata, layout *StackLayout) ([]ir.Statement, error) {
	switch v := instr.(type) {
	case ir.NopInstr:
		return nil, nil

	case ir.LoadInstr:
		expr, err := liftRValue(v.Value, md, layout)
		if err != nil {
			return nil, err
		}
		id := layout.Push()
		return []ir.Statement{ir.ExprStmt{Value: ir.AssignExpr{To: stackAssignable(id), From: expr}}}, nil

	case ir.StoreInstr:
		// Resolve the target first, while it can still peek past the value
		// about to be popped (InstanceFieldLV's receiver slot sits below it).
		assignable, err := liftLValue(v.Value, md, layout)
		if err != nil {
			return nil, err
		}
		id, err := layout.Pop()
		if err != nil {
			return nil, err
		}
		if consumesStack(v.Value) {
			if _, err := layout.Pop(); err != nil {
				return nil, err
			}
		}
		return []ir.Statement{ir.ExprStmt{Value: ir.AssignExpr{To: assignable, From: ir.Variable(stackName(id))}}}, nil

	case ir.UnaryArithInstr:
		x, err := layout.Pop()
		if err != nil {
			return nil, err
		}
		res := layout.Push()
		expr := ir.UnaryExpr{Op: ir.UnaryArithOpToUnOp(v.Op), X: ir.Variable(stackName(x))}
		return []ir.Statement{ir.ExprStmt{Value: ir.AssignExpr{To: stackAssignable(res), From: expr}}}, nil

	case ir.BinaryArithInstr:
		rhs, err := layout.Pop()
		if err != nil {
			return nil, err
		}
		lhs, err := layout.Pop()
		if err != nil {
			return nil, err
		}
		res := layout.Push()
		expr := ir.BinaryExpr{Op: ir.BinaryArithOpToBinOp(v.Op), X: ir.Variable(stackName(lhs)), Y: ir.Variable(stackName(rhs))}
		return []ir.Statement{ir.ExprStmt{Value: ir.AssignExpr{To: stackAssignable(res), From: expr}}}, nil

	case ir.IncLocalInstr:
		stmt := ir.ExprStmt{Value: ir.AssignExpr{
			To:   ir.VariableAssignable{Name: localName(v.Index)},
			Op:   &ir.BinOp{Kind: ir.BinAdd},
			From: ir.LiteralExpr{Value: ir.Integer(int32(v.Delta))},
		}}
		return []ir.Statement{stmt}, nil

	case ir.InvokeInstr:
		return liftInvoke(v, md, layout)

	case ir.ReturnInstr:
		if !v.HasValue {
			return []ir.Statement{ir.ReturnStmt{}}, nil
		}
		id, err := layout.Pop()
		if err != nil {
			return nil, err
		}
		return []ir.Statement{ir.ReturnStmt{Value: ir.Variable(stackName(id))}}, nil

	case ir.ThrowInstr:
		id, err := layout.Pop()
		if err != nil {
			return nil, err
		}
		return []ir.Statement{ir.ThrowStmt{Value: ir.Variable(stackName(id))}}, nil

	case ir.JumpInstr:
		return nil, fmt.Errorf("lift: unexpected JumpInstr in block body")

	default:
		return nil, UnsupportedInstructionError{Instr: fmt.Sprintf("%T", instr)}
	}
}

func liftInvoke(v ir.InvokeInstr, md *ir.Metadata, layout *StackLayout) ([]ir.Statement, error) {
	methodRef, err := md.MethodRef(v.MethodIndex)
	if err != nil {
		return nil, err
	}

	argsCount := len(methodRef.Signature.Parameters)
	argStart := layout.top - argsCount
	if argStart < 0 {
		return nil, StackUnderflowError{}
	}
	args := make([]ir.Expr, argsCount)
	for i := 0; i < argsCount; i++ {
		args[i] = ir.Variable(stackName(ir.StackVarId(argStart + i)))
	}
	layout.top -= argsCount

	var receiver ir.Expr
	if v.Kind != ir.InvokeStatic {
		rid, err := layout.Pop()
		if err != nil {
			return nil, err
		}
		receiver = ir.Variable(stackName(rid))
	}

	invokeExpr := ir.InvokeExpr{Receiver: receiver, Method: methodRef, Class: methodRef.Class, Args: args}
	if methodRef.Signature.Return == ir.TypeVoid {
		return []ir.Statement{ir.ExprStmt{Value: invokeExpr}}, nil
	}
	res := layout.Push()
	return []ir.Statement{ir.ExprStmt{Value: ir.AssignExpr{To: stackAssignable(res), From: invokeExpr}}}, nil
}

func liftCondition(cond ir.JumpCondition, layout *StackLayout) (ir.Expr, error) {
	switch c := cond.(type) {
	case ir.CmpZero:
		id, err := layout.Pop()
		if err != nil {
			return nil, err
		}
		return ir.BinaryExpr{
			Op: ir.BinOp{Kind: ir.BinCmp, Cmp: c.Ordering},
			X:  ir.Variable(stackName(id)),
			Y:  ir.LiteralExpr{Value: ir.Integer(0)},
		}, nil

	case ir.Cmp:
		w, err := layout.Pop()
		if err != nil {
			return nil, err
		}
		v, err := layout.Pop()
		if err != nil {
			return nil, err
		}
		return ir.BinaryExpr{Op: ir.BinOp{Kind: ir.BinCmp, Cmp: c.Ordering}, X: ir.Variable(stackName(v)), Y: ir.Variable(stackName(w))}, nil

	case ir.CmpRef:
		w, err := layout.Pop()
		if err != nil {
			return nil, err
		}
		v, err := layout.Pop()
		if err != nil {
			return nil, err
		}
		return ir.BinaryExpr{Op: ir.BinOp{Kind: ir.BinCmp, Cmp: c.Ordering}, X: ir.Variable(stackName(v)), Y: ir.Variable(stackName(w))}, nil

	default:
		return nil, fmt.Errorf("lift: unsupported jump condition %T", cond)
	}
}
