package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCfgSuccessorsOrdersFalseBeforeTrue(t *testing.T) {
	g := NewCfg[Statement, Expr]()
	g.Nodes[0] = &BasicBlock[Statement, Expr]{}
	g.Nodes[1] = &BasicBlock[Statement, Expr]{}
	g.Nodes[2] = &BasicBlock[Statement, Expr]{}
	g.AddEdge(0, 2, true)
	g.AddEdge(0, 1, false)

	succ := g.Successors(0)
	require.Len(t, succ, 2)
	require.False(t, succ[0].Cond)
	require.True(t, succ[1].Cond)
}

func TestCfgPredecessorsAndLabels(t *testing.T) {
	g := NewCfg[Statement, Expr]()
	g.Nodes[2] = &BasicBlock[Statement, Expr]{}
	g.Nodes[0] = &BasicBlock[Statement, Expr]{}
	g.Nodes[1] = &BasicBlock[Statement, Expr]{}
	g.AddEdge(0, 1, false)
	g.AddEdge(2, 1, false)

	require.Equal(t, []Label{0, 1, 2}, g.Labels())

	pred := g.Predecessors(1)
	require.Len(t, pred, 2)
}

func TestTransformCfgPreservesShape(t *testing.T) {
	src := NewCfg[Instruction, JumpCondition]()
	src.EntryPoint, src.ExitPoint = 0, 1
	src.Nodes[0] = &BasicBlock[Instruction, JumpCondition]{Stmts: []Instruction{NopInstr{}}}
	src.Nodes[1] = &BasicBlock[Instruction, JumpCondition]{}
	src.AddEdge(0, 1, false)

	dst, err := TransformCfg(src, func(l Label, b *BasicBlock[Instruction, JumpCondition]) (*BasicBlock[Statement, Expr], error) {
		return &BasicBlock[Statement, Expr]{Stmts: make([]Statement, len(b.Stmts))}, nil
	})
	require.NoError(t, err)
	require.Equal(t, src.EntryPoint, dst.EntryPoint)
	require.Equal(t, src.ExitPoint, dst.ExitPoint)
	require.Equal(t, src.Edges, dst.Edges)
	require.Len(t, dst.Nodes[0].Stmts, 1)
}

func TestMapUnitPassesFieldsThroughUnchanged(t *testing.T) {
	cu := &CompilationUnit[int]{
		Name: "Widget",
		Declarations: []Declaration[int]{
			&FieldDecl{Name: "count", Type: TypeInt},
			&MethodDecl[int]{Name: "get", Code: 1},
			&ConstructorDecl[int]{Code: 2},
		},
	}

	out, err := MapUnit(cu, func(name string, code int) (string, error) {
		return name, nil
	})
	require.NoError(t, err)
	require.Len(t, out.Declarations, 3)

	field, ok := out.Declarations[0].(*FieldDecl)
	require.True(t, ok)
	require.Equal(t, "count", field.Name)

	method, ok := out.Declarations[1].(*MethodDecl[string])
	require.True(t, ok)
	require.Equal(t, "get", method.Code)

	ctor, ok := out.Declarations[2].(*ConstructorDecl[string])
	require.True(t, ok)
	require.Equal(t, "<init>", ctor.Code)
}

func TestMapUnitWrapsErrorWithMethodName(t *testing.T) {
	cu := &CompilationUnit[int]{
		Declarations: []Declaration[int]{&MethodDecl[int]{Name: "broken", Code: 1}},
	}
	_, err := MapUnit(cu, func(name string, code int) (int, error) {
		return 0, UnresolvedConstantError{Table: "literals", Index: 7}
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "broken")
}

func TestRewriteExprSubstitutesVariableReads(t *testing.T) {
	expr := BinaryExpr{Op: BinOp{Kind: BinAdd}, X: Variable("stack_0"), Y: LiteralExpr{Value: Integer(1)}}
	fn := func(e Expr) Expr {
		if ae, ok := e.(AssignableExpr); ok {
			if v, ok := ae.Value.(VariableAssignable); ok && v.Name == "stack_0" {
				return LiteralExpr{Value: Integer(41)}
			}
		}
		return e
	}
	rewritten := RewriteExpr(expr, fn).(BinaryExpr)
	lit, ok := rewritten.X.(LiteralExpr)
	require.True(t, ok)
	require.Equal(t, Integer(41), lit.Value)
}

func TestVariableReadsFindsInvokeReceiverAndArgs(t *testing.T) {
	invoke := InvokeExpr{
		Receiver: Variable("this"),
		Args:     []Expr{Variable("a"), LiteralExpr{Value: Integer(2)}},
	}
	var reads []VariableAssignable
	VariableReads(invoke, &reads)
	require.Len(t, reads, 2)
	require.Equal(t, "this", reads[0].Name)
	require.Equal(t, "a", reads[1].Name)
}

func TestVariableReadsSkipsPlainAssignTarget(t *testing.T) {
	assign := AssignExpr{To: VariableAssignable{Name: "x"}, From: Variable("y")}
	var reads []VariableAssignable
	VariableReads(assign, &reads)
	require.Len(t, reads, 1)
	require.Equal(t, "y", reads[0].Name)
}

func TestVariableReadsIncludesAugmentedAssignTarget(t *testing.T) {
	op := BinOp{Kind: BinAdd}
	assign := AssignExpr{To: VariableAssignable{Name: "x"}, Op: &op, From: LiteralExpr{Value: Integer(1)}}
	var reads []VariableAssignable
	VariableReads(assign, &reads)
	require.Len(t, reads, 1)
	require.Equal(t, "x", reads[0].Name)
}

func TestModifiersHas(t *testing.T) {
	m := Modifiers(Public) | Modifiers(Static)
	require.True(t, m.Has(Public))
	require.True(t, m.Has(Static))
	require.False(t, m.Has(Final))
}

func TestSignatureString(t *testing.T) {
	sig := Signature{Parameters: []Type{TypeInt, RefType{Class: ClassRef{Name: "java.lang.String"}}}, Return: TypeBoolean}
	require.Equal(t, "(int, java.lang.String) boolean", sig.String())
}

func TestArrayTypeString(t *testing.T) {
	require.Equal(t, "int[]", ArrayType{Elem: TypeInt}.String())
}

func TestLiteralStrings(t *testing.T) {
	require.Equal(t, "null", NullReference{}.String())
	require.Equal(t, "true", Boolean(true).String())
	require.Equal(t, `"hi"`, String("hi").String())
	require.Equal(t, "-7", Integer(-7).String())
}

func TestOrderingString(t *testing.T) {
	require.Equal(t, "==", EQ.String())
	require.Equal(t, "<=", LE.String())
}

func TestMetadataLookupMiss(t *testing.T) {
	md := NewMetadata()
	_, err := md.MethodRef(3)
	require.Error(t, err)
	require.IsType(t, UnresolvedConstantError{}, err)
}
