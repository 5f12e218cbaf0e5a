package propagate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/classlift/unjavac/ir"
)

func assign(name string, from ir.Expr) ir.Statement {
	return ir.ExprStmt{Value: ir.AssignExpr{To: ir.VariableAssignable{Name: name}, From: from}}
}

func singleBlockCfg(stmts ...ir.Statement) *ir.Cfg[ir.Statement, ir.Expr] {
	g := ir.NewCfg[ir.Statement, ir.Expr]()
	g.Nodes[0] = &ir.BasicBlock[ir.Statement, ir.Expr]{}
	g.Nodes[1] = &ir.BasicBlock[ir.Statement, ir.Expr]{Stmts: stmts}
	g.Nodes[2] = &ir.BasicBlock[ir.Statement, ir.Expr]{}
	g.AddEdge(0, 1, false)
	g.AddEdge(1, 2, false)
	g.EntryPoint, g.ExitPoint = 0, 2
	return g
}

func TestPropagateSingleUseInlined(t *testing.T) {
	g := singleBlockCfg(
		assign("stack_0", ir.LiteralExpr{Value: ir.Integer(5)}),
		assign("local_1", ir.Variable("stack_0")),
		ir.ReturnStmt{},
	)

	Propagate(g)

	block := g.Nodes[ir.Label(1)]
	_, isNop := block.Stmts[0].(ir.NopStmt)
	require.True(t, isNop)

	final := block.Stmts[1].(ir.ExprStmt).Value.(ir.AssignExpr)
	require.Equal(t, "local_1", final.To.(ir.VariableAssignable).Name)
	lit, ok := final.From.(ir.LiteralExpr)
	require.True(t, ok)
	require.Equal(t, ir.Integer(5), lit.Value)
}

func TestPropagateMultiUseNotInlined(t *testing.T) {
	g := singleBlockCfg(
		assign("stack_0", ir.LiteralExpr{Value: ir.Integer(5)}),
		assign("local_1", ir.BinaryExpr{Op: ir.BinOp{Kind: ir.BinAdd}, X: ir.Variable("stack_0"), Y: ir.Variable("stack_0")}),
		ir.ReturnStmt{},
	)

	Propagate(g)

	block := g.Nodes[ir.Label(1)]
	_, isNop := block.Stmts[0].(ir.NopStmt)
	require.False(t, isNop) // two uses: definition survives

	sum := block.Stmts[1].(ir.ExprStmt).Value.(ir.AssignExpr).From.(ir.BinaryExpr)
	require.Equal(t, "stack_0", sum.X.(ir.AssignableExpr).Value.(ir.VariableAssignable).Name)
	require.Equal(t, "stack_0", sum.Y.(ir.AssignableExpr).Value.(ir.VariableAssignable).Name)
}

func TestPropagateChainCollapses(t *testing.T) {
	g := singleBlockCfg(
		assign("stack_0", ir.LiteralExpr{Value: ir.Integer(7)}),
		assign("stack_1", ir.Variable("stack_0")),
		assign("local_2", ir.Variable("stack_1")),
		ir.ReturnStmt{},
	)

	Propagate(g)

	block := g.Nodes[ir.Label(1)]
	for _, idx := range []int{0, 1} {
		_, isNop := block.Stmts[idx].(ir.NopStmt)
		require.True(t, isNop, "stmt %d should have been inlined away", idx)
	}
	final := block.Stmts[2].(ir.ExprStmt).Value.(ir.AssignExpr)
	lit, ok := final.From.(ir.LiteralExpr)
	require.True(t, ok)
	require.Equal(t, ir.Integer(7), lit.Value)
}

func TestPropagateTerminatorSubstitution(t *testing.T) {
	g := ir.NewCfg[ir.Statement, ir.Expr]()
	g.Nodes[0] = &ir.BasicBlock[ir.Statement, ir.Expr]{}
	block := &ir.BasicBlock[ir.Statement, ir.Expr]{
		Stmts: []ir.Statement{assign("stack_0", ir.LiteralExpr{Value: ir.Integer(0)})},
	}
	var cond ir.Expr = ir.BinaryExpr{Op: ir.BinOp{Kind: ir.BinCmp, Cmp: ir.EQ}, X: ir.Variable("stack_0"), Y: ir.LiteralExpr{Value: ir.Integer(0)}}
	block.Terminator = &cond
	g.Nodes[1] = block
	g.Nodes[2] = &ir.BasicBlock[ir.Statement, ir.Expr]{}
	g.Nodes[3] = &ir.BasicBlock[ir.Statement, ir.Expr]{}
	g.AddEdge(0, 1, false)
	g.AddEdge(1, 2, false)
	g.AddEdge(1, 3, true)
	g.EntryPoint, g.ExitPoint = 0, 2

	Propagate(g)

	result := g.Nodes[ir.Label(1)]
	_, isNop := result.Stmts[0].(ir.NopStmt)
	require.True(t, isNop)

	finalCond := (*result.Terminator).(ir.BinaryExpr)
	lit, ok := finalCond.X.(ir.LiteralExpr)
	require.True(t, ok)
	require.Equal(t, ir.Integer(0), lit.Value)
}
