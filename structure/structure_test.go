package structure

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/classlift/unjavac/ir"
)

func cond(name string) ir.Expr {
	return ir.BinaryExpr{Op: ir.BinOp{Kind: ir.BinCmp, Cmp: ir.EQ}, X: ir.Variable(name), Y: ir.LiteralExpr{Value: ir.Integer(0)}}
}

func assign(name string) ir.Statement {
	return ir.ExprStmt{Value: ir.AssignExpr{To: ir.VariableAssignable{Name: name}, From: ir.LiteralExpr{Value: ir.Integer(1)}}}
}

// block 0 (entry) -> block 1 (if) -[false]-> 2 -> 4 (join/exit)
//                                -[true]->  3 -> 4
func TestStructureIfElse(t *testing.T) {
	g := ir.NewCfg[ir.Statement, ir.Expr]()
	g.Nodes[0] = &ir.BasicBlock[ir.Statement, ir.Expr]{}
	c := cond("local_1")
	g.Nodes[1] = &ir.BasicBlock[ir.Statement, ir.Expr]{Terminator: &c}
	g.Nodes[2] = &ir.BasicBlock[ir.Statement, ir.Expr]{Stmts: []ir.Statement{assign("local_2")}}
	g.Nodes[3] = &ir.BasicBlock[ir.Statement, ir.Expr]{Stmts: []ir.Statement{assign("local_3")}}
	g.Nodes[4] = &ir.BasicBlock[ir.Statement, ir.Expr]{}
	g.AddEdge(0, 1, false)
	g.AddEdge(1, 2, false)
	g.AddEdge(1, 3, true)
	g.AddEdge(2, 4, false)
	g.AddEdge(3, 4, false)
	g.EntryPoint, g.ExitPoint = 0, 4

	block, err := Structure(g)
	require.NoError(t, err)
	require.Len(t, block.Stmts, 1)

	ifStmt, ok := block.Stmts[0].(ir.IfStmt)
	require.True(t, ok)
	require.Len(t, ifStmt.Then.Stmts, 1)
	require.NotNil(t, ifStmt.Else)
	require.Len(t, ifStmt.Else.Stmts, 1)

	then := ifStmt.Then.Stmts[0].(ir.ExprStmt).Value.(ir.AssignExpr)
	require.Equal(t, "local_3", then.To.(ir.VariableAssignable).Name) // true edge -> block 3

	els := ifStmt.Else.Stmts[0].(ir.ExprStmt).Value.(ir.AssignExpr)
	require.Equal(t, "local_2", els.To.(ir.VariableAssignable).Name) // false edge -> block 2
}

// block 0 (entry) -> 1 (loop header, cond) -[false]-> 2 (body) -> 1 (back edge)
//                                           -[true]->  3 (exit/break point)
func TestStructureWhileLoop(t *testing.T) {
	g := ir.NewCfg[ir.Statement, ir.Expr]()
	g.Nodes[0] = &ir.BasicBlock[ir.Statement, ir.Expr]{}
	c := cond("local_1")
	g.Nodes[1] = &ir.BasicBlock[ir.Statement, ir.Expr]{Terminator: &c}
	g.Nodes[2] = &ir.BasicBlock[ir.Statement, ir.Expr]{Stmts: []ir.Statement{assign("local_2")}}
	g.Nodes[3] = &ir.BasicBlock[ir.Statement, ir.Expr]{}
	g.AddEdge(0, 1, false)
	g.AddEdge(1, 2, false)
	g.AddEdge(1, 3, true)
	g.AddEdge(2, 1, false)
	g.EntryPoint, g.ExitPoint = 0, 3

	block, err := Structure(g)
	require.NoError(t, err)
	require.Len(t, block.Stmts, 1)

	while, ok := block.Stmts[0].(ir.WhileStmt)
	require.True(t, ok)
	require.NotNil(t, while.Label)
	require.Equal(t, "loop_0", *while.Label)
	require.False(t, while.DoWhile)
	lit, ok := while.Cond.(ir.LiteralExpr).Value.(ir.Boolean)
	require.True(t, ok)
	require.True(t, bool(lit))

	// The loop's condition test itself becomes an if/break-else-continue at
	// the top of the (unconditional) while body, since WhileStmt's own Cond
	// is always the literal `true` — see the note on WhileStmt.
	require.Len(t, while.Body.Stmts, 1)
	guard, ok := while.Body.Stmts[0].(ir.IfStmt)
	require.True(t, ok)
	require.Len(t, guard.Then.Stmts, 1)
	_, isBreak := guard.Then.Stmts[0].(ir.BreakStmt)
	require.True(t, isBreak)

	require.NotNil(t, guard.Else)
	require.Len(t, guard.Else.Stmts, 2)
	bodyAssign := guard.Else.Stmts[0].(ir.ExprStmt).Value.(ir.AssignExpr)
	require.Equal(t, "local_2", bodyAssign.To.(ir.VariableAssignable).Name)
	_, isContinue := guard.Else.Stmts[1].(ir.ContinueStmt)
	require.True(t, isContinue)
}

// Loop with an internal break: block 1 (header) -[false]-> 2 (body, cond)
// -[true (break)]-> 4 (break point) ; 2 -[false]-> 1 (continue edge).
func TestStructureLoopWithBreak(t *testing.T) {
	g := ir.NewCfg[ir.Statement, ir.Expr]()
	g.Nodes[0] = &ir.BasicBlock[ir.Statement, ir.Expr]{}
	headerCond := cond("local_1")
	g.Nodes[1] = &ir.BasicBlock[ir.Statement, ir.Expr]{Terminator: &headerCond}
	bodyCond := cond("local_2")
	g.Nodes[2] = &ir.BasicBlock[ir.Statement, ir.Expr]{Terminator: &bodyCond}
	g.Nodes[3] = &ir.BasicBlock[ir.Statement, ir.Expr]{} // exit via header's true edge
	g.Nodes[4] = &ir.BasicBlock[ir.Statement, ir.Expr]{} // break point (common postdom of exits)

	g.AddEdge(0, 1, false)
	g.AddEdge(1, 2, false) // enter loop body
	g.AddEdge(1, 3, true)  // header's own loop-exit edge
	g.AddEdge(2, 4, true)  // break out of loop body directly to break point
	g.AddEdge(2, 1, false) // continue edge back to header
	g.AddEdge(3, 4, false)

	g.EntryPoint, g.ExitPoint = 0, 4

	block, err := Structure(g)
	require.NoError(t, err)
	require.Len(t, block.Stmts, 1)

	while, ok := block.Stmts[0].(ir.WhileStmt)
	require.True(t, ok)
	require.Len(t, while.Body.Stmts, 1)

	_, isIf := while.Body.Stmts[0].(ir.IfStmt)
	require.True(t, isIf)
}

// Block 1 feeds both nodes of the SCC {2,3} from outside, so the loop has
// two entry points — irreducible flow, must error.
func TestStructureIrreducibleLoopErrors(t *testing.T) {
	g := ir.NewCfg[ir.Statement, ir.Expr]()
	g.Nodes[0] = &ir.BasicBlock[ir.Statement, ir.Expr]{}
	c0 := cond("local_0")
	g.Nodes[1] = &ir.BasicBlock[ir.Statement, ir.Expr]{Terminator: &c0}
	g.Nodes[2] = &ir.BasicBlock[ir.Statement, ir.Expr]{}
	g.Nodes[3] = &ir.BasicBlock[ir.Statement, ir.Expr]{}
	g.Nodes[4] = &ir.BasicBlock[ir.Statement, ir.Expr]{}

	g.AddEdge(0, 1, false)
	g.AddEdge(1, 2, false)
	g.AddEdge(1, 3, true)
	g.AddEdge(2, 3, false) // 2 -> 3
	g.AddEdge(3, 2, false) // 3 -> 2, forming a 2-node SCC {2,3}
	g.AddEdge(2, 4, false)
	g.AddEdge(3, 4, false)
	g.EntryPoint, g.ExitPoint = 0, 4

	_, err := Structure(g)
	require.Error(t, err)
	require.IsType(t, IrreducibleLoopError{}, err)
}
