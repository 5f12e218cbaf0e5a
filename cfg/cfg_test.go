package cfg

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/classlift/unjavac/ir"
)

func pc(pc int, instr ir.Instruction) ir.PCInstruction {
	return ir.PCInstruction{PC: pc, Instruction: instr}
}

func TestBuildStraightLine(t *testing.T) {
	code := &ir.Code{Instructions: []ir.PCInstruction{
		pc(0, ir.LoadInstr{Value: ir.ConstLiteral{Value: ir.Integer(1)}}),
		pc(1, ir.ReturnInstr{HasValue: true}),
	}}
	g, err := Build(code)
	require.NoError(t, err)
	require.Len(t, g.Labels(), 3) // entry, one block, exit

	succ := g.Successors(g.EntryPoint)
	require.Len(t, succ, 1)
	blockLabel := succ[0].To

	block := g.Nodes[blockLabel]
	require.Len(t, block.Stmts, 2)
	require.Equal(t, []ir.Edge{{From: blockLabel, To: g.ExitPoint, Cond: false}}, g.Successors(blockLabel)) // a return block is wired only to exit
}

func TestBuildConditionalJump(t *testing.T) {
	// block0: ifeq -> pc 4 (else at pc 2); block1 (pc2): return; block2 (pc4): return
	code := &ir.Code{Instructions: []ir.PCInstruction{
		pc(0, ir.JumpInstr{Address: 4, Condition: ir.CmpZero{Ordering: ir.EQ}}),
		pc(2, ir.ReturnInstr{HasValue: false}),
		pc(4, ir.ReturnInstr{HasValue: false}),
	}}
	g, err := Build(code)
	require.NoError(t, err)
	require.Len(t, g.Labels(), 5) // entry, 3 blocks, exit

	entrySucc := g.Successors(g.EntryPoint)
	require.Len(t, entrySucc, 1)
	firstBlockLabel := entrySucc[0].To

	firstBlock := g.Nodes[firstBlockLabel]
	require.NotNil(t, firstBlock.Terminator)
	require.Equal(t, ir.CmpZero{Ordering: ir.EQ}, *firstBlock.Terminator)
	require.Empty(t, firstBlock.Stmts) // the jump itself is dropped

	edges := g.Successors(firstBlockLabel)
	require.Len(t, edges, 2)
	require.False(t, edges[0].Cond)
	require.True(t, edges[1].Cond)
}

func TestBuildUnconditionalJumpDropped(t *testing.T) {
	code := &ir.Code{Instructions: []ir.PCInstruction{
		pc(0, ir.JumpInstr{Address: 1, Condition: nil}),
		pc(1, ir.ReturnInstr{HasValue: false}),
	}}
	g, err := Build(code)
	require.NoError(t, err)

	entrySucc := g.Successors(g.EntryPoint)
	blockLabel := entrySucc[0].To
	block := g.Nodes[blockLabel]
	require.Empty(t, block.Stmts)
	edges := g.Successors(blockLabel)
	require.Len(t, edges, 1)
	require.False(t, edges[0].Cond)
}

func TestBuildRejectsUnresolvedTarget(t *testing.T) {
	code := &ir.Code{Instructions: []ir.PCInstruction{
		pc(0, ir.JumpInstr{Address: 99, Condition: nil}),
	}}
	_, err := Build(code)
	require.Error(t, err)
	require.IsType(t, UnresolvedJumpTargetError{}, err)
}
