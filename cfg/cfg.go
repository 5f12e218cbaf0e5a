// Package cfg builds a control-flow graph from a method's decoded
// instruction stream, the second stage of the decompilation pipeline.
package cfg

import (
	"fmt"
	"sort"

	"github.com/classlift/unjavac/ir"
)

// UnresolvedJumpTargetError is returned when a Jump instruction's address
// does not land on an instruction boundary — a malformed or unsupported
// bytecode stream.
type UnresolvedJumpTargetError struct {
	Address int
}

func (e UnresolvedJumpTargetError) Error() string {
	return fmt.Sprintf("cfg: no instruction at jump target pc %d", e.Address)
}

// Build constructs a Cfg<Instruction, JumpCondition> from a disassembled
// method body, per the leader-set algorithm: split at jump targets and the
// instructions following any jump/return, wire edges per each block's
// terminator, then close the graph with a synthetic entry and exit.
func Build(code *ir.Code) (*ir.Cfg[ir.Instruction, ir.JumpCondition], error) {
	n := len(code.Instructions)
	g := ir.NewCfg[ir.Instruction, ir.JumpCondition]()
	if n == 0 {
		entry, exit := ir.Label(0), ir.Label(1)
		g.Nodes[entry] = &ir.BasicBlock[ir.Instruction, ir.JumpCondition]{}
		g.Nodes[exit] = &ir.BasicBlock[ir.Instruction, ir.JumpCondition]{}
		g.AddEdge(entry, exit, false)
		g.EntryPoint, g.ExitPoint = entry, exit
		return g, nil
	}

	pcToIndex := make(map[int]int, n)
	for i, pi := range code.Instructions {
		pcToIndex[pi.PC] = i
	}

	leaders := map[int]bool{0: true}
	for i, pi := range code.Instructions {
		switch instr := pi.Instruction.(type) {
		case ir.JumpInstr:
			target, ok := pcToIndex[instr.Address]
			if !ok {
				return nil, UnresolvedJumpTargetError{Address: instr.Address}
			}
			leaders[target] = true
			if i+1 < n {
				leaders[i+1] = true
			}
		case ir.ReturnInstr:
			if i+1 < n {
				leaders[i+1] = true
			}
		}
	}

	leaderIndices := make([]int, 0, len(leaders))
	for idx := range leaders {
		leaderIndices = append(leaderIndices, idx)
	}
	sort.Ints(leaderIndices)
	logger.Printf("%d leaders found over %d instructions", len(leaderIndices), n)

	// Real blocks occupy labels 1..len(leaderIndices); 0 is entry, the
	// label following the last real block is exit.
	entry := ir.Label(0)
	exit := ir.Label(len(leaderIndices) + 1)
	indexToLabel := make(map[int]ir.Label, len(leaderIndices))
	for i, idx := range leaderIndices {
		indexToLabel[idx] = ir.Label(i + 1)
	}

	for bi, startIdx := range leaderIndices {
		endIdx := n
		if bi+1 < len(leaderIndices) {
			endIdx = leaderIndices[bi+1]
		}
		label := indexToLabel[startIdx]
		block := &ir.BasicBlock[ir.Instruction, ir.JumpCondition]{}

		last := code.Instructions[endIdx-1].Instruction
		bodyEnd := endIdx
		switch instr := last.(type) {
		case ir.JumpInstr:
			bodyEnd = endIdx - 1 // drop the jump itself
			targetIdx := pcToIndex[instr.Address]
			targetLabel := indexToLabel[targetIdx]
			if instr.Condition == nil {
				g.AddEdge(label, targetLabel, false)
			} else {
				block.Terminator = &instr.Condition
				var nextLabel ir.Label
				if endIdx < n {
					nextLabel = indexToLabel[endIdx]
				} else {
					nextLabel = exit
				}
				g.AddEdge(label, nextLabel, false)
				g.AddEdge(label, targetLabel, true)
			}
		case ir.ReturnInstr:
			// no outgoing edges; statement retained below
		default:
			var nextLabel ir.Label
			if endIdx < n {
				nextLabel = indexToLabel[endIdx]
			} else {
				nextLabel = exit
			}
			g.AddEdge(label, nextLabel, false)
		}

		for _, pi := range code.Instructions[startIdx:bodyEnd] {
			block.Stmts = append(block.Stmts, pi.Instruction)
		}
		logger.Printf("block %d: %d statements, terminator=%v", label, len(block.Stmts), block.Terminator != nil)
		g.Nodes[label] = block
	}

	g.Nodes[entry] = &ir.BasicBlock[ir.Instruction, ir.JumpCondition]{}
	g.Nodes[exit] = &ir.BasicBlock[ir.Instruction, ir.JumpCondition]{}
	g.AddEdge(entry, indexToLabel[0], false)

	hasOut := make(map[ir.Label]bool)
	for _, e := range g.Edges {
		hasOut[e.From] = true
	}
	for _, label := range indexToLabel {
		if !hasOut[label] {
			g.AddEdge(label, exit, false)
		}
	}

	g.EntryPoint = entry
	g.ExitPoint = exit
	return g, nil
}
