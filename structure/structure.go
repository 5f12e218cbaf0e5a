// Package structure turns an acyclic-once-loops-are-factored-out Cfg of
// Statements and Exprs into a single structured Block of if/while/break/
// continue statements, the final stage of the decompilation pipeline.
package structure

import (
	"fmt"
	"sort"

	"github.com/classlift/unjavac/dom"
	"github.com/classlift/unjavac/ir"
)

// IrreducibleLoopError is returned when a loop's strongly connected
// component has more than one node reachable from outside the loop —
// irreducible control flow, which this pipeline does not support.
type IrreducibleLoopError struct {
	Entries []ir.Label
}

func (e IrreducibleLoopError) Error() string {
	return fmt.Sprintf("structure: loop has multiple entry points %v", e.Entries)
}

// PostdominanceViolationError is returned when an emission step's stop
// point fails to postdominate the block it is about to hand control to —
// control flow this pipeline's structuring algorithm cannot represent.
type PostdominanceViolationError struct {
	Stop, Node ir.Label
}

func (e PostdominanceViolationError) Error() string {
	return fmt.Sprintf("structure: stop point %d does not postdominate %d", e.Stop, e.Node)
}

// UnstructurableBlockError is returned for a block whose successor count
// does not match its terminator (a branching block without exactly two
// successors, or a fallthrough block with more than one).
type UnstructurableBlockError struct {
	Block  ir.Label
	Reason string
}

func (e UnstructurableBlockError) Error() string {
	return fmt.Sprintf("structure: block %d: %s", e.Block, e.Reason)
}

// Jump identifies a single control-flow edge by its endpoints.
type Jump struct {
	From, To ir.Label
}

// Loop records one registered loop found during discovery.
type Loop struct {
	Nodes         map[ir.Label]bool
	Entry         ir.Label
	ContinueEdges map[Jump]bool
	Exits         map[ir.Label]bool
	BreakPoint    ir.Label
	BreakEdges    map[Jump]bool
}

type context struct {
	cfg              *ir.Cfg[ir.Statement, ir.Expr]
	loops            []*Loop
	entryToLoopIndex map[ir.Label]int
	loopBreaks       map[Jump]int
	dominators       *dom.Dominators
	postdominators   *dom.Dominators
}

func loopLabel(index int) string { return fmt.Sprintf("loop_%d", index) }

// Structure runs loop discovery followed by structured emission over cfg,
// producing the method's single structured statement body.
func Structure(cfg *ir.Cfg[ir.Statement, ir.Expr]) (ir.Block, error) {
	ctx := &context{
		cfg:              cfg,
		entryToLoopIndex: map[ir.Label]int{},
		loopBreaks:       map[Jump]int{},
		dominators:       dom.Of(cfg),
		postdominators:   dom.PostOf(cfg),
	}

	allNodes := make(map[ir.Label]bool, len(cfg.Labels()))
	for _, l := range cfg.Labels() {
		allNodes[l] = true
	}
	if err := collectLoops(ctx, allNodes); err != nil {
		return ir.Block{}, err
	}

	stmts, err := structureFromTo(ctx, cfg.EntryPoint, cfg.ExitPoint)
	if err != nil {
		return ir.Block{}, err
	}
	return ir.Block{Stmts: stmts}, nil
}

// collectLoops finds the strongly connected components of filter (outer
// loops first, topological order), registers every component that is a
// loop, then recurses on each loop's nodes with its entry removed to find
// loops nested inside it.
func collectLoops(ctx *context, filter map[ir.Label]bool) error {
	if len(filter) == 0 {
		return nil
	}
	sccs := stronglyConnectedComponents(ctx.cfg, filter)
	for _, nodes := range sccs {
		if !isSCCLoop(ctx.cfg, nodes) {
			continue
		}
		lp, err := findEntriesAndExits(ctx, nodes)
		if err != nil {
			return err
		}
		logger.Printf("loop %d: entry=%d, %d nodes, break point=%d", len(ctx.loops), lp.Entry, len(lp.Nodes), lp.BreakPoint)
		storeLoop(ctx, lp)

		nested := make(map[ir.Label]bool, len(nodes))
		for n := range nodes {
			if n != lp.Entry {
				nested[n] = true
			}
		}
		if err := collectLoops(ctx, nested); err != nil {
			return err
		}
	}
	return nil
}

func storeLoop(ctx *context, lp *Loop) {
	idx := len(ctx.loops)
	ctx.entryToLoopIndex[lp.Entry] = idx
	for j := range lp.BreakEdges {
		ctx.loopBreaks[j] = idx
	}
	ctx.loops = append(ctx.loops, lp)
}

// stronglyConnectedComponents runs Kosaraju's algorithm over cfg restricted
// to filter: a forward DFS to compute finish order, then a DFS over the
// transpose graph in decreasing finish-time order. Components are
// discovered in topological order of the (restricted) condensation — outer
// loops before the loops nested inside them.
func stronglyConnectedComponents(cfg *ir.Cfg[ir.Statement, ir.Expr], filter map[ir.Label]bool) []map[ir.Label]bool {
	visited := map[ir.Label]bool{}
	var order []ir.Label
	var visit1 func(ir.Label)
	visit1 = func(n ir.Label) {
		if visited[n] {
			return
		}
		visited[n] = true
		for _, e := range cfg.Successors(n) {
			if filter[e.To] {
				visit1(e.To)
			}
		}
		order = append(order, n)
	}
	for _, n := range sortedLabels(filter) {
		visit1(n)
	}

	assigned := map[ir.Label]bool{}
	var sccs []map[ir.Label]bool
	for i := len(order) - 1; i >= 0; i-- {
		n := order[i]
		if assigned[n] {
			continue
		}
		comp := map[ir.Label]bool{}
		var visit2 func(ir.Label)
		visit2 = func(m ir.Label) {
			if assigned[m] {
				return
			}
			assigned[m] = true
			comp[m] = true
			for _, e := range cfg.Predecessors(m) {
				if filter[e.From] {
					visit2(e.From)
				}
			}
		}
		visit2(n)
		sccs = append(sccs, comp)
	}
	return sccs
}

func isSCCLoop(cfg *ir.Cfg[ir.Statement, ir.Expr], nodes map[ir.Label]bool) bool {
	if len(nodes) == 0 {
		return false
	}
	if len(nodes) > 1 {
		return true
	}
	var self ir.Label
	for n := range nodes {
		self = n
	}
	for _, e := range cfg.Successors(self) {
		if e.To == self {
			return true
		}
	}
	return false
}

func findEntriesAndExits(ctx *context, nodes map[ir.Label]bool) (*Loop, error) {
	entries := map[ir.Label]bool{}
	exits := map[ir.Label]bool{}
	for node := range nodes {
		for _, e := range ctx.cfg.Predecessors(node) {
			if !nodes[e.From] {
				entries[node] = true
			}
		}
		for _, e := range ctx.cfg.Successors(node) {
			if !nodes[e.To] {
				exits[e.To] = true
			}
		}
	}
	if len(entries) > 1 {
		return nil, IrreducibleLoopError{Entries: sortedLabels(entries)}
	}
	var entry ir.Label
	for e := range entries {
		entry = e
	}

	continueEdges := map[Jump]bool{}
	for _, e := range ctx.cfg.Predecessors(entry) {
		if nodes[e.From] {
			continueEdges[Jump{e.From, entry}] = true
		}
	}

	breakPoint, err := findBestBreakBlock(ctx, exits)
	if err != nil {
		return nil, err
	}

	// Per-edge rule: a break edge is an edge into the break point whose
	// source is dominated by the loop entry (not merely an edge into a
	// break point the entry happens to dominate overall).
	breakEdges := map[Jump]bool{}
	for _, e := range ctx.cfg.Predecessors(breakPoint) {
		if ctx.dominators.Dominates(entry, e.From) {
			breakEdges[Jump{e.From, breakPoint}] = true
		}
	}

	return &Loop{
		Nodes:         nodes,
		Entry:         entry,
		ContinueEdges: continueEdges,
		Exits:         exits,
		BreakPoint:    breakPoint,
		BreakEdges:    breakEdges,
	}, nil
}

func findBestBreakBlock(ctx *context, exits map[ir.Label]bool) (ir.Label, error) {
	list := sortedLabels(exits)
	common, ok := ctx.postdominators.Common(list)
	if !ok {
		return 0, UnstructurableBlockError{Reason: "loop has no common postdominator of its exit targets"}
	}
	return common, nil
}

func structureFromTo(ctx *context, cur, stop ir.Label) ([]ir.Statement, error) {
	var result []ir.Statement
	for cur != stop && cur != ctx.cfg.ExitPoint {
		next, stmts, err := translateBlock(ctx, cur, stop)
		if err != nil {
			return nil, err
		}
		result = append(result, stmts...)
		cur = next
	}
	return result, nil
}

func translateBlock(ctx *context, cur, stop ir.Label) (ir.Label, []ir.Statement, error) {
	logger.Printf("translating block %d (stop=%d)", cur, stop)
	block := ctx.cfg.Nodes[cur]
	result := append([]ir.Statement(nil), block.Stmts...)
	succ := ctx.cfg.Successors(cur)

	if block.Terminator != nil {
		if len(succ) != 2 {
			return 0, nil, UnstructurableBlockError{Block: cur, Reason: "conditional block does not have exactly two successors"}
		}
		join, ok := ctx.postdominators.Immediate(cur)
		if !ok {
			return 0, nil, UnstructurableBlockError{Block: cur, Reason: "conditional block has no immediate postdominator"}
		}
		if !ctx.postdominators.Dominates(stop, join) {
			return 0, nil, PostdominanceViolationError{Stop: stop, Node: join}
		}

		falseEdge, trueEdge := succ[0], succ[1]

		thenHead, thenNext, err := handleJump(ctx, Jump{cur, trueEdge.To}, stop)
		if err != nil {
			return 0, nil, err
		}
		thenRest, err := structureFromTo(ctx, thenNext, join)
		if err != nil {
			return 0, nil, err
		}

		elseHead, elseNext, err := handleJump(ctx, Jump{cur, falseEdge.To}, stop)
		if err != nil {
			return 0, nil, err
		}
		elseRest, err := structureFromTo(ctx, elseNext, join)
		if err != nil {
			return 0, nil, err
		}

		elseBlock := ir.Block{Stmts: append(elseHead, elseRest...)}
		result = append(result, ir.IfStmt{
			Cond: *block.Terminator,
			Then: ir.Block{Stmts: append(thenHead, thenRest...)},
			Else: &elseBlock,
		})
		return join, result, nil
	}

	if len(succ) > 1 {
		return 0, nil, UnstructurableBlockError{Block: cur, Reason: "fallthrough block has more than one successor"}
	}
	next := ctx.cfg.ExitPoint
	if len(succ) == 1 {
		next = succ[0].To
	}
	jumpStmts, nextLabel, err := handleJump(ctx, Jump{cur, next}, stop)
	if err != nil {
		return 0, nil, err
	}
	result = append(result, jumpStmts...)
	return nextLabel, result, nil
}

func handleJump(ctx *context, jump Jump, stop ir.Label) ([]ir.Statement, ir.Label, error) {
	next := jump.To
	if !ctx.postdominators.Dominates(stop, next) {
		return nil, 0, PostdominanceViolationError{Stop: stop, Node: next}
	}

	if idx, ok := ctx.entryToLoopIndex[next]; ok {
		label := loopLabel(idx)
		if ctx.loops[idx].ContinueEdges[jump] {
			return []ir.Statement{ir.ContinueStmt{Label: &label}}, stop, nil
		}
		brk := ctx.loops[idx].BreakPoint
		if !ctx.postdominators.Dominates(stop, brk) {
			return nil, 0, PostdominanceViolationError{Stop: stop, Node: brk}
		}
		body, err := structureFromTo(ctx, next, brk)
		if err != nil {
			return nil, 0, err
		}
		stmt := ir.WhileStmt{
			Label: &label,
			Cond:  ir.LiteralExpr{Value: ir.Boolean(true)},
			Body:  ir.Block{Stmts: body},
		}
		return []ir.Statement{stmt}, brk, nil
	}

	if idx, ok := ctx.loopBreaks[jump]; ok {
		label := loopLabel(idx)
		return []ir.Statement{ir.BreakStmt{Label: &label}}, ctx.loops[idx].BreakPoint, nil
	}

	return nil, next, nil
}

func sortedLabels(set map[ir.Label]bool) []ir.Label {
	out := make([]ir.Label, 0, len(set))
	for l := range set {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
