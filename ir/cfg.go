package ir

import "sort"

// Label identifies a basic block within a Cfg. Labels are stable integers,
// never long-lived references, so passes can address nodes freely without
// pointer-graph concerns (spec §5, §9).
type Label int

// BasicBlock is an ordered statement (or instruction) sequence with an
// optional terminator condition. A block with a terminator has exactly two
// outgoing edges (labeled true/false); a block without one has at most one.
type BasicBlock[S, C any] struct {
	Stmts      []S
	Terminator *C
}

// Edge is a directed, boolean-labeled control transfer between two blocks.
// For a branchless block the single outgoing edge always carries false.
type Edge struct {
	From, To Label
	Cond     bool
}

// Cfg is a directed graph of basic blocks, closed (every node has a forward
// path to ExitPoint) and with exactly one entry and one exit node.
type Cfg[S, C any] struct {
	Nodes      map[Label]*BasicBlock[S, C]
	Edges      []Edge
	EntryPoint Label
	ExitPoint  Label
}

// NewCfg returns an empty Cfg ready to have nodes and edges added.
func NewCfg[S, C any]() *Cfg[S, C] {
	return &Cfg[S, C]{Nodes: map[Label]*BasicBlock[S, C]{}}
}

// AddEdge records a directed edge from 'from' to 'to' carrying label cond.
func (g *Cfg[S, C]) AddEdge(from, to Label, cond bool) {
	g.Edges = append(g.Edges, Edge{From: from, To: to, Cond: cond})
}

// Successors returns the outgoing edges of label, in a stable order (false
// before true, matching the order the CFG builder's tie-break expects).
func (g *Cfg[S, C]) Successors(label Label) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.From == label {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return !out[i].Cond && out[j].Cond })
	return out
}

// Predecessors returns the incoming edges of label.
func (g *Cfg[S, C]) Predecessors(label Label) []Edge {
	var in []Edge
	for _, e := range g.Edges {
		if e.To == label {
			in = append(in, e)
		}
	}
	return in
}

// Labels returns every node label in ascending order.
func (g *Cfg[S, C]) Labels() []Label {
	out := make([]Label, 0, len(g.Nodes))
	for l := range g.Nodes {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// TransformCfg builds a new Cfg with the same shape (nodes, edges,
// entry/exit) as src, but with every node's weight rebuilt by fn. Passes use
// this to move from one body representation to the next while the graph
// topology itself is untouched (spec: "only node weights change").
func TransformCfg[S1, C1, S2, C2 any](src *Cfg[S1, C1], fn func(Label, *BasicBlock[S1, C1]) (*BasicBlock[S2, C2], error)) (*Cfg[S2, C2], error) {
	dst := NewCfg[S2, C2]()
	dst.EntryPoint = src.EntryPoint
	dst.ExitPoint = src.ExitPoint
	dst.Edges = append([]Edge(nil), src.Edges...)
	for _, label := range src.Labels() {
		nb, err := fn(label, src.Nodes[label])
		if err != nil {
			return nil, err
		}
		dst.Nodes[label] = nb
	}
	return dst, nil
}
