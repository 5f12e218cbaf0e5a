// Package dom computes dominator and postdominator trees over a control-flow
// graph, used by the control-flow structuring stage to find loop break
// points and if/else join points.
package dom

import "github.com/classlift/unjavac/ir"

// graph abstracts over a Cfg's forward/reverse adjacency so the same
// fixed-point algorithm computes both dominators (forward, rooted at entry)
// and postdominators (the reversed graph, rooted at exit).
type graph interface {
	labels() []ir.Label
	successors(ir.Label) []ir.Label
}

type forwardGraph[S, C any] struct{ g *ir.Cfg[S, C] }

func (f forwardGraph[S, C]) labels() []ir.Label { return f.g.Labels() }
func (f forwardGraph[S, C]) successors(l ir.Label) []ir.Label {
	edges := f.g.Successors(l)
	out := make([]ir.Label, len(edges))
	for i, e := range edges {
		out[i] = e.To
	}
	return out
}

type reverseGraph[S, C any] struct{ g *ir.Cfg[S, C] }

func (r reverseGraph[S, C]) labels() []ir.Label { return r.g.Labels() }
func (r reverseGraph[S, C]) successors(l ir.Label) []ir.Label {
	edges := r.g.Predecessors(l)
	out := make([]ir.Label, len(edges))
	for i, e := range edges {
		out[i] = e.From
	}
	return out
}

// Dominators holds a computed (post)dominator tree, keyed by immediate
// dominator. Root is the entry node (for dominators) or the exit node (for
// postdominators).
type Dominators struct {
	root Label
	idom map[Label]Label
}

// Label is a re-export of ir.Label for readability at call sites.
type Label = ir.Label

// Of computes the dominator tree of g, rooted at g.EntryPoint.
func Of[S, C any](g *ir.Cfg[S, C]) *Dominators {
	return compute[S, C](forwardGraph[S, C]{g}, g.EntryPoint)
}

// PostOf computes the postdominator tree of g: the dominator tree of the
// edge-reversed graph, rooted at g.ExitPoint.
func PostOf[S, C any](g *ir.Cfg[S, C]) *Dominators {
	return compute[S, C](reverseGraph[S, C]{g}, g.ExitPoint)
}

func compute[S, C any](g graph, root Label) *Dominators {
	order := reversePostorder(g, root)
	rpoIndex := make(map[Label]int, len(order))
	for i, l := range order {
		rpoIndex[l] = i
	}

	preds := make(map[Label][]Label)
	for _, l := range g.labels() {
		for _, s := range g.successors(l) {
			preds[s] = append(preds[s], l)
		}
	}

	idom := map[Label]Label{root: root}
	changed := true
	for changed {
		changed = false
		for _, node := range order {
			if node == root {
				continue
			}
			var newIdom Label
			haveFirst := false
			for _, p := range preds[node] {
				if _, ok := idom[p]; !ok {
					continue
				}
				if !haveFirst {
					newIdom = p
					haveFirst = true
					continue
				}
				newIdom = intersect(idom, rpoIndex, newIdom, p)
			}
			if !haveFirst {
				continue
			}
			if cur, ok := idom[node]; !ok || cur != newIdom {
				idom[node] = newIdom
				changed = true
			}
		}
	}
	delete(idom, root) // root has no immediate dominator, per spec's Immediate returning Option

	return &Dominators{root: root, idom: idom}
}

func intersect(idom map[Label]Label, rpoIndex map[Label]int, a, b Label) Label {
	for a != b {
		for rpoIndex[a] > rpoIndex[b] {
			a = idom[a]
		}
		for rpoIndex[b] > rpoIndex[a] {
			b = idom[b]
		}
	}
	return a
}

func reversePostorder(g graph, root Label) []Label {
	var order []Label
	visited := map[Label]bool{}
	var visit func(Label)
	visit = func(l Label) {
		if visited[l] {
			return
		}
		visited[l] = true
		for _, s := range g.successors(l) {
			visit(s)
		}
		order = append(order, l)
	}
	visit(root)
	// order is postorder; reverse it
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

// Root returns the tree's root node (the entry or exit point it was built
// from).
func (d *Dominators) Root() Label { return d.root }

// Immediate returns node's immediate (post)dominator, and false for the
// root (which has none).
func (d *Dominators) Immediate(node Label) (Label, bool) {
	l, ok := d.idom[node]
	return l, ok
}

// Dominates reports whether a (post)dominates b, by walking b's immediate
// dominator chain until it reaches a or the root.
func (d *Dominators) Dominates(a, b Label) bool {
	if a == b {
		return true
	}
	for {
		imm, ok := d.Immediate(b)
		if !ok {
			return a == d.root
		}
		if imm == a {
			return true
		}
		if imm == b {
			return false
		}
		b = imm
	}
}

// Path returns node's ordered ancestors, including node itself, up to and
// including the root.
func (d *Dominators) Path(node Label) []Label {
	path := []Label{node}
	for {
		imm, ok := d.Immediate(node)
		if !ok {
			return path
		}
		node = imm
		path = append(path, node)
	}
}

// Common returns the nearest common (post)dominator of nodes: each node's
// path to the root is reversed (root-first), then walked position by
// position while every path agrees; the last agreeing node is returned.
// Returns (zero, false) for an empty input.
func (d *Dominators) Common(nodes []Label) (Label, bool) {
	if len(nodes) == 0 {
		var zero Label
		return zero, false
	}
	paths := make([][]Label, len(nodes))
	for i, n := range nodes {
		p := d.Path(n)
		for a, b := 0, len(p)-1; a < b; a, b = a+1, b-1 {
			p[a], p[b] = p[b], p[a]
		}
		paths[i] = p
	}
	var nearest Label
	found := false
	for depth := 0; depth < len(paths[0]); depth++ {
		candidate := paths[0][depth]
		for _, p := range paths {
			if depth >= len(p) || p[depth] != candidate {
				return nearest, found
			}
		}
		nearest = candidate
		found = true
	}
	return nearest, found
}
