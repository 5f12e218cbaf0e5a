// Package propagate inlines a variable assignment into its use site when
// that variable has at most one possible definition reaching exactly one
// use, the fourth stage of the decompilation pipeline. It runs a reaching-
// definitions dataflow analysis to a fixed point, then two substitution
// passes: one across the surviving definitions' own values (so a chain of
// single-use assignments collapses into one expression), and one across the
// method body itself.
package propagate

import (
	"sort"

	"github.com/classlift/unjavac/ir"
)

// Location names a statement by its block and position within that block's
// statement list.
type Location struct {
	Block ir.Label
	Idx   int
}

func (l Location) less(other Location) bool {
	if l.Block != other.Block {
		return l.Block < other.Block
	}
	return l.Idx < other.Idx
}

// Definition is one `variable = expr` assignment found in the method body,
// together with enough dataflow bookkeeping to decide whether it can be
// inlined away.
type Definition struct {
	ID       Location
	Name     string
	Value    ir.Expr
	Relevant map[string]map[Location]bool // definitions reaching this one, by variable name
	Uses     int
	NonPropagatableUses int
}

func isPropagatable(d *Definition) bool {
	return d.NonPropagatableUses == 0 && d.Uses == 1
}

// Propagate runs the pass over cfg in place and returns it.
func Propagate(cfg *ir.Cfg[ir.Statement, ir.Expr]) *ir.Cfg[ir.Statement, ir.Expr] {
	defs, relevantOnEntry := collectDefInfo(cfg)

	propagatable := make(map[Location]*Definition)
	for loc, d := range defs {
		if isPropagatable(d) {
			propagatable[loc] = d
		}
	}
	logger.Printf("%d of %d definitions are propagatable", len(propagatable), len(defs))

	propagateInDefinitions(propagatable)
	propagateInCode(cfg, propagatable, relevantOnEntry)
	return cfg
}

// collectDefInfo finds every simple `variable = expr` assignment in cfg and
// computes, for each one, the set of other definitions that reach each of
// its use sites (relevantOnEntry is the dataflow state carried across
// block boundaries). It iterates to a fixed point since a block's entry
// state depends on every predecessor, including loop back-edges.
func collectDefInfo(cfg *ir.Cfg[ir.Statement, ir.Expr]) (map[Location]*Definition, map[ir.Label]map[string]map[Location]bool) {
	defs := make(map[Location]*Definition)
	relevantOnEntry := make(map[ir.Label]map[string]map[Location]bool)
	for _, l := range cfg.Labels() {
		relevantOnEntry[l] = map[string]map[Location]bool{}
	}

	changed := true
	for changed {
		changed = false
		for _, d := range defs {
			d.Uses = 0
			d.NonPropagatableUses = 0
		}

		for _, label := range cfg.Labels() {
			relevant := cloneRelevant(relevantOnEntry[label])
			block := cfg.Nodes[label]

			for stmtIdx, stmt := range block.Stmts {
				collectUses(statementExprs(stmt), relevant, defs)

				if name, from, ok := isSimpleVarAssign(stmt); ok {
					loc := Location{Block: label, Idx: stmtIdx}
					def, exists := defs[loc]
					if !exists {
						def = &Definition{ID: loc, Name: name, Value: from}
						defs[loc] = def
						changed = true
					}
					def.Relevant = cloneRelevant(relevant)
					relevant[name] = map[Location]bool{loc: true}
				}
			}
			if block.Terminator != nil {
				collectUses([]ir.Expr{*block.Terminator}, relevant, defs)
			}

			for _, edge := range cfg.Successors(label) {
				target := relevantOnEntry[edge.To]
				for name, locs := range relevant {
					before, ok := target[name]
					if !ok {
						before = map[Location]bool{}
						target[name] = before
						changed = true
					}
					for loc := range locs {
						if !before[loc] {
							before[loc] = true
							changed = true
						}
					}
				}
			}
		}
	}
	logger.Printf("reaching-definitions fixed point: %d definitions found", len(defs))
	return defs, relevantOnEntry
}

func collectUses(exprs []ir.Expr, relevant map[string]map[Location]bool, defs map[Location]*Definition) {
	var reads []ir.VariableAssignable
	for _, e := range exprs {
		ir.VariableReads(e, &reads)
	}
	for _, v := range reads {
		locs := relevant[v.Name]
		propagatable := len(locs) <= 1
		for loc := range locs {
			def, ok := defs[loc]
			if !ok {
				continue
			}
			def.Uses++
			if !propagatable {
				def.NonPropagatableUses++
			}
		}
	}
}

// propagateInDefinitions substitutes each surviving definition's value into
// every other surviving definition that it (uniquely) reaches, so chained
// single-use assignments (`t0 = x; t1 = t0 + 1`) collapse before the method
// body is rewritten.
func propagateInDefinitions(defs map[Location]*Definition) {
	ids := make([]Location, 0, len(defs))
	for id := range defs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].less(ids[j]) })

	for _, replaceID := range ids {
		replaceDef := defs[replaceID]
		singleton := map[Location]*Definition{replaceID: replaceDef}
		for _, defID := range ids {
			if defID == replaceID {
				continue
			}
			def := defs[defID]
			fn := substituteFn(def.Relevant, singleton)
			def.Value = ir.RewriteExpr(def.Value, fn)
		}
	}
}

// propagateInCode rewrites cfg's statements, substituting a use of a
// variable for its definition's value wherever that definition is the
// unique one reaching that use, then dropping the original assignment
// (replaced with NopStmt, so block structure and statement indices used
// elsewhere in the pipeline stay stable).
func propagateInCode(cfg *ir.Cfg[ir.Statement, ir.Expr], defs map[Location]*Definition, relevantOnEntry map[ir.Label]map[string]map[Location]bool) {
	for _, label := range cfg.Labels() {
		relevant := cloneRelevant(relevantOnEntry[label])
		block := cfg.Nodes[label]

		for stmtIdx, stmt := range block.Stmts {
			fn := substituteFn(relevant, defs)
			stmt = ir.RewriteStatementExprs(stmt, fn)

			if name, _, ok := isSimpleVarAssign(stmt); ok {
				relevant[name] = map[Location]bool{{Block: label, Idx: stmtIdx}: true}
			}
			if _, ok := defs[Location{Block: label, Idx: stmtIdx}]; ok {
				stmt = ir.NopStmt{}
			}
			block.Stmts[stmtIdx] = stmt
		}
		if block.Terminator != nil {
			fn := substituteFn(relevant, defs)
			cond := ir.RewriteExpr(*block.Terminator, fn)
			block.Terminator = &cond
		}
	}
}

func substituteFn(relevant map[string]map[Location]bool, defs map[Location]*Definition) func(ir.Expr) ir.Expr {
	return func(e ir.Expr) ir.Expr {
		ae, ok := e.(ir.AssignableExpr)
		if !ok {
			return e
		}
		v, ok := ae.Value.(ir.VariableAssignable)
		if !ok {
			return e
		}
		locs := relevant[v.Name]
		if len(locs) != 1 {
			return e
		}
		var loc Location
		for l := range locs {
			loc = l
		}
		def, ok := defs[loc]
		if !ok {
			return e
		}
		return def.Value
	}
}

func isSimpleVarAssign(stmt ir.Statement) (string, ir.Expr, bool) {
	es, ok := stmt.(ir.ExprStmt)
	if !ok {
		return "", nil, false
	}
	ae, ok := es.Value.(ir.AssignExpr)
	if !ok || ae.Op != nil {
		return "", nil, false
	}
	v, ok := ae.To.(ir.VariableAssignable)
	if !ok {
		return "", nil, false
	}
	return v.Name, ae.From, true
}

func statementExprs(stmt ir.Statement) []ir.Expr {
	switch s := stmt.(type) {
	case ir.ExprStmt:
		return []ir.Expr{s.Value}
	case ir.IfStmt:
		return []ir.Expr{s.Cond}
	case ir.WhileStmt:
		return []ir.Expr{s.Cond}
	case ir.ReturnStmt:
		if s.Value == nil {
			return nil
		}
		return []ir.Expr{s.Value}
	case ir.ThisCallStmt:
		return s.Args
	case ir.SuperCallStmt:
		return s.Args
	case ir.ThrowStmt:
		return []ir.Expr{s.Value}
	default:
		return nil
	}
}

func cloneRelevant(m map[string]map[Location]bool) map[string]map[Location]bool {
	out := make(map[string]map[Location]bool, len(m))
	for name, locs := range m {
		inner := make(map[Location]bool, len(locs))
		for l := range locs {
			inner[l] = true
		}
		out[name] = inner
	}
	return out
}
