package ir

// RewriteExpr rewrites e post-order: every child of e is rewritten first,
// then fn is applied to the (already-rewritten) node itself. Passes use this
// to substitute variable reads without hand-writing a traversal per
// expression variant, mirroring original_source's Visitor trait.
func RewriteExpr(e Expr, fn func(Expr) Expr) Expr {
	if e == nil {
		return nil
	}
	switch x := e.(type) {
	case LiteralExpr:
		return fn(x)
	case AssignableExpr:
		return fn(AssignableExpr{Value: rewriteAssignable(x.Value, fn)})
	case UnaryExpr:
		return fn(UnaryExpr{Op: x.Op, X: RewriteExpr(x.X, fn)})
	case BinaryExpr:
		return fn(BinaryExpr{Op: x.Op, X: RewriteExpr(x.X, fn), Y: RewriteExpr(x.Y, fn)})
	case IfThenElseExpr:
		return fn(IfThenElseExpr{
			Cond: RewriteExpr(x.Cond, fn),
			Then: RewriteExpr(x.Then, fn),
			Else: RewriteExpr(x.Else, fn),
		})
	case InvokeExpr:
		var recv Expr
		if x.Receiver != nil {
			recv = RewriteExpr(x.Receiver, fn)
		}
		args := make([]Expr, len(x.Args))
		for i, a := range x.Args {
			args[i] = RewriteExpr(a, fn)
		}
		return fn(InvokeExpr{Receiver: recv, Method: x.Method, Class: x.Class, Args: args})
	case AssignExpr:
		return fn(AssignExpr{
			To:   rewriteAssignable(x.To, fn),
			Op:   x.Op,
			From: RewriteExpr(x.From, fn),
		})
	case NewExpr:
		args := make([]Expr, len(x.Args))
		for i, a := range x.Args {
			args[i] = RewriteExpr(a, fn)
		}
		return fn(NewExpr{Class: x.Class, Args: args})
	case ThisExpr, SuperExpr:
		return fn(x)
	default:
		return fn(e)
	}
}

func rewriteAssignable(a Assignable, fn func(Expr) Expr) Assignable {
	switch x := a.(type) {
	case VariableAssignable:
		return x
	case FieldAssignable:
		var this Expr
		if x.This != nil {
			this = RewriteExpr(x.This, fn)
		}
		return FieldAssignable{This: this, Class: x.Class, Field: x.Field}
	case ArrayAccessAssignable:
		return ArrayAccessAssignable{
			Array: RewriteExpr(x.Array, fn),
			Index: RewriteExpr(x.Index, fn),
		}
	default:
		return a
	}
}

// RewriteStatementExprs rewrites every expression directly held by stmt
// (its condition, value, or argument expressions) using RewriteExpr, without
// descending into nested blocks (If/While bodies are rewritten by the
// caller iterating their own statement lists).
func RewriteStatementExprs(stmt Statement, fn func(Expr) Expr) Statement {
	switch s := stmt.(type) {
	case ExprStmt:
		return ExprStmt{Value: RewriteExpr(s.Value, fn)}
	case IfStmt:
		return IfStmt{Cond: RewriteExpr(s.Cond, fn), Then: s.Then, Else: s.Else}
	case WhileStmt:
		return WhileStmt{Label: s.Label, Cond: RewriteExpr(s.Cond, fn), Body: s.Body, DoWhile: s.DoWhile}
	case ReturnStmt:
		if s.Value == nil {
			return s
		}
		return ReturnStmt{Value: RewriteExpr(s.Value, fn)}
	case ThisCallStmt:
		args := make([]Expr, len(s.Args))
		for i, a := range s.Args {
			args[i] = RewriteExpr(a, fn)
		}
		return ThisCallStmt{Args: args}
	case SuperCallStmt:
		args := make([]Expr, len(s.Args))
		for i, a := range s.Args {
			args[i] = RewriteExpr(a, fn)
		}
		return SuperCallStmt{Args: args}
	case ThrowStmt:
		return ThrowStmt{Value: RewriteExpr(s.Value, fn)}
	default:
		return stmt
	}
}

// VariableReads appends every VariableAssignable read reachable from e
// (via AssignableExpr leaves) to out, including the left-hand side of
// augmented assignments (which both reads and writes) but not the plain
// assignment target of a non-augmented AssignExpr.
func VariableReads(e Expr, out *[]VariableAssignable) {
	if e == nil {
		return
	}
	switch x := e.(type) {
	case AssignableExpr:
		if v, ok := x.Value.(VariableAssignable); ok {
			*out = append(*out, v)
		} else if f, ok := x.Value.(FieldAssignable); ok {
			VariableReads(f.This, out)
		}
	case UnaryExpr:
		VariableReads(x.X, out)
	case BinaryExpr:
		VariableReads(x.X, out)
		VariableReads(x.Y, out)
	case IfThenElseExpr:
		VariableReads(x.Cond, out)
		VariableReads(x.Then, out)
		VariableReads(x.Else, out)
	case InvokeExpr:
		VariableReads(x.Receiver, out)
		for _, a := range x.Args {
			VariableReads(a, out)
		}
	case AssignExpr:
		if v, ok := x.To.(VariableAssignable); ok && x.Op != nil {
			*out = append(*out, v)
		}
		if f, ok := x.To.(FieldAssignable); ok {
			VariableReads(f.This, out)
		}
		VariableReads(x.From, out)
	case NewExpr:
		for _, a := range x.Args {
			VariableReads(a, out)
		}
	}
}
