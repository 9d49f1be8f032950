package optimize

import "sentra/internal/ir"

// InternReferenceIndices hoists a Reference's index expression into a
// Let-bound temporary the first time a given canonical form (by
// ir.InternKey) appears within a Block, and rewrites every later
// occurrence of the same expression (in that same Block) to reuse it.
// This mirors the classic CSE-on-subscripts pass ISL-derived compilers
// run right after offset folding, since identical index arithmetic is
// extremely common across fused stages sharing one iteration point.
func InternReferenceIndices(n ir.Node) (ir.Node, error) {
	iv := &internVisitor{}
	iv.Self = iv
	return n.Accept(iv), nil
}

type internVisitor struct {
	ir.DefaultVisitor
}

func (v *internVisitor) self() ir.Visitor { return v }

func (v *internVisitor) VisitBlock(n *ir.Block) ir.Node {
	seen := make(map[string]string) // InternKey -> temp var name
	counter := 0
	var out []ir.Node
	for _, e := range n.Exprs {
		out = append(out, internStmt(e, seen, &counter))
	}
	return &ir.Block{Exprs: out}
}

// internStmt rewrites references inside a single statement, prepending
// any newly introduced Let temporaries immediately before it. Nested
// control structures (For/If) recurse but keep their own Block-local
// interning scope, since a temp hoisted inside a loop body cannot
// outlive one iteration without becoming invalid across iterations.
func internStmt(n ir.Node, seen map[string]string, counter *int) ir.Node {
	switch t := n.(type) {
	case *ir.Assign:
		var pre []ir.Node
		lhs := internReferenceIndices(t.LHS, seen, counter, &pre)
		rhs := internExprIndices(t.RHS, seen, counter, &pre)
		assign := &ir.Assign{Op: t.Op, LHS: lhs.(*ir.Reference), RHS: rhs}
		if len(pre) == 0 {
			return assign
		}
		return &ir.Block{Exprs: append(pre, assign)}
	case *ir.For:
		body, _ := InternReferenceIndices(t.Body)
		return &ir.For{Init: t.Init, Cond: t.Cond, Inc: t.Inc, Iter: t.Iter, Body: body}
	case *ir.IfThenElse:
		then, _ := InternReferenceIndices(t.Then)
		var elseNode ir.Node
		if t.Else != nil {
			elseNode, _ = InternReferenceIndices(t.Else)
		}
		return &ir.IfThenElse{Cond: t.Cond, Then: then, Else: elseNode}
	case *ir.Block:
		rewritten, _ := InternReferenceIndices(t)
		return rewritten
	case *ir.CallOnce:
		body, _ := InternReferenceIndices(t.Block)
		n2, _ := ir.MakeCallOnce(body, t.CondVarName)
		return n2
	}
	return n
}

func internReferenceIndices(n ir.Node, seen map[string]string, counter *int, pre *[]ir.Node) ir.Node {
	ref, ok := n.(*ir.Reference)
	if !ok {
		return n
	}
	idx := make([]ir.Node, len(ref.Iterators))
	for i, it := range ref.Iterators {
		idx[i] = internLeaf(it, seen, counter, pre)
	}
	return &ir.Reference{Target: ref.Target, Iterators: idx, Typ: ref.Typ}
}

func internExprIndices(n ir.Node, seen map[string]string, counter *int, pre *[]ir.Node) ir.Node {
	switch t := n.(type) {
	case *ir.Reference:
		return internReferenceIndices(t, seen, counter, pre)
	case *ir.Arith:
		return &ir.Arith{Op: t.Op, A: internExprIndices(t.A, seen, counter, pre), B: internExprIndices(t.B, seen, counter, pre), Typ: t.Typ}
	default:
		return n
	}
}

// internLeaf interns a non-trivial (more than a bare Var/IntImm) index
// expression into a Let the first time its canonical form is seen,
// and reuses that Let's variable on every later occurrence.
func internLeaf(n ir.Node, seen map[string]string, counter *int, pre *[]ir.Node) ir.Node {
	switch n.(type) {
	case *ir.Var, *ir.IntImm:
		return n
	}
	key := ir.InternKey(n)
	if name, ok := seen[key]; ok {
		return &ir.Var{Name: name, Typ: n.Type()}
	}
	*counter++
	name := indexTempName(*counter)
	seen[key] = name
	*pre = append(*pre, &ir.Let{LHS: name, RHS: n, Typ: n.Type()})
	return &ir.Var{Name: name, Typ: n.Type()}
}

func indexTempName(n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	return "_idx_" + string(letters[n%len(letters)])
}
