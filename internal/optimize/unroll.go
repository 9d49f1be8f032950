package optimize

import (
	"sentra/internal/ir"
	"sentra/internal/types"
)

// unrollMin/unrollMax bound the trip counts this pass will replicate:
// below unrollMin there is nothing to gain, above unrollMax code size
// grows faster than the benefit (§4.7.6).
const (
	unrollMin = 2
	unrollMax = 30
)

// UnrollSmallLoops replaces any remaining scalar For loop with a
// constant trip count in [unrollMin, unrollMax] with a Block of that
// many substituted copies of its body. This is the general IR-level
// pass and is independent of the schedule-tree UnrollInner option
// (isl.Band.UnrollInner), which already expanded its own loops at
// AST-build time; this pass catches everything else, e.g. a small
// fixed-bound loop that was never tiled.
func UnrollSmallLoops(n ir.Node) (ir.Node, error) {
	uv := &unrollVisitor{}
	uv.Self = uv
	return n.Accept(uv), nil
}

type unrollVisitor struct {
	ir.DefaultVisitor
}

func (v *unrollVisitor) self() ir.Visitor { return v }

func (v *unrollVisitor) VisitFor(n *ir.For) ir.Node {
	body := n.Body.Accept(v.self())
	trip, ok := constTripCount(n)
	if !ok || trip < unrollMin || trip > unrollMax {
		return &ir.For{Init: n.Init, Cond: n.Cond, Inc: n.Inc, Iter: n.Iter, Body: body}
	}
	init, _ := n.Init.(*ir.IntImm)
	children := make([]ir.Node, 0, trip)
	for k := int64(0); k < trip; k++ {
		val := init.Val + k
		children = append(children, bindConst(body, n.Iter.Name, val, n.Iter.Typ))
	}
	return &ir.Block{Exprs: children}
}

// bindConst replaces every Var named iterName with an IntImm of val.
func bindConst(n ir.Node, iterName string, val int64, typ types.Type) ir.Node {
	bv := &constBindVisitor{iterName: iterName, val: val, typ: typ}
	bv.Self = bv
	return n.Accept(bv)
}

type constBindVisitor struct {
	ir.DefaultVisitor
	iterName string
	val      int64
	typ      types.Type
}

func (v *constBindVisitor) VisitVar(n *ir.Var) ir.Node {
	if n.Name == v.iterName {
		return &ir.IntImm{Val: v.val, Typ: v.typ}
	}
	return n
}
