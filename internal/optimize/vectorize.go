package optimize

import (
	"sentra/internal/ir"
	"sentra/internal/types"
)

// Vectorize rewrites a Mark("vectorize - points") wrapping a constant-
// trip-count For loop whose body is a single element-wise Assign
// (T[...] = A[...] <op> B[...]; a bare copy T[...] = A[...] is not
// matched) into one SIMD
// load/arith/store triple over the loop's trip count as the lane width,
// deleting the loop. Loops that don't match this single-statement
// elementwise shape are left as plain scalar loops (documented
// simplification: only the elementwise fast path is auto-vectorized;
// anything else still compiles, just without SIMD).
func Vectorize(n ir.Node) (ir.Node, error) {
	vv := &vecVisitor{}
	vv.Self = vv
	return n.Accept(vv), nil
}

type vecVisitor struct {
	ir.DefaultVisitor
}

func (v *vecVisitor) self() ir.Visitor { return v }

func (v *vecVisitor) VisitBlock(n *ir.Block) ir.Node {
	out := make([]ir.Node, 0, len(n.Exprs))
	for i := 0; i < len(n.Exprs); i++ {
		e := n.Exprs[i]
		mark, ok := e.(*ir.Mark)
		if !ok || mark.Text != "vectorize - points" || i+1 >= len(n.Exprs) {
			out = append(out, e.Accept(v.self()))
			continue
		}
		loop, ok := n.Exprs[i+1].(*ir.For)
		if !ok {
			out = append(out, e, n.Exprs[i+1].Accept(v.self()))
			i++
			continue
		}
		if simd, ok := tryVectorizeLoop(loop); ok {
			out = append(out, simd)
			i++
			continue
		}
		out = append(out, loop.Accept(v.self()))
		i++
	}
	return &ir.Block{Exprs: out}
}

func tryVectorizeLoop(loop *ir.For) (ir.Node, bool) {
	width, ok := constTripCount(loop)
	if !ok || width <= 1 {
		return nil, false
	}
	assign, ok := loop.Body.(*ir.Assign)
	if !ok || assign.Op != ir.AssignPlain {
		return nil, false
	}
	arith, ok := assign.RHS.(*ir.Arith)
	if !ok {
		return nil, false
	}
	lhsRef := assign.LHS
	aRef, okA := arith.A.(*ir.Reference)
	bRef, okB := arith.B.(*ir.Reference)
	if !okA || !okB {
		return nil, false
	}
	simdOp, ok := arithToSIMDOp(arith.Op)
	if !ok {
		return nil, false
	}
	composite := widthToComposite(width)
	if composite == types.Scalar {
		return nil, false
	}
	elemType := lhsRef.Type()

	loadA, err := ir.MakeSIMDLoad(int(width), addressOf(aRef), elemType, composite)
	if err != nil {
		return nil, false
	}
	loadB, err := ir.MakeSIMDLoad(int(width), addressOf(bRef), elemType, composite)
	if err != nil {
		return nil, false
	}
	combined, err := ir.MakeSIMDArith(simdOp, loadA, loadB)
	if err != nil {
		return nil, false
	}
	store, err := ir.MakeSIMDStore(int(width), addressOf(lhsRef), combined)
	if err != nil {
		return nil, false
	}
	return store, true
}

func addressOf(ref *ir.Reference) ir.Node {
	return &ir.Identity{Expr: ref, Tag: ir.ReferenceAddressTag}
}

func arithToSIMDOp(op ir.ArithOp) (ir.SIMDOp, bool) {
	switch op {
	case ir.Add:
		return ir.SIMDAdd, true
	case ir.Sub:
		return ir.SIMDSub, true
	case ir.Mul:
		return ir.SIMDMul, true
	case ir.Div:
		return ir.SIMDDiv, true
	}
	return 0, false
}

func widthToComposite(width int64) types.Composite {
	switch width {
	case 4:
		return types.SIMD128
	case 8:
		return types.SIMD256
	}
	return types.Scalar
}

// constTripCount reports the loop's trip count when Init and Upper (the
// comparison's RHS) are both literal. Inc is not inspected: the count is
// Upper - Init, which assumes a step of 1.
func constTripCount(loop *ir.For) (int64, bool) {
	init, ok := loop.Init.(*ir.IntImm)
	if !ok {
		return 0, false
	}
	cmp, ok := loop.Cond.(*ir.Cmp)
	if !ok || cmp.Op != ir.LT {
		return 0, false
	}
	upper, ok := cmp.B.(*ir.IntImm)
	if !ok {
		return 0, false
	}
	return upper.Val - init.Val, true
}
