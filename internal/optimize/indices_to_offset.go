package optimize

import (
	"sentra/internal/ir"
	"sentra/internal/types"
)

// FoldIndicesToOffset rewrites every multi-dimensional Reference T[i0,
// i1, ..., ik] into a single linear-offset Reference on a flat ArrayRef,
// using T's row-major strides (DESIGN.md's Open Question 3: row-major
// only). shapes supplies each tensor's declared dimension sizes.
func FoldIndicesToOffset(body ir.Node, shapes map[string]*ir.TensorRef) (ir.Node, error) {
	fv := &foldVisitor{shapes: shapes}
	fv.Self = fv
	return body.Accept(fv), nil
}

type foldVisitor struct {
	ir.DefaultVisitor
	shapes map[string]*ir.TensorRef
}

func (v *foldVisitor) self() ir.Visitor { return v }

func (v *foldVisitor) VisitReference(n *ir.Reference) ir.Node {
	tensor, ok := n.Target.(*ir.TensorRef)
	if !ok || len(n.Iterators) <= 1 {
		return &ir.Reference{
			Target:    n.Target.Accept(v.self()),
			Iterators: acceptAll(v, n.Iterators),
			Typ:       n.Typ,
		}
	}
	iterators := acceptAll(v, n.Iterators)
	offset := rowMajorOffset(tensor, iterators)
	flat := &ir.ArrayRef{Name: tensor.Name, Size: nil, Typ: tensor.ElemType}
	ref, err := ir.MakeReference(flat, []ir.Node{offset})
	if err != nil {
		return n
	}
	return ref
}

func acceptAll(v ir.Visitor, nodes []ir.Node) []ir.Node {
	out := make([]ir.Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Accept(v)
	}
	return out
}

// rowMajorOffset builds sum(iterators[d] * stride[d]) where stride[d] is
// the product of tensor.Shape[d+1:]'s constant dimension sizes.
func rowMajorOffset(tensor *ir.TensorRef, iterators []ir.Node) ir.Node {
	rank := len(iterators)
	i32 := types.ScalarType(types.Int32)
	var acc ir.Node
	for d := 0; d < rank; d++ {
		stride := int64(1)
		for k := d + 1; k < rank && k < len(tensor.Shape); k++ {
			if imm, ok := tensor.Shape[k].(*ir.IntImm); ok {
				stride *= imm.Val
			}
		}
		term := iterators[d]
		if stride != 1 {
			term, _ = ir.MakeArith(ir.Mul, &ir.IntImm{Val: stride, Typ: i32}, term)
		}
		if acc == nil {
			acc = term
			continue
		}
		acc, _ = ir.MakeArith(ir.Add, acc, term)
	}
	return acc
}
