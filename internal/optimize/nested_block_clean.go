package optimize

import "sentra/internal/ir"

// FlattenBlocks inlines any Block directly nested inside another Block's
// Exprs list, the way a naive schedule-to-IR lowering produces
// Block{Block{...}, Block{...}} wherever a Sequence's children were
// themselves Sequences.
func FlattenBlocks(n ir.Node) (ir.Node, error) {
	fv := &flattenVisitor{}
	fv.Self = fv
	return n.Accept(fv), nil
}

type flattenVisitor struct {
	ir.DefaultVisitor
}

func (v *flattenVisitor) VisitBlock(n *ir.Block) ir.Node {
	var flat []ir.Node
	for _, e := range n.Exprs {
		rewritten := e.Accept(v.self())
		if b, ok := rewritten.(*ir.Block); ok {
			flat = append(flat, b.Exprs...)
			continue
		}
		flat = append(flat, rewritten)
	}
	return &ir.Block{Exprs: flat}
}

func (v *flattenVisitor) self() ir.Visitor { return v }
