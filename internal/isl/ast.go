package isl

import "sentra/internal/ir"

// AstNode is the polyhedral AST's tagged variant interface (§4.2): the
// materialized loop/branch/statement structure produced by walking a
// (possibly transformed) schedule tree. It still refers to stages by
// name rather than their expressions — internal/lowering resolves each
// AstUser against the owning Function's stage bodies.
type AstNode interface{ isAst() }

// AstFor is a single materialized loop: for(Iter = Init; Iter < Upper;
// Iter += Step). Upper may be a non-constant expression (e.g. a min()
// bounding a partial tile's trip count against an outer tile variable).
type AstFor struct {
	Iter   string
	Init   ir.Node
	Upper  ir.Node
	Step   int64
	Unroll bool
	Body   AstNode
}

type AstIf struct {
	Cond ir.Node
	Then AstNode
	Else AstNode
}

type AstBlockNode struct{ Children []AstNode }

// AstUser is a leaf statement point: one or more stages (fused share
// one) together with the substitution each stage's original iterator
// names need at this point in the tree.
type AstUser struct {
	Stages    []string
	RenameMap map[string]ir.Node
}

// AstMarkNode carries a schedule-tree Mark (e.g. "vectorize - points",
// "__call_once__") down to the point in the AST it annotates.
type AstMarkNode struct {
	ID    string
	Child AstNode
}

func (*AstFor) isAst()       {}
func (*AstIf) isAst()        {}
func (*AstBlockNode) isAst() {}
func (*AstUser) isAst()      {}
func (*AstMarkNode) isAst()  {}

func i32(v int64) ir.Node { return &ir.IntImm{Val: v, Typ: int32Type} }

func iVar(name string) ir.Node { return &ir.Var{Name: name, Typ: int32Type} }

func addExpr(a, b ir.Node) ir.Node {
	n, _ := ir.MakeArith(ir.Add, a, b)
	return n
}

func mulExpr(a, b ir.Node) ir.Node {
	n, _ := ir.MakeArith(ir.Mul, a, b)
	return n
}

func minExpr(a, b ir.Node) ir.Node {
	n, _ := ir.MakeMinMax(ir.MinO, a, b)
	return n
}

// BuildAst walks the schedule tree and materializes its AST, threading
// an iterator-rename map (original dim name -> value expression at this
// point) down to each AstUser leaf.
func BuildAst(root *Domain) (AstNode, error) {
	return buildNode(root.Child, map[string]ir.Node{})
}

func buildNode(n STNode, rename map[string]ir.Node) (AstNode, error) {
	switch t := n.(type) {
	case *ContextNode:
		return buildNode(t.Child, rename)
	case *ExtensionNode:
		return buildNode(t.Child, rename)
	case *MarkNode:
		child, err := buildNode(t.Child, rename)
		if err != nil {
			return nil, err
		}
		return &AstMarkNode{ID: t.ID, Child: child}, nil
	case *Sequence:
		children := make([]AstNode, 0, len(t.Children))
		for _, c := range t.Children {
			cn, err := buildNode(c, cloneRename(rename))
			if err != nil {
				return nil, err
			}
			children = append(children, cn)
		}
		return &AstBlockNode{Children: children}, nil
	case *SetBranch:
		children := make([]AstNode, 0, len(t.Children))
		for _, c := range t.Children {
			cn, err := buildNode(c, cloneRename(rename))
			if err != nil {
				return nil, err
			}
			children = append(children, cn)
		}
		return &AstBlockNode{Children: children}, nil
	case *Filter:
		return buildNode(t.Child, rename)
	case *BandNode:
		return buildBand(t.B, t.Child, rename)
	case *Leaf:
		return &AstUser{Stages: append([]string(nil), t.Stages...), RenameMap: rename}, nil
	}
	return nil, nil
}

func cloneRename(m map[string]ir.Node) map[string]ir.Node {
	out := make(map[string]ir.Node, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// buildBand materializes one Band's loop nest, innermost-first recursion
// producing outermost-first structure: the prefix (untiled) dims become
// ordinary loops, and the last len(TileSizes) dims become tiled loop
// pairs per the band's Separate/UnrollInner/VectorizeWidth options.
func buildBand(b *Band, child STNode, rename map[string]ir.Node) (AstNode, error) {
	nTiled := len(b.TileSizes)
	prefixLen := len(b.Dims) - nTiled

	var body AstNode
	var err error
	if nTiled == 0 {
		body, err = buildNode(child, rename)
	} else {
		body, err = buildTiledTail(b.Dims[prefixLen:], b.TileSizes, b.Separate, b.UnrollInner, b.VectorizeWidth, child, rename)
	}
	if err != nil {
		return nil, err
	}

	for i := prefixLen - 1; i >= 0; i-- {
		d := b.Dims[i]
		body = &AstFor{Iter: d.IterName, Init: i32(d.Lo), Upper: i32(d.Hi), Step: 1, Body: body}
	}
	return body, nil
}

// buildTiledTail recursively materializes the tiled dimensions, one at a
// time from outermost to innermost, each contributing an outer tile-index
// loop and an inner point loop (or, when Separate, a full-tile nest plus
// a remainder nest).
func buildTiledTail(dims []LoopDim, sizes []int64, separate, unrollInner bool, vecWidth int64, child STNode, rename map[string]ir.Node) (AstNode, error) {
	if len(dims) == 0 {
		return buildNode(child, rename)
	}

	d := dims[0]
	size := sizes[0]
	extent := d.Hi - d.Lo
	isLastTiledDim := len(dims) == 1

	buildPoint := func(outerVal ir.Node, lo int64, count int64, unroll bool) (AstNode, error) {
		pointRename := cloneRename(rename)
		iterExpr := addExpr(outerVal, i32(lo))
		if lo == 0 {
			iterExpr = outerVal
		}
		// The remaining (deeper) tiled dims need their own loops before
		// reaching the user statement; recurse with this dim already
		// bound in rename.
		bindRename := func(m map[string]ir.Node, ptIter ir.Node) map[string]ir.Node {
			out := cloneRename(m)
			out[d.IterName] = addExpr(iterExpr, ptIter)
			return out
		}
		if count <= 0 {
			return &AstBlockNode{}, nil
		}
		if unroll {
			children := make([]AstNode, 0, count)
			for k := int64(0); k < count; k++ {
				r := bindRename(pointRename, i32(k))
				var inner AstNode
				var err error
				if isLastTiledDim {
					inner, err = buildTiledTail(nil, nil, separate, unrollInner, vecWidth, child, r)
				} else {
					inner, err = buildTiledTail(dims[1:], sizes[1:], separate, unrollInner, vecWidth, child, r)
				}
				if err != nil {
					return nil, err
				}
				children = append(children, inner)
			}
			block := AstNode(&AstBlockNode{Children: children})
			if isLastTiledDim && vecWidth > 0 {
				block = &AstMarkNode{ID: "vectorize - points", Child: block}
			}
			return block, nil
		}
		r := bindRename(pointRename, iVar(d.IterName+"_p"))
		var inner AstNode
		var err error
		if isLastTiledDim {
			inner, err = buildTiledTail(nil, nil, separate, unrollInner, vecWidth, child, r)
		} else {
			inner, err = buildTiledTail(dims[1:], sizes[1:], separate, unrollInner, vecWidth, child, r)
		}
		if err != nil {
			return nil, err
		}
		upper := i32(count)
		if !separate {
			upper = minExpr(i32(size), i32(count))
		}
		loop := AstNode(&AstFor{Iter: d.IterName + "_p", Init: i32(0), Upper: upper, Body: inner})
		if isLastTiledDim && vecWidth > 0 {
			loop = &AstMarkNode{ID: "vectorize - points", Child: loop}
		}
		return loop, nil
	}

	if !separate {
		fullTiles := (extent + size - 1) / size
		outerVar := iVar(d.IterName + "_o")
		pointBody, err := buildPoint(mulExpr(outerVar, i32(size)), 0, size, false)
		if err != nil {
			return nil, err
		}
		// pointBody's upper bound needs the true remaining extent, which
		// depends on outerVar; rebuild with dynamic min bound (looking
		// through the "vectorize - points" Mark when one wraps the loop).
		target := pointBody
		if m, ok := target.(*AstMarkNode); ok {
			target = m.Child
		}
		if pf, ok := target.(*AstFor); ok {
			remaining := addExpr(i32(extent), mulExpr(i32(-1), mulExpr(outerVar, i32(size))))
			pf.Upper = minExpr(i32(size), remaining)
		}
		return &AstFor{Iter: d.IterName + "_o", Init: i32(0), Upper: i32(fullTiles), Body: pointBody}, nil
	}

	fullTiles := extent / size
	remainder := extent % size
	var parts []AstNode
	if fullTiles > 0 {
		outerVar := iVar(d.IterName + "_o")
		pointBody, err := buildPoint(mulExpr(outerVar, i32(size)), 0, size, unrollInner && isLastTiledDim)
		if err != nil {
			return nil, err
		}
		parts = append(parts, &AstFor{Iter: d.IterName + "_o", Init: i32(0), Upper: i32(fullTiles), Body: pointBody})
	}
	if remainder > 0 {
		base := i32(fullTiles * size)
		pointBody, err := buildPoint(base, 0, remainder, false)
		if err != nil {
			return nil, err
		}
		parts = append(parts, pointBody)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return &AstBlockNode{Children: parts}, nil
}
