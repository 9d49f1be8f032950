package isl

import "sentra/cerr"

// LoopDim is one original (untiled) loop dimension of a stage's band:
// a named iterator over the closed-open interval [Lo, Hi).
type LoopDim struct {
	IterName string
	Lo, Hi   int64
}

// Band is the partial schedule contribution of one schedule-tree Band
// node: an ordered list of loop dimensions, plus the tiling/vectorize/
// unroll directives recorded by the schedule transformers (§4.5).
// Representing bounds as plain int64 rather than general affine
// expressions is the simplification documented in set.go's package
// comment: stage domains are always box products with integer-literal
// bounds, so a Presburger-general Band carries no extra information.
type Band struct {
	Dims []LoopDim

	// TileSizes, when non-nil, applies to the LAST len(TileSizes) dims.
	TileSizes []int64
	// Separate mirrors ISL's ast-build "separate[x]" option (set by
	// TileUnroll): full tiles are materialized apart from the remainder
	// tile instead of sharing one dynamically-bounded loop.
	Separate bool
	// UnrollInner unrolls the innermost tiled dimension's full-tile
	// point loop at AST-build time (outer tiled dims keep their loops)
	// (independent of the later, more general IR-level unroll pass of
	// §4.7.6, which only fires on loops with a literal trip count).
	UnrollInner bool
	// VectorizeWidth marks the last tile size as a SIMD lane count; its
	// point loop is preceded by a "vectorize - points" Mark so the
	// §4.7.4 optimize pass can rewrite its body into SIMDOpr nodes.
	VectorizeWidth int64
}

func (b *Band) dimIndex(name string) int {
	for i, d := range b.Dims {
		if d.IterName == name {
			return i
		}
	}
	return -1
}

// STNode is the schedule tree's tagged variant interface (§3: Domain,
// Filter, Sequence, Set, Context, Band, Leaf, Mark, Extension).
type STNode interface{ isSTNode() }

type Domain struct{ Child STNode }
type Filter struct {
	Stages []string
	Child  STNode
}
type Sequence struct{ Children []STNode }
type SetBranch struct{ Children []STNode }
type ContextNode struct{ Child STNode }
type BandNode struct {
	B     *Band
	Child STNode
}
type Leaf struct{ Stages []string }
type MarkNode struct {
	ID    string
	Child STNode
}
type ExtensionNode struct{ Child STNode }

func (*Domain) isSTNode()        {}
func (*Filter) isSTNode()        {}
func (*Sequence) isSTNode()      {}
func (*SetBranch) isSTNode()     {}
func (*ContextNode) isSTNode()   {}
func (*BandNode) isSTNode()      {}
func (*Leaf) isSTNode()          {}
func (*MarkNode) isSTNode()      {}
func (*ExtensionNode) isSTNode() {}

// StageEntry is one stage's contribution to a function's initial
// schedule tree, supplied in stage-creation (beta) order.
type StageEntry struct {
	Name string
	Band *Band
}

// NewFunctionTree builds the initial schedule tree: a Domain root over a
// Sequence with one Filter+Band+Leaf branch per stage, in the given
// (creation) order. This linearizes stage order exactly as the
// classical 2k+1-dimension beta schedule would, without materializing
// the beta dimensions themselves: the Sequence's child order carries it.
func NewFunctionTree(entries []StageEntry) *Domain {
	children := make([]STNode, len(entries))
	for i, e := range entries {
		children[i] = &Filter{
			Stages: []string{e.Name},
			Child:  &BandNode{B: e.Band, Child: &Leaf{Stages: []string{e.Name}}},
		}
	}
	return &Domain{Child: &Sequence{Children: children}}
}

// Fuse merges two adjacent top-level stage branches (a.FuseWith(b)) into
// one Filter+Leaf sharing their common outer loop dimensions. a and b
// must have identical dimension counts and identical bounds in every
// dimension but the last (§8 scenario 2: "share the innermost loop");
// iterator names are not compared, and the fused branch keeps a's band.
func Fuse(root *Domain, a, b string) (*Domain, error) {
	seq, ok := root.Child.(*Sequence)
	if !ok {
		return nil, cerr.New(cerr.ScheduleError, a, "function schedule tree root is not a flat sequence")
	}
	idxA, idxB := -1, -1
	var bandA, bandB *Band
	for i, child := range seq.Children {
		f, ok := child.(*Filter)
		if !ok || len(f.Stages) != 1 {
			continue
		}
		bn, ok := f.Child.(*BandNode)
		if !ok {
			continue
		}
		if f.Stages[0] == a {
			idxA, bandA = i, bn.B
		}
		if f.Stages[0] == b {
			idxB, bandB = i, bn.B
		}
	}
	if idxA < 0 {
		return nil, cerr.New(cerr.LookupError, a, "stage not found while fusing")
	}
	if idxB < 0 {
		return nil, cerr.New(cerr.LookupError, b, "stage not found while fusing")
	}
	if len(bandA.Dims) != len(bandB.Dims) {
		return nil, cerr.New(cerr.ScheduleError, a, "cannot fuse %s with %s: dimension counts differ (%d vs %d)", a, b, len(bandA.Dims), len(bandB.Dims))
	}
	for i := 0; i < len(bandA.Dims)-1; i++ {
		da, db := bandA.Dims[i], bandB.Dims[i]
		if da.Lo != db.Lo || da.Hi != db.Hi {
			return nil, cerr.New(cerr.ScheduleError, a, "cannot fuse %s with %s: outer bound mismatch on dim %d", a, b, i)
		}
	}
	fused := &Filter{
		Stages: []string{a, b},
		Child:  &BandNode{B: bandA, Child: &Leaf{Stages: []string{a, b}}},
	}
	newChildren := make([]STNode, 0, len(seq.Children)-1)
	for i, child := range seq.Children {
		if i == idxA {
			newChildren = append(newChildren, fused)
			continue
		}
		if i == idxB {
			continue
		}
		newChildren = append(newChildren, child)
	}
	return &Domain{Child: &Sequence{Children: newChildren}}, nil
}

// findBand locates the Band node reached exclusively by a Filter naming
// stage (possibly among others, for an already-fused cluster).
func findBand(n STNode, stage string) *Band {
	switch t := n.(type) {
	case *Domain:
		return findBand(t.Child, stage)
	case *ContextNode:
		return findBand(t.Child, stage)
	case *ExtensionNode:
		return findBand(t.Child, stage)
	case *MarkNode:
		return findBand(t.Child, stage)
	case *Sequence:
		for _, c := range t.Children {
			if b := findBand(c, stage); b != nil {
				return b
			}
		}
	case *SetBranch:
		for _, c := range t.Children {
			if b := findBand(c, stage); b != nil {
				return b
			}
		}
	case *Filter:
		for _, s := range t.Stages {
			if s == stage {
				return findBand(t.Child, stage)
			}
		}
	case *BandNode:
		return t.B
	}
	return nil
}

// Tile records tile sizes for the last len(sizes) dimensions of the
// target stage's band. The actual outer/inner loop materialization
// happens at AST-build time (§4.3: "does not alter the schedule yet").
func Tile(root *Domain, stage string, sizes []int64) error {
	b := findBand(root, stage)
	if b == nil {
		return cerr.New(cerr.LookupError, stage, "stage not found in schedule tree")
	}
	if len(sizes) == 0 || len(sizes) > len(b.Dims) {
		return cerr.New(cerr.ScheduleError, stage, "tile needs 1..%d sizes, got %d", len(b.Dims), len(sizes))
	}
	b.TileSizes = append([]int64(nil), sizes...)
	return nil
}

// TileUnroll is Tile plus the separate[x]/unroll-inner AST-build options.
func TileUnroll(root *Domain, stage string, sizes []int64) error {
	if err := Tile(root, stage, sizes); err != nil {
		return err
	}
	b := findBand(root, stage)
	b.Separate = true
	b.UnrollInner = true
	return nil
}

// Interchange swaps two named dimensions within the target stage's band,
// which changes their loop nesting order. A dimension not present in
// this band is a documented no-op (§4.5 tie-break): the transform may
// still apply to a different band higher or lower in the tree.
func Interchange(root *Domain, stage, iterA, iterB string) error {
	b := findBand(root, stage)
	if b == nil {
		return cerr.New(cerr.LookupError, stage, "stage not found in schedule tree")
	}
	ia, ib := b.dimIndex(iterA), b.dimIndex(iterB)
	if ia < 0 || ib < 0 {
		return nil
	}
	b.Dims[ia], b.Dims[ib] = b.Dims[ib], b.Dims[ia]
	return nil
}

// Vectorize applies Tile with any outer sizes first (tie-break: outer
// tile before vectorize, §4.5), then marks the band's innermost tile
// size as the SIMD width.
func Vectorize(root *Domain, stage string, outerSizes []int64, width int64) error {
	sizes := append(append([]int64(nil), outerSizes...), width)
	if err := Tile(root, stage, sizes); err != nil {
		return err
	}
	b := findBand(root, stage)
	b.VectorizeWidth = width
	return nil
}

// MarkCallOnce wraps the band reached by the sole named stage with a
// "__call_once__" schedule-tree Mark. It is a hard error for a
// call-once stage to share a band with other stages.
func MarkCallOnce(root *Domain, stage string) error {
	seq, ok := root.Child.(*Sequence)
	if !ok {
		return cerr.New(cerr.ScheduleError, stage, "function schedule tree root is not a flat sequence")
	}
	for i, child := range seq.Children {
		f, ok := child.(*Filter)
		if !ok {
			continue
		}
		found := false
		for _, s := range f.Stages {
			if s == stage {
				found = true
			}
		}
		if !found {
			continue
		}
		if len(f.Stages) != 1 {
			return cerr.New(cerr.ScheduleError, stage, "call-once stage shares a band with other stages: %v", f.Stages)
		}
		seq.Children[i] = &MarkNode{ID: "__call_once__", Child: f}
		return nil
	}
	return cerr.New(cerr.LookupError, stage, "stage not found in schedule tree")
}
