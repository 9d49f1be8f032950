package isl

import "sentra/internal/ir"

// AffineExpr is a linear combination of a domain's named dimensions plus
// a constant: sum(Coeffs[d] * d) + Const.
type AffineExpr struct {
	Coeffs map[string]int64
	Const  int64
}

// NewAffine builds an affine expression referencing a single dimension
// with coefficient 1 (the common case: a bare subscript iterator).
func NewAffine(dim string) AffineExpr {
	return AffineExpr{Coeffs: map[string]int64{dim: 1}}
}

// NewConstAffine builds a constant affine expression.
func NewConstAffine(c int64) AffineExpr {
	return AffineExpr{Const: c}
}

// ToIR renders the affine expression as an ir.Node over int32 Vars named
// after its dimensions.
func (a AffineExpr) ToIR() ir.Node {
	var acc ir.Node = &ir.IntImm{Val: a.Const, Typ: int32Type}
	for _, name := range sortedKeys(a.Coeffs) {
		coeff := a.Coeffs[name]
		if coeff == 0 {
			continue
		}
		term := ir.Node(&ir.Var{Name: name, Typ: int32Type})
		if coeff != 1 {
			term, _ = ir.MakeArith(ir.Mul, &ir.IntImm{Val: coeff, Typ: int32Type}, term)
		}
		if lit, isLit := acc.(*ir.IntImm); isLit && a.Const == 0 && lit.Val == 0 {
			acc = term
			continue
		}
		acc, _ = ir.MakeArith(ir.Add, acc, term)
	}
	return acc
}

// Map is an affine relation from a domain's named dimensions to a
// range's named dimensions: one entry in RangeExprs per range dimension,
// each an affine combination of the domain's dimensions.
type Map struct {
	DomTuple    string
	DomDims     []string
	RanTuple    string
	RangeExprs  []AffineExpr
}

// NewAccessMap builds a read/write access map from a stage's domain
// dimensions to a tensor's coordinate space. exprs must have one entry
// per tensor dimension.
func NewAccessMap(domTuple string, domDims []string, ranTuple string, exprs []AffineExpr) *Map {
	return &Map{DomTuple: domTuple, DomDims: append([]string(nil), domDims...), RanTuple: ranTuple, RangeExprs: exprs}
}
