// Package isl is a thin, pure-Go polyhedral wrapper exposing exactly the
// operations this compiler's core needs: named integer sets for
// iteration domains, affine maps for schedules and accesses, and a
// schedule tree with AST materialization. It is not a general
// Presburger-arithmetic engine — domains are closed-open integer-interval
// products (one bound pair per named dimension) optionally narrowed by a
// handful of simple additive predicates, which is exactly what stage
// iteration domains and SetCond predicates produce (see
// internal/affparse). See DESIGN.md for why no existing Go ISL binding
// was available to wrap instead.
package isl

import "sentra/internal/ir"

// Constraint is one extra affine predicate narrowing a Set beyond its
// per-dimension box bounds (the result of a stage's SetCond calls).
// Expr must evaluate to a boolean-typed ir.Node once iterator variables
// are bound.
type Constraint struct {
	Expr ir.Node
	Text string // original predicate text, kept for diagnostics
}

// Dim is one named, bounded dimension of a Set: the half-open interval
// [Lo, Hi).
type Dim struct {
	Name string
	Lo   int64
	Hi   int64
}

// Set is the integer set { Tuple[d0,...,dk] : Lo_i <= d_i < Hi_i, ... }.
type Set struct {
	Tuple       string
	Dims        []Dim
	Constraints []Constraint
}

// NewBoxDomain builds the set { tuple[d0,...,dk] : lo_i <= d_i < hi_i }.
func NewBoxDomain(tuple string, dims []Dim) *Set {
	return &Set{Tuple: tuple, Dims: append([]Dim(nil), dims...)}
}

// DimNames returns the set's dimension names in declaration order.
func (s *Set) DimNames() []string {
	names := make([]string, len(s.Dims))
	for i, d := range s.Dims {
		names[i] = d.Name
	}
	return names
}

// AddConstraint narrows the set with an extra affine predicate.
func (s *Set) AddConstraint(c Constraint) {
	s.Constraints = append(s.Constraints, c)
}
