// Package stage implements the Stage builder: a named computation over
// a named iteration domain, built incrementally the way
// internal/compregister.Compiler accumulates code/constants/scope state
// across a sequence of builder calls rather than a single constructor.
package stage

import (
	"fmt"

	"sentra/cerr"
	"sentra/internal/affparse"
	"sentra/internal/ir"
	"sentra/internal/isl"
)

// AccessRecord is one read or write a stage's body makes into a tensor,
// recorded by ExtractReadAccess and returned by Reads.
type AccessRecord struct {
	TensorName string
	Map        *isl.Map
}

// Stage is one named tensor computation: an iteration domain, a write
// target, a body expression, and whatever schedule directives have been
// applied to it so far.
type Stage struct {
	Name   string
	Domain *isl.Set
	Band   *isl.Band

	WriteTarget string
	WriteMap    *isl.Map
	WriteOp     ir.AssignOp
	Body        ir.Node // the RHS expression, in terms of the domain's named iterators

	reads []AccessRecord

	fusedWith []string
	callOnce  bool
	condVar   string

	errors []error
}

// New creates a stage over a box iteration domain whose dimension names
// and bounds are iterTo(name -> [lo,hi)) pairs, in declaration order.
func New(name string, iterNames []string, bounds map[string][2]int64) (*Stage, error) {
	if name == "" {
		return nid(), cerr.New(cerr.ConfigurationError, "", "stage name must not be empty")
	}
	dims := make([]isl.Dim, len(iterNames))
	loopDims := make([]isl.LoopDim, len(iterNames))
	for i, n := range iterNames {
		b, ok := bounds[n]
		if !ok {
			return nid(), cerr.New(cerr.DomainError, name, "missing bounds for iterator %q", n)
		}
		if b[1] < b[0] {
			return nid(), cerr.New(cerr.DomainError, name, "iterator %q has empty interval [%d,%d)", n, b[0], b[1])
		}
		dims[i] = isl.Dim{Name: n, Lo: b[0], Hi: b[1]}
		loopDims[i] = isl.LoopDim{IterName: n, Lo: b[0], Hi: b[1]}
	}
	return &Stage{
		Name:   name,
		Domain: isl.NewBoxDomain(name, dims),
		Band:   &isl.Band{Dims: loopDims},
	}, nil
}

func nid() *Stage { return &Stage{} }

// SetBody records the stage's write target and body expression under a
// plain "=" assignment.
func (s *Stage) SetBody(writeTensor string, writeIterators []string, body ir.Node) {
	s.SetBodyOp(writeTensor, writeIterators, ir.AssignPlain, body)
}

// SetBodyOp is SetBody generalized to the five mutation forms, needed by
// reduction stages (e.g. matmul's "+=" accumulation) whose write is not a
// plain overwrite.
func (s *Stage) SetBodyOp(writeTensor string, writeIterators []string, op ir.AssignOp, body ir.Node) {
	s.WriteTarget = writeTensor
	exprs := make([]isl.AffineExpr, len(writeIterators))
	for i, it := range writeIterators {
		exprs[i] = isl.NewAffine(it)
	}
	s.WriteMap = isl.NewAccessMap(s.Name, s.Domain.DimNames(), writeTensor, exprs)
	s.WriteOp = op
	s.Body = body
}

// ExtractWriteAccess returns the stage's write access map.
func (s *Stage) ExtractWriteAccess() (*isl.Map, error) {
	if s.WriteMap == nil {
		return nil, cerr.New(cerr.ConfigurationError, s.Name, "stage has no body set; call SetBody first")
	}
	return s.WriteMap, nil
}

// ExtractReadAccess records and returns a read access into tensorName
// subscripted by readIterators (each either an iterator name of this
// stage's domain, or an affine combination thereof).
func (s *Stage) ExtractReadAccess(tensorName string, readIterators []isl.AffineExpr) *isl.Map {
	m := isl.NewAccessMap(s.Name, s.Domain.DimNames(), tensorName, readIterators)
	s.reads = append(s.reads, AccessRecord{TensorName: tensorName, Map: m})
	return m
}

// Reads returns every read access recorded so far.
func (s *Stage) Reads() []AccessRecord { return append([]AccessRecord(nil), s.reads...) }

// SetCond narrows the stage's domain with an additive predicate, e.g.
// "i <= j". Parsed via internal/affparse.
func (s *Stage) SetCond(predicate string) error {
	expr, err := affparse.Parse(predicate)
	if err != nil {
		return cerr.Wrap(cerr.DomainError, s.Name, err, "invalid SetCond predicate %q", predicate)
	}
	s.Domain.AddConstraint(isl.Constraint{Expr: expr, Text: predicate})
	return nil
}

// Tile applies a polyhedral tiling transform to this stage's band.
func (s *Stage) Tile(tree *isl.Domain, sizes []int64) error {
	return isl.Tile(tree, s.Name, sizes)
}

// TileUnroll applies Tile plus the separate[x]/unroll-inner AST-build
// options.
func (s *Stage) TileUnroll(tree *isl.Domain, sizes []int64) error {
	return isl.TileUnroll(tree, s.Name, sizes)
}

// Interchange swaps the nesting order of two iterators in this stage's
// band.
func (s *Stage) Interchange(tree *isl.Domain, iterA, iterB string) error {
	return isl.Interchange(tree, s.Name, iterA, iterB)
}

// Vectorize tiles the trailing dimension(s) and marks the innermost tile
// as the SIMD lane dimension.
func (s *Stage) Vectorize(tree *isl.Domain, outerSizes []int64, width int64) error {
	if width <= 0 {
		return cerr.New(cerr.ConfigurationError, s.Name, "vectorize width must be positive")
	}
	return isl.Vectorize(tree, s.Name, outerSizes, width)
}

// FuseWith records that this stage shares its outer loop nest with
// other. Actual tree surgery happens at Function.EndDefinition via
// isl.Fuse once every stage's final band shape is known.
func (s *Stage) FuseWith(other *Stage) {
	s.fusedWith = append(s.fusedWith, other.Name)
	other.fusedWith = append(other.fusedWith, s.Name)
}

// FusedWith reports the names this stage has been fused with.
func (s *Stage) FusedWith() []string { return append([]string(nil), s.fusedWith...) }

// MarkCallOnce flags this stage to run only on the function's first
// invocation, guarded by condVar. The actual schedule-tree surgery
// (wrapping the stage's Filter in a Mark) happens once in
// Function.EndDefinition, after every stage's final band shape is known
// — mirroring how FuseWith only records intent here and Fuse runs later.
func (s *Stage) MarkCallOnce(condVar string) error {
	if condVar == "" {
		return cerr.New(cerr.ConfigurationError, s.Name, "call-once stage needs a condition variable name")
	}
	s.callOnce = true
	s.condVar = condVar
	return nil
}

func (s *Stage) IsCallOnce() (bool, string) { return s.callOnce, s.condVar }

func (s *Stage) String() string {
	return fmt.Sprintf("stage %s%v -> %s", s.Name, s.Domain.DimNames(), s.WriteTarget)
}
