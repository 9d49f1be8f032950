// Package optimize is the ordered IR-to-IR optimization pipeline run
// over a lowered function body before C code generation (§4.7): each
// pass is its own file, mirroring how the teacher's compregister package
// keeps one compileXxxStmt per AST shape rather than one giant switch.
package optimize

import "sentra/internal/ir"

// Pass is one optimization stage: it consumes a body and returns a
// (possibly) rewritten one.
type Pass func(ir.Node) (ir.Node, error)

// Run applies the fixed pass order: flatten nested blocks, fold
// multi-dimensional references into linear offsets, intern repeated
// index sub-expressions, lower marked vectorize regions into SIMD ops,
// unroll small constant-trip-count loops, and validate call-once guards.
func Run(body ir.Node, shapes map[string]*ir.TensorRef) (ir.Node, error) {
	n, err := FlattenBlocks(body)
	if err != nil {
		return nil, err
	}
	n, err = FoldIndicesToOffset(n, shapes)
	if err != nil {
		return nil, err
	}
	n, err = InternReferenceIndices(n)
	if err != nil {
		return nil, err
	}
	n, err = Vectorize(n)
	if err != nil {
		return nil, err
	}
	n, err = UnrollSmallLoops(n)
	if err != nil {
		return nil, err
	}
	n, err = ValidateCallOnceGuards(n)
	if err != nil {
		return nil, err
	}
	return n, nil
}
