package graph

import (
	"fmt"

	"sentra/cerr"
	"sentra/internal/ir"
	"sentra/internal/isl"
	"sentra/internal/stage"
	"sentra/internal/types"
)

// RegisterBuiltinOps installs the operator catalog supplementing the
// distilled spec's abstract "operator nodes producing stages" (§4.9):
// every concrete operator enumerated by
// original_source/cinn/hlir/instruction_layer/*.cc, each a Ctor grounded
// on that file's Resize/CompileImpl pair. Called explicitly by a
// library entry point, never from init() (the "Operator registry
// static-init-order hazard" Open Question).
func RegisterBuiltinOps() {
	RegisterOp("instruction_wise", "matmul", matmulCtor)
	RegisterOp("instruction_wise", "elementwise_add", elementwiseCtor(ir.Add))
	RegisterOp("instruction_wise", "elementwise_sub", elementwiseCtor(ir.Sub))
	RegisterOp("instruction_wise", "elementwise_mul", elementwiseCtor(ir.Mul))
	RegisterOp("instruction_wise", "relu", reluCtor)
	RegisterOp("instruction_wise", "sigmoid_approx", sigmoidApproxCtor)
	RegisterOp("instruction_wise", "reshape", reshapeCtor)
	RegisterOp("instruction_wise", "pad", padCtor)
	RegisterOp("instruction_wise", "conv2d", conv2dCtor)
}

var f32 = types.ScalarType(types.Float32)
var i32t = types.ScalarType(types.Int32)

func iVar(name string) *ir.Var { return &ir.Var{Name: name, Typ: i32t} }

func boxBounds(shape []int64, names []string) map[string][2]int64 {
	bounds := make(map[string][2]int64, len(names))
	for i, n := range names {
		bounds[n] = [2]int64{0, shape[i]}
	}
	return bounds
}

func refInto(t *Tensor, iters ...string) (*ir.Reference, error) {
	nodes := make([]ir.Node, len(iters))
	for i, it := range iters {
		nodes[i] = iVar(it)
	}
	return ir.MakeReference(t.IR(), nodes)
}

// matmulCtor grounds on matmul_op.cc's Resize/CompileImpl: two stages, a
// zero-init over (i,j) and a "+="-reduction over (i,j,k), since the IR's
// Assign only carries one RHS expression per write and a running sum
// needs its accumulator initialized first. Both stages are returned (in
// the order they must be added to the Function) so the FuseWith edge
// recorded between them has both ends registered by EndDefinition.
func matmulCtor(name string, inputs []*Tensor, output *Tensor, param OperatorParam) ([]*stage.Stage, error) {
	if _, ok := param.(MatMulParam); !ok {
		return nil, cerr.New(cerr.ConfigurationError, name, "matmul requires a MatMulParam")
	}
	if len(inputs) != 2 {
		return nil, cerr.New(cerr.ConfigurationError, name, "matmul takes exactly 2 inputs (X, W), got %d", len(inputs))
	}
	x, w := inputs[0], inputs[1]
	if len(x.Shape) != 2 || len(w.Shape) != 2 {
		return nil, cerr.New(cerr.ShapeError, name, "matmul operands must be rank 2")
	}
	if x.Shape[1] != w.Shape[0] {
		return nil, cerr.New(cerr.ShapeError, name, "matmul inner dimensions disagree: %d vs %d", x.Shape[1], w.Shape[0])
	}
	m, k, n := x.Shape[0], x.Shape[1], w.Shape[1]
	if len(output.Shape) != 2 || output.Shape[0] != m || output.Shape[1] != n {
		return nil, cerr.New(cerr.ShapeError, name, "matmul output shape must be [%d, %d]", m, n)
	}

	zero, err := stage.New(name+"_init", []string{"i", "j"}, map[string][2]int64{"i": {0, m}, "j": {0, n}})
	if err != nil {
		return nil, err
	}
	zero.SetBody(output.Name, []string{"i", "j"}, &ir.FloatImm{Val: 0, Typ: f32})

	reduce, err := stage.New(name+"_reduce", []string{"i", "j", "k"}, map[string][2]int64{"i": {0, m}, "j": {0, n}, "k": {0, k}})
	if err != nil {
		return nil, err
	}
	xRef, err := refInto(x, "i", "k")
	if err != nil {
		return nil, err
	}
	wRef, err := refInto(w, "k", "j")
	if err != nil {
		return nil, err
	}
	reduce.ExtractReadAccess(x.Name, []isl.AffineExpr{isl.NewAffine("i"), isl.NewAffine("k")})
	reduce.ExtractReadAccess(w.Name, []isl.AffineExpr{isl.NewAffine("k"), isl.NewAffine("j")})
	prod, err := ir.MakeArith(ir.Mul, xRef, wRef)
	if err != nil {
		return nil, err
	}
	reduce.SetBodyOp(output.Name, []string{"i", "j"}, ir.SumAssign, prod)
	reduce.FuseWith(zero)
	return []*stage.Stage{zero, reduce}, nil
}

// elementwiseCtor grounds on elementwise_ops.cc's ElementwiseAdd/Sub/Mul:
// one stage, one Arith, iterating over every element of X's shape
// (ElementwiseBase::Resize copies X's shape onto Out unchanged).
func elementwiseCtor(op ir.ArithOp) Ctor {
	return func(name string, inputs []*Tensor, output *Tensor, param OperatorParam) ([]*stage.Stage, error) {
		ep, ok := param.(ElementwiseParam)
		if !ok {
			return nil, cerr.New(cerr.ConfigurationError, name, "elementwise op requires an ElementwiseParam")
		}
		if ep.Op != op {
			return nil, cerr.New(cerr.ConfigurationError, name, "elementwise param op %v does not match registered op %v", ep.Op, op)
		}
		if len(inputs) != 2 {
			return nil, cerr.New(cerr.ConfigurationError, name, "elementwise op takes exactly 2 inputs (X, Y), got %d", len(inputs))
		}
		x, y := inputs[0], inputs[1]
		if !shapeEqual(x.Shape, y.Shape) {
			return nil, cerr.New(cerr.ShapeError, name, "elementwise operands must share a shape, got %v and %v", x.Shape, y.Shape)
		}
		iters := iterNames(len(x.Shape))
		s, err := stage.New(name, iters, boxBounds(x.Shape, iters))
		if err != nil {
			return nil, err
		}
		xRef, err := refInto(x, iters...)
		if err != nil {
			return nil, err
		}
		yRef, err := refInto(y, iters...)
		if err != nil {
			return nil, err
		}
		sum, err := ir.MakeArith(op, xRef, yRef)
		if err != nil {
			return nil, err
		}
		s.SetBody(output.Name, iters, sum)
		return []*stage.Stage{s}, nil
	}
}

// reluCtor grounds on activation_op.cc's Tanh::CompileImpl (the file's
// only activation, a max-with-zero despite its class name): a single
// MinMax(Max, x, 0) stage over every element of X's shape.
func reluCtor(name string, inputs []*Tensor, output *Tensor, param OperatorParam) ([]*stage.Stage, error) {
	if _, ok := param.(ReLUParam); !ok {
		return nil, cerr.New(cerr.ConfigurationError, name, "relu requires a ReLUParam")
	}
	if len(inputs) != 1 {
		return nil, cerr.New(cerr.ConfigurationError, name, "relu takes exactly 1 input, got %d", len(inputs))
	}
	x := inputs[0]
	iters := iterNames(len(x.Shape))
	s, err := stage.New(name, iters, boxBounds(x.Shape, iters))
	if err != nil {
		return nil, err
	}
	xRef, err := refInto(x, iters...)
	if err != nil {
		return nil, err
	}
	zero := &ir.FloatImm{Val: 0, Typ: f32}
	body, err := ir.MakeMinMax(ir.MaxO, xRef, zero)
	if err != nil {
		return nil, err
	}
	s.SetBody(output.Name, iters, body)
	return []*stage.Stage{s}, nil
}

// sigmoidApproxCtor is the cheap rational approximation named in
// SPEC_FULL.md §4.9: out = x / (1 + x), built from Add and Div alone so
// it needs no runtime exp(), unlike a true sigmoid.
func sigmoidApproxCtor(name string, inputs []*Tensor, output *Tensor, param OperatorParam) ([]*stage.Stage, error) {
	if _, ok := param.(SigmoidApproxParam); !ok {
		return nil, cerr.New(cerr.ConfigurationError, name, "sigmoid_approx requires a SigmoidApproxParam")
	}
	if len(inputs) != 1 {
		return nil, cerr.New(cerr.ConfigurationError, name, "sigmoid_approx takes exactly 1 input, got %d", len(inputs))
	}
	x := inputs[0]
	iters := iterNames(len(x.Shape))
	s, err := stage.New(name, iters, boxBounds(x.Shape, iters))
	if err != nil {
		return nil, err
	}
	xRef, err := refInto(x, iters...)
	if err != nil {
		return nil, err
	}
	one := &ir.FloatImm{Val: 1, Typ: f32}
	denom, err := ir.MakeArith(ir.Add, one, xRef)
	if err != nil {
		return nil, err
	}
	body, err := ir.MakeArith(ir.Div, xRef, denom)
	if err != nil {
		return nil, err
	}
	s.SetBody(output.Name, iters, body)
	return []*stage.Stage{s}, nil
}

// reshapeCtor grounds on reshape_op.cc: the original shares the input's
// buffer with the output (ShareBufferWith) rather than emitting a copy
// stage. This compiler has no aliasing-buffer concept (every TensorRef
// is its own named array in the generated C), so reshape is realized as
// a copy stage instead, iterating over the OUTPUT's own shape (so the
// write satisfies the usual rank check) and reading X through a single
// flat row-major offset computed from those same iterators — valid
// because a reshape never reorders elements, only regroups them.
func reshapeCtor(name string, inputs []*Tensor, output *Tensor, param OperatorParam) ([]*stage.Stage, error) {
	rp, ok := param.(ReshapeParam)
	if !ok {
		return nil, cerr.New(cerr.ConfigurationError, name, "reshape requires a ReshapeParam")
	}
	if len(inputs) != 1 {
		return nil, cerr.New(cerr.ConfigurationError, name, "reshape takes exactly 1 input, got %d", len(inputs))
	}
	x := inputs[0]
	if shapeElemCount(x.Shape) != shapeElemCount(rp.NewShape) {
		return nil, cerr.New(cerr.ShapeError, name, "reshape cannot change element count: %v -> %v", x.Shape, rp.NewShape)
	}
	if !shapeEqual(output.Shape, rp.NewShape) {
		return nil, cerr.New(cerr.ShapeError, name, "reshape output shape must be %v, got %v", rp.NewShape, output.Shape)
	}
	outIters := iterNames(len(output.Shape))
	s, err := stage.New(name, outIters, boxBounds(output.Shape, outIters))
	if err != nil {
		return nil, err
	}
	flat := rowMajorFlatIndex(output.Shape, outIters)
	xFlat := &ir.ArrayRef{Name: x.Name, Typ: x.ElemType}
	xRef, err := ir.MakeReference(xFlat, []ir.Node{flat})
	if err != nil {
		return nil, err
	}
	s.SetBody(output.Name, outIters, xRef)
	return []*stage.Stage{s}, nil
}

// rowMajorFlatIndex builds sum(iters[d] * stride[d]) for a row-major
// tensor of the given shape, the same stride convention
// internal/optimize.FoldIndicesToOffset applies to ordinary multi-index
// references.
func rowMajorFlatIndex(shape []int64, iters []string) ir.Node {
	rank := len(iters)
	var acc ir.Node
	for d := 0; d < rank; d++ {
		stride := int64(1)
		for k := d + 1; k < len(shape); k++ {
			stride *= shape[k]
		}
		var term ir.Node = iVar(iters[d])
		if stride != 1 {
			term, _ = ir.MakeArith(ir.Mul, &ir.IntImm{Val: stride, Typ: i32t}, term)
		}
		if acc == nil {
			acc = term
			continue
		}
		acc, _ = ir.MakeArith(ir.Add, acc, term)
	}
	return acc
}

// padCtor grounds on pad_op.cc's CompileImpl: per padded dimension, the
// original narrows a stage with SetCond to the pre-/post-padding
// boundary and assigns it zero, but never actually copies the interior
// from the input (a gap in the original this catalog does not
// reproduce). Realized here as two stages fused into one loop nest: an
// unconditional zero-fill over the whole output domain (covering the
// padded border) followed by an interior copy narrowed with SetCond to
// the region the input actually occupies, overwriting the zero-fill
// there.
func padCtor(name string, inputs []*Tensor, output *Tensor, param OperatorParam) ([]*stage.Stage, error) {
	pp, ok := param.(PadParam)
	if !ok {
		return nil, cerr.New(cerr.ConfigurationError, name, "pad requires a PadParam")
	}
	if len(inputs) != 1 {
		return nil, cerr.New(cerr.ConfigurationError, name, "pad takes exactly 1 input, got %d", len(inputs))
	}
	x := inputs[0]
	rank := len(x.Shape)
	if len(pp.Before) != rank || len(pp.After) != rank {
		return nil, cerr.New(cerr.ShapeError, name, "pad padding length must equal input rank %d", rank)
	}
	iters := iterNames(rank)
	outShape := make([]int64, rank)
	for d := 0; d < rank; d++ {
		outShape[d] = x.Shape[d] + pp.Before[d] + pp.After[d]
	}
	if !shapeEqual(output.Shape, outShape) {
		return nil, cerr.New(cerr.ShapeError, name, "pad output shape must be %v, got %v", outShape, output.Shape)
	}

	zero, err := stage.New(name+"_init", iters, boxBounds(outShape, iters))
	if err != nil {
		return nil, err
	}
	zero.SetBody(output.Name, iters, &ir.FloatImm{Val: 0, Typ: f32})

	interior, err := stage.New(name+"_copy", iters, boxBounds(outShape, iters))
	if err != nil {
		return nil, err
	}
	xIters := make([]ir.Node, rank)
	for d := 0; d < rank; d++ {
		if pp.Before[d] == 0 {
			xIters[d] = iVar(iters[d])
			continue
		}
		shifted, err := ir.MakeArith(ir.Sub, iVar(iters[d]), &ir.IntImm{Val: pp.Before[d], Typ: i32t})
		if err != nil {
			return nil, err
		}
		xIters[d] = shifted
	}
	xRef, err := ir.MakeReference(x.IR(), xIters)
	if err != nil {
		return nil, err
	}
	for d := 0; d < rank; d++ {
		if err := interior.SetCond(fmt.Sprintf("%s >= %d", iters[d], pp.Before[d])); err != nil {
			return nil, err
		}
		if err := interior.SetCond(fmt.Sprintf("%s < %d", iters[d], pp.Before[d]+x.Shape[d])); err != nil {
			return nil, err
		}
	}
	interior.SetBody(output.Name, iters, xRef)
	interior.FuseWith(zero)
	return []*stage.Stage{zero, interior}, nil
}

// conv2dCtor is the direct/naive NHWC convolution named in SPEC_FULL.md
// §4.9 (no im2col): conv2d_op.cc's original Resize/CompileImpl is an
// empty stub in original_source (the param is read but never used to
// shape the output or build a body), so the loop nest and index algebra
// here are original, grounded on the shape/stride/pad conventions the
// rest of the catalog already established rather than on any surviving
// C++ body.
func conv2dCtor(name string, inputs []*Tensor, output *Tensor, param OperatorParam) ([]*stage.Stage, error) {
	cp, ok := param.(Conv2DParam)
	if !ok {
		return nil, cerr.New(cerr.ConfigurationError, name, "conv2d requires a Conv2DParam")
	}
	if len(inputs) != 2 {
		return nil, cerr.New(cerr.ConfigurationError, name, "conv2d takes exactly 2 inputs (X, Filter), got %d", len(inputs))
	}
	x, filt := inputs[0], inputs[1]
	if len(x.Shape) != 4 || len(filt.Shape) != 4 {
		return nil, cerr.New(cerr.ShapeError, name, "conv2d operands must be rank 4 (N,H,W,C)/(Kh,Kw,Cin,Cout)")
	}
	n, h, wd, cin := x.Shape[0], x.Shape[1], x.Shape[2], x.Shape[3]
	kh, kw, fcin, cout := filt.Shape[0], filt.Shape[1], filt.Shape[2], filt.Shape[3]
	if cin != fcin {
		return nil, cerr.New(cerr.ShapeError, name, "conv2d input channels %d disagree with filter %d", cin, fcin)
	}
	outH := (h+2*cp.PadH-kh)/cp.StrideH + 1
	outW := (wd+2*cp.PadW-kw)/cp.StrideW + 1
	if len(output.Shape) != 4 || output.Shape[0] != n || output.Shape[1] != outH || output.Shape[2] != outW || output.Shape[3] != cout {
		return nil, cerr.New(cerr.ShapeError, name, "conv2d output shape must be [%d,%d,%d,%d]", n, outH, outW, cout)
	}

	zero, err := stage.New(name+"_init", []string{"n", "oh", "ow", "oc"},
		map[string][2]int64{"n": {0, n}, "oh": {0, outH}, "ow": {0, outW}, "oc": {0, cout}})
	if err != nil {
		return nil, err
	}
	zero.SetBody(output.Name, []string{"n", "oh", "ow", "oc"}, &ir.FloatImm{Val: 0, Typ: f32})

	reduce, err := stage.New(name+"_reduce", []string{"n", "oh", "ow", "oc", "kh", "kw", "ic"}, map[string][2]int64{
		"n": {0, n}, "oh": {0, outH}, "ow": {0, outW}, "oc": {0, cout},
		"kh": {0, kh}, "kw": {0, kw}, "ic": {0, cin},
	})
	if err != nil {
		return nil, err
	}
	strideH, err := ir.MakeArith(ir.Mul, iVar("oh"), &ir.IntImm{Val: cp.StrideH, Typ: i32t})
	if err != nil {
		return nil, err
	}
	ihRaw, err := ir.MakeArith(ir.Add, strideH, iVar("kh"))
	if err != nil {
		return nil, err
	}
	ih, err := ir.MakeArith(ir.Sub, ihRaw, &ir.IntImm{Val: cp.PadH, Typ: i32t})
	if err != nil {
		return nil, err
	}
	strideW, err := ir.MakeArith(ir.Mul, iVar("ow"), &ir.IntImm{Val: cp.StrideW, Typ: i32t})
	if err != nil {
		return nil, err
	}
	iwRaw, err := ir.MakeArith(ir.Add, strideW, iVar("kw"))
	if err != nil {
		return nil, err
	}
	iw, err := ir.MakeArith(ir.Sub, iwRaw, &ir.IntImm{Val: cp.PadW, Typ: i32t})
	if err != nil {
		return nil, err
	}
	xRef, err := ir.MakeReference(x.IR(), []ir.Node{iVar("n"), ih, iw, iVar("ic")})
	if err != nil {
		return nil, err
	}
	fRef, err := ir.MakeReference(filt.IR(), []ir.Node{iVar("kh"), iVar("kw"), iVar("ic"), iVar("oc")})
	if err != nil {
		return nil, err
	}
	prod, err := ir.MakeArith(ir.Mul, xRef, fRef)
	if err != nil {
		return nil, err
	}
	reduce.SetBodyOp(output.Name, []string{"n", "oh", "ow", "oc"}, ir.SumAssign, prod)
	reduce.FuseWith(zero)
	return []*stage.Stage{zero, reduce}, nil
}

func iterNames(rank int) []string {
	letters := []string{"i", "j", "k", "l", "m", "p", "q", "r"}
	if rank <= len(letters) {
		return append([]string(nil), letters[:rank]...)
	}
	names := make([]string, rank)
	for i := range names {
		names[i] = fmt.Sprintf("i%d", i)
	}
	return names
}

func shapeEqual(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func shapeElemCount(shape []int64) int64 {
	n := int64(1)
	for _, d := range shape {
		n *= d
	}
	return n
}
