// Package main implements cinnc, the command-line driver for the
// tensor expression compiler (SPEC_FULL.md §6): a thin os.Args dispatch
// over a small set of built-in example graphs, mirroring the teacher's
// plain switch-based subcommand style (no CLI framework).
package main

import (
	"fmt"

	"sentra/cerr"
	"sentra/internal/function"
	"sentra/internal/graph"
	"sentra/internal/ir"
	"sentra/internal/isl"
	"sentra/internal/stage"
	"sentra/internal/types"
)

var f32 = types.ScalarType(types.Float32)
var i32 = types.ScalarType(types.Int32)

func tensorRef(name string, shape ...int64) *ir.TensorRef {
	dims := make([]ir.Node, len(shape))
	for i, d := range shape {
		dims[i] = &ir.IntImm{Val: d, Typ: i32}
	}
	return &ir.TensorRef{Name: name, Shape: dims, ElemType: f32}
}

func iv(name string) *ir.Var { return &ir.Var{Name: name, Typ: i32} }

// exampleNames lists every example "cinnc build/dump-ir/dump-schedule"
// accepts.
var exampleNames = []string{
	"matmul", "fused_bias_relu", "vectorize8", "tile_unroll", "call_once_transpose", "fc",
}

// buildExample constructs the named example's Function, matching one of
// spec.md §8's six end-to-end scenarios.
func buildExample(name string) (*function.Function, error) {
	switch name {
	case "matmul":
		return exampleMatMul()
	case "fused_bias_relu":
		return exampleFusedBiasReLU()
	case "vectorize8":
		return exampleVectorize8()
	case "tile_unroll":
		return exampleTileUnroll()
	case "call_once_transpose":
		return exampleCallOnceTranspose()
	case "fc":
		return exampleFC()
	}
	return nil, cerr.New(cerr.LookupError, name, "no such example; choices are %v", exampleNames)
}

// exampleMatMul is spec.md §8 scenario 1: C[m,n] += A[m,k] * B[k,n], no
// transforms, over A[100,150], B[150,200], C[100,200].
func exampleMatMul() (*function.Function, error) {
	a, b, c := tensorRef("A", 100, 150), tensorRef("B", 150, 200), tensorRef("C", 100, 200)
	s, err := stage.New("mat_mul", []string{"m", "n", "k"}, map[string][2]int64{
		"m": {0, 100}, "n": {0, 200}, "k": {0, 150},
	})
	if err != nil {
		return nil, err
	}
	aRef, err := ir.MakeReference(a, []ir.Node{iv("m"), iv("k")})
	if err != nil {
		return nil, err
	}
	bRef, err := ir.MakeReference(b, []ir.Node{iv("k"), iv("n")})
	if err != nil {
		return nil, err
	}
	prod, err := ir.MakeArith(ir.Mul, aRef, bRef)
	if err != nil {
		return nil, err
	}
	s.SetBodyOp("C", []string{"m", "n"}, ir.SumAssign, prod)
	s.ExtractReadAccess("A", []isl.AffineExpr{isl.NewAffine("m"), isl.NewAffine("k")})
	s.ExtractReadAccess("B", []isl.AffineExpr{isl.NewAffine("k"), isl.NewAffine("n")})

	fn := function.New("mat_mul", []*ir.TensorRef{a, b}, []*ir.TensorRef{c})
	if err := fn.AddStage(s); err != nil {
		return nil, err
	}
	return fn, nil
}

// exampleFusedBiasReLU is spec.md §8 scenario 2: a matmul reduction plus
// a fused bias-add and ReLU sharing the innermost j loop.
func exampleFusedBiasReLU() (*function.Function, error) {
	a, b, bias, c := tensorRef("A", 64, 32), tensorRef("B", 64, 32), tensorRef("bias", 32), tensorRef("C", 64, 64)
	bounds := map[string][2]int64{"i": {0, 64}, "j": {0, 64}, "k": {0, 32}}

	s1, err := stage.New("s1", []string{"i", "j", "k"}, bounds)
	if err != nil {
		return nil, err
	}
	aRef, err := ir.MakeReference(a, []ir.Node{iv("i"), iv("k")})
	if err != nil {
		return nil, err
	}
	bRef, err := ir.MakeReference(b, []ir.Node{iv("j"), iv("k")})
	if err != nil {
		return nil, err
	}
	prod, err := ir.MakeArith(ir.Mul, aRef, bRef)
	if err != nil {
		return nil, err
	}
	s1.SetBodyOp("C", []string{"i", "j"}, ir.SumAssign, prod)

	ijBounds := map[string][2]int64{"i": {0, 64}, "j": {0, 64}}
	s2, err := stage.New("s2", []string{"i", "j"}, ijBounds)
	if err != nil {
		return nil, err
	}
	cRef1, err := ir.MakeReference(c, []ir.Node{iv("i"), iv("j")})
	if err != nil {
		return nil, err
	}
	biasRef, err := ir.MakeReference(bias, []ir.Node{iv("j")})
	if err != nil {
		return nil, err
	}
	sum, err := ir.MakeArith(ir.Add, cRef1, biasRef)
	if err != nil {
		return nil, err
	}
	s2.SetBody("C", []string{"i", "j"}, sum)

	s3, err := stage.New("s3", []string{"i", "j"}, ijBounds)
	if err != nil {
		return nil, err
	}
	cRef2, err := ir.MakeReference(c, []ir.Node{iv("i"), iv("j")})
	if err != nil {
		return nil, err
	}
	relu, err := ir.MakeMinMax(ir.MaxO, cRef2, &ir.FloatImm{Val: 0, Typ: f32})
	if err != nil {
		return nil, err
	}
	s3.SetBody("C", []string{"i", "j"}, relu)

	s2.FuseWith(s3)

	fn := function.New("fused_bias_relu", []*ir.TensorRef{a, b, bias}, []*ir.TensorRef{c})
	for _, s := range []*stage.Stage{s1, s2, s3} {
		if err := fn.AddStage(s); err != nil {
			return nil, err
		}
	}
	return fn, nil
}

// exampleVectorize8 is spec.md §8 scenario 3: C[i,j] = (A[i,j]+B[i,j])*B[i,j]
// over a 100x200 domain, Vectorize({8}).
func exampleVectorize8() (*function.Function, error) {
	a, b, c := tensorRef("A", 100, 200), tensorRef("B", 100, 200), tensorRef("C", 100, 200)
	s, err := stage.New("combine", []string{"i", "j"}, map[string][2]int64{"i": {0, 100}, "j": {0, 200}})
	if err != nil {
		return nil, err
	}
	aRef, err := ir.MakeReference(a, []ir.Node{iv("i"), iv("j")})
	if err != nil {
		return nil, err
	}
	bRef, err := ir.MakeReference(b, []ir.Node{iv("i"), iv("j")})
	if err != nil {
		return nil, err
	}
	bRef2, err := ir.MakeReference(b, []ir.Node{iv("i"), iv("j")})
	if err != nil {
		return nil, err
	}
	sum, err := ir.MakeArith(ir.Add, aRef, bRef)
	if err != nil {
		return nil, err
	}
	body, err := ir.MakeArith(ir.Mul, sum, bRef2)
	if err != nil {
		return nil, err
	}
	s.SetBody("C", []string{"i", "j"}, body)

	fn := function.New("combine", []*ir.TensorRef{a, b}, []*ir.TensorRef{c})
	if err := fn.AddStage(s); err != nil {
		return nil, err
	}
	if err := fn.EndDefinition(); err != nil {
		return nil, err
	}
	if err := s.Vectorize(fn.Tree(), nil, 8); err != nil {
		return nil, err
	}
	return fn, nil
}

// exampleTileUnroll is spec.md §8 scenario 4: two stages A[i,j]:0<i,j<200
// and B[i,j]:0<i,j<100, a {32,32} tile with unroll enabled on A.
func exampleTileUnroll() (*function.Function, error) {
	aOut, bOut := tensorRef("outA", 200, 200), tensorRef("outB", 100, 100)
	aIn, bIn := tensorRef("inA", 200, 200), tensorRef("inB", 100, 100)

	sa, err := stage.New("A", []string{"i", "j"}, map[string][2]int64{"i": {0, 200}, "j": {0, 200}})
	if err != nil {
		return nil, err
	}
	aRef, err := ir.MakeReference(aIn, []ir.Node{iv("i"), iv("j")})
	if err != nil {
		return nil, err
	}
	sa.SetBody("outA", []string{"i", "j"}, aRef)

	sb, err := stage.New("B", []string{"i", "j"}, map[string][2]int64{"i": {0, 100}, "j": {0, 100}})
	if err != nil {
		return nil, err
	}
	bRef, err := ir.MakeReference(bIn, []ir.Node{iv("i"), iv("j")})
	if err != nil {
		return nil, err
	}
	sb.SetBody("outB", []string{"i", "j"}, bRef)

	fn := function.New("tile_unroll", []*ir.TensorRef{aIn, bIn}, []*ir.TensorRef{aOut, bOut})
	for _, s := range []*stage.Stage{sa, sb} {
		if err := fn.AddStage(s); err != nil {
			return nil, err
		}
	}
	if err := fn.EndDefinition(); err != nil {
		return nil, err
	}
	if err := sa.TileUnroll(fn.Tree(), []int64{32, 32}); err != nil {
		return nil, err
	}
	return fn, nil
}

// exampleCallOnceTranspose is spec.md §8 scenario 5: a weight tensor W
// is transposed once before reuse, guarded by a module-level bool.
func exampleCallOnceTranspose() (*function.Function, error) {
	w, wt, out := tensorRef("W", 64, 64), tensorRef("WT", 64, 64), tensorRef("out", 64, 64)

	transpose, err := stage.New("transpose_w", []string{"i", "j"}, map[string][2]int64{"i": {0, 64}, "j": {0, 64}})
	if err != nil {
		return nil, err
	}
	wRef, err := ir.MakeReference(w, []ir.Node{iv("j"), iv("i")})
	if err != nil {
		return nil, err
	}
	transpose.SetBody("WT", []string{"i", "j"}, wRef)
	if err := transpose.MarkCallOnce("transpose_w_done"); err != nil {
		return nil, err
	}

	useWT, err := stage.New("use_wt", []string{"i", "j"}, map[string][2]int64{"i": {0, 64}, "j": {0, 64}})
	if err != nil {
		return nil, err
	}
	wtRef, err := ir.MakeReference(wt, []ir.Node{iv("i"), iv("j")})
	if err != nil {
		return nil, err
	}
	useWT.SetBody("out", []string{"i", "j"}, wtRef)

	fn := function.New("call_once_transpose", []*ir.TensorRef{w}, []*ir.TensorRef{out})
	fn.AddIntermediate(wt)
	for _, s := range []*stage.Stage{transpose, useWT} {
		if err := fn.AddStage(s); err != nil {
			return nil, err
		}
	}
	return fn, nil
}

// exampleFC is spec.md §8 scenario 6: Fc = matmul(x, w) + bias, ReLU,
// built through the internal/graph operator catalog instead of raw
// stages, exercising matmul/elementwise_add/relu together.
func exampleFC() (*function.Function, error) {
	graph.RegisterBuiltinOps()
	sess := graph.NewSession()

	x, err := sess.NewTensor("x", []int64{3, 4}, f32)
	if err != nil {
		return nil, err
	}
	w, err := sess.NewTensor("w", []int64{4, 2}, f32)
	if err != nil {
		return nil, err
	}
	bias, err := sess.NewTensor("bias", []int64{3, 2}, f32)
	if err != nil {
		return nil, err
	}
	mm, err := sess.NewTensor("mm", []int64{3, 2}, f32)
	if err != nil {
		return nil, err
	}
	biased, err := sess.NewTensor("biased", []int64{3, 2}, f32)
	if err != nil {
		return nil, err
	}
	out, err := sess.NewTensor("out", []int64{3, 2}, f32)
	if err != nil {
		return nil, err
	}

	prog := &graph.Program{}
	prog.Add(&graph.OpNode{Name: "fc_matmul", Layer: "instruction_wise", Type: "matmul",
		Param: graph.MatMulParam{}, Inputs: []*graph.Tensor{x, w}, Output: mm})
	prog.Add(&graph.OpNode{Name: "fc_bias", Layer: "instruction_wise", Type: "elementwise_add",
		Param: graph.ElementwiseParam{Op: ir.Add}, Inputs: []*graph.Tensor{mm, bias}, Output: biased})
	prog.Add(&graph.OpNode{Name: "fc_relu", Layer: "instruction_wise", Type: "relu",
		Param: graph.ReLUParam{}, Inputs: []*graph.Tensor{biased}, Output: out})

	g, err := graph.Build(prog, sess)
	if err != nil {
		return nil, err
	}
	fns, err := g.PartitionFunctions()
	if err != nil {
		return nil, err
	}
	if len(fns) != 1 {
		return nil, fmt.Errorf("cinnc: expected the fc example to partition into a single function, got %d", len(fns))
	}
	return fns[0], nil
}
