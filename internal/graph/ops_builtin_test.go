package graph

import (
	"testing"

	"sentra/internal/ir"
)

func init() {
	RegisterBuiltinOps()
}

func mustTensor(t *testing.T, s *Session, name string, shape []int64) *Tensor {
	t.Helper()
	tn, err := s.NewTensor(name, shape, f32)
	if err != nil {
		t.Fatalf("NewTensor(%s): %v", name, err)
	}
	return tn
}

func TestMatMulCtorTwoStages(t *testing.T) {
	s := NewSession()
	x := mustTensor(t, s, "X", []int64{4, 8})
	w := mustTensor(t, s, "W", []int64{8, 16})
	out := mustTensor(t, s, "Out", []int64{4, 16})

	node := &OpNode{Name: "mm", Layer: "instruction_wise", Type: "matmul", Param: MatMulParam{}, Inputs: []*Tensor{x, w}, Output: out}
	if err := node.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	stages := node.Stages()
	if len(stages) != 2 {
		t.Fatalf("expected 2 stages (zero-init + reduce), got %d", len(stages))
	}
	if stages[1].FusedWith()[0] != stages[0].Name {
		t.Fatalf("reduce stage must be fused with the zero-init stage")
	}
}

func TestMatMulCtorRejectsInnerDimMismatch(t *testing.T) {
	s := NewSession()
	x := mustTensor(t, s, "X", []int64{4, 8})
	w := mustTensor(t, s, "W", []int64{9, 16})
	out := mustTensor(t, s, "Out", []int64{4, 16})

	node := &OpNode{Name: "mm", Layer: "instruction_wise", Type: "matmul", Param: MatMulParam{}, Inputs: []*Tensor{x, w}, Output: out}
	if err := node.Compile(); err == nil {
		t.Fatalf("expected a ShapeError for mismatched inner dimensions")
	}
}

func TestElementwiseCtorRequiresMatchingShapes(t *testing.T) {
	s := NewSession()
	x := mustTensor(t, s, "X", []int64{4})
	y := mustTensor(t, s, "Y", []int64{5})
	out := mustTensor(t, s, "Out", []int64{4})

	node := &OpNode{Name: "add", Layer: "instruction_wise", Type: "elementwise_add", Param: ElementwiseParam{Op: ir.Add}, Inputs: []*Tensor{x, y}, Output: out}
	if err := node.Compile(); err == nil {
		t.Fatalf("expected a ShapeError for mismatched operand shapes")
	}
}

func TestElementwiseCtorOneStage(t *testing.T) {
	s := NewSession()
	x := mustTensor(t, s, "X", []int64{4})
	y := mustTensor(t, s, "Y", []int64{4})
	out := mustTensor(t, s, "Out", []int64{4})

	node := &OpNode{Name: "add", Layer: "instruction_wise", Type: "elementwise_add", Param: ElementwiseParam{Op: ir.Add}, Inputs: []*Tensor{x, y}, Output: out}
	if err := node.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(node.Stages()) != 1 {
		t.Fatalf("expected 1 stage, got %d", len(node.Stages()))
	}
}

func TestReluCtorBodyIsMax(t *testing.T) {
	s := NewSession()
	x := mustTensor(t, s, "X", []int64{4})
	out := mustTensor(t, s, "Out", []int64{4})

	node := &OpNode{Name: "relu", Layer: "instruction_wise", Type: "relu", Param: ReLUParam{}, Inputs: []*Tensor{x}, Output: out}
	if err := node.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(node.Stages()) != 1 {
		t.Fatalf("expected 1 stage, got %d", len(node.Stages()))
	}
	if mm, ok := node.Stages()[0].Body.(*ir.MinMax); !ok || mm.Op != ir.MaxO {
		t.Fatalf("expected the relu body to be a max, got %T", node.Stages()[0].Body)
	}
}

func TestReshapeCtorRejectsElementCountChange(t *testing.T) {
	s := NewSession()
	x := mustTensor(t, s, "X", []int64{4, 4})
	out := mustTensor(t, s, "Out", []int64{8, 3})

	node := &OpNode{Name: "rs", Layer: "instruction_wise", Type: "reshape", Param: ReshapeParam{NewShape: []int64{8, 3}}, Inputs: []*Tensor{x}, Output: out}
	if err := node.Compile(); err == nil {
		t.Fatalf("expected a ShapeError: 16 elements cannot reshape into 24")
	}
}

func TestReshapeCtorFlatCopy(t *testing.T) {
	s := NewSession()
	x := mustTensor(t, s, "X", []int64{4, 4})
	out := mustTensor(t, s, "Out", []int64{2, 8})

	node := &OpNode{Name: "rs", Layer: "instruction_wise", Type: "reshape", Param: ReshapeParam{NewShape: []int64{2, 8}}, Inputs: []*Tensor{x}, Output: out}
	if err := node.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(node.Stages()) != 1 {
		t.Fatalf("expected 1 stage, got %d", len(node.Stages()))
	}
}

func TestPadCtorTwoFusedStages(t *testing.T) {
	s := NewSession()
	x := mustTensor(t, s, "X", []int64{4, 4})
	out := mustTensor(t, s, "Out", []int64{6, 6})

	node := &OpNode{
		Name: "pad", Layer: "instruction_wise", Type: "pad",
		Param:  PadParam{Before: []int64{1, 1}, After: []int64{1, 1}},
		Inputs: []*Tensor{x}, Output: out,
	}
	if err := node.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	stages := node.Stages()
	if len(stages) != 2 {
		t.Fatalf("expected 2 stages (zero-fill + interior copy), got %d", len(stages))
	}
	if stages[1].FusedWith()[0] != stages[0].Name {
		t.Fatalf("interior copy stage must be fused with the zero-fill stage")
	}
}

func TestPadCtorRejectsWrongOutputShape(t *testing.T) {
	s := NewSession()
	x := mustTensor(t, s, "X", []int64{4, 4})
	out := mustTensor(t, s, "Out", []int64{4, 4})

	node := &OpNode{
		Name: "pad", Layer: "instruction_wise", Type: "pad",
		Param:  PadParam{Before: []int64{1, 1}, After: []int64{1, 1}},
		Inputs: []*Tensor{x}, Output: out,
	}
	if err := node.Compile(); err == nil {
		t.Fatalf("expected a ShapeError: output must grow by before+after per dim")
	}
}

func TestConv2DCtorOutputShape(t *testing.T) {
	s := NewSession()
	x := mustTensor(t, s, "X", []int64{1, 8, 8, 3})
	filt := mustTensor(t, s, "Filter", []int64{3, 3, 3, 16})
	out := mustTensor(t, s, "Out", []int64{1, 6, 6, 16})

	node := &OpNode{
		Name: "conv", Layer: "instruction_wise", Type: "conv2d",
		Param:  Conv2DParam{StrideH: 1, StrideW: 1, PadH: 0, PadW: 0},
		Inputs: []*Tensor{x, filt}, Output: out,
	}
	if err := node.Compile(); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(node.Stages()) != 2 {
		t.Fatalf("expected 2 stages (zero-init + reduce), got %d", len(node.Stages()))
	}
}

func TestConv2DCtorRejectsChannelMismatch(t *testing.T) {
	s := NewSession()
	x := mustTensor(t, s, "X", []int64{1, 8, 8, 3})
	filt := mustTensor(t, s, "Filter", []int64{3, 3, 4, 16})
	out := mustTensor(t, s, "Out", []int64{1, 6, 6, 16})

	node := &OpNode{
		Name: "conv", Layer: "instruction_wise", Type: "conv2d",
		Param:  Conv2DParam{StrideH: 1, StrideW: 1, PadH: 0, PadW: 0},
		Inputs: []*Tensor{x, filt}, Output: out,
	}
	if err := node.Compile(); err == nil {
		t.Fatalf("expected a ShapeError for input/filter channel mismatch")
	}
}
