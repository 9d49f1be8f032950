package graph

import (
	"testing"

	"sentra/internal/ir"
)

func buildLinearProgram(t *testing.T) (*Session, *Program) {
	t.Helper()
	s := NewSession()
	x := mustTensor(t, s, "x", []int64{4})
	y := mustTensor(t, s, "y", []int64{4})
	h := mustTensor(t, s, "h", []int64{4})
	out := mustTensor(t, s, "out", []int64{4})

	prog := &Program{}
	prog.Add(&OpNode{Name: "add", Layer: "instruction_wise", Type: "elementwise_add", Param: ElementwiseParam{Op: ir.Add}, Inputs: []*Tensor{x, y}, Output: h})
	prog.Add(&OpNode{Name: "relu", Layer: "instruction_wise", Type: "relu", Param: ReLUParam{}, Inputs: []*Tensor{h}, Output: out})
	return s, prog
}

func TestBuildCompilesEveryNode(t *testing.T) {
	s, prog := buildLinearProgram(t)
	g, err := Build(prog, s)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(g.Nodes) != 2 {
		t.Fatalf("expected 2 compiled nodes, got %d", len(g.Nodes))
	}
	for _, n := range g.Nodes {
		if n.Output.Producer != n {
			t.Fatalf("node %s did not wire its output's Producer", n.Name)
		}
	}
}

func TestPartitionFunctionsSingleChainIsOneFunction(t *testing.T) {
	s, prog := buildLinearProgram(t)
	g, err := Build(prog, s)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	fns, err := g.PartitionFunctions()
	if err != nil {
		t.Fatalf("PartitionFunctions: %v", err)
	}
	if len(fns) != 1 {
		t.Fatalf("a chain with no fan-out should partition into 1 function, got %d", len(fns))
	}
	if len(fns[0].Inputs) != 2 {
		t.Fatalf("expected 2 graph inputs (x, y), got %d: %v", len(fns[0].Inputs), fns[0].Inputs)
	}
	if len(fns[0].Outputs) != 2 {
		t.Fatalf("expected 2 written tensors (h, out), got %d", len(fns[0].Outputs))
	}
}

func TestPartitionFunctionsSplitsOnFanOut(t *testing.T) {
	s := NewSession()
	x := mustTensor(t, s, "x", []int64{4})
	y := mustTensor(t, s, "y", []int64{4})
	shared := mustTensor(t, s, "shared", []int64{4})
	a := mustTensor(t, s, "a", []int64{4})
	b := mustTensor(t, s, "b", []int64{4})

	prog := &Program{}
	prog.Add(&OpNode{Name: "add", Layer: "instruction_wise", Type: "elementwise_add", Param: ElementwiseParam{Op: ir.Add}, Inputs: []*Tensor{x, y}, Output: shared})
	prog.Add(&OpNode{Name: "relu_a", Layer: "instruction_wise", Type: "relu", Param: ReLUParam{}, Inputs: []*Tensor{shared}, Output: a})
	prog.Add(&OpNode{Name: "relu_b", Layer: "instruction_wise", Type: "relu", Param: ReLUParam{}, Inputs: []*Tensor{shared}, Output: b})

	g, err := Build(prog, s)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	fns, err := g.PartitionFunctions()
	if err != nil {
		t.Fatalf("PartitionFunctions: %v", err)
	}
	if len(fns) != 2 {
		t.Fatalf("fan-out on 'shared' should close the first function, got %d functions", len(fns))
	}
	if len(fns[0].Outputs) != 1 || fns[0].Outputs[0].Name != "shared" {
		t.Fatalf("first function should produce exactly 'shared', got %v", fns[0].Outputs)
	}
}

func TestPartitionFunctionsDeterministicParamOrder(t *testing.T) {
	s, prog := buildLinearProgram(t)
	g, err := Build(prog, s)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	fns, err := g.PartitionFunctions()
	if err != nil {
		t.Fatalf("PartitionFunctions: %v", err)
	}
	if fns[0].Inputs[0].Name != "x" || fns[0].Inputs[1].Name != "y" {
		t.Fatalf("expected inputs in first-seen order [x, y], got %v", fns[0].Inputs)
	}
}

func TestCompileExprCompilesEachFunction(t *testing.T) {
	s, prog := buildLinearProgram(t)
	g, err := Build(prog, s)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	fns, err := g.PartitionFunctions()
	if err != nil {
		t.Fatalf("PartitionFunctions: %v", err)
	}
	compiled, err := CompileExpr(fns)
	if err != nil {
		t.Fatalf("CompileExpr: %v", err)
	}
	if len(compiled) != 1 {
		t.Fatalf("expected 1 compiled FuncNode, got %d", len(compiled))
	}
	if compiled[0].Body == nil {
		t.Fatalf("compiled function has no body")
	}
}
