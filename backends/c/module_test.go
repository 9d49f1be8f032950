package c

import (
	"os"
	"strings"
	"testing"

	"sentra/internal/ir"
	"sentra/internal/types"
)

func TestBuildModuleCollectsCondVarsOnce(t *testing.T) {
	once, err := ir.MakeCallOnce(&ir.Block{}, "transposed_once")
	if err != nil {
		t.Fatalf("MakeCallOnce: %v", err)
	}
	fnA := &ir.FuncNode{Name: "a", Body: &ir.Block{Exprs: []ir.Node{once}}}
	fnB := &ir.FuncNode{Name: "b", Body: &ir.Block{Exprs: []ir.Node{once}}}

	module, err := BuildModule([]*ir.FuncNode{fnA, fnB})
	if err != nil {
		t.Fatalf("BuildModule: %v", err)
	}
	if module.GlobalData == nil || len(module.GlobalData.Exprs) != 1 {
		t.Fatalf("expected exactly 1 global (the cond var appears in both functions but is declared once), got %v", module.GlobalData)
	}
	let, ok := module.GlobalData.Exprs[0].(*ir.Let)
	if !ok {
		t.Fatalf("expected a *ir.Let global, got %T", module.GlobalData.Exprs[0])
	}
	if let.LHS != "transposed_once" {
		t.Fatalf("global var name = %q, want %q", let.LHS, "transposed_once")
	}
	if len(module.Functions) != 2 {
		t.Fatalf("expected both functions to pass through unchanged, got %d", len(module.Functions))
	}
}

func TestBuildModuleNoCallOnceNoGlobals(t *testing.T) {
	fn := &ir.FuncNode{Name: "plain", Body: &ir.Block{}}
	module, err := BuildModule([]*ir.FuncNode{fn})
	if err != nil {
		t.Fatalf("BuildModule: %v", err)
	}
	if len(module.GlobalData.Exprs) != 0 {
		t.Fatalf("expected no globals for a function with no CallOnce nodes, got %d", len(module.GlobalData.Exprs))
	}
}

func TestCompileAsCWritesHeaderAndSource(t *testing.T) {
	f32 := types.ScalarType(types.Float32)
	out := &ir.TensorRef{Name: "out", Shape: []ir.Node{&ir.IntImm{Val: 4, Typ: types.ScalarType(types.Int32)}}, ElemType: f32}
	fn := &ir.FuncNode{Name: "identity", Outputs: []*ir.TensorRef{out}, Body: &ir.Block{}}
	module, err := BuildModule([]*ir.FuncNode{fn})
	if err != nil {
		t.Fatalf("BuildModule: %v", err)
	}

	dir := t.TempDir()
	headerPath := dir + "/identity.h"
	sourcePath := dir + "/identity.c"
	if err := CompileAsC(module, headerPath, sourcePath); err != nil {
		t.Fatalf("CompileAsC: %v", err)
	}

	headerBytes, err := os.ReadFile(headerPath)
	if err != nil {
		t.Fatalf("reading header: %v", err)
	}
	header := string(headerBytes)
	if !strings.Contains(header, "#ifndef") {
		t.Fatalf("header missing include guard:\n%s", header)
	}
	sourceBytes, err := os.ReadFile(sourcePath)
	if err != nil {
		t.Fatalf("reading source: %v", err)
	}
	source := string(sourceBytes)
	if !strings.Contains(source, "identity") {
		t.Fatalf("source missing function name:\n%s", source)
	}
}
