package main

import (
	"testing"

	"sentra/backends/c"
	"sentra/internal/ir"
)

func TestBuildExampleUnknownNameFails(t *testing.T) {
	if _, err := buildExample("no_such_example"); err == nil {
		t.Fatalf("expected a LookupError for an unknown example name")
	}
}

func TestBuildExampleEveryNameCompiles(t *testing.T) {
	for _, name := range exampleNames {
		fn, err := buildExample(name)
		if err != nil {
			t.Fatalf("buildExample(%q): %v", name, err)
		}
		fnIR, err := fn.CompileToExpr()
		if err != nil {
			t.Fatalf("CompileToExpr(%q): %v", name, err)
		}
		if fnIR.Body == nil {
			t.Fatalf("example %q compiled to a nil body", name)
		}
		module, err := c.BuildModule([]*ir.FuncNode{fnIR})
		if err != nil {
			t.Fatalf("BuildModule(%q): %v", name, err)
		}
		if _, err := c.Emit(name, module, c.Options{EmitBody: true}); err != nil {
			t.Fatalf("Emit(%q): %v", name, err)
		}
	}
}

func TestExampleCallOnceTransposeEmitsGlobal(t *testing.T) {
	fn, err := buildExample("call_once_transpose")
	if err != nil {
		t.Fatalf("buildExample: %v", err)
	}
	fnIR, err := fn.CompileToExpr()
	if err != nil {
		t.Fatalf("CompileToExpr: %v", err)
	}
	module, err := c.BuildModule([]*ir.FuncNode{fnIR})
	if err != nil {
		t.Fatalf("BuildModule: %v", err)
	}
	if len(module.GlobalData.Exprs) == 0 {
		t.Fatalf("expected the call-once example to produce at least one module-level global")
	}
}

func TestExampleFCPartitionsThroughGraphLayer(t *testing.T) {
	fn, err := buildExample("fc")
	if err != nil {
		t.Fatalf("buildExample(fc): %v", err)
	}
	if fn.Name == "" {
		t.Fatalf("fc example produced an unnamed function")
	}
}
