package function

import (
	"testing"

	"sentra/internal/ir"
	"sentra/internal/stage"
	"sentra/internal/types"
)

func f32() types.Type { return types.ScalarType(types.Float32) }

func tensorRef(name string, dims ...int64) *ir.TensorRef {
	shape := make([]ir.Node, len(dims))
	for i, d := range dims {
		shape[i] = &ir.IntImm{Val: d, Typ: types.ScalarType(types.Int32)}
	}
	return &ir.TensorRef{Name: name, Shape: shape, ElemType: f32()}
}

func plainStage(t *testing.T, name string, lo, hi int64) *stage.Stage {
	t.Helper()
	s, err := stage.New(name, []string{"i"}, map[string][2]int64{"i": {lo, hi}})
	if err != nil {
		t.Fatalf("stage.New(%s): %v", name, err)
	}
	s.SetBody("out", []string{"i"}, &ir.FloatImm{Val: 0, Typ: f32()})
	return s
}

func TestAddStageRejectsDuplicateNames(t *testing.T) {
	fn := New("fn", nil, []*ir.TensorRef{tensorRef("out", 4)})
	if err := fn.AddStage(plainStage(t, "s", 0, 4)); err != nil {
		t.Fatalf("AddStage: %v", err)
	}
	if err := fn.AddStage(plainStage(t, "s", 0, 4)); err == nil {
		t.Fatalf("expected an error for a duplicate stage name")
	}
}

func TestAddStageAfterEndDefinitionFails(t *testing.T) {
	fn := New("fn", nil, []*ir.TensorRef{tensorRef("out", 4)})
	if err := fn.AddStage(plainStage(t, "s", 0, 4)); err != nil {
		t.Fatalf("AddStage: %v", err)
	}
	if err := fn.EndDefinition(); err != nil {
		t.Fatalf("EndDefinition: %v", err)
	}
	if err := fn.AddStage(plainStage(t, "t", 0, 4)); err == nil {
		t.Fatalf("expected an error adding a stage after EndDefinition")
	}
}

func TestEndDefinitionIsIdempotent(t *testing.T) {
	fn := New("fn", nil, []*ir.TensorRef{tensorRef("out", 4)})
	if err := fn.AddStage(plainStage(t, "s", 0, 4)); err != nil {
		t.Fatalf("AddStage: %v", err)
	}
	if err := fn.EndDefinition(); err != nil {
		t.Fatalf("first EndDefinition: %v", err)
	}
	tree := fn.Tree()
	if err := fn.EndDefinition(); err != nil {
		t.Fatalf("second EndDefinition: %v", err)
	}
	if fn.Tree() != tree {
		t.Fatalf("EndDefinition rebuilt the tree on a second call")
	}
}

func TestStageLooksUpByName(t *testing.T) {
	fn := New("fn", nil, []*ir.TensorRef{tensorRef("out", 4)})
	s := plainStage(t, "s", 0, 4)
	if err := fn.AddStage(s); err != nil {
		t.Fatalf("AddStage: %v", err)
	}
	got, ok := fn.Stage("s")
	if !ok || got != s {
		t.Fatalf("Stage(%q) = (%v, %v), want the stage just added", "s", got, ok)
	}
	if _, ok := fn.Stage("nope"); ok {
		t.Fatalf("Stage(%q) unexpectedly found", "nope")
	}
}

func TestCompileToExprProducesABody(t *testing.T) {
	fn := New("identity", []*ir.TensorRef{tensorRef("in", 4)}, []*ir.TensorRef{tensorRef("out", 4)})
	s, err := stage.New("copy", []string{"i"}, map[string][2]int64{"i": {0, 4}})
	if err != nil {
		t.Fatalf("stage.New: %v", err)
	}
	inRef, err := ir.MakeReference(tensorRef("in", 4), []ir.Node{&ir.Var{Name: "i", Typ: types.ScalarType(types.Int32)}})
	if err != nil {
		t.Fatalf("MakeReference: %v", err)
	}
	s.SetBody("out", []string{"i"}, inRef)
	if err := fn.AddStage(s); err != nil {
		t.Fatalf("AddStage: %v", err)
	}

	fnIR, err := fn.CompileToExpr()
	if err != nil {
		t.Fatalf("CompileToExpr: %v", err)
	}
	if fnIR.Name != "identity" {
		t.Fatalf("fnIR.Name = %q, want identity", fnIR.Name)
	}
	if fnIR.Body == nil {
		t.Fatalf("CompileToExpr produced a nil body")
	}
}

func TestCompileToExprImplicitlySealsTheFunction(t *testing.T) {
	fn := New("fn", nil, []*ir.TensorRef{tensorRef("out", 4)})
	if err := fn.AddStage(plainStage(t, "s", 0, 4)); err != nil {
		t.Fatalf("AddStage: %v", err)
	}
	if fn.Tree() != nil {
		t.Fatalf("Tree() should be nil before any EndDefinition/CompileToExpr call")
	}
	if _, err := fn.CompileToExpr(); err != nil {
		t.Fatalf("CompileToExpr: %v", err)
	}
	if fn.Tree() == nil {
		t.Fatalf("CompileToExpr should have sealed the function and built a tree")
	}
}

func TestAddIntermediateRegistersShape(t *testing.T) {
	fn := New("fn", nil, []*ir.TensorRef{tensorRef("out", 4)})
	fn.AddIntermediate(tensorRef("scratch", 4))
	if len(fn.Intermediates) != 1 || fn.Intermediates[0].Name != "scratch" {
		t.Fatalf("Intermediates = %v, want [scratch]", fn.Intermediates)
	}
}
