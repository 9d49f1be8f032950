package ir

import (
	"testing"

	"sentra/internal/types"
)

func f32(v float64) *FloatImm {
	return &FloatImm{Val: v, Typ: types.ScalarType(types.Float32)}
}

func int32var(name string) *Var {
	return &Var{Name: name, Typ: types.ScalarType(types.Int32)}
}

func tensor(name string, shape []int, elem types.Primitive) *TensorRef {
	dims := make([]Node, len(shape))
	for i, d := range shape {
		dims[i] = &IntImm{Val: int64(d), Typ: types.ScalarType(types.Int32)}
	}
	return &TensorRef{Name: name, Shape: dims, ElemType: types.ScalarType(elem)}
}

func TestMakeArithRejectsTypeMismatch(t *testing.T) {
	a := &IntImm{Val: 1, Typ: types.ScalarType(types.Int32)}
	b := f32(2)
	if _, err := MakeArith(Add, a, b); err == nil {
		t.Fatalf("expected a TypeError for mismatched primitives")
	}
}

func TestMakeReferenceRankMismatch(t *testing.T) {
	T := tensor("A", []int{10, 20}, types.Float32)
	i := int32var("i")
	if _, err := MakeReference(T, []Node{i}); err == nil {
		t.Fatalf("expected a ShapeError for rank mismatch")
	}
	j := int32var("j")
	ref, err := MakeReference(T, []Node{i, j})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ref.Iterators) != 2 {
		t.Fatalf("expected 2 iterators")
	}
}

func TestMakeSIMDStoreRequiresAddress(t *testing.T) {
	val := &SIMDOpr{Width: 8, Op: SIMDAdd, Typ: types.Type{Prim: types.Float32, Composite: types.SIMD256}}
	plain := int32var("x")
	if _, err := MakeSIMDStore(8, plain, val); err == nil {
		t.Fatalf("expected a TypeError: store target must be address-tagged")
	}
	addr := &Identity{Expr: plain, Tag: ReferenceAddressTag}
	if _, err := MakeSIMDStore(8, addr, val); err != nil {
		t.Fatalf("unexpected error with address-tagged target: %v", err)
	}
}

func TestPrinterStableForm(t *testing.T) {
	a := &IntImm{Val: 1, Typ: types.ScalarType(types.Int32)}
	b := &IntImm{Val: 2, Typ: types.ScalarType(types.Int32)}
	add, err := MakeArith(Add, a, b)
	if err != nil {
		t.Fatal(err)
	}
	want := "(1 + 2)"
	if Print(add) != want {
		t.Fatalf("Print() = %q, want %q", Print(add), want)
	}
}

func TestMinMaxPrintForm(t *testing.T) {
	a := &IntImm{Val: 1, Typ: types.ScalarType(types.Int32)}
	b := &IntImm{Val: 2, Typ: types.ScalarType(types.Int32)}
	mm, _ := MakeMinMax(MaxO, a, b)
	if Print(mm) != "max(1,2)" {
		t.Fatalf("Print() = %q, want max(1,2)", Print(mm))
	}
}

func TestSIMDPrintForm(t *testing.T) {
	t32 := types.Type{Prim: types.Float32, Composite: types.SIMD256}
	a := &Var{Name: "a", Typ: t32}
	b := &Var{Name: "b", Typ: t32}
	add, err := MakeSIMDArith(SIMDAdd, a, b)
	if err != nil {
		t.Fatal(err)
	}
	if Print(add) != "simd_add_8(a,b)" {
		t.Fatalf("Print() = %q, want simd_add_8(a,b)", Print(add))
	}
}

func TestDeepCopyIsStructurePreserving(t *testing.T) {
	a := &IntImm{Val: 1, Typ: types.ScalarType(types.Int32)}
	b := &IntImm{Val: 2, Typ: types.ScalarType(types.Int32)}
	add, _ := MakeArith(Add, a, b)
	cp := DeepCopy(add)
	if Print(cp) != Print(add) {
		t.Fatalf("copy changed printed form: %q vs %q", Print(cp), Print(add))
	}
	cpAdd := cp.(*Arith)
	if cpAdd == add {
		t.Fatalf("DeepCopy returned the same pointer")
	}
	if cpAdd.A == add.A {
		t.Fatalf("DeepCopy shared a child pointer")
	}
}

func TestEqualUsesCanonicalPrint(t *testing.T) {
	a1 := &IntImm{Val: 5, Typ: types.ScalarType(types.Int32)}
	a2 := &IntImm{Val: 5, Typ: types.ScalarType(types.Int32)}
	if !Equal(a1, a2) {
		t.Fatalf("expected structurally identical literals to be Equal")
	}
}

func TestInternKeyDeterministic(t *testing.T) {
	a := &IntImm{Val: 7, Typ: types.ScalarType(types.Int32)}
	b := &IntImm{Val: 7, Typ: types.ScalarType(types.Int32)}
	if InternKey(a) != InternKey(b) {
		t.Fatalf("expected identical nodes to produce identical intern keys")
	}
	c := &IntImm{Val: 8, Typ: types.ScalarType(types.Int32)}
	if InternKey(a) == InternKey(c) {
		t.Fatalf("expected different nodes to produce different intern keys")
	}
}
