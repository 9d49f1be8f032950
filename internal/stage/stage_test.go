package stage

import (
	"testing"

	"sentra/internal/ir"
	"sentra/internal/types"
)

func TestNewRejectsEmptyName(t *testing.T) {
	if _, err := New("", []string{"i"}, map[string][2]int64{"i": {0, 4}}); err == nil {
		t.Fatalf("expected an error for an empty stage name")
	}
}

func TestNewRejectsMissingBounds(t *testing.T) {
	if _, err := New("s", []string{"i", "j"}, map[string][2]int64{"i": {0, 4}}); err == nil {
		t.Fatalf("expected an error for an iterator with no bounds")
	}
}

func TestNewRejectsEmptyInterval(t *testing.T) {
	if _, err := New("s", []string{"i"}, map[string][2]int64{"i": {4, 2}}); err == nil {
		t.Fatalf("expected an error for hi < lo")
	}
}

func TestSetBodyDefaultsToPlainAssign(t *testing.T) {
	s, err := New("s", []string{"i"}, map[string][2]int64{"i": {0, 4}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.SetBody("out", []string{"i"}, &ir.FloatImm{Val: 1, Typ: types.ScalarType(types.Float32)})
	if s.WriteOp != ir.AssignPlain {
		t.Fatalf("SetBody should default to AssignPlain, got %v", s.WriteOp)
	}
	if s.WriteTarget != "out" {
		t.Fatalf("WriteTarget = %q, want out", s.WriteTarget)
	}
}

func TestSetBodyOpRecordsReductionOp(t *testing.T) {
	s, err := New("s", []string{"i"}, map[string][2]int64{"i": {0, 4}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s.SetBodyOp("out", []string{"i"}, ir.SumAssign, &ir.FloatImm{Val: 1, Typ: types.ScalarType(types.Float32)})
	if s.WriteOp != ir.SumAssign {
		t.Fatalf("WriteOp = %v, want SumAssign", s.WriteOp)
	}
}

func TestExtractWriteAccessRequiresBody(t *testing.T) {
	s, err := New("s", []string{"i"}, map[string][2]int64{"i": {0, 4}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := s.ExtractWriteAccess(); err == nil {
		t.Fatalf("expected an error before SetBody has run")
	}
	s.SetBody("out", []string{"i"}, &ir.FloatImm{Val: 1, Typ: types.ScalarType(types.Float32)})
	if _, err := s.ExtractWriteAccess(); err != nil {
		t.Fatalf("ExtractWriteAccess after SetBody: %v", err)
	}
}

func TestSetCondRejectsInvalidPredicate(t *testing.T) {
	s, err := New("s", []string{"i"}, map[string][2]int64{"i": {0, 4}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.SetCond("this is not an expression @@"); err == nil {
		t.Fatalf("expected a DomainError for an unparseable predicate")
	}
}

func TestFuseWithIsSymmetric(t *testing.T) {
	a, err := New("a", []string{"i"}, map[string][2]int64{"i": {0, 4}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	b, err := New("b", []string{"i"}, map[string][2]int64{"i": {0, 4}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	a.FuseWith(b)
	if len(a.FusedWith()) != 1 || a.FusedWith()[0] != "b" {
		t.Fatalf("a.FusedWith() = %v, want [b]", a.FusedWith())
	}
	if len(b.FusedWith()) != 1 || b.FusedWith()[0] != "a" {
		t.Fatalf("b.FusedWith() = %v, want [a]", b.FusedWith())
	}
}

func TestMarkCallOnceRequiresCondVar(t *testing.T) {
	s, err := New("s", []string{"i"}, map[string][2]int64{"i": {0, 4}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.MarkCallOnce(""); err == nil {
		t.Fatalf("expected an error for an empty condition variable name")
	}
	if err := s.MarkCallOnce("did_init"); err != nil {
		t.Fatalf("MarkCallOnce: %v", err)
	}
	once, cond := s.IsCallOnce()
	if !once || cond != "did_init" {
		t.Fatalf("IsCallOnce() = (%v, %q), want (true, did_init)", once, cond)
	}
}

func TestVectorizeRejectsNonPositiveWidth(t *testing.T) {
	s, err := New("s", []string{"i"}, map[string][2]int64{"i": {0, 16}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Vectorize(nil, nil, 0); err == nil {
		t.Fatalf("expected an error for a non-positive vectorize width")
	}
}
