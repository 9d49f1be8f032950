package isl

import (
	"strings"
	"testing"
)

func TestDumpTreeSingleStage(t *testing.T) {
	tree := NewFunctionTree([]StageEntry{
		{Name: "s0", Band: &Band{Dims: []LoopDim{{IterName: "i", Lo: 0, Hi: 4}}}},
	})
	out := DumpTree(tree)
	for _, want := range []string{"domain", "sequence", "filter[s0]", "band [i=[0,4)]", "leaf[s0]"} {
		if !strings.Contains(out, want) {
			t.Fatalf("DumpTree output missing %q:\n%s", want, out)
		}
	}
}

func TestDumpTreeFusedStagesOneBranch(t *testing.T) {
	tree := NewFunctionTree([]StageEntry{
		{Name: "zero", Band: &Band{Dims: []LoopDim{{IterName: "i", Lo: 0, Hi: 4}, {IterName: "j", Lo: 0, Hi: 4}}}},
		{Name: "reduce", Band: &Band{Dims: []LoopDim{{IterName: "i", Lo: 0, Hi: 4}, {IterName: "j", Lo: 0, Hi: 4}, {IterName: "k", Lo: 0, Hi: 4}}}},
	})
	fused, err := Fuse(tree, "zero", "reduce")
	if err != nil {
		t.Fatalf("Fuse: %v", err)
	}
	out := DumpTree(fused)
	if strings.Count(out, "sequence") != 1 {
		t.Fatalf("expected the fused tree to still be a single sequence of remaining branches:\n%s", out)
	}
}

func TestDumpBandDirectives(t *testing.T) {
	b := &Band{
		Dims:           []LoopDim{{IterName: "i", Lo: 0, Hi: 8}},
		TileSizes:      []int64{4},
		Separate:       true,
		UnrollInner:    true,
		VectorizeWidth: 8,
	}
	out := dumpBand(b)
	for _, want := range []string{"tile=[4]", "separate", "unroll-inner", "vectorize=8"} {
		if !strings.Contains(out, want) {
			t.Fatalf("dumpBand(%v) = %q, missing %q", b, out, want)
		}
	}
}

func TestDumpTreeMark(t *testing.T) {
	tree := NewFunctionTree([]StageEntry{
		{Name: "once", Band: &Band{Dims: []LoopDim{{IterName: "i", Lo: 0, Hi: 1}}}},
	})
	if err := MarkCallOnce(tree, "once"); err != nil {
		t.Fatalf("MarkCallOnce: %v", err)
	}
	out := DumpTree(tree)
	if !strings.Contains(out, "mark(") {
		t.Fatalf("expected a mark() line after MarkCallOnce:\n%s", out)
	}
}
