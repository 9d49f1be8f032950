package types

import "testing"

func TestByteSize(t *testing.T) {
	cases := []struct {
		p    Primitive
		want int
		ok   bool
	}{
		{Int8, 1, true},
		{Float32, 4, true},
		{Float64, 8, true},
		{Unk, 0, false},
		{Void, 0, false},
	}
	for _, c := range cases {
		got, ok := ByteSize(c.p)
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("ByteSize(%s) = (%d, %v), want (%d, %v)", c.p, got, ok, c.want, c.ok)
		}
	}
}

func TestLanes(t *testing.T) {
	n, err := Lanes(SIMD256, Float32)
	if err != nil || n != 8 {
		t.Fatalf("Lanes(SIMD256, Float32) = (%d, %v), want (8, nil)", n, err)
	}
	n, err = Lanes(SIMD128, Float32)
	if err != nil || n != 4 {
		t.Fatalf("Lanes(SIMD128, Float32) = (%d, %v), want (4, nil)", n, err)
	}
	if _, err := Lanes(SIMD256, Void); err == nil {
		t.Fatalf("expected error computing lanes over Void")
	}
}

func TestTypeValidInvariant(t *testing.T) {
	if !(Type{Prim: Float32, Composite: SIMD256}).Valid() {
		t.Fatalf("float32 simd256 should be valid")
	}
	if (Type{Prim: Boolean, Composite: SIMD256}).Valid() {
		t.Fatalf("boolean simd256 should violate the composite invariant")
	}
	if !(Type{Prim: Boolean, Composite: Scalar}).Valid() {
		t.Fatalf("scalar boolean should always be valid")
	}
}
