// Package types defines the scalar and composite type lattice shared by
// every node in the expression IR.
package types

import "fmt"

// Primitive is a scalar primitive kind.
type Primitive int

const (
	Unk Primitive = iota
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Boolean
	Void
)

func (p Primitive) String() string {
	switch p {
	case Unk:
		return "unk"
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	case Uint16:
		return "uint16"
	case Uint32:
		return "uint32"
	case Uint64:
		return "uint64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Boolean:
		return "boolean"
	case Void:
		return "void"
	default:
		return fmt.Sprintf("Primitive(%d)", int(p))
	}
}

// IsNumeric reports whether p is an integer or floating-point scalar
// kind (i.e. not boolean, void, or unk).
func (p Primitive) IsNumeric() bool {
	switch p {
	case Int8, Int16, Int32, Int64, Uint8, Uint16, Uint32, Uint64, Float32, Float64:
		return true
	default:
		return false
	}
}

// ByteSize returns the in-memory size of p. For Unk and Void, which have
// no size, it returns (0, false).
func ByteSize(p Primitive) (int, bool) {
	switch p {
	case Int8, Uint8, Boolean:
		return 1, true
	case Int16, Uint16:
		return 2, true
	case Int32, Uint32, Float32:
		return 4, true
	case Int64, Uint64, Float64:
		return 8, true
	default:
		return 0, false
	}
}

// Composite is one of the supported operand shapes: a plain scalar, or
// a 128/256-bit SIMD lane pack.
type Composite int

const (
	Scalar Composite = iota
	SIMD128
	SIMD256
)

func (c Composite) String() string {
	switch c {
	case Scalar:
		return "scalar"
	case SIMD128:
		return "simd128"
	case SIMD256:
		return "simd256"
	default:
		return fmt.Sprintf("Composite(%d)", int(c))
	}
}

// WidthBits returns the bit width of a SIMD composite. Scalar has no
// fixed width of its own and returns 0.
func (c Composite) WidthBits() int {
	switch c {
	case SIMD128:
		return 128
	case SIMD256:
		return 256
	default:
		return 0
	}
}

// Lanes returns the number of elem-typed lanes packed into composite c.
// Scalar always has exactly one lane.
func Lanes(c Composite, elem Primitive) (int, error) {
	if c == Scalar {
		return 1, nil
	}
	elemBytes, ok := ByteSize(elem)
	if !ok {
		return 0, fmt.Errorf("types: cannot compute lane count for element kind %s", elem)
	}
	widthBytes := c.WidthBits() / 8
	if widthBytes%elemBytes != 0 {
		return 0, fmt.Errorf("types: composite width %d not a multiple of element size %d", widthBytes, elemBytes)
	}
	return widthBytes / elemBytes, nil
}

// Type is the (primitive, composite) annotation carried by every
// expression node. Invariant: Composite != Scalar implies Primitive is a
// numeric scalar kind.
type Type struct {
	Prim      Primitive
	Composite Composite
}

// Valid reports whether t satisfies the composite/primitive invariant.
func (t Type) Valid() bool {
	if t.Composite == Scalar {
		return true
	}
	return t.Prim.IsNumeric()
}

func (t Type) String() string {
	if t.Composite == Scalar {
		return t.Prim.String()
	}
	return fmt.Sprintf("%s<%s>", t.Composite, t.Prim)
}

// ScalarType is a convenience constructor for a plain scalar type.
func ScalarType(p Primitive) Type {
	return Type{Prim: p, Composite: Scalar}
}
