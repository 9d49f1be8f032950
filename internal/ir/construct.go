package ir

import (
	"sentra/cerr"
	"sentra/internal/types"
)

// MakeArith builds an arithmetic node, rejecting mismatched primitive
// types. Promotion is the caller's responsibility via an explicit Cast.
func MakeArith(op ArithOp, a, b Node) (*Arith, error) {
	ta, tb := a.Type(), b.Type()
	if ta.Prim != tb.Prim {
		return nil, cerr.New(cerr.TypeError, "", "arithmetic operand type mismatch: %s vs %s", ta, tb)
	}
	return &Arith{Op: op, A: a, B: b, Typ: ta}, nil
}

// MakeCmp builds a comparison node, rejecting mismatched primitive types.
func MakeCmp(op CmpOp, a, b Node) (*Cmp, error) {
	ta, tb := a.Type(), b.Type()
	if ta.Prim != tb.Prim {
		return nil, cerr.New(cerr.TypeError, "", "comparison operand type mismatch: %s vs %s", ta, tb)
	}
	return &Cmp{Op: op, A: a, B: b}, nil
}

// MakeLogical builds an And/Or node over boolean operands.
func MakeLogical(op LogicalOp, a, b Node) (*Logical, error) {
	if a.Type().Prim != types.Boolean || b.Type().Prim != types.Boolean {
		return nil, cerr.New(cerr.TypeError, "", "logical operands must be boolean, got %s and %s", a.Type(), b.Type())
	}
	return &Logical{Op: op, A: a, B: b}, nil
}

// MakeUnary builds a Minus/Not/Exp node.
func MakeUnary(op UnaryOp, a Node) (*Unary, error) {
	t := a.Type()
	if op == Not && t.Prim != types.Boolean {
		return nil, cerr.New(cerr.TypeError, "", "logical-not operand must be boolean, got %s", t)
	}
	return &Unary{Op: op, A: a, Typ: t}, nil
}

// MakeMinMax builds a saturating Min/Max node over matching primitives.
func MakeMinMax(op MinMaxOp, a, b Node) (*MinMax, error) {
	ta, tb := a.Type(), b.Type()
	if ta.Prim != tb.Prim {
		return nil, cerr.New(cerr.TypeError, "", "min/max operand type mismatch: %s vs %s", ta, tb)
	}
	return &MinMax{Op: op, A: a, B: b, Typ: ta}, nil
}

// rank returns the target's rank: a TensorRef's dimension count, or 1
// for an ArrayRef/scalar Var (a flat subscript).
func rank(target Node) (int, string) {
	switch t := target.(type) {
	case *TensorRef:
		return t.Rank(), t.Name
	case *ArrayRef:
		return 1, t.Name
	case *Var:
		return 1, t.Name
	default:
		return -1, ""
	}
}

// MakeReference builds T[i0,...,ik]. The iterator count must equal the
// target's rank.
func MakeReference(target Node, iterators []Node) (*Reference, error) {
	want, name := rank(target)
	if want < 0 {
		return nil, cerr.New(cerr.ShapeError, "", "reference target must be a tensor, array, or scalar var")
	}
	if len(iterators) != want {
		return nil, cerr.New(cerr.ShapeError, name, "subscript has %d indices, target rank is %d", len(iterators), want)
	}
	return &Reference{Target: target, Iterators: iterators, Typ: target.Type()}, nil
}

// MakeSIMDArith builds a SIMD Add/Sub/Mul/Div node; both operands must
// share the same SIMD composite type.
func MakeSIMDArith(op SIMDOp, a, b Node) (*SIMDOpr, error) {
	ta, tb := a.Type(), b.Type()
	if ta.Composite == types.Scalar || ta != tb {
		return nil, cerr.New(cerr.TypeError, "", "simd arith operands must share one simd composite type, got %s and %s", ta, tb)
	}
	width, _ := types.Lanes(ta.Composite, ta.Prim)
	return &SIMDOpr{Width: width, Op: op, A: a, B: b, Typ: ta}, nil
}

// MakeSIMDLoad builds a simd_load from an address-like operand.
func MakeSIMDLoad(width int, addr Node, elemType types.Type, composite types.Composite) (*SIMDOpr, error) {
	if err := requireAddress(addr); err != nil {
		return nil, err
	}
	return &SIMDOpr{Width: width, Op: SIMDLoad, A: addr, Typ: types.Type{Prim: elemType.Prim, Composite: composite}}, nil
}

// MakeSIMDStore builds a simd_store; the first operand must be tagged
// reference_address, the second the SIMD value being stored.
func MakeSIMDStore(width int, addr, value Node) (*SIMDOpr, error) {
	if err := requireAddress(addr); err != nil {
		return nil, err
	}
	return &SIMDOpr{Width: width, Op: SIMDStore, A: addr, B: value, Typ: types.ScalarType(types.Void)}, nil
}

func requireAddress(addr Node) error {
	id, ok := addr.(*Identity)
	if !ok || id.Tag != ReferenceAddressTag {
		return cerr.New(cerr.TypeError, "", "simd store's first operand must be an Identity tagged %q", ReferenceAddressTag)
	}
	return nil
}

// MakeCallOnce validates that condVarName is non-empty; the matching
// global Let is emitted later by backends/c.BuildModule.
func MakeCallOnce(block Node, condVarName string) (*CallOnce, error) {
	if condVarName == "" {
		return nil, cerr.New(cerr.ConfigurationError, "", "call-once block requires a non-empty cond_var_name")
	}
	return &CallOnce{Block: block, CondVarName: condVarName}, nil
}
