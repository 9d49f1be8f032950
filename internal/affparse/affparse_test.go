package affparse

import (
	"testing"

	"sentra/internal/ir"
)

func TestParseSimpleComparison(t *testing.T) {
	expr, err := Parse("i < 100")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cmp, ok := expr.(*ir.Cmp)
	if !ok {
		t.Fatalf("expected *ir.Cmp, got %T", expr)
	}
	if cmp.Op != ir.LT {
		t.Fatalf("Op = %v, want LT", cmp.Op)
	}
}

func TestParseAdditivePredicate(t *testing.T) {
	expr, err := Parse("i + j <= 10")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cmp, ok := expr.(*ir.Cmp)
	if !ok {
		t.Fatalf("expected *ir.Cmp, got %T", expr)
	}
	if _, ok := cmp.A.(*ir.Arith); !ok {
		t.Fatalf("expected the left side to be an Arith(i + j), got %T", cmp.A)
	}
}

func TestParseRespectsMulOverAddPrecedence(t *testing.T) {
	expr, err := Parse("i + j * 2 == 0")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cmp := expr.(*ir.Cmp)
	add, ok := cmp.A.(*ir.Arith)
	if !ok || add.Op != ir.Add {
		t.Fatalf("expected top-level Add, got %#v", cmp.A)
	}
	if mul, ok := add.B.(*ir.Arith); !ok || mul.Op != ir.Mul {
		t.Fatalf("expected j*2 to bind tighter than +, got %#v", add.B)
	}
}

func TestParseParenthesizedGrouping(t *testing.T) {
	if _, err := Parse("(i + j) % 2 == 0"); err != nil {
		t.Fatalf("Parse: %v", err)
	}
}

func TestParseRejectsNonBooleanExpression(t *testing.T) {
	if _, err := Parse("i + j"); err == nil {
		t.Fatalf("expected a TypeError: predicate must be boolean-typed")
	}
}

func TestParseRejectsUnknownCharacter(t *testing.T) {
	if _, err := Parse("i @ j"); err == nil {
		t.Fatalf("expected an error for an unrecognized character")
	}
}

func TestParseRejectsTrailingInput(t *testing.T) {
	if _, err := Parse("i < 1 2"); err == nil {
		t.Fatalf("expected an error for trailing input after a complete predicate")
	}
}

func TestParseRejectsUnbalancedParen(t *testing.T) {
	if _, err := Parse("(i < 1"); err == nil {
		t.Fatalf("expected an error for a missing closing paren")
	}
}
