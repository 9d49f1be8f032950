package graph

import (
	"testing"

	"sentra/internal/stage"
)

func TestLookupUnknownOpFails(t *testing.T) {
	if _, err := Lookup("instruction_wise", "no_such_op"); err == nil {
		t.Fatalf("expected a LookupError for an unregistered (layer, type) key")
	}
}

func TestRegisterOpThenLookupRoundTrips(t *testing.T) {
	called := false
	RegisterOp("test_layer", "noop", func(name string, inputs []*Tensor, output *Tensor, param OperatorParam) ([]*stage.Stage, error) {
		called = true
		s, err := stage.New(name, nil, nil)
		if err != nil {
			return nil, err
		}
		return []*stage.Stage{s}, nil
	})
	ctor, err := Lookup("test_layer", "noop")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if _, err := ctor("n", nil, nil, nil); err != nil {
		t.Fatalf("ctor: %v", err)
	}
	if !called {
		t.Fatalf("registered constructor was never invoked")
	}
}

func TestOpNodeCompileRejectsZeroStageCtor(t *testing.T) {
	RegisterOp("test_layer", "empty", func(name string, inputs []*Tensor, output *Tensor, param OperatorParam) ([]*stage.Stage, error) {
		return nil, nil
	})
	s := NewSession()
	out := mustTensor(t, s, "empty_out", []int64{1})
	node := &OpNode{Name: "e", Layer: "test_layer", Type: "empty", Output: out}
	if err := node.Compile(); err == nil {
		t.Fatalf("expected an error when a constructor returns zero stages")
	}
}
