// Package graph is the high-level, optional entry point described in
// §4.9: a bipartite tensor/operator graph, an operator registry keyed
// by (layer, type), and a topological partitioner that emits one
// internal/function.Function per contiguous run of operators. It's the
// only layer of this compiler that talks to internal/stage and
// internal/function on the user's behalf; everything below it (Stage,
// Function, the schedule tree) is equally usable directly.
package graph

import (
	"sentra/cerr"
	"sentra/internal/ir"
	"sentra/internal/types"
)

// Tensor is a named node in the graph: a declared shape/element type,
// the operator that produced it (nil for a graph input), and the
// operators that consume it.
type Tensor struct {
	Name      string
	Shape     []int64
	ElemType  types.Type
	Producer  *OpNode
	Consumers []*OpNode

	ref *ir.TensorRef
}

// IR returns (building it on first use) the ir.TensorRef for this
// tensor, used both as a stage write target and as a Function parameter.
func (t *Tensor) IR() *ir.TensorRef {
	if t.ref != nil {
		return t.ref
	}
	shape := make([]ir.Node, len(t.Shape))
	for i, d := range t.Shape {
		shape[i] = &ir.IntImm{Val: d, Typ: types.ScalarType(types.Int32)}
	}
	t.ref = &ir.TensorRef{Name: t.Name, Shape: shape, ElemType: t.ElemType}
	return t.ref
}

// Session is the tensor registry (§6 item 1): NewTensor/GetTensor.
type Session struct {
	tensors map[string]*Tensor
}

func NewSession() *Session {
	return &Session{tensors: make(map[string]*Tensor)}
}

// NewTensor declares a new tensor with the given shape and element
// type. Stages referencing it are built by an operator's Compile.
func (s *Session) NewTensor(name string, shape []int64, elemType types.Type) (*Tensor, error) {
	if _, exists := s.tensors[name]; exists {
		return nil, cerr.New(cerr.ConfigurationError, name, "tensor already declared in this session")
	}
	t := &Tensor{Name: name, Shape: shape, ElemType: elemType}
	s.tensors[name] = t
	return t, nil
}

// GetTensor looks up a previously declared tensor.
func (s *Session) GetTensor(name string) (*Tensor, error) {
	t, ok := s.tensors[name]
	if !ok {
		return nil, cerr.New(cerr.LookupError, name, "tensor not found in session")
	}
	return t, nil
}

