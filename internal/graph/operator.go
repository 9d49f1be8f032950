package graph

import (
	"fmt"

	"sentra/cerr"
	"sentra/internal/ir"
	"sentra/internal/stage"
	"sentra/internal/types"
)

// OperatorParam is the resolved form of the "Dynamic parameter storage"
// Open Question (DESIGN.md): one concrete Go struct per operator type
// instead of an opaque Any-like bag. Each Ctor type-asserts its own
// struct at run time and returns a ConfigurationError when handed the
// wrong one.
type OperatorParam interface{ isOperatorParam() }

type MatMulParam struct{}
type ElementwiseParam struct{ Op ir.ArithOp }
type ReLUParam struct{}
type SigmoidApproxParam struct{}
type ReshapeParam struct{ NewShape []int64 }
type PadParam struct{ Before, After []int64 }
type Conv2DParam struct{ StrideH, StrideW, PadH, PadW int64 }

func (MatMulParam) isOperatorParam()         {}
func (ElementwiseParam) isOperatorParam()    {}
func (ReLUParam) isOperatorParam()           {}
func (SigmoidApproxParam) isOperatorParam()  {}
func (ReshapeParam) isOperatorParam()        {}
func (PadParam) isOperatorParam()            {}
func (Conv2DParam) isOperatorParam()         {}

// OpKey identifies an operator constructor: a (layer, type) pair, per
// §4.9 ("Operators register via an (layer, type) key").
type OpKey struct{ Layer, Type string }

// Ctor builds the stage(s) for one operator application: name is the
// operator instance's node name, inputs/output are the graph Tensors it
// reads/writes, param is that operator's concrete parameter struct. Most
// operators return a single stage; reduction-shaped ones (matmul,
// conv2d) return their zero-init companion alongside the main stage, in
// the order both must be added to the owning Function so FuseWith's
// recorded edge has both ends registered by EndDefinition.
type Ctor func(name string, inputs []*Tensor, output *Tensor, param OperatorParam) ([]*stage.Stage, error)

var registry = map[OpKey]Ctor{}

// RegisterOp adds an operator constructor under (layer, opType). Called
// explicitly from RegisterBuiltinOps (or a caller's own init-style
// function) rather than from a package init(), resolving the "Operator
// registry static-init-order hazard" Open Question (DESIGN.md): a
// Builder-style explicit registration call, invoked once by the library
// entry point, rather than package-level var init across files.
func RegisterOp(layer, opType string, ctor Ctor) {
	registry[OpKey{layer, opType}] = ctor
}

// Lookup resolves an operator constructor by key.
func Lookup(layer, opType string) (Ctor, error) {
	ctor, ok := registry[OpKey{layer, opType}]
	if !ok {
		return nil, cerr.New(cerr.LookupError, fmt.Sprintf("%s.%s", layer, opType), "operator registry has no entry for this (layer, type)")
	}
	return ctor, nil
}

// OpNode is one operator application in the graph: inputs, one output,
// and the stage(s) it compiles to once Compile runs.
type OpNode struct {
	Name   string
	Layer  string
	Type   string
	Param  OperatorParam
	Inputs []*Tensor
	Output *Tensor

	stages []*stage.Stage
}

// Stages returns every stage this node's constructor produced, in the
// order they must be added to the owning Function.
func (n *OpNode) Stages() []*stage.Stage { return n.stages }

// Compile builds this node's stage(s) via its registered constructor and
// wires the output tensor's Producer.
func (n *OpNode) Compile() error {
	ctor, err := Lookup(n.Layer, n.Type)
	if err != nil {
		return err
	}
	stages, err := ctor(n.Name, n.Inputs, n.Output, n.Param)
	if err != nil {
		return err
	}
	if len(stages) == 0 {
		return cerr.New(cerr.ConfigurationError, n.Name, "operator constructor returned no stages")
	}
	n.stages = stages
	n.Output.Producer = n
	return nil
}

func i32() types.Type { return types.ScalarType(types.Int32) }
