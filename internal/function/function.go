// Package function implements Function: an ordered collection of Stages
// compiled together into one generated C function, the way
// internal/compregister.Compiler accumulates statements into one
// vmregister.FunctionObj.
package function

import (
	"sentra/cerr"
	"sentra/internal/ir"
	"sentra/internal/isl"
	"sentra/internal/lowering"
	"sentra/internal/optimize"
	"sentra/internal/stage"
)

// Function is a named, ordered group of stages sharing one generated C
// entry point and one schedule tree.
type Function struct {
	Name          string
	Inputs        []*ir.TensorRef
	Outputs       []*ir.TensorRef
	Intermediates []*ir.TensorRef

	stages []*stage.Stage
	byName map[string]*stage.Stage

	tree   *isl.Domain
	sealed bool
}

// New starts a function definition with the given tensor parameters.
func New(name string, inputs, outputs []*ir.TensorRef) *Function {
	return &Function{
		Name:    name,
		Inputs:  inputs,
		Outputs: outputs,
		byName:  make(map[string]*stage.Stage),
	}
}

// AddStage appends a fully built stage to the function, in creation
// (beta) order.
func (f *Function) AddStage(s *stage.Stage) error {
	if f.sealed {
		return cerr.New(cerr.ConfigurationError, f.Name, "cannot add stage %s after EndDefinition", s.Name)
	}
	if _, exists := f.byName[s.Name]; exists {
		return cerr.New(cerr.ConfigurationError, f.Name, "duplicate stage name %q", s.Name)
	}
	f.stages = append(f.stages, s)
	f.byName[s.Name] = s
	return nil
}

// AddIntermediate registers a tensor that stages write to and read from
// but that is neither a function input nor output (e.g. a fused
// pipeline's scratch activation buffer), so that code generation and the
// offset-folding pass know its shape.
func (f *Function) AddIntermediate(t *ir.TensorRef) {
	f.Intermediates = append(f.Intermediates, t)
}

func (f *Function) tensorShapes() map[string]*ir.TensorRef {
	shapes := make(map[string]*ir.TensorRef)
	for _, t := range f.Inputs {
		shapes[t.Name] = t
	}
	for _, t := range f.Outputs {
		shapes[t.Name] = t
	}
	for _, t := range f.Intermediates {
		shapes[t.Name] = t
	}
	return shapes
}

// Stage looks up a stage by name.
func (f *Function) Stage(name string) (*stage.Stage, bool) {
	s, ok := f.byName[name]
	return s, ok
}

// Tree returns the function's schedule tree, available only after
// EndDefinition.
func (f *Function) Tree() *isl.Domain { return f.tree }

// EndDefinition freezes the stage list, builds the initial schedule
// tree, and applies every FuseWith edge recorded on the stages. After
// this call the function's schedule transformers (Tile/Interchange/...)
// operate on f.Tree() directly; no further stages may be added.
func (f *Function) EndDefinition() error {
	if f.sealed {
		return nil
	}
	entries := make([]isl.StageEntry, len(f.stages))
	for i, s := range f.stages {
		entries[i] = isl.StageEntry{Name: s.Name, Band: s.Band}
	}
	tree := isl.NewFunctionTree(entries)

	fused := map[string]bool{}
	for _, s := range f.stages {
		for _, other := range s.FusedWith() {
			key := s.Name + "\x00" + other
			rkey := other + "\x00" + s.Name
			if fused[key] || fused[rkey] {
				continue
			}
			newTree, err := isl.Fuse(tree, s.Name, other)
			if err != nil {
				return err
			}
			tree = newTree
			fused[key] = true
		}
	}

	for _, s := range f.stages {
		if once, cond := s.IsCallOnce(); once {
			if err := isl.MarkCallOnce(tree, s.Name); err != nil {
				return cerr.Wrap(cerr.ScheduleError, f.Name, err, "marking call-once stage %s (cond %s)", s.Name, cond)
			}
		}
	}

	f.tree = tree
	f.sealed = true
	return nil
}

// CompileToExpr lowers the (possibly transformed) schedule tree into a
// single optimized ir.FuncNode body, running the full §4.7 optimize
// pipeline over the lowered statements.
func (f *Function) CompileToExpr() (*ir.FuncNode, error) {
	if !f.sealed {
		if err := f.EndDefinition(); err != nil {
			return nil, err
		}
	}
	astRoot, err := isl.BuildAst(f.tree)
	if err != nil {
		return nil, err
	}
	body, err := lowering.Lower(astRoot, f.stages, f.tensorShapes())
	if err != nil {
		return nil, err
	}
	optimized, err := optimize.Run(body, f.tensorShapes())
	if err != nil {
		return nil, err
	}
	return &ir.FuncNode{Name: f.Name, Inputs: f.Inputs, Outputs: f.Outputs, Body: optimized}, nil
}
