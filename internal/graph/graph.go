package graph

import (
	"fmt"

	"sentra/internal/function"
	"sentra/internal/ir"
)

// Program is the caller-supplied instruction stream Build walks: one
// OpNode per operator application, in the order the caller wants them
// compiled. A Program is expected to already be topologically ordered
// (each node's inputs are declared, and produced if not a graph input,
// before the node itself is appended) — Build does not reorder it.
type Program struct {
	Nodes []*OpNode
}

// Add appends an operator application to the program.
func (p *Program) Add(n *OpNode) { p.Nodes = append(p.Nodes, n) }

// Graph is the bipartite tensor/operator graph §4.9 describes, after
// every node has been compiled against session.
type Graph struct {
	Session *Session
	Nodes   []*OpNode
}

// Build compiles every node in program against session: each node's
// constructor runs (via OpNode.Compile), wiring the output tensor's
// Producer and every input tensor's Consumers list, so PartitionFunctions
// can later detect fan-out.
func Build(program *Program, session *Session) (*Graph, error) {
	g := &Graph{Session: session}
	for _, n := range program.Nodes {
		if err := n.Compile(); err != nil {
			return nil, err
		}
		for _, in := range n.Inputs {
			in.Consumers = append(in.Consumers, n)
		}
		g.Nodes = append(g.Nodes, n)
	}
	return g, nil
}

// partialFunc accumulates one Function's worth of stages and tensor
// traffic while PartitionFunctions walks the graph. Tensors are kept in
// first-seen order (not map iteration order) so a Function's generated
// parameter list is deterministic, matching §5's "generated AST and C
// code depend only on the sequence of stage additions" guarantee.
type partialFunc struct {
	name       string
	written    map[string]*Tensor
	writtenOrd []*Tensor
	read       map[string]*Tensor
	readOrd    []*Tensor
}

func newPartialFunc(name string) *partialFunc {
	return &partialFunc{
		name:    name,
		written: map[string]*Tensor{},
		read:    map[string]*Tensor{},
	}
}

func (p *partialFunc) recordRead(t *Tensor) {
	if _, ok := p.read[t.Name]; ok {
		return
	}
	p.read[t.Name] = t
	p.readOrd = append(p.readOrd, t)
}

func (p *partialFunc) recordWrite(t *Tensor) {
	if _, ok := p.written[t.Name]; ok {
		return
	}
	p.written[t.Name] = t
	p.writtenOrd = append(p.writtenOrd, t)
}

// PartitionFunctions walks the graph in the order it was built (which,
// per Build's contract, is topological), accumulating each node's
// stages into a current Function. Per §4.9: "each time a fan-out
// (output connects to multiple consumers) is detected, the current
// function is closed and a new one begun." Each emitted Function's
// inputs are tensors read but not written within it; its outputs are
// tensors written within it.
func (g *Graph) PartitionFunctions() ([]*function.Function, error) {
	var fns []*function.Function
	var cur *partialFunc
	var curNodes []*OpNode

	flush := func() error {
		if cur == nil || len(curNodes) == 0 {
			return nil
		}
		fn, err := sealFunction(cur, curNodes)
		if err != nil {
			return err
		}
		fns = append(fns, fn)
		cur = nil
		curNodes = nil
		return nil
	}

	for _, n := range g.Nodes {
		if cur == nil {
			cur = newPartialFunc(fmt.Sprintf("fn_%d", len(fns)))
		}
		for _, in := range n.Inputs {
			cur.recordRead(in)
		}
		cur.recordWrite(n.Output)
		curNodes = append(curNodes, n)

		if len(n.Output.Consumers) > 1 {
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return fns, nil
}

// sealFunction builds the function.Function for one accumulated group:
// inputs are the read tensors not also written in this group, outputs
// are every written tensor, and every node's stages are added in the
// order their constructors returned them.
func sealFunction(p *partialFunc, nodes []*OpNode) (*function.Function, error) {
	var inputs, outputs []*ir.TensorRef
	for _, t := range p.readOrd {
		if _, writtenHere := p.written[t.Name]; !writtenHere {
			inputs = append(inputs, t.IR())
		}
	}
	for _, t := range p.writtenOrd {
		outputs = append(outputs, t.IR())
	}

	fn := function.New(p.name, inputs, outputs)
	for _, n := range nodes {
		for _, s := range n.Stages() {
			if err := fn.AddStage(s); err != nil {
				return nil, err
			}
		}
	}
	return fn, nil
}

// CompileExpr compiles every partitioned function into its
// internal/ir.FuncNode form (§6 item 6's "CompileExpr(&fns)"
// programmatic entry point), running each Function's schedule-tree
// build, AST lowering, and optimize pipeline in turn.
func CompileExpr(fns []*function.Function) ([]*ir.FuncNode, error) {
	out := make([]*ir.FuncNode, len(fns))
	for i, fn := range fns {
		compiled, err := fn.CompileToExpr()
		if err != nil {
			return nil, err
		}
		out[i] = compiled
	}
	return out, nil
}
