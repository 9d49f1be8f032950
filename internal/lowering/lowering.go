// Package lowering translates a polyhedral AST (internal/isl.AstNode)
// together with its owning stages into a single internal/ir.Node
// program: the step the teacher's compregister.Compiler plays for its
// own AST, minus register allocation (our target is C source text, not
// bytecode).
package lowering

import (
	"sentra/cerr"
	"sentra/internal/ir"
	"sentra/internal/isl"
	"sentra/internal/stage"
	"sentra/internal/types"
)

var int32Type = types.ScalarType(types.Int32)

type stageSet map[string]*stage.Stage

// Lower walks ast, substituting each stage's own iterator names with the
// rename expression accumulated at that AST position, and concatenates
// statements in tree order. shapes maps tensor name to its declared
// TensorRef (inputs, outputs, and registered intermediates) so write
// references carry their real shape instead of an unranked placeholder.
func Lower(astRoot isl.AstNode, stages []*stage.Stage, shapes map[string]*ir.TensorRef) (ir.Node, error) {
	byName := make(stageSet, len(stages))
	for _, s := range stages {
		byName[s.Name] = s
	}
	return lowerNode(astRoot, byName, shapes)
}

func lowerNode(n isl.AstNode, stages stageSet, shapes map[string]*ir.TensorRef) (ir.Node, error) {
	switch t := n.(type) {
	case *isl.AstFor:
		body, err := lowerNode(t.Body, stages, shapes)
		if err != nil {
			return nil, err
		}
		iter := &ir.Var{Name: t.Iter, Typ: int32Type}
		step := t.Step
		if step == 0 {
			step = 1
		}
		inc, err := ir.MakeArith(ir.Add, iter, &ir.IntImm{Val: step, Typ: int32Type})
		if err != nil {
			return nil, err
		}
		cond, err := ir.MakeCmp(ir.LT, iter, t.Upper)
		if err != nil {
			return nil, err
		}
		return &ir.For{Iter: iter, Init: t.Init, Cond: cond, Inc: inc, Body: body}, nil

	case *isl.AstIf:
		then, err := lowerNode(t.Then, stages, shapes)
		if err != nil {
			return nil, err
		}
		var elseNode ir.Node
		if t.Else != nil {
			elseNode, err = lowerNode(t.Else, stages, shapes)
			if err != nil {
				return nil, err
			}
		}
		return &ir.IfThenElse{Cond: t.Cond, Then: then, Else: elseNode}, nil

	case *isl.AstBlockNode:
		exprs := make([]ir.Node, 0, len(t.Children))
		for _, c := range t.Children {
			e, err := lowerNode(c, stages, shapes)
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, e)
		}
		return &ir.Block{Exprs: exprs}, nil

	case *isl.AstMarkNode:
		child, err := lowerNode(t.Child, stages, shapes)
		if err != nil {
			return nil, err
		}
		if t.ID == "__call_once__" {
			return lowerCallOnce(t, child, stages)
		}
		return &ir.Block{Exprs: []ir.Node{&ir.Mark{Text: t.ID}, child}}, nil

	case *isl.AstUser:
		return lowerUser(t, stages, shapes)
	}
	return nil, cerr.New(cerr.LoweringError, "", "unhandled ast node %T", n)
}

func lowerCallOnce(mark *isl.AstMarkNode, child ir.Node, stages stageSet) (ir.Node, error) {
	user, ok := innermostUser(mark.Child)
	if !ok || len(user.Stages) == 0 {
		return nil, cerr.New(cerr.LoweringError, "", "call-once mark does not wrap a single stage")
	}
	s, ok := stages[user.Stages[0]]
	if !ok {
		return nil, cerr.New(cerr.LookupError, user.Stages[0], "stage not found while lowering call-once block")
	}
	_, condVar := s.IsCallOnce()
	return ir.MakeCallOnce(child, condVar)
}

func innermostUser(n isl.AstNode) (*isl.AstUser, bool) {
	switch t := n.(type) {
	case *isl.AstUser:
		return t, true
	case *isl.AstFor:
		return innermostUser(t.Body)
	case *isl.AstMarkNode:
		return innermostUser(t.Child)
	case *isl.AstBlockNode:
		if len(t.Children) == 1 {
			return innermostUser(t.Children[0])
		}
	}
	return nil, false
}

// lowerUser substitutes a stage's own iterator names inside its recorded
// body/write-target with the accumulated RenameMap, producing the
// Assign statement for the iteration point this AstUser represents.
// Fused stages (len(Stages) > 1) lower to a Block of their assigns, in
// declaration order, sharing one RenameMap.
func lowerUser(u *isl.AstUser, stages stageSet, shapes map[string]*ir.TensorRef) (ir.Node, error) {
	exprs := make([]ir.Node, 0, len(u.Stages))
	for _, name := range u.Stages {
		s, ok := stages[name]
		if !ok {
			return nil, cerr.New(cerr.LookupError, name, "stage referenced by schedule but not registered on the function")
		}
		assign, err := lowerStageAssign(s, u.RenameMap, shapes)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, assign)
	}
	if len(exprs) == 1 {
		return exprs[0], nil
	}
	return &ir.Block{Exprs: exprs}, nil
}

func lowerStageAssign(s *stage.Stage, rename map[string]ir.Node, shapes map[string]*ir.TensorRef) (ir.Node, error) {
	body := substitute(s.Body, rename)
	writeMap, err := s.ExtractWriteAccess()
	if err != nil {
		return nil, err
	}
	iterators := make([]ir.Node, len(writeMap.RangeExprs))
	for i, e := range writeMap.RangeExprs {
		iterators[i] = substitute(e.ToIR(), rename)
	}
	target, ok := shapes[writeMap.RanTuple]
	if !ok {
		return nil, cerr.New(cerr.LookupError, writeMap.RanTuple, "write target is neither a function input/output nor a registered intermediate")
	}
	if len(iterators) != target.Rank() {
		return nil, cerr.New(cerr.ShapeError, writeMap.RanTuple, "write has %d indices, tensor rank is %d", len(iterators), target.Rank())
	}
	ref := &ir.Reference{Target: target, Iterators: iterators, Typ: target.ElemType}
	assign := &ir.Assign{Op: s.WriteOp, LHS: ref, RHS: body}
	// SetCond predicates narrow the domain: guard the write with their
	// conjunction, in the same renamed iterators.
	var cond ir.Node
	for _, c := range s.Domain.Constraints {
		pred := substitute(c.Expr, rename)
		if cond == nil {
			cond = pred
			continue
		}
		if cond, err = ir.MakeLogical(ir.And, cond, pred); err != nil {
			return nil, err
		}
	}
	if cond == nil {
		return assign, nil
	}
	return &ir.IfThenElse{Cond: cond, Then: assign}, nil
}

// substitute replaces every Var named in rename with its bound
// expression, leaving everything else structurally unchanged.
func substitute(n ir.Node, rename map[string]ir.Node) ir.Node {
	sv := &substVisitor{rename: rename}
	sv.Self = sv
	return n.Accept(sv)
}

type substVisitor struct {
	ir.DefaultVisitor
	rename map[string]ir.Node
}

func (v *substVisitor) VisitVar(n *ir.Var) ir.Node {
	if repl, ok := v.rename[n.Name]; ok {
		return repl
	}
	return n
}
