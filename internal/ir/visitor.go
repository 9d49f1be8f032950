package ir

// DefaultVisitor implements the default "descend into children and
// rebuild" traversal for every variant. Passes that only need to
// special-case a handful of variants embed *DefaultVisitor, set Self to
// themselves, and override just those methods; the rest fall back to
// this recursive rebuild. Self exists because Go has no virtual method
// dispatch through an embedded struct — without it, recursive calls
// from here would bypass an embedder's overrides.
type DefaultVisitor struct {
	Self Visitor
}

func (d *DefaultVisitor) self() Visitor {
	if d.Self != nil {
		return d.Self
	}
	return d
}

func (d *DefaultVisitor) VisitIntImm(n *IntImm) Node     { c := *n; return &c }
func (d *DefaultVisitor) VisitFloatImm(n *FloatImm) Node { c := *n; return &c }
func (d *DefaultVisitor) VisitBoolImm(n *BoolImm) Node   { c := *n; return &c }
func (d *DefaultVisitor) VisitConst(n *ConstNode) Node   { c := *n; return &c }
func (d *DefaultVisitor) VisitVar(n *Var) Node           { c := *n; return &c }
func (d *DefaultVisitor) VisitTensorRef(n *TensorRef) Node {
	s := d.self()
	newShape := make([]Node, len(n.Shape))
	for i, dim := range n.Shape {
		newShape[i] = dim.Accept(s)
	}
	return &TensorRef{Name: n.Name, Shape: newShape, ElemType: n.ElemType}
}
func (d *DefaultVisitor) VisitArrayRef(n *ArrayRef) Node {
	s := d.self()
	var size Node
	if n.Size != nil {
		size = n.Size.Accept(s)
	}
	return &ArrayRef{Name: n.Name, Size: size, Typ: n.Typ}
}

func (d *DefaultVisitor) VisitArith(n *Arith) Node {
	s := d.self()
	return &Arith{Op: n.Op, A: n.A.Accept(s), B: n.B.Accept(s), Typ: n.Typ}
}
func (d *DefaultVisitor) VisitCmp(n *Cmp) Node {
	s := d.self()
	return &Cmp{Op: n.Op, A: n.A.Accept(s), B: n.B.Accept(s)}
}
func (d *DefaultVisitor) VisitLogical(n *Logical) Node {
	s := d.self()
	return &Logical{Op: n.Op, A: n.A.Accept(s), B: n.B.Accept(s)}
}
func (d *DefaultVisitor) VisitUnary(n *Unary) Node {
	s := d.self()
	return &Unary{Op: n.Op, A: n.A.Accept(s), Typ: n.Typ}
}
func (d *DefaultVisitor) VisitMinMax(n *MinMax) Node {
	s := d.self()
	return &MinMax{Op: n.Op, A: n.A.Accept(s), B: n.B.Accept(s), Typ: n.Typ}
}

func (d *DefaultVisitor) VisitReference(n *Reference) Node {
	s := d.self()
	newIters := make([]Node, len(n.Iterators))
	for i, it := range n.Iterators {
		newIters[i] = it.Accept(s)
	}
	return &Reference{Target: n.Target.Accept(s), Iterators: newIters, Typ: n.Typ}
}

func (d *DefaultVisitor) VisitFor(n *For) Node {
	s := d.self()
	var iter *Var
	if n.Iter != nil {
		iter = n.Iter.Accept(s).(*Var)
	}
	return &For{
		Init: n.Init.Accept(s),
		Cond: n.Cond.Accept(s),
		Inc:  n.Inc.Accept(s),
		Body: n.Body.Accept(s),
		Iter: iter,
	}
}

func (d *DefaultVisitor) VisitIfThenElse(n *IfThenElse) Node {
	s := d.self()
	var elseBranch Node
	if n.Else != nil {
		elseBranch = n.Else.Accept(s)
	}
	return &IfThenElse{Cond: n.Cond.Accept(s), Then: n.Then.Accept(s), Else: elseBranch}
}

func (d *DefaultVisitor) VisitBlock(n *Block) Node {
	s := d.self()
	newExprs := make([]Node, len(n.Exprs))
	for i, e := range n.Exprs {
		newExprs[i] = e.Accept(s)
	}
	return &Block{Exprs: newExprs}
}

func (d *DefaultVisitor) VisitCall(n *Call) Node {
	s := d.self()
	newArgs := make([]Node, len(n.Args))
	for i, a := range n.Args {
		newArgs[i] = a.Accept(s)
	}
	return &Call{Name: n.Name, Args: newArgs, Typ: n.Typ}
}

func (d *DefaultVisitor) VisitFuncNode(n *FuncNode) Node {
	s := d.self()
	return &FuncNode{Name: n.Name, Inputs: n.Inputs, Outputs: n.Outputs, Body: n.Body.Accept(s)}
}

func (d *DefaultVisitor) VisitCallOnce(n *CallOnce) Node {
	s := d.self()
	return &CallOnce{Block: n.Block.Accept(s), CondVarName: n.CondVarName}
}

func (d *DefaultVisitor) VisitAssign(n *Assign) Node {
	s := d.self()
	lhs := n.LHS.Accept(s).(*Reference)
	return &Assign{Op: n.Op, LHS: lhs, RHS: n.RHS.Accept(s)}
}

func (d *DefaultVisitor) VisitLet(n *Let) Node {
	s := d.self()
	return &Let{LHS: n.LHS, RHS: n.RHS.Accept(s), Typ: n.Typ}
}

func (d *DefaultVisitor) VisitSIMDOpr(n *SIMDOpr) Node {
	s := d.self()
	var b Node
	if n.B != nil {
		b = n.B.Accept(s)
	}
	return &SIMDOpr{Width: n.Width, Op: n.Op, A: n.A.Accept(s), B: b, Typ: n.Typ}
}

func (d *DefaultVisitor) VisitMark(n *Mark) Node { c := *n; return &c }

func (d *DefaultVisitor) VisitIdentity(n *Identity) Node {
	s := d.self()
	return &Identity{Expr: n.Expr.Accept(s), Tag: n.Tag}
}

func (d *DefaultVisitor) VisitCast(n *Cast) Node {
	s := d.self()
	return &Cast{Expr: n.Expr.Accept(s), ToPrimitive: n.ToPrimitive, ToComposite: n.ToComposite}
}

func (d *DefaultVisitor) VisitAllocate(n *Allocate) Node {
	s := d.self()
	return &Allocate{BufferName: n.BufferName, Size: n.Size.Accept(s), Dtype: n.Dtype}
}

func (d *DefaultVisitor) VisitBufferOpr(n *BufferOpr) Node {
	s := d.self()
	return &BufferOpr{Name: n.Name, Op: n.Op, Size: n.Size.Accept(s), Dtype: n.Dtype}
}

func (d *DefaultVisitor) VisitModuleNode(n *ModuleNode) Node {
	s := d.self()
	newGlobal := n.GlobalData.Accept(s).(*Block)
	newFuncs := make([]*FuncNode, len(n.Functions))
	for i, f := range n.Functions {
		newFuncs[i] = f.Accept(s).(*FuncNode)
	}
	return &ModuleNode{GlobalData: newGlobal, Functions: newFuncs}
}

// DeepCopy produces a structurally identical tree with fresh ownership.
func DeepCopy(n Node) Node {
	v := &DefaultVisitor{}
	v.Self = v
	return n.Accept(v)
}
