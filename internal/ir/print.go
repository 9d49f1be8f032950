package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// Printer produces the stable canonical textual form used both for
// debugging and as the cache key for sub-expression folding (§4.7.3).
// It implements Visitor directly rather than embedding DefaultVisitor:
// every variant needs bespoke text, not a generic rebuild.
type Printer struct {
	sb     strings.Builder
	indent int
}

// Print renders n to its canonical textual form.
func Print(n Node) string {
	p := &Printer{}
	n.Accept(p)
	return p.sb.String()
}

// Equal reports structural equality via the canonical textual form —
// the cheapest correct implementation per §4.1; callers wanting
// structural equality without printing may upgrade this later.
func Equal(a, b Node) bool {
	return Print(a) == Print(b)
}

func (p *Printer) writeIndent() {
	p.sb.WriteString(strings.Repeat("  ", p.indent))
}

func (p *Printer) write(format string, args ...interface{}) {
	fmt.Fprintf(&p.sb, format, args...)
}

func (p *Printer) sub(n Node) string {
	inner := &Printer{indent: p.indent}
	n.Accept(inner)
	return inner.sb.String()
}

func (p *Printer) VisitIntImm(n *IntImm) Node {
	p.write("%d", n.Val)
	return n
}

func (p *Printer) VisitFloatImm(n *FloatImm) Node {
	p.write("%s", strconv.FormatFloat(n.Val, 'g', -1, 64))
	return n
}

func (p *Printer) VisitBoolImm(n *BoolImm) Node {
	p.write("%t", n.Val)
	return n
}

func (p *Printer) VisitConst(n *ConstNode) Node {
	if n.Value != nil {
		p.write("%s(=%d)", n.Name, *n.Value)
	} else {
		p.write("%s", n.Name)
	}
	return n
}

func (p *Printer) VisitVar(n *Var) Node {
	p.write("%s", n.Name)
	return n
}

func (p *Printer) VisitTensorRef(n *TensorRef) Node {
	p.write("%s", n.Name)
	return n
}

func (p *Printer) VisitArrayRef(n *ArrayRef) Node {
	p.write("%s", n.Name)
	return n
}

func (p *Printer) VisitArith(n *Arith) Node {
	p.write("(%s %s %s)", p.sub(n.A), n.Op, p.sub(n.B))
	return n
}

func (p *Printer) VisitCmp(n *Cmp) Node {
	p.write("(%s %s %s)", p.sub(n.A), n.Op, p.sub(n.B))
	return n
}

func (p *Printer) VisitLogical(n *Logical) Node {
	p.write("(%s %s %s)", p.sub(n.A), n.Op, p.sub(n.B))
	return n
}

func (p *Printer) VisitUnary(n *Unary) Node {
	if n.Op == ExpOp {
		p.write("exp(%s)", p.sub(n.A))
	} else {
		p.write("(%s%s)", n.Op, p.sub(n.A))
	}
	return n
}

func (p *Printer) VisitMinMax(n *MinMax) Node {
	p.write("%s(%s,%s)", n.Op, p.sub(n.A), p.sub(n.B))
	return n
}

func (p *Printer) VisitReference(n *Reference) Node {
	parts := make([]string, len(n.Iterators))
	for i, it := range n.Iterators {
		parts[i] = p.sub(it)
	}
	p.write("%s[%s]", p.sub(n.Target), strings.Join(parts, ","))
	return n
}

func (p *Printer) VisitFor(n *For) Node {
	iterName := ""
	if n.Iter != nil {
		iterName = n.Iter.Name
	}
	p.write("for(%s, %s, %s, %s) { ", iterName, p.sub(n.Init), p.sub(n.Cond), p.sub(n.Inc))
	p.indent++
	n.Body.Accept(p)
	p.indent--
	p.write(" }")
	return n
}

func (p *Printer) VisitIfThenElse(n *IfThenElse) Node {
	p.write("if (%s) { ", p.sub(n.Cond))
	n.Then.Accept(p)
	p.write(" }")
	if n.Else != nil {
		p.write(" else { ")
		n.Else.Accept(p)
		p.write(" }")
	}
	return n
}

func (p *Printer) VisitBlock(n *Block) Node {
	for i, e := range n.Exprs {
		if i > 0 {
			p.sb.WriteString("\n")
			p.writeIndent()
		}
		e.Accept(p)
	}
	return n
}

func (p *Printer) VisitCall(n *Call) Node {
	parts := make([]string, len(n.Args))
	for i, a := range n.Args {
		parts[i] = p.sub(a)
	}
	p.write("%s(%s)", n.Name, strings.Join(parts, ","))
	return n
}

func (p *Printer) VisitFuncNode(n *FuncNode) Node {
	in := make([]string, len(n.Inputs))
	for i, t := range n.Inputs {
		in[i] = t.Name
	}
	out := make([]string, len(n.Outputs))
	for i, t := range n.Outputs {
		out[i] = t.Name
	}
	p.write("function %s(in: %s; out: %s) { ", n.Name, strings.Join(in, ","), strings.Join(out, ","))
	n.Body.Accept(p)
	p.write(" }")
	return n
}

func (p *Printer) VisitCallOnce(n *CallOnce) Node {
	p.write("call_once(%s) { ", n.CondVarName)
	n.Block.Accept(p)
	p.write(" }")
	return n
}

func (p *Printer) VisitAssign(n *Assign) Node {
	p.write("%s %s %s", p.sub(n.LHS), n.Op, p.sub(n.RHS))
	return n
}

func (p *Printer) VisitLet(n *Let) Node {
	p.write("let %s %s = %s", n.Typ, n.LHS, p.sub(n.RHS))
	return n
}

func simdOpName(op SIMDOp) string {
	switch op {
	case SIMDAdd:
		return "add"
	case SIMDSub:
		return "sub"
	case SIMDMul:
		return "mul"
	case SIMDDiv:
		return "div"
	case SIMDLoad:
		return "load"
	case SIMDStore:
		return "store"
	default:
		return "?"
	}
}

func (p *Printer) VisitSIMDOpr(n *SIMDOpr) Node {
	switch n.Op {
	case SIMDLoad:
		p.write("simd_load%d(%s)", n.Width, p.sub(n.A))
	case SIMDStore:
		p.write("simd_store%d(%s,%s)", n.Width, p.sub(n.A), p.sub(n.B))
	default:
		p.write("simd_%s_%d(%s,%s)", simdOpName(n.Op), n.Width, p.sub(n.A), p.sub(n.B))
	}
	return n
}

func (p *Printer) VisitMark(n *Mark) Node {
	p.write("/* %s */", n.Text)
	return n
}

func (p *Printer) VisitIdentity(n *Identity) Node {
	if n.Tag == ReferenceAddressTag {
		p.write("&%s", p.sub(n.Expr))
	} else {
		p.write("%s", p.sub(n.Expr))
	}
	return n
}

func (p *Printer) VisitCast(n *Cast) Node {
	p.write("cast<%s,%s>(%s)", n.ToPrimitive, n.ToComposite, p.sub(n.Expr))
	return n
}

func (p *Printer) VisitAllocate(n *Allocate) Node {
	p.write("allocate %s[%s]:%s", n.BufferName, p.sub(n.Size), n.Dtype)
	return n
}

func bufferOpName(op BufferOp) string {
	switch op {
	case BufferCreate:
		return "create"
	case BufferCreateAssign:
		return "create_assign"
	case BufferReference:
		return "reference"
	case BufferDestroy:
		return "destroy"
	default:
		return "?"
	}
}

func (p *Printer) VisitBufferOpr(n *BufferOpr) Node {
	p.write("buffer_%s(%s, %s, %s)", bufferOpName(n.Op), n.Name, p.sub(n.Size), n.Dtype)
	return n
}

func (p *Printer) VisitModuleNode(n *ModuleNode) Node {
	p.write("module {\n")
	p.indent++
	p.writeIndent()
	n.GlobalData.Accept(p)
	for _, f := range n.Functions {
		p.sb.WriteString("\n")
		p.writeIndent()
		f.Accept(p)
	}
	p.indent--
	p.sb.WriteString("\n}")
	return n
}
