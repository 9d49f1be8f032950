package c

import (
	"fmt"
	"strconv"
	"strings"

	"sentra/internal/ir"
)

// printer renders ir.Node trees as C statements/expressions in the
// fixed textual forms required by §4.8. It dispatches with a type
// switch over the node variants rather than through ir.Visitor, because
// every variant needs bespoke C syntax.
type printer struct{}

func (p *printer) expr(n ir.Node) string {
	switch t := n.(type) {
	case *ir.IntImm:
		return strconv.FormatInt(t.Val, 10)
	case *ir.FloatImm:
		return strconv.FormatFloat(t.Val, 'g', -1, 64) + "f"
	case *ir.BoolImm:
		if t.Val {
			return "true"
		}
		return "false"
	case *ir.ConstNode:
		if t.Value != nil {
			return strconv.FormatInt(*t.Value, 10)
		}
		return t.Name
	case *ir.Var:
		return t.Name
	case *ir.TensorRef:
		return t.Name
	case *ir.ArrayRef:
		return t.Name
	case *ir.Arith:
		return fmt.Sprintf("(%s %s %s)", p.expr(t.A), t.Op.String(), p.expr(t.B))
	case *ir.Cmp:
		return fmt.Sprintf("(%s %s %s)", p.expr(t.A), t.Op.String(), p.expr(t.B))
	case *ir.Logical:
		return fmt.Sprintf("(%s %s %s)", p.expr(t.A), t.Op.String(), p.expr(t.B))
	case *ir.Unary:
		if t.Op == ir.ExpOp {
			return fmt.Sprintf("exp(%s)", p.expr(t.A))
		}
		return fmt.Sprintf("(%s%s)", t.Op.String(), p.expr(t.A))
	case *ir.MinMax:
		return fmt.Sprintf("cinn_%s(%s, %s)", t.Op.String(), p.expr(t.A), p.expr(t.B))
	case *ir.Reference:
		return fmt.Sprintf("%s[%s]", p.expr(t.Target), p.exprList(t.Iterators))
	case *ir.Call:
		return fmt.Sprintf("%s(%s)", t.Name, p.exprList(t.Args))
	case *ir.SIMDOpr:
		return p.simd(t)
	case *ir.Identity:
		if t.Tag == ir.ReferenceAddressTag {
			return "&" + p.expr(t.Expr)
		}
		return p.expr(t.Expr)
	case *ir.Cast:
		return fmt.Sprintf("((%s)%s)", cType(t.Type()), p.expr(t.Expr))
	case *ir.Let:
		return t.LHS
	}
	return fmt.Sprintf("/* unsupported expr %T */", n)
}

func (p *printer) exprList(nodes []ir.Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = p.expr(n)
	}
	return strings.Join(parts, ", ")
}

// simd renders Add/Sub/Mul/Div/Load/Store per §4.8: _mm256_* for width 8,
// _mm_* for width 4.
func (p *printer) simd(n *ir.SIMDOpr) string {
	prefix := "_mm_"
	if n.Width == 8 {
		prefix = "_mm256_"
	}
	switch n.Op {
	case ir.SIMDAdd:
		return fmt.Sprintf("%sadd_ps(%s, %s)", prefix, p.expr(n.A), p.expr(n.B))
	case ir.SIMDSub:
		return fmt.Sprintf("%ssub_ps(%s, %s)", prefix, p.expr(n.A), p.expr(n.B))
	case ir.SIMDMul:
		return fmt.Sprintf("%smul_ps(%s, %s)", prefix, p.expr(n.A), p.expr(n.B))
	case ir.SIMDDiv:
		return fmt.Sprintf("%sdiv_ps(%s, %s)", prefix, p.expr(n.A), p.expr(n.B))
	case ir.SIMDLoad:
		return fmt.Sprintf("%sload_ps(%s)", prefix, p.expr(n.A))
	case ir.SIMDStore:
		return fmt.Sprintf("%sstore_ps(%s, %s)", prefix, p.expr(n.A), p.expr(n.B))
	}
	return "/* unsupported simd op */"
}

func indent(depth int) string { return strings.Repeat("  ", depth) }

// stmt renders n as one or more C statements at the given indent depth.
func (p *printer) stmt(n ir.Node, depth int) string {
	ind := indent(depth)
	switch t := n.(type) {
	case *ir.Block:
		var sb strings.Builder
		for _, e := range t.Exprs {
			sb.WriteString(p.stmt(e, depth))
		}
		return sb.String()
	case *ir.Assign:
		return fmt.Sprintf("%s%s %s %s;\n", ind, p.expr(t.LHS), t.Op.String(), p.expr(t.RHS))
	case *ir.Let:
		return fmt.Sprintf("%s%s %s = %s;\n", ind, cType(t.Typ), t.LHS, p.expr(t.RHS))
	case *ir.For:
		header := fmt.Sprintf("for (int %s = %s; (%s); %s += 1)", t.Iter.Name, p.expr(t.Init), p.expr(t.Cond), t.Iter.Name)
		return fmt.Sprintf("%s%s {\n%s%s}\n", ind, header, p.stmt(t.Body, depth+1), ind)
	case *ir.IfThenElse:
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("%sif (%s) {\n%s%s}\n", ind, p.expr(t.Cond), p.stmt(t.Then, depth+1), ind))
		if t.Else != nil {
			sb.WriteString(fmt.Sprintf("%selse {\n%s%s}\n", ind, p.stmt(t.Else, depth+1), ind))
		}
		return sb.String()
	case *ir.CallOnce:
		body := p.stmt(t.Block, depth+1)
		return fmt.Sprintf("%sif (%s) {\n%s%s%s = false;\n%s}\n", ind, t.CondVarName, body, indent(depth+1), t.CondVarName, ind)
	case *ir.Mark:
		return fmt.Sprintf("%s/* %s */\n", ind, t.Text)
	case *ir.Call:
		return fmt.Sprintf("%s%s;\n", ind, p.expr(t))
	case *ir.Allocate:
		return fmt.Sprintf("%s%s %s[%s];\n", ind, cType(t.Dtype), t.BufferName, p.expr(t.Size))
	case *ir.BufferOpr:
		return fmt.Sprintf("%s/* buffer %s: %s */\n", ind, t.Name, bufferOpText(t.Op))
	case *ir.SIMDOpr:
		return fmt.Sprintf("%s%s;\n", ind, p.simd(t))
	}
	return fmt.Sprintf("%s/* unsupported stmt %T */\n", ind, n)
}

func bufferOpText(op ir.BufferOp) string {
	switch op {
	case ir.BufferCreate:
		return "create"
	case ir.BufferCreateAssign:
		return "create_assign"
	case ir.BufferReference:
		return "reference"
	case ir.BufferDestroy:
		return "destroy"
	}
	return "unknown"
}
