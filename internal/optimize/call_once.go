package optimize

import (
	"sentra/cerr"
	"sentra/internal/ir"
)

// ValidateCallOnceGuards walks the lowered body checking that every
// CallOnce's CondVarName is used by exactly one CallOnce block (a
// shared flag would make two unrelated stages race on the same guard)
// and collapses a CallOnce directly wrapping another CallOnce with the
// same condition variable, which a fused call-once cluster can produce.
// The actual boolean flag + if-guard is emitted later, in backends/c,
// per the contract documented on ir.CallOnce.
func ValidateCallOnceGuards(n ir.Node) (ir.Node, error) {
	cv := &callOnceVisitor{seen: map[string]bool{}}
	cv.Self = cv
	out := n.Accept(cv)
	if cv.err != nil {
		return nil, cv.err
	}
	return out, nil
}

type callOnceVisitor struct {
	ir.DefaultVisitor
	seen map[string]bool
	err  error
}

func (v *callOnceVisitor) self() ir.Visitor { return v }

func (v *callOnceVisitor) VisitCallOnce(n *ir.CallOnce) ir.Node {
	if inner, ok := n.Block.(*ir.CallOnce); ok && inner.CondVarName == n.CondVarName {
		return inner.Accept(v.self())
	}
	if v.seen[n.CondVarName] {
		v.err = cerr.New(cerr.ConfigurationError, n.CondVarName, "call-once condition variable reused by more than one guard")
		return n
	}
	v.seen[n.CondVarName] = true
	body := n.Block.Accept(v.self())
	out, err := ir.MakeCallOnce(body, n.CondVarName)
	if err != nil {
		v.err = err
		return n
	}
	return out
}
