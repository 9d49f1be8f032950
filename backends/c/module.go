package c

import (
	"os"
	"path/filepath"
	"strings"

	"sentra/cerr"
	"sentra/internal/ir"
	"sentra/internal/types"
)

// BuildModule assembles a complete ir.ModuleNode from a set of compiled
// functions (§6 item 7, "Module: make(global_data, functions)"): it
// scans every function body for *ir.CallOnce guards and emits one
// global `Let(bool cond_var = true)` per distinct condition variable
// ahead of the functions, matching §4.7 pass 7's contract that the
// module's global-data section declares every cond_var a CallOnce block
// refers to.
func BuildModule(funcs []*ir.FuncNode) (*ir.ModuleNode, error) {
	seen := map[string]bool{}
	var order []string
	for _, fn := range funcs {
		collector := &condVarCollector{seen: map[string]bool{}}
		collector.Self = collector
		fn.Body.Accept(collector)
		for _, cv := range collector.order {
			if seen[cv] {
				continue
			}
			seen[cv] = true
			order = append(order, cv)
		}
	}

	boolType := types.ScalarType(types.Boolean)
	globals := make([]ir.Node, len(order))
	for i, cv := range order {
		globals[i] = &ir.Let{LHS: cv, RHS: &ir.BoolImm{Val: true}, Typ: boolType}
	}

	return &ir.ModuleNode{GlobalData: &ir.Block{Exprs: globals}, Functions: funcs}, nil
}

// condVarCollector walks a function body collecting every CallOnce's
// CondVarName in first-seen order, without mutating the tree.
type condVarCollector struct {
	ir.DefaultVisitor
	seen  map[string]bool
	order []string
}

func (c *condVarCollector) VisitCallOnce(n *ir.CallOnce) ir.Node {
	if !c.seen[n.CondVarName] {
		c.seen[n.CondVarName] = true
		c.order = append(c.order, n.CondVarName)
	}
	n.Block.Accept(c.Self)
	return n
}

// CompileAsC is the library's file-emitting entry point (§6 item 8):
// it renders module's header (prototypes only) and source (full
// bodies) forms and writes them to headerPath/sourcePath. This is the
// one place in the library that performs file I/O — §5 reserves actual
// file emission to "an external collaborator", and this function is
// that boundary, not the optimizing core.
func CompileAsC(module *ir.ModuleNode, headerPath, sourcePath string) error {
	base := filepath.Base(headerPath)
	guard := strings.TrimSuffix(base, filepath.Ext(base))
	header, err := Emit(guard, module, Options{EmitBody: false})
	if err != nil {
		return err
	}
	source, err := Emit(guard, module, Options{EmitBody: true})
	if err != nil {
		return err
	}
	if err := os.WriteFile(headerPath, []byte(header), 0644); err != nil {
		return cerr.New(cerr.ConfigurationError, headerPath, "writing header: %v", err)
	}
	if err := os.WriteFile(sourcePath, []byte(source), 0644); err != nil {
		return cerr.New(cerr.ConfigurationError, sourcePath, "writing source: %v", err)
	}
	return nil
}
