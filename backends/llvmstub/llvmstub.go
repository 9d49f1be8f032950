// Package llvmstub is an experimental backends.AdditionalBackend that
// emits LLVM IR textual assembly via github.com/llir/llvm. It emits each
// function's signature (one pointer parameter per input and output) and
// an entry block that only returns; it does not translate statements,
// and a body containing anything other than Blocks and Marks (any
// Assign, For, If, SIMD op or CallOnce) is reported as an error. It
// exists to prove out the AdditionalBackend seam — see DESIGN.md.
package llvmstub

import (
	"fmt"

	"github.com/llir/llvm/ir"
	irtypes "github.com/llir/llvm/ir/types"

	"sentra/backends"
	cinnir "sentra/internal/ir"
	"sentra/internal/types"
)

// Backend implements backends.AdditionalBackend over github.com/llir/llvm.
type Backend struct{}

func New() *Backend { return &Backend{} }

func (b *Backend) Name() string                  { return "llvm-stub" }
func (b *Backend) Readiness() backends.Readiness { return backends.Experimental }

// Emit translates every function in module into an LLVM function in a
// fresh module and returns its textual IR (module.String()).
func (b *Backend) Emit(module *cinnir.ModuleNode) (string, error) {
	m := ir.NewModule()
	for _, fn := range module.Functions {
		if err := emitFunc(m, fn); err != nil {
			return "", fmt.Errorf("llvmstub: function %s: %w", fn.Name, err)
		}
	}
	return m.String(), nil
}

func emitFunc(m *ir.Module, fn *cinnir.FuncNode) error {
	params := make([]*ir.Param, 0, len(fn.Inputs)+len(fn.Outputs))
	for _, t := range fn.Inputs {
		params = append(params, ir.NewParam(t.Name, irtypes.NewPointer(llvmScalar(t.ElemType.Prim))))
	}
	for _, t := range fn.Outputs {
		params = append(params, ir.NewParam(t.Name, irtypes.NewPointer(llvmScalar(t.ElemType.Prim))))
	}
	llvmFn := m.NewFunc(fn.Name, irtypes.Void, params...)
	entry := llvmFn.NewBlock("entry")
	if err := emitStmt(entry, fn.Body); err != nil {
		return err
	}
	entry.NewRet(nil)
	return nil
}

// emitStmt accepts only Blocks (recursively) and Marks, neither of which
// emits an instruction; any other construct, including a plain Assign,
// returns an error identifying it, per this backend's Experimental
// readiness.
func emitStmt(blk *ir.Block, n cinnir.Node) error {
	switch t := n.(type) {
	case *cinnir.Block:
		for _, e := range t.Exprs {
			if err := emitStmt(blk, e); err != nil {
				return err
			}
		}
		return nil
	case *cinnir.Mark:
		return nil
	default:
		return fmt.Errorf("construct %T not supported by the experimental LLVM backend", n)
	}
}

func llvmScalar(p types.Primitive) irtypes.Type {
	switch p {
	case types.Int8, types.Uint8:
		return irtypes.I8
	case types.Int32, types.Uint32:
		return irtypes.I32
	case types.Int64, types.Uint64:
		return irtypes.I64
	case types.Float32:
		return irtypes.Float
	case types.Float64:
		return irtypes.Double
	case types.Boolean:
		return irtypes.I1
	default:
		return irtypes.Void
	}
}
