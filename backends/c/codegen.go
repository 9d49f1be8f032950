// Package c is the C source code generator (§4.8): it renders an
// ir.ModuleNode (or a single ir.FuncNode) as free-standing ISO C99
// source with SIMD intrinsics, in the exact fixed textual form the
// corpus's original (Apache CINN) backend produces. The printer is a
// type switch over the node variants, modelled on internal/ir.Printer's
// output shape.
package c

import (
	"fmt"
	"strings"

	"sentra/cerr"
	"sentra/internal/ir"
	"sentra/internal/types"
)

const preamble = `#include <stdio.h>
#include <math.h>
#include <simd.h>
#include <immintrin.h>

typedef char cinn_int8_t;
typedef int cinn_int32_t;
typedef long long cinn_int64_t;
typedef unsigned char cinn_uint8_t;
typedef unsigned int cinn_uint32_t;
typedef unsigned long long cinn_uint64_t;
typedef float cinn_float32_t;
typedef bool cinn_boolean_t;

#define cinn_min(a,b) ((a) < (b) ? (a) : (b))
#define cinn_max(a,b) ((a) > (b) ? (a) : (b))
#define cinn_copy(a,b,size) memcpy((b),(a),(size))
`

// Options controls what Emit renders for a function.
type Options struct {
	// EmitBody, when false, renders only the prototype (for header
	// generation).
	EmitBody bool
}

// Emit renders module as a complete C translation unit: include-guard,
// preamble, global buffer/flag declarations, then each function.
func Emit(guardName string, module *ir.ModuleNode, opts Options) (string, error) {
	var sb strings.Builder
	guard := sanitizeGuard(guardName)
	sb.WriteString(fmt.Sprintf("#ifndef %s\n#define %s\n\n", guard, guard))
	sb.WriteString(preamble)
	sb.WriteString("\n")

	var globals []ir.Node
	if module.GlobalData != nil {
		globals = module.GlobalData.Exprs
	}
	for _, g := range globals {
		line, err := renderGlobal(g)
		if err != nil {
			return "", err
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	if len(globals) > 0 {
		sb.WriteString("\n")
	}

	for _, fn := range module.Functions {
		src, err := EmitFunc(fn, opts)
		if err != nil {
			return "", err
		}
		sb.WriteString(src)
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("#endif /* %s */\n", guard))
	return sb.String(), nil
}

func sanitizeGuard(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToUpper(name) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('_')
		}
	}
	sb.WriteString("_H")
	return sb.String()
}

func renderGlobal(g ir.Node) (string, error) {
	let, ok := g.(*ir.Let)
	if !ok {
		return "", cerr.New(cerr.LoweringError, "", "module global data must be Let nodes, got %T", g)
	}
	p := &printer{}
	val := p.expr(let.RHS)
	return fmt.Sprintf("static %s %s = %s;", cType(let.Typ), let.LHS, val), nil
}

// EmitFunc renders a single function's prototype (and, if
// opts.EmitBody, its body).
func EmitFunc(fn *ir.FuncNode, opts Options) (string, error) {
	params := make([]string, 0, len(fn.Inputs)+len(fn.Outputs))
	for _, t := range fn.Inputs {
		params = append(params, fmt.Sprintf("%s *%s", cType(t.ElemType), t.Name))
	}
	for _, t := range fn.Outputs {
		params = append(params, fmt.Sprintf("%s *%s", cType(t.ElemType), t.Name))
	}
	proto := fmt.Sprintf("void %s(%s)", fn.Name, strings.Join(params, ", "))
	if !opts.EmitBody {
		return proto + ";", nil
	}
	p := &printer{}
	body := p.stmt(fn.Body, 1)
	return fmt.Sprintf("%s {\n%s}\n", proto, body), nil
}

func cType(t types.Type) string {
	base := scalarCType(t.Prim)
	switch t.Composite {
	case types.SIMD128:
		return "__m128"
	case types.SIMD256:
		return "__m256"
	default:
		return base
	}
}

func scalarCType(p types.Primitive) string {
	switch p {
	case types.Int8:
		return "cinn_int8_t"
	case types.Int32:
		return "cinn_int32_t"
	case types.Int64:
		return "cinn_int64_t"
	case types.Uint8:
		return "cinn_uint8_t"
	case types.Uint32:
		return "cinn_uint32_t"
	case types.Uint64:
		return "cinn_uint64_t"
	case types.Float32:
		return "cinn_float32_t"
	case types.Float64:
		return "double"
	case types.Boolean:
		return "cinn_boolean_t"
	default:
		return "void"
	}
}
