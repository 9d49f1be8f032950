package optimize

import "sentra/internal/ir"

// Dump renders n via ir.Print, for "dump-ir"-style diagnostics between
// pipeline stages (§8's debug-display testable property).
func Dump(n ir.Node) string {
	return ir.Print(n)
}
