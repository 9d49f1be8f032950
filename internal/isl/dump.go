package isl

import (
	"fmt"
	"strings"
)

// DumpTree renders a schedule tree as an indented outline, one node per
// line, for the "dump-schedule" diagnostic (SPEC_FULL.md §6) — grounded
// on internal/optimize.Dump's role as a debug-only, non-mutating render
// of compiler-internal state.
func DumpTree(root *Domain) string {
	var sb strings.Builder
	dumpNode(&sb, root, 0)
	return sb.String()
}

func dumpNode(sb *strings.Builder, n STNode, depth int) {
	ind := strings.Repeat("  ", depth)
	switch t := n.(type) {
	case *Domain:
		sb.WriteString(ind + "domain\n")
		dumpNode(sb, t.Child, depth+1)
	case *ContextNode:
		sb.WriteString(ind + "context\n")
		dumpNode(sb, t.Child, depth+1)
	case *ExtensionNode:
		sb.WriteString(ind + "extension\n")
		dumpNode(sb, t.Child, depth+1)
	case *MarkNode:
		sb.WriteString(fmt.Sprintf("%smark(%s)\n", ind, t.ID))
		dumpNode(sb, t.Child, depth+1)
	case *Sequence:
		sb.WriteString(ind + "sequence\n")
		for _, c := range t.Children {
			dumpNode(sb, c, depth+1)
		}
	case *SetBranch:
		sb.WriteString(ind + "set\n")
		for _, c := range t.Children {
			dumpNode(sb, c, depth+1)
		}
	case *Filter:
		sb.WriteString(fmt.Sprintf("%sfilter%v\n", ind, t.Stages))
		dumpNode(sb, t.Child, depth+1)
	case *BandNode:
		sb.WriteString(fmt.Sprintf("%sband %s\n", ind, dumpBand(t.B)))
		dumpNode(sb, t.Child, depth+1)
	case *Leaf:
		sb.WriteString(fmt.Sprintf("%sleaf%v\n", ind, t.Stages))
	default:
		sb.WriteString(ind + "?\n")
	}
}

func dumpBand(b *Band) string {
	var parts []string
	for _, d := range b.Dims {
		parts = append(parts, fmt.Sprintf("%s=[%d,%d)", d.IterName, d.Lo, d.Hi))
	}
	extra := ""
	if len(b.TileSizes) > 0 {
		extra += fmt.Sprintf(" tile=%v", b.TileSizes)
	}
	if b.Separate {
		extra += " separate"
	}
	if b.UnrollInner {
		extra += " unroll-inner"
	}
	if b.VectorizeWidth > 0 {
		extra += fmt.Sprintf(" vectorize=%d", b.VectorizeWidth)
	}
	return "[" + strings.Join(parts, " ") + "]" + extra
}
