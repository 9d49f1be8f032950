package isl

import (
	"sort"

	"sentra/internal/types"
)

var int32Type = types.ScalarType(types.Int32)

// sortedKeys returns m's keys in a deterministic (lexical) order so
// rendered affine expressions don't vary run to run — schedule and
// code-gen determinism depend on this (see §8's determinism property).
func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
