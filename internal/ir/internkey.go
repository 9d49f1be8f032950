package ir

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// InternKey hashes n's canonical printed form into a fixed-width key
// suitable for the fold-reference-indices pass's frequency table: a
// cheaper comparison/hash than the full printed string, and an
// independent cross-check of structural identity alongside it.
func InternKey(n Node) string {
	sum := blake2b.Sum256([]byte(Print(n)))
	return hex.EncodeToString(sum[:])
}
