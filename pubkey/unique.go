package pubkey

import (
	"crypto/sha256"
	"encoding/binary"
	"sync/atomic"
)

// uniqueCounter backs NewUnique, mirroring the monotonic counter behind
// Pubkey::new_unique() in the runtime this package's callers are tested
// against: every call returns a distinct, deterministic key without
// reaching for system randomness.
var uniqueCounter uint64

// NewUnique returns a fresh, deterministic Pubkey. Successive calls
// never repeat within a process. Intended for tests that need "some
// account, doesn't matter which" without pulling in a random source.
func NewUnique() Pubkey {
	n := atomic.AddUint64(&uniqueCounter, 1)
	var seed [8]byte
	binary.LittleEndian.PutUint64(seed[:], n)
	h := sha256.Sum256(seed[:])
	return Pubkey(h)
}
