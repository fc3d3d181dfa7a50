package txcontext

import (
	"math/big"
	"math/bits"
)

// Uint128 accumulates the lamport sum across an instruction's
// accounts. It is intentionally narrow: checked addition of one
// uint64 at a time, which is all push/pop's balance check needs. The
// pack carries no general 128-bit arithmetic type (encodbin.Uint128
// is a wire-format encoder, not an arithmetic one), so this is built
// directly on math/bits.
type Uint128 struct {
	Hi, Lo uint64
}

// AddUint64 returns u+v and whether the addition overflowed 128 bits.
// On overflow the original u is returned unchanged.
func (u Uint128) AddUint64(v uint64) (Uint128, bool) {
	lo, carry := bits.Add64(u.Lo, v, 0)
	hi, carry2 := bits.Add64(u.Hi, 0, carry)
	if carry2 != 0 {
		return u, true
	}
	return Uint128{Hi: hi, Lo: lo}, false
}

// Equal reports whether u and other hold the same value.
func (u Uint128) Equal(other Uint128) bool {
	return u.Hi == other.Hi && u.Lo == other.Lo
}

// String renders u in decimal.
func (u Uint128) String() string {
	v := new(big.Int).Lsh(new(big.Int).SetUint64(u.Hi), 64)
	v.Or(v, new(big.Int).SetUint64(u.Lo))
	return v.String()
}
