// Copyright 2024 The go-solana Authors
// This file is part of the go-solana library.

// Package pubkey defines the 32-byte account key used to address
// accounts, programs, and sysvars inside a transaction.
package pubkey

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mr-tron/base58"
)

// Length is the number of bytes in a Pubkey.
const Length = 32

// Pubkey identifies an account, program, or sysvar.
type Pubkey [Length]byte

// FromBytes returns a Pubkey with value b, left-padding with zeros if
// b is shorter than Length and truncating from the left if it is longer.
func FromBytes(b []byte) (p Pubkey) {
	p.SetBytes(b)
	return
}

// FromBase58 decodes a base58-encoded key. Malformed input decodes to
// the zero Pubkey, matching the teacher's lenient StrToPublicKey.
func FromBase58(s string) Pubkey {
	d, _ := base58.Decode(s)
	return FromBytes(d)
}

// SetBytes sets p to the value of b.
func (p *Pubkey) SetBytes(b []byte) {
	if len(b) > len(p) {
		b = b[len(b)-Length:]
	}
	copy(p[Length-len(b):], b)
}

// Bytes returns the key as a byte slice.
func (p Pubkey) Bytes() []byte { return p[:] }

// IsZero reports whether p is the zero key.
func (p Pubkey) IsZero() bool { return p == Pubkey{} }

// Cmp compares two keys byte-wise.
func (p Pubkey) Cmp(other Pubkey) int { return bytes.Compare(p[:], other[:]) }

// Base58 returns the base58 string form of the key.
func (p Pubkey) Base58() string { return base58.Encode(p[:]) }

// String returns the base58 string form of the key.
func (p Pubkey) String() string { return p.Base58() }

// MarshalJSON encodes the key as a base58 JSON string.
func (p Pubkey) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Base58())
}

// UnmarshalJSON decodes a base58 JSON string into the key.
func (p *Pubkey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("pubkey: %w", err)
	}
	*p = FromBase58(s)
	return nil
}
