// Package sysvar carries the well-known keys of the sysvar accounts a
// transaction execution context touches directly, and the default
// writer for the instructions sysvar's current-index field.
//
// The full sysvar account layouts belong to the bank/ledger; this
// package only knows the two identities the context needs to
// recognize the instructions sysvar and verify its owner.
package sysvar

import (
	"encoding/binary"

	"github.com/cielu/go-solana-runtime/pubkey"
	"github.com/cielu/go-solana-runtime/txerr"
)

// Registry is the well-known owner of every sysvar account.
var Registry = pubkey.FromBase58("Sysvar1111111111111111111111111111111111111")

// Instructions is the well-known key of the instructions sysvar, the
// account a running program reads to find the instructions of the
// transaction it is executing inside of.
var Instructions = pubkey.FromBase58("Sysvar1nstructions1111111111111111111111111")

// StoreCurrentIndexFunc writes idx, the index of the top-level
// instruction currently executing, into an instructions sysvar
// account's data. The encoding is the writer's concern; a
// TransactionContext treats it as opaque.
type StoreCurrentIndexFunc func(data []byte, idx uint16) error

// StoreCurrentIndex is the default StoreCurrentIndexFunc. It writes a
// little-endian u16 over the trailing two bytes of data.
func StoreCurrentIndex(data []byte, idx uint16) error {
	if len(data) < 2 {
		return txerr.New(txerr.AccountDataTooSmall)
	}
	binary.LittleEndian.PutUint16(data[len(data)-2:], idx)
	return nil
}
