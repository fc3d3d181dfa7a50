// Copyright 2024 The go-solana Authors
// This file is part of the go-solana library.

package txcontext

import (
	"github.com/davecgh/go-spew/spew"

	"github.com/cielu/go-solana-runtime/txerr"
)

// ExecutionRecord is what a TransactionContext deconstructs into once
// execution finishes: the final account values keyed by transaction
// key, the last return data set, and the bookkeeping the bank needs to
// charge for touched accounts and data growth.
type ExecutionRecord struct {
	Accounts            []TransactionAccount
	ReturnData          ReturnData
	TouchedAccountCount uint64
	AccountsResizeDelta int64
}

// Dump renders r for debugging via go-spew.
func (r ExecutionRecord) Dump() string {
	return spew.Sdump(r)
}

// Deconstruct consumes the context and returns its final state. It
// panics if any AccessViolationHandler obtained from this context has
// not been Released, the same unique-ownership contract the original
// enforces by requiring sole ownership of the account pool's
// reference-counted handle at this point.
func (c *TransactionContext) Deconstruct() ExecutionRecord {
	if c.pool.handlerRefs != 0 {
		panic("txcontext: Deconstruct called with an outstanding AccessViolationHandler reference")
	}
	accounts := make([]TransactionAccount, len(c.accountKeys))
	for i, key := range c.accountKeys {
		accounts[i] = TransactionAccount{Key: key, Account: c.pool.slots[i].account}
	}
	return ExecutionRecord{
		Accounts:            accounts,
		ReturnData:          c.returnData,
		TouchedAccountCount: c.pool.TouchedCount(),
		AccountsResizeDelta: c.pool.ResizeDelta(),
	}
}

// DeconstructWithoutKeys returns just the final account values, in
// transaction order, without their keys. Fails with CallDepth if the
// call stack has not fully unwound.
func (c *TransactionContext) DeconstructWithoutKeys() ([]Account, error) {
	if len(c.stack) != 0 {
		return nil, txerr.New(txerr.CallDepth)
	}
	out := make([]Account, len(c.pool.slots))
	for i, slot := range c.pool.slots {
		out[i] = slot.account
	}
	return out, nil
}
