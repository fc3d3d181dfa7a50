// Copyright 2024 The go-solana Authors
// This file is part of the go-solana library.

package txcontext

import (
	"github.com/cielu/go-solana-runtime/pubkey"
	"github.com/cielu/go-solana-runtime/txerr"
)

// Account is the mutable value held in one pool slot: lamport balance,
// owner, data, executable flag and rent epoch. shared marks data that
// may still be aliased by another holder and has not yet been written
// to through this context; the first mutating access unshares it.
type Account struct {
	Lamports   uint64
	Owner      pubkey.Pubkey
	Data       []byte
	Executable bool
	RentEpoch  uint64
	shared     bool
}

// NewAccount constructs an Account. Pass shared true when data is
// loaded read-only from a store other holders may still reference.
func NewAccount(lamports uint64, owner pubkey.Pubkey, data []byte, executable bool, rentEpoch uint64, shared bool) Account {
	return Account{Lamports: lamports, Owner: owner, Data: data, Executable: executable, RentEpoch: rentEpoch, shared: shared}
}

// IsShared reports whether a's data buffer may still be aliased by
// another holder.
func (a *Account) IsShared() bool { return a.shared }

func (a *Account) unshare(headroom int) {
	if !a.shared {
		return
	}
	buf := make([]byte, len(a.Data), len(a.Data)+headroom)
	copy(buf, a.Data)
	a.Data = buf
	a.shared = false
}

func (a *Account) resize(newLen int) {
	switch {
	case newLen <= len(a.Data):
		a.Data = a.Data[:newLen]
	case newLen <= cap(a.Data):
		old := len(a.Data)
		a.Data = a.Data[:newLen]
		for i := old; i < newLen; i++ {
			a.Data[i] = 0
		}
	default:
		buf := make([]byte, newLen)
		copy(buf, a.Data)
		a.Data = buf
	}
}

type borrowState int32

const (
	borrowFree     borrowState = 0
	borrowExclusive borrowState = -1
)

type accountSlot struct {
	borrow  borrowState
	account Account
}

// AccountPool is the fixed-cardinality collection of account slots
// backing a TransactionContext. Borrow state is a plain counter, not
// a mutex: the execution model is single-threaded and cooperative, the
// same assumption the RefCell-based Rust original makes.
type AccountPool struct {
	slots       []accountSlot
	touched     []bool
	resizeDelta int64
	handlerRefs int32
}

func newAccountPool(accounts []Account) *AccountPool {
	slots := make([]accountSlot, len(accounts))
	for i, a := range accounts {
		slots[i] = accountSlot{account: a}
	}
	return &AccountPool{slots: slots, touched: make([]bool, len(accounts))}
}

// Len returns the number of slots in the pool.
func (p *AccountPool) Len() int { return len(p.slots) }

// Touch marks index as having been accessed during this transaction.
// Touching is independent of borrowing: a zero-lamport account passed
// through untouched still doesn't count against the write-access
// bookkeeping the bank performs after execution.
func (p *AccountPool) Touch(index IndexOfAccount) error {
	if int(index) >= len(p.slots) {
		return txerr.New(txerr.NotEnoughAccountKeys)
	}
	p.touched[index] = true
	return nil
}

// TouchedCount returns how many slots have been touched.
func (p *AccountPool) TouchedCount() uint64 {
	var n uint64
	for _, t := range p.touched {
		if t {
			n++
		}
	}
	return n
}

// ResizeDelta returns the running total of positive-minus-negative
// account data growth across the transaction so far.
func (p *AccountPool) ResizeDelta() int64 { return p.resizeDelta }

// CanDataBeResized reports whether resizing an account from oldLen to
// newLen bytes stays within the per-account and per-transaction data
// growth budgets.
func (p *AccountPool) CanDataBeResized(oldLen, newLen int) error {
	if newLen < 0 || newLen > MaxPermittedDataLength {
		return txerr.New(txerr.InvalidRealloc)
	}
	delta := saturatingSubI64(int64(newLen), int64(oldLen))
	if saturatingAddI64(p.resizeDelta, delta) > MaxPermittedAccountsDataAllocationsPerTransaction {
		return txerr.New(txerr.MaxAccountsDataAllocationsExceeded)
	}
	return nil
}

// UpdateResizeDelta records that an account's data changed from oldLen
// to newLen bytes. Callers must have already checked CanDataBeResized.
func (p *AccountPool) UpdateResizeDelta(oldLen, newLen int) {
	p.resizeDelta = saturatingAddI64(p.resizeDelta, saturatingSubI64(int64(newLen), int64(oldLen)))
}

// SharedRef is a live shared borrow of one account slot.
type SharedRef struct {
	pool  *AccountPool
	index IndexOfAccount
}

// Account returns the borrowed account. Valid until Release.
func (r *SharedRef) Account() *Account { return &r.pool.slots[r.index].account }

// Release ends the borrow. Safe to call on a nil *SharedRef.
func (r *SharedRef) Release() {
	if r == nil || r.pool == nil {
		return
	}
	r.pool.slots[r.index].borrow--
	r.pool = nil
}

// ExclusiveRef is a live exclusive borrow of one account slot.
type ExclusiveRef struct {
	pool  *AccountPool
	index IndexOfAccount
}

// Account returns the borrowed account. Valid until Release.
func (r *ExclusiveRef) Account() *Account { return &r.pool.slots[r.index].account }

// Release ends the borrow. Safe to call on a nil *ExclusiveRef.
func (r *ExclusiveRef) Release() {
	if r == nil || r.pool == nil {
		return
	}
	r.pool.slots[r.index].borrow = borrowFree
	r.pool = nil
}

// TryBorrowShared acquires a shared view of the account at index.
// Fails with MissingAccount if index is out of range, or
// AccountBorrowFailed if the slot is already exclusively borrowed.
func (p *AccountPool) TryBorrowShared(index IndexOfAccount) (*SharedRef, error) {
	if int(index) >= len(p.slots) {
		return nil, txerr.New(txerr.MissingAccount)
	}
	slot := &p.slots[index]
	if slot.borrow == borrowExclusive {
		return nil, txerr.New(txerr.AccountBorrowFailed)
	}
	slot.borrow++
	return &SharedRef{pool: p, index: index}, nil
}

// TryBorrowExclusive acquires an exclusive view of the account at
// index. Fails with MissingAccount if index is out of range, or
// AccountBorrowFailed if the slot is already borrowed in any way.
func (p *AccountPool) TryBorrowExclusive(index IndexOfAccount) (*ExclusiveRef, error) {
	if int(index) >= len(p.slots) {
		return nil, txerr.New(txerr.MissingAccount)
	}
	slot := &p.slots[index]
	if slot.borrow != borrowFree {
		return nil, txerr.New(txerr.AccountBorrowFailed)
	}
	slot.borrow = borrowExclusive
	return &ExclusiveRef{pool: p, index: index}, nil
}
