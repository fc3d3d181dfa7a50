// Copyright 2024 The go-solana Authors
// This file is part of the go-solana library.

package txcontext

import (
	"github.com/cielu/go-solana-runtime/pubkey"
	"github.com/cielu/go-solana-runtime/txerr"
)

// BorrowedAccount is a gated handle onto one account, held for the
// duration of one instruction's access to it. Every mutation passes
// through a permission check mirroring what the runtime enforces on
// behalf of a program: only the owning program may change data or
// owner, only writable accounts may change at all, and an executable
// account is frozen against lamport, data, and owner changes once the
// legacy checks are enabled.
type BorrowedAccount struct {
	ctx   *TransactionContext
	frame *InstructionFrame
	ref   *ExclusiveRef

	indexInTransaction         IndexOfAccount
	indexInInstructionAccounts *IndexOfAccount
}

// Release ends this handle's exclusive borrow of the underlying
// account. Safe to call more than once.
func (b *BorrowedAccount) Release() {
	if b.ref != nil {
		b.ref.Release()
		b.ref = nil
	}
}

func (b *BorrowedAccount) account() *Account { return b.ref.Account() }

// IndexInTransaction returns this account's transaction-wide index.
func (b *BorrowedAccount) IndexInTransaction() IndexOfAccount { return b.indexInTransaction }

// Key returns this account's transaction-wide key.
func (b *BorrowedAccount) Key() pubkey.Pubkey {
	key, _ := b.ctx.KeyAt(b.indexInTransaction)
	return key
}

// Owner returns the account's current owner program id.
func (b *BorrowedAccount) Owner() pubkey.Pubkey { return b.account().Owner }

// SetOwner reassigns the account's owner. Only the current owner may
// do this, only on a writable, non-executable account whose data is
// currently all zero.
func (b *BorrowedAccount) SetOwner(newOwner pubkey.Pubkey) error {
	if !b.IsOwnedByCurrentProgram() {
		return txerr.New(txerr.ModifiedProgramId)
	}
	if !b.IsWritable() {
		return txerr.New(txerr.ModifiedProgramId)
	}
	if b.isExecutableInternal() {
		return txerr.New(txerr.ModifiedProgramId)
	}
	if !isZeroed(b.GetData()) {
		return txerr.New(txerr.ModifiedProgramId)
	}
	if b.Owner() == newOwner {
		return nil
	}
	if err := b.touch(); err != nil {
		return err
	}
	b.account().Owner = newOwner
	return nil
}

// Lamports returns the account's current balance.
func (b *BorrowedAccount) Lamports() uint64 { return b.account().Lamports }

// SetLamports sets the account's balance to lamports. An account not
// owned by the currently running program may only ever have its
// balance increased, never decreased.
func (b *BorrowedAccount) SetLamports(lamports uint64) error {
	if !b.IsOwnedByCurrentProgram() && lamports < b.Lamports() {
		return txerr.New(txerr.ExternalAccountLamportSpend)
	}
	if !b.IsWritable() {
		return txerr.New(txerr.ReadonlyLamportChange)
	}
	if b.isExecutableInternal() {
		return txerr.New(txerr.ExecutableLamportChange)
	}
	if b.Lamports() == lamports {
		return nil
	}
	if err := b.touch(); err != nil {
		return err
	}
	b.account().Lamports = lamports
	return nil
}

// CheckedAddLamports adds lamports to the account's balance, failing
// with ArithmeticOverflow rather than wrapping.
func (b *BorrowedAccount) CheckedAddLamports(lamports uint64) error {
	cur := b.Lamports()
	sum := cur + lamports
	if sum < cur {
		return txerr.New(txerr.ArithmeticOverflow)
	}
	return b.SetLamports(sum)
}

// CheckedSubLamports subtracts lamports from the account's balance,
// failing with ArithmeticOverflow rather than wrapping below zero.
func (b *BorrowedAccount) CheckedSubLamports(lamports uint64) error {
	cur := b.Lamports()
	if lamports > cur {
		return txerr.New(txerr.ArithmeticOverflow)
	}
	return b.SetLamports(cur - lamports)
}

// GetData returns the account's current data. The returned slice must
// not be mutated; use GetDataMut for that.
func (b *BorrowedAccount) GetData() []byte { return b.account().Data }

// GetDataMut returns a mutable view of the account's data, unsharing
// it first if needed. Subject to the same write permission checks as
// SetDataFromSlice.
func (b *BorrowedAccount) GetDataMut() ([]byte, error) {
	if err := b.CanDataBeChanged(); err != nil {
		return nil, err
	}
	if err := b.touch(); err != nil {
		return nil, err
	}
	b.account().unshare(MaxPermittedDataIncrease)
	return b.account().Data, nil
}

// SetDataFromSlice replaces the account's data outright, subject to
// the same resize budget as SetDataLength.
func (b *BorrowedAccount) SetDataFromSlice(data []byte) error {
	if err := b.CanDataBeResized(len(data)); err != nil {
		return err
	}
	if err := b.touch(); err != nil {
		return err
	}
	oldLen := len(b.GetData())
	b.ctx.pool.UpdateResizeDelta(oldLen, len(data))
	account := b.account()
	account.Data = append([]byte(nil), data...)
	account.shared = false
	return nil
}

// SetDataLength resizes the account's data to newLength bytes,
// zero-filling any newly added bytes.
func (b *BorrowedAccount) SetDataLength(newLength int) error {
	if err := b.CanDataBeResized(newLength); err != nil {
		return err
	}
	if len(b.GetData()) == newLength {
		return nil
	}
	if err := b.touch(); err != nil {
		return err
	}
	oldLen := len(b.GetData())
	b.ctx.pool.UpdateResizeDelta(oldLen, newLength)
	b.account().resize(newLength)
	return nil
}

// ExtendFromSlice appends data to the account's existing data, subject
// to the same resize budget as SetDataLength.
func (b *BorrowedAccount) ExtendFromSlice(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	newLen := len(b.GetData()) + len(data)
	if err := b.CanDataBeResized(newLen); err != nil {
		return err
	}
	if err := b.touch(); err != nil {
		return err
	}
	oldLen := len(b.GetData())
	b.ctx.pool.UpdateResizeDelta(oldLen, newLen)
	b.account().unshare(MaxPermittedDataIncrease)
	b.account().Data = append(b.account().Data, data...)
	return nil
}

// IsShared reports whether the account's data buffer may still be
// aliased by another holder and has not yet been written to through
// this handle.
func (b *BorrowedAccount) IsShared() bool { return b.account().IsShared() }

// ExecutableFlag returns the account's raw executable flag, with none
// of the legacy-check gating IsOwnedByCurrentProgram-adjacent methods
// apply. Most callers want the gated behavior implied by the write
// methods instead of reading this directly.
func (b *BorrowedAccount) ExecutableFlag() bool { return b.account().Executable }

func (b *BorrowedAccount) isExecutableInternal() bool {
	return !b.ctx.removeExecutableFlagChecks && b.account().Executable
}

// SetExecutable flips the account's executable flag. The account must
// be rent-exempt at its current size, owned and writable by the
// currently running program, and (under the legacy checks) may never
// be un-marked executable once set.
func (b *BorrowedAccount) SetExecutable(isExecutable bool) error {
	if !b.ctx.rentExempt(b.Lamports(), len(b.GetData())) {
		return txerr.New(txerr.ExecutableAccountNotRentExempt)
	}
	if !b.IsOwnedByCurrentProgram() {
		return txerr.New(txerr.ExecutableModified)
	}
	if !b.IsWritable() {
		return txerr.New(txerr.ExecutableModified)
	}
	if b.isExecutableInternal() && !isExecutable {
		return txerr.New(txerr.ExecutableModified)
	}
	if b.ExecutableFlag() == isExecutable {
		return nil
	}
	if err := b.touch(); err != nil {
		return err
	}
	b.account().Executable = isExecutable
	return nil
}

// RentEpoch returns the epoch this account was last charged rent for.
func (b *BorrowedAccount) RentEpoch() uint64 { return b.account().RentEpoch }

// IsSigner reports whether the instruction that borrowed this account
// carries signer privilege for it. Always false for a program account.
func (b *BorrowedAccount) IsSigner() bool {
	if b.indexInInstructionAccounts == nil {
		return false
	}
	ok, err := b.frame.IsInstructionAccountSigner(*b.indexInInstructionAccounts)
	return err == nil && ok
}

// IsWritable reports whether the instruction that borrowed this
// account carries write privilege for it. Always false for a program
// account.
func (b *BorrowedAccount) IsWritable() bool {
	if b.indexInInstructionAccounts == nil {
		return false
	}
	ok, err := b.frame.IsInstructionAccountWritable(*b.indexInInstructionAccounts)
	return err == nil && ok
}

// IsOwnedByCurrentProgram reports whether this account's owner matches
// the key of the program currently executing the borrowing frame.
func (b *BorrowedAccount) IsOwnedByCurrentProgram() bool {
	key, err := b.frame.LastProgramKey(b.ctx)
	if err != nil {
		return false
	}
	return key == b.Owner()
}

// CanDataBeChanged reports whether this account's data may currently
// be mutated at all (not resized, just changed in place).
func (b *BorrowedAccount) CanDataBeChanged() error {
	if b.isExecutableInternal() {
		return txerr.New(txerr.ExecutableDataModified)
	}
	if !b.IsWritable() {
		return txerr.New(txerr.ReadonlyDataModified)
	}
	if !b.IsOwnedByCurrentProgram() {
		return txerr.New(txerr.ExternalAccountDataModified)
	}
	return nil
}

// CanDataBeResized reports whether this account's data may be resized
// to newLen bytes: only the owning program may change an account's
// size, and the change must fit the per-account and per-transaction
// growth budgets.
func (b *BorrowedAccount) CanDataBeResized(newLen int) error {
	oldLen := len(b.GetData())
	if newLen != oldLen && !b.IsOwnedByCurrentProgram() {
		return txerr.New(txerr.AccountDataSizeChanged)
	}
	if err := b.ctx.pool.CanDataBeResized(oldLen, newLen); err != nil {
		return err
	}
	return b.CanDataBeChanged()
}

func (b *BorrowedAccount) touch() error {
	return b.ctx.pool.Touch(b.indexInTransaction)
}

func isZeroed(data []byte) bool {
	for _, v := range data {
		if v != 0 {
			return false
		}
	}
	return true
}
