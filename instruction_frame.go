// Copyright 2024 The go-solana Authors
// This file is part of the go-solana library.

package txcontext

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/cielu/go-solana-runtime/pubkey"
	"github.com/cielu/go-solana-runtime/txerr"
)

// InstructionAccount describes one account passed to an instruction:
// where it lives in the transaction's account keys, where it lives in
// the callee's own account list, and the signer/writable privileges
// the instruction carries for it (which may be narrower than the
// account's privileges at the transaction level).
type InstructionAccount struct {
	IndexInTransaction IndexOfAccount
	IndexInCallee       IndexOfAccount
	IsSigner            bool
	IsWritable          bool
}

// InstructionFrame holds one slot of the instruction trace: the
// program accounts and instruction accounts of one invocation, plus
// the bookkeeping push/pop needs (nesting level, lamport snapshot).
// A frame is obtained from NextFrame and configured once, by Configure,
// before it is pushed; after
// push it is immutable except through the pool it and the rest of the
// transaction context share.
type InstructionFrame struct {
	nestingLevel         int
	lamportSum           Uint128
	programAccounts      []IndexOfAccount
	instructionAccounts  []InstructionAccount
	instructionData      []byte
}

// Configure sets the accounts and data of this frame. It trusts the
// caller to have already resolved indices and does not itself
// validate for duplicates; InstructionAccounts may alias the same
// transaction index more than once, which IsInstructionAccountDuplicate
// exists to detect.
func (f *InstructionFrame) Configure(programAccounts []IndexOfAccount, instructionAccounts []InstructionAccount, instructionData []byte) {
	f.programAccounts = programAccounts
	f.instructionAccounts = instructionAccounts
	f.instructionData = append([]byte(nil), instructionData...)
}

// GetStackHeight returns the 1-based call depth this frame occupies
// once pushed (nesting level 0 is stack height 1).
func (f *InstructionFrame) GetStackHeight() int { return f.nestingLevel + 1 }

// NumProgramAccounts returns how many program accounts this frame has.
func (f *InstructionFrame) NumProgramAccounts() IndexOfAccount { return IndexOfAccount(len(f.programAccounts)) }

// NumInstructionAccounts returns how many instruction accounts this
// frame has.
func (f *InstructionFrame) NumInstructionAccounts() IndexOfAccount {
	return IndexOfAccount(len(f.instructionAccounts))
}

// InstructionData returns the raw instruction data passed to this
// frame's program.
func (f *InstructionFrame) InstructionData() []byte { return f.instructionData }

// CheckNumberOfInstructionAccounts fails with NotEnoughAccountKeys if
// the frame has fewer than expected instruction accounts.
func (f *InstructionFrame) CheckNumberOfInstructionAccounts(expected IndexOfAccount) error {
	if f.NumInstructionAccounts() < expected {
		return txerr.New(txerr.NotEnoughAccountKeys)
	}
	return nil
}

// IndexOfProgramAccountInTransaction translates a program-account
// index local to this frame into a transaction-wide index.
func (f *InstructionFrame) IndexOfProgramAccountInTransaction(index IndexOfAccount) (IndexOfAccount, error) {
	if int(index) >= len(f.programAccounts) {
		return 0, txerr.New(txerr.NotEnoughAccountKeys)
	}
	return f.programAccounts[index], nil
}

// IndexOfInstructionAccountInTransaction translates an
// instruction-account index local to this frame into a
// transaction-wide index.
func (f *InstructionFrame) IndexOfInstructionAccountInTransaction(index IndexOfAccount) (IndexOfAccount, error) {
	if int(index) >= len(f.instructionAccounts) {
		return 0, txerr.New(txerr.NotEnoughAccountKeys)
	}
	return f.instructionAccounts[index].IndexInTransaction, nil
}

// GetIndexOfAccountInInstruction translates a transaction-wide index
// into the position it occupies in this frame's instruction-account
// list, failing MissingAccount if the account isn't one of them.
func (f *InstructionFrame) GetIndexOfAccountInInstruction(txIndex IndexOfAccount) (IndexOfAccount, error) {
	for i, ia := range f.instructionAccounts {
		if ia.IndexInTransaction == txIndex {
			return IndexOfAccount(i), nil
		}
	}
	return 0, txerr.New(txerr.MissingAccount)
}

// FindIndexOfProgramAccount returns the frame-local index of the
// first program account in this frame whose transaction-wide key
// matches key, consulting ctx for key lookups.
func (f *InstructionFrame) FindIndexOfProgramAccount(ctx *TransactionContext, key pubkey.Pubkey) (IndexOfAccount, bool) {
	for i, txIndex := range f.programAccounts {
		k, err := ctx.KeyAt(txIndex)
		if err == nil && k == key {
			return IndexOfAccount(i), true
		}
	}
	return 0, false
}

// FindIndexOfInstructionAccount returns the frame-local index of the
// first instruction account in this frame whose transaction-wide key
// matches key, consulting ctx for key lookups.
func (f *InstructionFrame) FindIndexOfInstructionAccount(ctx *TransactionContext, key pubkey.Pubkey) (IndexOfAccount, bool) {
	for i, ia := range f.instructionAccounts {
		k, err := ctx.KeyAt(ia.IndexInTransaction)
		if err == nil && k == key {
			return IndexOfAccount(i), true
		}
	}
	return 0, false
}

// IsInstructionAccountDuplicate reports whether the instruction
// account at index aliases an earlier instruction account's
// transaction index, and if so, which one.
func (f *InstructionFrame) IsInstructionAccountDuplicate(index IndexOfAccount) (IndexOfAccount, bool, error) {
	if int(index) >= len(f.instructionAccounts) {
		return 0, false, txerr.New(txerr.NotEnoughAccountKeys)
	}
	target := f.instructionAccounts[index].IndexInTransaction
	for i := IndexOfAccount(0); i < index; i++ {
		if f.instructionAccounts[i].IndexInTransaction == target {
			return i, true, nil
		}
	}
	return 0, false, nil
}

// IsInstructionAccountSigner reports whether the instruction account
// at index carries signer privilege in this instruction.
func (f *InstructionFrame) IsInstructionAccountSigner(index IndexOfAccount) (bool, error) {
	if int(index) >= len(f.instructionAccounts) {
		return false, txerr.New(txerr.MissingAccount)
	}
	return f.instructionAccounts[index].IsSigner, nil
}

// IsInstructionAccountWritable reports whether the instruction
// account at index carries write privilege in this instruction.
func (f *InstructionFrame) IsInstructionAccountWritable(index IndexOfAccount) (bool, error) {
	if int(index) >= len(f.instructionAccounts) {
		return false, txerr.New(txerr.MissingAccount)
	}
	return f.instructionAccounts[index].IsWritable, nil
}

// Signers returns the set of transaction-wide keys of every account
// in this frame's instruction accounts that carries signer privilege.
func (f *InstructionFrame) Signers(ctx *TransactionContext) (mapset.Set[pubkey.Pubkey], error) {
	signers := mapset.NewThreadUnsafeSet[pubkey.Pubkey]()
	for _, ia := range f.instructionAccounts {
		if !ia.IsSigner {
			continue
		}
		key, err := ctx.KeyAt(ia.IndexInTransaction)
		if err != nil {
			return nil, err
		}
		signers.Add(key)
	}
	return signers, nil
}

// LastProgramKey returns the transaction-wide key of this frame's last
// program account, the convention for "the program currently running".
func (f *InstructionFrame) LastProgramKey(ctx *TransactionContext) (pubkey.Pubkey, error) {
	if len(f.programAccounts) == 0 {
		return pubkey.Pubkey{}, txerr.New(txerr.MissingAccount)
	}
	return ctx.KeyAt(f.programAccounts[len(f.programAccounts)-1])
}

func (f *InstructionFrame) tryBorrowAccount(ctx *TransactionContext, indexInTransaction IndexOfAccount, indexInInstructionAccounts *IndexOfAccount) (*BorrowedAccount, error) {
	ref, err := ctx.pool.TryBorrowExclusive(indexInTransaction)
	if err != nil {
		return nil, err
	}
	return &BorrowedAccount{
		ctx:                        ctx,
		frame:                      f,
		ref:                        ref,
		indexInTransaction:         indexInTransaction,
		indexInInstructionAccounts: indexInInstructionAccounts,
	}, nil
}

// TryBorrowProgramAccount borrows the program account at frame-local
// index programAccountIndex.
func (f *InstructionFrame) TryBorrowProgramAccount(ctx *TransactionContext, programAccountIndex IndexOfAccount) (*BorrowedAccount, error) {
	txIndex, err := f.IndexOfProgramAccountInTransaction(programAccountIndex)
	if err != nil {
		return nil, err
	}
	return f.tryBorrowAccount(ctx, txIndex, nil)
}

// TryBorrowLastProgramAccount borrows this frame's last program
// account, the program currently running.
func (f *InstructionFrame) TryBorrowLastProgramAccount(ctx *TransactionContext) (*BorrowedAccount, error) {
	if len(f.programAccounts) == 0 {
		return nil, txerr.New(txerr.MissingAccount)
	}
	return f.TryBorrowProgramAccount(ctx, IndexOfAccount(len(f.programAccounts)-1))
}

// TryBorrowInstructionAccount borrows the instruction account at
// frame-local index instructionAccountIndex.
func (f *InstructionFrame) TryBorrowInstructionAccount(ctx *TransactionContext, instructionAccountIndex IndexOfAccount) (*BorrowedAccount, error) {
	txIndex, err := f.IndexOfInstructionAccountInTransaction(instructionAccountIndex)
	if err != nil {
		return nil, err
	}
	idx := instructionAccountIndex
	return f.tryBorrowAccount(ctx, txIndex, &idx)
}
