package txcontext

import (
	"errors"
	"testing"

	"github.com/cielu/go-solana-runtime/pubkey"
	"github.com/cielu/go-solana-runtime/rent"
	"github.com/cielu/go-solana-runtime/txerr"
)

func newOwnedContext(t *testing.T) (*TransactionContext, pubkey.Pubkey, pubkey.Pubkey) {
	t.Helper()
	program := pubkey.NewUnique()
	other := pubkey.NewUnique()
	accounts := []TransactionAccount{
		{Key: program, Account: NewAccount(0, pubkey.Pubkey{}, nil, true, 0, false)},
		{Key: other, Account: NewAccount(10, program, []byte{0, 0, 0, 0}, false, 0, false)},
	}
	ctx := NewTransactionContext(accounts, rent.AlwaysExempt, 4, 16)
	frame, err := ctx.NextFrame()
	if err != nil {
		t.Fatalf("NextFrame: %v", err)
	}
	frame.Configure([]IndexOfAccount{0}, []InstructionAccount{
		{IndexInTransaction: 1, IndexInCallee: 0, IsWritable: true},
	}, nil)
	if err := ctx.Push(); err != nil {
		t.Fatalf("Push: %v", err)
	}
	return ctx, program, other
}

func TestBorrowedAccountSetLamportsRequiresWritable(t *testing.T) {
	program := pubkey.NewUnique()
	other := pubkey.NewUnique()
	accounts := []TransactionAccount{
		{Key: program, Account: NewAccount(0, pubkey.Pubkey{}, nil, true, 0, false)},
		{Key: other, Account: NewAccount(10, program, nil, false, 0, false)},
	}
	ctx := NewTransactionContext(accounts, rent.AlwaysExempt, 4, 16)
	frame, _ := ctx.NextFrame()
	frame.Configure([]IndexOfAccount{0}, []InstructionAccount{
		{IndexInTransaction: 1, IsWritable: false},
	}, nil)
	if err := ctx.Push(); err != nil {
		t.Fatalf("Push: %v", err)
	}

	b, err := frame.TryBorrowInstructionAccount(ctx, 0)
	if err != nil {
		t.Fatalf("TryBorrowInstructionAccount: %v", err)
	}
	defer b.Release()
	if err := b.SetLamports(20); !errors.Is(err, txerr.ErrReadonlyLamportChange) {
		t.Fatalf("expected ReadonlyLamportChange, got %v", err)
	}
}

func TestBorrowedAccountOwnerCanAddLamports(t *testing.T) {
	ctx, _, _ := newOwnedContext(t)
	frame, _ := ctx.CurrentFrame()
	b, err := frame.TryBorrowInstructionAccount(ctx, 0)
	if err != nil {
		t.Fatalf("TryBorrowInstructionAccount: %v", err)
	}
	defer b.Release()

	// The borrowing frame's last program account IS the account's owner
	// here, so increasing lamports must succeed.
	if err := b.CheckedAddLamports(5); err != nil {
		t.Fatalf("unexpected error increasing lamports as owner: %v", err)
	}
	if b.Lamports() != 15 {
		t.Fatalf("expected 15 lamports, got %d", b.Lamports())
	}
}

func TestBorrowedAccountExternalSpendRejectedWhenNotOwner(t *testing.T) {
	notOwner := pubkey.NewUnique()
	owner := pubkey.NewUnique()
	target := pubkey.NewUnique()
	accounts := []TransactionAccount{
		{Key: notOwner, Account: NewAccount(0, pubkey.Pubkey{}, nil, true, 0, false)},
		{Key: target, Account: NewAccount(10, owner, nil, false, 0, false)},
	}
	ctx := NewTransactionContext(accounts, rent.AlwaysExempt, 4, 16)
	frame, _ := ctx.NextFrame()
	frame.Configure([]IndexOfAccount{0}, []InstructionAccount{
		{IndexInTransaction: 1, IsWritable: true},
	}, nil)
	if err := ctx.Push(); err != nil {
		t.Fatalf("Push: %v", err)
	}
	b, err := frame.TryBorrowInstructionAccount(ctx, 0)
	if err != nil {
		t.Fatalf("TryBorrowInstructionAccount: %v", err)
	}
	defer b.Release()
	if err := b.SetLamports(5); !errors.Is(err, txerr.ErrExternalAccountLamportSpend) {
		t.Fatalf("expected ExternalAccountLamportSpend, got %v", err)
	}
	if err := b.SetLamports(15); err != nil {
		t.Fatalf("a non-owner increasing lamports should still be allowed: %v", err)
	}
}

func TestBorrowedAccountSetOwnerRequiresZeroedData(t *testing.T) {
	program := pubkey.NewUnique()
	target := pubkey.NewUnique()
	accounts := []TransactionAccount{
		{Key: program, Account: NewAccount(0, pubkey.Pubkey{}, nil, true, 0, false)},
		{Key: target, Account: NewAccount(10, program, []byte{1, 0}, false, 0, false)},
	}
	ctx := NewTransactionContext(accounts, rent.AlwaysExempt, 4, 16)
	frame, _ := ctx.NextFrame()
	frame.Configure([]IndexOfAccount{0}, []InstructionAccount{
		{IndexInTransaction: 1, IsWritable: true},
	}, nil)
	if err := ctx.Push(); err != nil {
		t.Fatalf("Push: %v", err)
	}
	b, err := frame.TryBorrowInstructionAccount(ctx, 0)
	if err != nil {
		t.Fatalf("TryBorrowInstructionAccount: %v", err)
	}
	defer b.Release()
	if err := b.SetOwner(pubkey.NewUnique()); !errors.Is(err, txerr.ErrModifiedProgramId) {
		t.Fatalf("expected ModifiedProgramId, got %v", err)
	}
}

func TestBorrowedAccountSetOwnerSucceedsOnZeroedData(t *testing.T) {
	program := pubkey.NewUnique()
	target := pubkey.NewUnique()
	accounts := []TransactionAccount{
		{Key: program, Account: NewAccount(0, pubkey.Pubkey{}, nil, true, 0, false)},
		{Key: target, Account: NewAccount(10, program, []byte{0, 0}, false, 0, false)},
	}
	ctx := NewTransactionContext(accounts, rent.AlwaysExempt, 4, 16)
	frame, _ := ctx.NextFrame()
	frame.Configure([]IndexOfAccount{0}, []InstructionAccount{
		{IndexInTransaction: 1, IsWritable: true},
	}, nil)
	if err := ctx.Push(); err != nil {
		t.Fatalf("Push: %v", err)
	}
	b, err := frame.TryBorrowInstructionAccount(ctx, 0)
	if err != nil {
		t.Fatalf("TryBorrowInstructionAccount: %v", err)
	}
	defer b.Release()
	newOwner := pubkey.NewUnique()
	if err := b.SetOwner(newOwner); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Owner() != newOwner {
		t.Fatalf("expected owner to change")
	}
}

func TestBorrowedAccountDataGrowthBudgetBoundary(t *testing.T) {
	program := pubkey.NewUnique()
	target := pubkey.NewUnique()
	other := pubkey.NewUnique()
	accounts := []TransactionAccount{
		{Key: program, Account: NewAccount(0, pubkey.Pubkey{}, nil, true, 0, false)},
		{Key: target, Account: NewAccount(10, program, nil, false, 0, false)},
		{Key: other, Account: NewAccount(10, program, nil, false, 0, false)},
	}
	ctx := NewTransactionContext(accounts, rent.AlwaysExempt, 4, 16)
	frame, _ := ctx.NextFrame()
	frame.Configure([]IndexOfAccount{0}, []InstructionAccount{
		{IndexInTransaction: 1, IsWritable: true},
		{IndexInTransaction: 2, IsWritable: true},
	}, nil)
	if err := ctx.Push(); err != nil {
		t.Fatalf("Push: %v", err)
	}

	b1, err := frame.TryBorrowInstructionAccount(ctx, 0)
	if err != nil {
		t.Fatalf("TryBorrowInstructionAccount: %v", err)
	}
	if err := b1.SetDataLength(MaxPermittedDataLength); err != nil {
		t.Fatalf("expected growth up to the per-account maximum to succeed: %v", err)
	}
	b1.Release()

	b2, err := frame.TryBorrowInstructionAccount(ctx, 1)
	if err != nil {
		t.Fatalf("TryBorrowInstructionAccount: %v", err)
	}
	defer b2.Release()
	if err := b2.SetDataLength(MaxPermittedAccountsDataAllocationsPerTransaction - MaxPermittedDataLength); err != nil {
		t.Fatalf("expected growth exactly filling the remaining transaction budget to succeed: %v", err)
	}
}

func TestBorrowedAccountDataGrowthExceedsTransactionBudget(t *testing.T) {
	program := pubkey.NewUnique()
	target := pubkey.NewUnique()
	other := pubkey.NewUnique()
	third := pubkey.NewUnique()
	accounts := []TransactionAccount{
		{Key: program, Account: NewAccount(0, pubkey.Pubkey{}, nil, true, 0, false)},
		{Key: target, Account: NewAccount(10, program, nil, false, 0, false)},
		{Key: other, Account: NewAccount(10, program, nil, false, 0, false)},
		{Key: third, Account: NewAccount(10, program, nil, false, 0, false)},
	}
	ctx := NewTransactionContext(accounts, rent.AlwaysExempt, 4, 16)
	frame, _ := ctx.NextFrame()
	frame.Configure([]IndexOfAccount{0}, []InstructionAccount{
		{IndexInTransaction: 1, IsWritable: true},
		{IndexInTransaction: 2, IsWritable: true},
		{IndexInTransaction: 3, IsWritable: true},
	}, nil)
	if err := ctx.Push(); err != nil {
		t.Fatalf("Push: %v", err)
	}

	b1, err := frame.TryBorrowInstructionAccount(ctx, 0)
	if err != nil {
		t.Fatalf("TryBorrowInstructionAccount: %v", err)
	}
	if err := b1.SetDataLength(MaxPermittedDataLength); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b1.Release()

	// Two accounts at the per-account maximum fill the transaction budget
	// exactly; one more byte on a third account exceeds it.
	b2, err := frame.TryBorrowInstructionAccount(ctx, 1)
	if err != nil {
		t.Fatalf("TryBorrowInstructionAccount: %v", err)
	}
	if err := b2.SetDataLength(MaxPermittedDataLength); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b2.Release()

	b3, err := frame.TryBorrowInstructionAccount(ctx, 2)
	if err != nil {
		t.Fatalf("TryBorrowInstructionAccount: %v", err)
	}
	defer b3.Release()
	if err := b3.SetDataLength(1); !errors.Is(err, txerr.ErrMaxAccountsDataAllocationsExceeded) {
		t.Fatalf("expected MaxAccountsDataAllocationsExceeded, got %v", err)
	}
}

func TestBorrowedAccountExecutableFreezesMutation(t *testing.T) {
	program := pubkey.NewUnique()
	target := pubkey.NewUnique()
	accounts := []TransactionAccount{
		{Key: program, Account: NewAccount(0, pubkey.Pubkey{}, nil, true, 0, false)},
		{Key: target, Account: NewAccount(10, program, []byte{1, 2}, true, 0, false)},
	}
	ctx := NewTransactionContext(accounts, rent.AlwaysExempt, 4, 16)
	ctx.SetRemoveExecutableFlagChecks(false)
	frame, _ := ctx.NextFrame()
	frame.Configure([]IndexOfAccount{0}, []InstructionAccount{
		{IndexInTransaction: 1, IsWritable: true},
	}, nil)
	if err := ctx.Push(); err != nil {
		t.Fatalf("Push: %v", err)
	}
	b, err := frame.TryBorrowInstructionAccount(ctx, 0)
	if err != nil {
		t.Fatalf("TryBorrowInstructionAccount: %v", err)
	}
	defer b.Release()
	if err := b.SetLamports(5); !errors.Is(err, txerr.ErrExecutableLamportChange) {
		t.Fatalf("expected ExecutableLamportChange, got %v", err)
	}
	if _, err := b.GetDataMut(); !errors.Is(err, txerr.ErrExecutableDataModified) {
		t.Fatalf("expected ExecutableDataModified, got %v", err)
	}
}

func TestBorrowedAccountExecutableChecksVacuousByDefault(t *testing.T) {
	program := pubkey.NewUnique()
	target := pubkey.NewUnique()
	accounts := []TransactionAccount{
		{Key: program, Account: NewAccount(0, pubkey.Pubkey{}, nil, true, 0, false)},
		{Key: target, Account: NewAccount(10, program, []byte{1, 2}, true, 0, false)},
	}
	ctx := NewTransactionContext(accounts, rent.AlwaysExempt, 4, 16)
	frame, _ := ctx.NextFrame()
	frame.Configure([]IndexOfAccount{0}, []InstructionAccount{
		{IndexInTransaction: 1, IsWritable: true},
	}, nil)
	if err := ctx.Push(); err != nil {
		t.Fatalf("Push: %v", err)
	}
	b, err := frame.TryBorrowInstructionAccount(ctx, 0)
	if err != nil {
		t.Fatalf("TryBorrowInstructionAccount: %v", err)
	}
	defer b.Release()
	if err := b.SetLamports(5); err != nil {
		t.Fatalf("expected lamport change to be allowed with checks removed: %v", err)
	}
}

func TestBorrowedAccountCheckedSubLamportsOverflow(t *testing.T) {
	ctx, _, _ := newOwnedContext(t)
	frame, _ := ctx.CurrentFrame()
	b, err := frame.TryBorrowInstructionAccount(ctx, 0)
	if err != nil {
		t.Fatalf("TryBorrowInstructionAccount: %v", err)
	}
	defer b.Release()
	if err := b.CheckedSubLamports(11); !errors.Is(err, txerr.ErrArithmeticOverflow) {
		t.Fatalf("expected ArithmeticOverflow, got %v", err)
	}
}

func TestBorrowedAccountDataGrowthSequentialBoundary(t *testing.T) {
	program := pubkey.NewUnique()
	target := pubkey.NewUnique()
	accounts := []TransactionAccount{
		{Key: program, Account: NewAccount(0, pubkey.Pubkey{}, nil, true, 0, false)},
		{Key: target, Account: NewAccount(10, program, nil, false, 0, false)},
	}
	ctx := NewTransactionContext(accounts, rent.AlwaysExempt, 4, 16)
	frame, _ := ctx.NextFrame()
	frame.Configure([]IndexOfAccount{0}, []InstructionAccount{
		{IndexInTransaction: 1, IsWritable: true},
	}, nil)
	if err := ctx.Push(); err != nil {
		t.Fatalf("Push: %v", err)
	}
	b, err := frame.TryBorrowInstructionAccount(ctx, 0)
	if err != nil {
		t.Fatalf("TryBorrowInstructionAccount: %v", err)
	}
	defer b.Release()

	if err := b.SetDataLength(MaxPermittedDataLength); err != nil {
		t.Fatalf("expected growth to exactly the per-account maximum to succeed: %v", err)
	}
	if err := b.SetDataLength(MaxPermittedDataLength + 1); !errors.Is(err, txerr.ErrInvalidRealloc) {
		t.Fatalf("expected InvalidRealloc, got %v", err)
	}
	if got := len(b.GetData()); got != MaxPermittedDataLength {
		t.Fatalf("expected length to remain at the maximum after the failed grow, got %d", got)
	}
}
