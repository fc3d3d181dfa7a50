// Copyright 2024 The go-solana Authors
// This file is part of the go-solana library.

package txcontext

// Per-account and per-transaction data growth limits, mirrored from
// the runtime's own inlined constants (kept in sync with the bank's
// system-program limits, which this package does not depend on).
const (
	// MaxPermittedDataLength is the largest an account's data may ever
	// be, in bytes.
	MaxPermittedDataLength = 10 * 1024 * 1024

	// MaxPermittedAccountsDataAllocationsPerTransaction bounds the
	// total positive growth of all accounts' data across one
	// transaction. Note: the access-violation handler may grow an
	// account up to MaxPermittedDataLength in one fault, so programs
	// using direct memory mapping can consume this budget faster than
	// they explicitly request.
	MaxPermittedAccountsDataAllocationsPerTransaction = MaxPermittedDataLength * 2

	// MaxPermittedDataIncrease is the realloc headroom reserved the
	// first time a shared account's data is written to, so that a
	// program which grows an account incrementally stays within a
	// single allocation for the common case.
	MaxPermittedDataIncrease = 10 * 1024
)

// IndexOfAccount indexes an account inside a TransactionContext or an
// InstructionFrame.
type IndexOfAccount = uint16
