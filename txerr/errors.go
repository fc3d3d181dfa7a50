// Copyright 2024 The go-solana Authors
// This file is part of the go-solana library.

// Package txerr defines the stable error taxonomy returned at the
// boundary of the transaction execution context: structural failures,
// borrow conflicts, invariant violations, permission denials,
// size/shape problems, arithmetic overflow, owner mismatches, and
// internal bugs. Every error is local and returned, never panicked,
// except where the core itself documents an unrecoverable caller bug.
package txerr

import "fmt"

// Code is a stable identifier for one kind of failure. Names are part
// of the boundary contract and must not change once published.
type Code string

const (
	NotEnoughAccountKeys             Code = "NotEnoughAccountKeys"
	MissingAccount                   Code = "MissingAccount"
	CallDepth                        Code = "CallDepth"
	MaxInstructionTraceLengthExceeded Code = "MaxInstructionTraceLengthExceeded"

	AccountBorrowFailed      Code = "AccountBorrowFailed"
	AccountBorrowOutstanding Code = "AccountBorrowOutstanding"

	UnbalancedInstruction Code = "UnbalancedInstruction"

	ReadonlyLamportChange        Code = "ReadonlyLamportChange"
	ExternalAccountLamportSpend  Code = "ExternalAccountLamportSpend"
	ReadonlyDataModified         Code = "ReadonlyDataModified"
	ExternalAccountDataModified  Code = "ExternalAccountDataModified"
	ModifiedProgramId            Code = "ModifiedProgramId"
	ExecutableLamportChange      Code = "ExecutableLamportChange"
	ExecutableDataModified       Code = "ExecutableDataModified"
	ExecutableModified           Code = "ExecutableModified"
	ExecutableAccountNotRentExempt Code = "ExecutableAccountNotRentExempt"

	InvalidRealloc                        Code = "InvalidRealloc"
	MaxAccountsDataAllocationsExceeded    Code = "MaxAccountsDataAllocationsExceeded"
	AccountDataSizeChanged                Code = "AccountDataSizeChanged"
	AccountDataTooSmall                   Code = "AccountDataTooSmall"
	InvalidAccountData                    Code = "InvalidAccountData"

	ArithmeticOverflow Code = "ArithmeticOverflow"

	InvalidAccountOwner Code = "InvalidAccountOwner"

	GenericError Code = "GenericError"
)

// Error is the concrete error value returned at the boundary. The
// Code is always present; Msg is optional extra context for humans
// and is never part of errors.Is equality.
type Error struct {
	Code Code
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Is makes errors.Is(err, txerr.ErrXxx) match any *Error with the same
// Code, regardless of Msg.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	return ok && other.Code == e.Code
}

// New constructs an *Error with no extra message.
func New(code Code) *Error { return &Error{Code: code} }

// Newf constructs an *Error with a formatted message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Sentinel values for errors.Is comparisons, one per Code.
var (
	ErrNotEnoughAccountKeys              = New(NotEnoughAccountKeys)
	ErrMissingAccount                    = New(MissingAccount)
	ErrCallDepth                         = New(CallDepth)
	ErrMaxInstructionTraceLengthExceeded = New(MaxInstructionTraceLengthExceeded)

	ErrAccountBorrowFailed      = New(AccountBorrowFailed)
	ErrAccountBorrowOutstanding = New(AccountBorrowOutstanding)

	ErrUnbalancedInstruction = New(UnbalancedInstruction)

	ErrReadonlyLamportChange         = New(ReadonlyLamportChange)
	ErrExternalAccountLamportSpend   = New(ExternalAccountLamportSpend)
	ErrReadonlyDataModified          = New(ReadonlyDataModified)
	ErrExternalAccountDataModified   = New(ExternalAccountDataModified)
	ErrModifiedProgramId             = New(ModifiedProgramId)
	ErrExecutableLamportChange       = New(ExecutableLamportChange)
	ErrExecutableDataModified        = New(ExecutableDataModified)
	ErrExecutableModified            = New(ExecutableModified)
	ErrExecutableAccountNotRentExempt = New(ExecutableAccountNotRentExempt)

	ErrInvalidRealloc                     = New(InvalidRealloc)
	ErrMaxAccountsDataAllocationsExceeded  = New(MaxAccountsDataAllocationsExceeded)
	ErrAccountDataSizeChanged             = New(AccountDataSizeChanged)
	ErrAccountDataTooSmall                = New(AccountDataTooSmall)
	ErrInvalidAccountData                 = New(InvalidAccountData)

	ErrArithmeticOverflow = New(ArithmeticOverflow)

	ErrInvalidAccountOwner = New(InvalidAccountOwner)

	ErrGenericError = New(GenericError)
)
