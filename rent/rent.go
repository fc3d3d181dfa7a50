// Package rent carries the rent-exemption predicate a TransactionContext
// consults when an account's executable flag changes.
// The actual rent-economic formula belongs to the bank/ledger this
// package intentionally knows nothing about; callers inject it.
package rent

// ExemptFunc reports whether lamports is enough to keep an account of
// dataLen bytes rent-exempt. The bank/ledger supplies the real
// implementation; this package only carries the shape.
type ExemptFunc func(lamports uint64, dataLen int) bool

// AlwaysExempt treats every account as rent-exempt. Useful for tests
// that don't care about rent economics.
func AlwaysExempt(lamports uint64, dataLen int) bool { return true }

// NeverExempt treats no account as rent-exempt. Useful for exercising
// the ExecutableAccountNotRentExempt gate in tests.
func NeverExempt(lamports uint64, dataLen int) bool { return false }
