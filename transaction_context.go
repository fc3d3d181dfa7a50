// Copyright 2024 The go-solana Authors
// This file is part of the go-solana library.

// Package txcontext implements the transaction execution context: the
// borrow-checked account pool, the instruction trace and call stack
// built on top of it, and the gated account handle programs use to
// read and mutate accounts during one transaction's execution.
package txcontext

import (
	"log"

	"github.com/cielu/go-solana-runtime/pubkey"
	"github.com/cielu/go-solana-runtime/rent"
	"github.com/cielu/go-solana-runtime/sysvar"
	"github.com/cielu/go-solana-runtime/txerr"
	"github.com/cielu/go-solana-runtime/vmmem"
)

// TransactionAccount pairs an account's transaction-wide key with its
// loaded value, the shape construction and deconstruction both use.
type TransactionAccount struct {
	Key     pubkey.Pubkey
	Account Account
}

// ReturnData is the program id and payload of the last SetReturnData
// call made during execution.
type ReturnData struct {
	ProgramID pubkey.Pubkey
	Data      []byte
}

// TransactionContext is the execution context threaded through one
// transaction's instructions: the fixed account pool, the instruction
// trace recorded for logging and inspection, and the live call stack
// built by Push/Pop.
type TransactionContext struct {
	accountKeys []pubkey.Pubkey
	pool        *AccountPool

	stackCapacity int
	traceCapacity int
	stack         []int
	trace         []*InstructionFrame

	topLevelInstructionIndex uint64
	returnData               ReturnData

	removeExecutableFlagChecks bool
	rentExempt                 rent.ExemptFunc
	storeCurrentIndex          sysvar.StoreCurrentIndexFunc

	logger *log.Logger
}

// NewTransactionContext builds a context over accounts, with room for
// stackCapacity nested invocations and traceCapacity recorded frames.
// rentExempt supplies the rent-exemption predicate BorrowedAccount
// consults when the executable flag changes; pass rent.AlwaysExempt
// where rent economics don't matter.
func NewTransactionContext(accounts []TransactionAccount, rentExempt rent.ExemptFunc, stackCapacity, traceCapacity int) *TransactionContext {
	keys := make([]pubkey.Pubkey, len(accounts))
	values := make([]Account, len(accounts))
	for i, ta := range accounts {
		keys[i] = ta.Key
		values[i] = ta.Account
	}
	return &TransactionContext{
		accountKeys:                keys,
		pool:                       newAccountPool(values),
		stackCapacity:              stackCapacity,
		traceCapacity:              traceCapacity,
		stack:                      make([]int, 0, stackCapacity),
		trace:                      []*InstructionFrame{{}},
		rentExempt:                 rentExempt,
		removeExecutableFlagChecks: true,
		storeCurrentIndex:          sysvar.StoreCurrentIndex,
	}
}

// SetRemoveExecutableFlagChecks controls whether BorrowedAccount's
// legacy rule freezing an executable account's lamports, data, and
// owner is enforced. It defaults to true (checks removed, vacuous),
// reflecting an in-progress protocol change; set false to reproduce
// the legacy behavior in tests.
func (c *TransactionContext) SetRemoveExecutableFlagChecks(remove bool) {
	c.removeExecutableFlagChecks = remove
}

// SetStoreCurrentIndexFunc overrides the writer used to maintain the
// instructions sysvar's current-index field on every Push.
func (c *TransactionContext) SetStoreCurrentIndexFunc(fn sysvar.StoreCurrentIndexFunc) {
	c.storeCurrentIndex = fn
}

// SetLogger attaches a logger the access-violation handler uses to
// report faults it cannot service. Nil disables logging.
func (c *TransactionContext) SetLogger(l *log.Logger) { c.logger = l }

// NumAccounts returns the number of accounts in the pool.
func (c *TransactionContext) NumAccounts() IndexOfAccount { return IndexOfAccount(c.pool.Len()) }

// KeyAt returns the transaction-wide key at index.
func (c *TransactionContext) KeyAt(index IndexOfAccount) (pubkey.Pubkey, error) {
	if int(index) >= len(c.accountKeys) {
		return pubkey.Pubkey{}, txerr.New(txerr.MissingAccount)
	}
	return c.accountKeys[index], nil
}

// FindIndexOfAccount returns the index of the first account whose key
// matches key.
func (c *TransactionContext) FindIndexOfAccount(key pubkey.Pubkey) (IndexOfAccount, bool) {
	for i, k := range c.accountKeys {
		if k == key {
			return IndexOfAccount(i), true
		}
	}
	return 0, false
}

// FindIndexOfProgramAccount returns the index of the LAST account
// whose key matches key: a key listed both as a regular account and as
// a program resolves to the later entry, where the program is
// conventionally loaded.
func (c *TransactionContext) FindIndexOfProgramAccount(key pubkey.Pubkey) (IndexOfAccount, bool) {
	for i := len(c.accountKeys) - 1; i >= 0; i-- {
		if c.accountKeys[i] == key {
			return IndexOfAccount(i), true
		}
	}
	return 0, false
}

// StackCapacity returns the maximum call depth this context allows.
func (c *TransactionContext) StackCapacity() int { return c.stackCapacity }

// StackHeight returns the current call depth (0 before any Push).
func (c *TransactionContext) StackHeight() int { return len(c.stack) }

// TraceCapacity returns the maximum number of frames this context will record.
func (c *TransactionContext) TraceCapacity() int { return c.traceCapacity }

// TraceLength returns how many frames have been pushed so far, not
// counting the always-present unpushed tail frame NextFrame configures.
func (c *TransactionContext) TraceLength() int { return len(c.trace) - 1 }

// AccountsResizeDelta returns the running total of account data growth
// across the transaction so far.
func (c *TransactionContext) AccountsResizeDelta() int64 { return c.pool.ResizeDelta() }

// FrameAtTraceIndex returns the frame recorded at trace index i.
func (c *TransactionContext) FrameAtTraceIndex(i int) (*InstructionFrame, error) {
	if i < 0 || i >= len(c.trace) {
		return nil, txerr.New(txerr.CallDepth)
	}
	return c.trace[i], nil
}

// FrameAtNestingLevel returns the frame currently occupying call depth
// level (0 is the outermost, top-level instruction).
func (c *TransactionContext) FrameAtNestingLevel(level int) (*InstructionFrame, error) {
	if level < 0 || level >= len(c.stack) {
		return nil, txerr.New(txerr.CallDepth)
	}
	return c.FrameAtTraceIndex(c.stack[level])
}

// CurrentFrame returns the frame at the top of the call stack.
func (c *TransactionContext) CurrentFrame() (*InstructionFrame, error) {
	if len(c.stack) == 0 {
		return nil, txerr.New(txerr.CallDepth)
	}
	return c.FrameAtNestingLevel(len(c.stack) - 1)
}

// NextFrame returns the not-yet-pushed frame at the tail of the trace,
// for the caller to Configure before calling Push.
func (c *TransactionContext) NextFrame() (*InstructionFrame, error) {
	return c.trace[len(c.trace)-1], nil
}

// PeekNextFrame is an alias of NextFrame for callers that only want to
// read the pending frame's current configuration.
func (c *TransactionContext) PeekNextFrame() (*InstructionFrame, error) {
	return c.NextFrame()
}

// GetReturnData returns the program id and payload set by the last
// SetReturnData call.
func (c *TransactionContext) GetReturnData() (pubkey.Pubkey, []byte) {
	return c.returnData.ProgramID, c.returnData.Data
}

// SetReturnData records programID's return payload, replacing any
// earlier return data set during this transaction.
func (c *TransactionContext) SetReturnData(programID pubkey.Pubkey, data []byte) error {
	c.returnData = ReturnData{ProgramID: programID, Data: append([]byte(nil), data...)}
	return nil
}

// instructionAccountsLamportSum sums the lamports of every
// non-duplicate instruction account in f. Any borrow failure while
// reading an account's balance is reported as AccountBorrowOutstanding.
func (c *TransactionContext) instructionAccountsLamportSum(f *InstructionFrame) (Uint128, error) {
	var sum Uint128
	for i := IndexOfAccount(0); i < f.NumInstructionAccounts(); i++ {
		_, isDup, err := f.IsInstructionAccountDuplicate(i)
		if err != nil {
			return Uint128{}, err
		}
		if isDup {
			continue
		}
		txIndex, err := f.IndexOfInstructionAccountInTransaction(i)
		if err != nil {
			return Uint128{}, err
		}
		ref, err := c.pool.TryBorrowShared(txIndex)
		if err != nil {
			return Uint128{}, txerr.New(txerr.AccountBorrowOutstanding)
		}
		lamports := ref.Account().Lamports
		ref.Release()
		var overflowed bool
		sum, overflowed = sum.AddUint64(lamports)
		if overflowed {
			return Uint128{}, txerr.New(txerr.ArithmeticOverflow)
		}
	}
	return sum, nil
}

// Push starts executing the frame configured via NextFrame: it snapshots
// that frame's lamport sum, verifies the caller's accounts still balance
// (when there is a caller), grows the trace and stack, and maintains the
// instructions sysvar's current top-level instruction index.
func (c *TransactionContext) Push() error {
	nestingLevel := len(c.stack)
	tail := c.trace[len(c.trace)-1]

	calleeSum, err := c.instructionAccountsLamportSum(tail)
	if err != nil {
		return err
	}

	if len(c.stack) != 0 {
		caller, err := c.CurrentFrame()
		if err != nil {
			return err
		}
		current, err := c.instructionAccountsLamportSum(caller)
		if err != nil {
			return err
		}
		if !caller.lamportSum.Equal(current) {
			return txerr.New(txerr.UnbalancedInstruction)
		}
	}

	tail.nestingLevel = nestingLevel
	tail.lamportSum = calleeSum

	traceIndex := c.TraceLength()
	if traceIndex >= c.traceCapacity {
		return txerr.New(txerr.MaxInstructionTraceLengthExceeded)
	}
	c.trace = append(c.trace, &InstructionFrame{})
	if nestingLevel >= c.stackCapacity {
		return txerr.New(txerr.CallDepth)
	}
	c.stack = append(c.stack, traceIndex)

	if idx, ok := c.FindIndexOfAccount(sysvar.Instructions); ok {
		if err := c.storeCurrentTopLevelIndex(idx); err != nil {
			return err
		}
	}
	return nil
}

func (c *TransactionContext) storeCurrentTopLevelIndex(sysvarIndex IndexOfAccount) error {
	ref, err := c.pool.TryBorrowExclusive(sysvarIndex)
	if err != nil {
		return txerr.New(txerr.AccountBorrowFailed)
	}
	defer ref.Release()
	account := ref.Account()
	if account.Owner != sysvar.Registry {
		return txerr.New(txerr.InvalidAccountOwner)
	}
	account.unshare(0)
	return c.storeCurrentIndex(account.Data, uint16(c.topLevelInstructionIndex))
}

// Pop ends execution of the current frame: it verifies the frame's
// program accounts are no longer borrowed and its instruction accounts
// still balance, then unwinds the stack regardless of the outcome.
func (c *TransactionContext) Pop() error {
	if len(c.stack) == 0 {
		return txerr.New(txerr.CallDepth)
	}
	frame, err := c.CurrentFrame()
	var detectErr error
	var unbalanced bool
	if err != nil {
		detectErr = err
	} else {
		for _, progIndex := range frame.programAccounts {
			ref, err := c.pool.TryBorrowExclusive(progIndex)
			if err != nil {
				detectErr = txerr.New(txerr.AccountBorrowOutstanding)
				break
			}
			ref.Release()
		}
		if detectErr == nil {
			sum, err := c.instructionAccountsLamportSum(frame)
			if err != nil {
				detectErr = err
			} else {
				unbalanced = !sum.Equal(frame.lamportSum)
			}
		}
	}

	c.stack = c.stack[:len(c.stack)-1]
	if len(c.stack) == 0 {
		c.topLevelInstructionIndex = saturatingAddU64(c.topLevelInstructionIndex, 1)
	}

	if detectErr != nil {
		return detectErr
	}
	if unbalanced {
		return txerr.New(txerr.UnbalancedInstruction)
	}
	return nil
}

// AccessViolationHandler returns a handler the VM's memory subsystem
// can invoke on a guest store past a region's mapped length, to try
// growing the backing account in place. The returned handler must be
// Released before the context can be deconstructed.
func (c *TransactionContext) AccessViolationHandler() *AccessViolationHandler {
	c.pool.handlerRefs++
	return &AccessViolationHandler{pool: c.pool, logger: c.logger}
}

// AccessViolationHandler services access violations raised by the VM's
// memory subsystem by growing the account backing the faulting region,
// within the per-account and per-transaction growth budgets.
type AccessViolationHandler struct {
	pool     *AccountPool
	logger   *log.Logger
	released bool
}

// Release gives up this handler's reference on the pool. Safe to call
// more than once.
func (h *AccessViolationHandler) Release() {
	if h == nil || h.released {
		return
	}
	h.released = true
	h.pool.handlerRefs--
}

func (h *AccessViolationHandler) debugf(format string, args ...interface{}) {
	if h.logger != nil {
		h.logger.Printf(format, args...)
	}
}

// Invoke attempts to grow the account behind region to cover a fault
// at vmAddr of length bytes. addressSpaceReserved is the total guest
// address space set aside for this account when the region was
// mapped; growth never exceeds it. Loads, regions with no account
// behind them, and faults past the reserved address space are ignored.
func (h *AccessViolationHandler) Invoke(region *vmmem.MemoryRegion, addressSpaceReserved uint64, accessType vmmem.AccessType, vmAddr, length uint64) {
	if accessType == vmmem.AccessLoad || region.AccountIndex == nil {
		return
	}
	requestedEnd := saturatingAddU64(vmAddr, length)
	requestedLength := saturatingSubU64(requestedEnd, region.VMAddr)
	if requestedLength > addressSpaceReserved {
		return
	}

	index := *region.AccountIndex
	ref, err := h.pool.TryBorrowExclusive(index)
	if err != nil {
		h.debugf("access violation handler: account %d unavailable: %v", index, err)
		return
	}
	defer ref.Release()
	if err := h.pool.Touch(index); err != nil {
		h.debugf("access violation handler: touch failed for account %d: %v", index, err)
		return
	}

	account := ref.Account()
	if requestedLength > region.Len {
		oldLen := len(account.Data)
		remaining := saturatingSubI64(MaxPermittedAccountsDataAllocationsPerTransaction, h.pool.resizeDelta)
		if remaining < 0 {
			remaining = 0
		}
		newLen := minInt(int(addressSpaceReserved), MaxPermittedDataLength)
		newLen = minInt(newLen, oldLen+int(remaining))
		if newLen > oldLen {
			h.pool.UpdateResizeDelta(oldLen, newLen)
			account.resize(newLen)
			region.Len = uint64(newLen)
		}
	}

	// The account's backing slice may have moved even when no resize
	// happened here, since an earlier borrow could have unshared or
	// grown it; the region's view must always be refreshed.
	account.unshare(MaxPermittedDataIncrease)
	region.HostData = account.Data
	region.Writable = true
}
