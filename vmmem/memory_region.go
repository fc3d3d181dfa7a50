// Package vmmem defines the boundary shapes shared with the VM's
// memory subsystem: the mapped regions the guest program addresses,
// and the access-violation callback signature the VM invokes when a
// guest write reaches past a region's currently mapped length.
//
// The VM itself is an external collaborator and is not implemented
// here (see the transaction execution context's construction-time
// scope). HostData stands in for what the original runtime exposes as
// a raw host pointer: Go has no safe raw pointer into GC'd memory
// worth handing across this boundary, so the mapped region is a slice
// instead.
package vmmem

// AccessType distinguishes a guest load from a guest store. Loads
// never trigger growth; only stores can fault into a resize.
type AccessType int

const (
	AccessLoad AccessType = iota
	AccessStore
)

// MemoryRegion is one mapped range of guest address space. Regions
// backing a writable account carry an AccountIndex payload; regions
// backing anything else (read-only accounts, stack, heap, program
// data) carry a nil payload and are ignored by the grow-on-fault
// handler.
type MemoryRegion struct {
	VMAddr       uint64
	Len          uint64
	HostData     []byte
	Writable     bool
	AccountIndex *uint16
}
