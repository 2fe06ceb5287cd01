// Package arena provides a byte-slice-backed linear memory with a bump
// allocator and per-block accounting. Loaders use it to build structures
// for the free engine to walk; tests and the CLI use the accounting to
// check that every live block is released exactly once.
package arena

import (
	"fmt"

	"github.com/memwalk/schemafree/errors"
)

// base keeps address 0 free so it can serve as the null marker.
const base = 8

// FaultReason classifies a misuse of Free.
type FaultReason string

const (
	FaultDoubleFree FaultReason = "double_free"
	FaultUnknownPtr FaultReason = "unknown_ptr"
)

// Fault records one Free call that did not match a live allocation.
type Fault struct {
	Reason FaultReason
	Ptr    uint32
}

// Arena is a bump allocator over a fixed byte slice. Freed blocks are not
// reused; the value of the arena is its accounting, not its throughput.
// It is not safe for concurrent use.
type Arena struct {
	data   []byte
	live   map[uint32]uint32
	freed  map[uint32]bool
	faults []Fault
	next   uint32
}

// New creates an arena of the given size in bytes.
func New(size uint32) *Arena {
	return &Arena{
		data:  make([]byte, size),
		live:  make(map[uint32]uint32),
		freed: make(map[uint32]bool),
		next:  base,
	}
}

// Alloc reserves a block. Zero-size blocks still get distinct addresses so
// accounting stays unambiguous.
func (a *Arena) Alloc(size, align uint32) (uint32, error) {
	if align == 0 {
		align = 1
	}
	ptr := (a.next + align - 1) &^ (align - 1)
	span := size
	if span == 0 {
		span = 1
	}
	if uint64(ptr)+uint64(span) > uint64(len(a.data)) {
		return 0, errors.AllocationFailed(errors.PhaseRuntime, size, align)
	}
	a.next = ptr + span
	a.live[ptr] = size
	return ptr, nil
}

// Free releases a block. Freeing 0 is a no-op. A second free of the same
// block or a free of an address Alloc never returned is recorded as a
// fault rather than panicking.
func (a *Arena) Free(ptr uint32) {
	if ptr == 0 {
		return
	}
	if _, ok := a.live[ptr]; ok {
		delete(a.live, ptr)
		a.freed[ptr] = true
		return
	}
	if a.freed[ptr] {
		a.faults = append(a.faults, Fault{Reason: FaultDoubleFree, Ptr: ptr})
		return
	}
	a.faults = append(a.faults, Fault{Reason: FaultUnknownPtr, Ptr: ptr})
}

// Live returns the number of blocks allocated and not yet freed.
func (a *Arena) Live() int {
	return len(a.live)
}

// Freed reports whether ptr was a block that has been released.
func (a *Arena) Freed(ptr uint32) bool {
	return a.freed[ptr]
}

// Faults returns every mismatched Free observed so far.
func (a *Arena) Faults() []Fault {
	return a.faults
}

// Size returns the arena capacity in bytes.
func (a *Arena) Size() uint32 {
	return uint32(len(a.data))
}

// Bytes exposes the backing store. Callers may populate structures
// directly; the slice aliases the arena.
func (a *Arena) Bytes() []byte {
	return a.data
}

func (a *Arena) bounds(offset, length uint32) error {
	if uint64(offset)+uint64(length) > uint64(len(a.data)) {
		return fmt.Errorf("access out of bounds: offset=%d, length=%d, size=%d", offset, length, len(a.data))
	}
	return nil
}

func (a *Arena) Read(offset uint32, length uint32) ([]byte, error) {
	if err := a.bounds(offset, length); err != nil {
		return nil, err
	}
	return a.data[offset : offset+length], nil
}

func (a *Arena) ReadU8(offset uint32) (uint8, error) {
	if err := a.bounds(offset, 1); err != nil {
		return 0, err
	}
	return a.data[offset], nil
}

func (a *Arena) ReadU16(offset uint32) (uint16, error) {
	if err := a.bounds(offset, 2); err != nil {
		return 0, err
	}
	return uint16(a.data[offset]) | uint16(a.data[offset+1])<<8, nil
}

func (a *Arena) ReadU32(offset uint32) (uint32, error) {
	if err := a.bounds(offset, 4); err != nil {
		return 0, err
	}
	return uint32(a.data[offset]) | uint32(a.data[offset+1])<<8 |
		uint32(a.data[offset+2])<<16 | uint32(a.data[offset+3])<<24, nil
}

func (a *Arena) ReadU64(offset uint32) (uint64, error) {
	lo, err := a.ReadU32(offset)
	if err != nil {
		return 0, err
	}
	hi, err := a.ReadU32(offset + 4)
	if err != nil {
		return 0, err
	}
	return uint64(lo) | uint64(hi)<<32, nil
}

func (a *Arena) Write(offset uint32, data []byte) error {
	if err := a.bounds(offset, uint32(len(data))); err != nil {
		return err
	}
	copy(a.data[offset:], data)
	return nil
}

func (a *Arena) WriteU8(offset uint32, value uint8) error {
	return a.Write(offset, []byte{value})
}

func (a *Arena) WriteU16(offset uint32, value uint16) error {
	return a.Write(offset, []byte{byte(value), byte(value >> 8)})
}

func (a *Arena) WriteU32(offset uint32, value uint32) error {
	return a.Write(offset, []byte{byte(value), byte(value >> 8), byte(value >> 16), byte(value >> 24)})
}

func (a *Arena) WriteU64(offset uint32, value uint64) error {
	if err := a.WriteU32(offset, uint32(value)); err != nil {
		return err
	}
	return a.WriteU32(offset+4, uint32(value>>32))
}
