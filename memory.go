package schemafree

// Memory is a readable 32-bit linear address space holding structures a
// schema-driven loader populated. Reads must fail with an error on
// out-of-bounds access rather than panic.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	ReadU8(offset uint32) (uint8, error)
	ReadU16(offset uint32) (uint16, error)
	ReadU32(offset uint32) (uint32, error)
	ReadU64(offset uint32) (uint64, error)
}

// MemorySizer provides the current size of a linear memory in bytes.
type MemorySizer interface {
	Size() uint32
}

// Releaser gives one heap block back to whatever allocator produced it.
// Releasing address 0 must be a safe no-op; each previously obtained
// address must be released at most once.
type Releaser interface {
	Free(ptr uint32)
}

// Allocator allocates blocks in linear memory. The free engine only needs
// Releaser; Allocator is the surface loaders and test harnesses implement.
type Allocator interface {
	Alloc(size, align uint32) (uint32, error)
	Releaser
}
