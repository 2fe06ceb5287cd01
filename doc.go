// Package schemafree releases heap allocations owned by schema-described
// data structures in 32-bit linear memory.
//
// A separate schema-driven loader (typically running inside a WebAssembly
// guest, or any producer targeting a linear address space) populates a
// native structure and hands back its root address. This package walks the
// structure using the same declarative schema the loader used and frees
// every allocation the structure owns, without the caller writing
// type-specific cleanup code.
//
// # Architecture Overview
//
// The library is organized into a small set of packages:
//
//	schemafree/          Root package: Memory/Releaser interfaces and the Free engine
//	├── schema/          Declarative layout nodes (scalar, mapping, sequence)
//	├── witschema/       Schema compiler for Canonical ABI layouts of WIT types
//	├── arena/           Tracking bump allocator backed by a byte slice
//	├── wazeromem/       Adapters for wazero guest memory and guest free functions
//	└── errors/          Structured error types
//
// # Quick Start
//
// Describe the structure, then free it:
//
//	node := &schema.Mapping{
//	    Size: 12,
//	    Fields: []schema.Field{
//	        {Name: "id", Offset: 0, Node: &schema.Scalar{Size: 4}},
//	        {Name: "name", Offset: 4, Node: &schema.Sequence{
//	            Ptr: true, CountOffset: 4, CountWidth: 4,
//	            Elem: &schema.Scalar{Size: 1},
//	        }},
//	    },
//	}
//
//	cfg := &schemafree.Config{Memory: mem, Releaser: rel}
//	if err := schemafree.Free(cfg, node, rootAddr); err != nil {
//	    log.Fatal(err)
//	}
//
// # Ownership Model
//
// Addresses are uint32 offsets into a linear memory; address 0 is the null
// marker. A node marked pointer-owned stores a 4-byte address to a
// separately allocated block rather than inline bytes. The engine releases
// children before the block that contains them and releases each block at
// most once. The root block is always released, regardless of the root
// node's pointer flag, because the loader always heap-allocates the root.
//
// # Failure Policy
//
// The engine never aborts the process and never frees an address it could
// not read cleanly. A failed count or pointer read terminates only the
// affected subtree: under-freeing (a bounded leak) is preferred to
// interpreting corrupt bytes as addresses. Only the top-level parameter
// checks surface errors to the caller.
//
// # Thread Safety
//
// The engine is stateless and reentrant. Concurrent calls on disjoint
// buffers are safe; a single buffer must not be freed concurrently with
// itself or with a reader still traversing it.
package schemafree
