package schemafree

import (
	"math"

	"go.uber.org/zap"

	"github.com/memwalk/schemafree/errors"
	"github.com/memwalk/schemafree/schema"
)

// Free releases every heap block owned by the structure rooted at data,
// walking it according to root, then releases the root block itself. The
// root block is always released, whatever the root node's pointer flag,
// because the loader that produced data always heap-allocated it.
//
// data may be 0: the walk is a no-op and nothing is released. Internal
// decode failures (bad count field, unreadable pointer, unsupported count
// width) are not surfaced; each terminates only its own subtree, trading a
// bounded leak for never interpreting corrupt bytes as addresses.
//
// Calling Free twice on the same data is undefined, as with any
// single-release discipline.
func Free(cfg *Config, root schema.Node, data uint32) error {
	if cfg == nil {
		return errors.ErrNilConfig
	}
	if root == nil {
		return errors.ErrNilSchema
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	w := &walker{mem: cfg.Memory, rel: cfg.Releaser, log: cfg.logger()}
	w.free(root, data)
	w.release(data)
	return nil
}

// walker is the recursive dispatch over schema node kinds. It holds no
// state beyond the collaborators, so the engine is reentrant.
type walker struct {
	mem Memory
	rel Releaser
	log *zap.Logger
}

// free dispatches on the node kind, recursing into nested content first,
// then releases the node's own block when the node is pointer-owned.
// Children must go before the block that holds them: once the block is
// released its contents cannot be read.
func (w *walker) free(n schema.Node, addr uint32) {
	if addr == 0 {
		return
	}

	switch nd := n.(type) {
	case *schema.Mapping:
		w.freeMapping(nd, addr)
	case *schema.Sequence:
		w.freeSequence(nd, addr)
	case *schema.SequenceFixed:
		w.freeFixed(nd, addr)
	}

	if n.Pointer() {
		ptr, err := w.mem.ReadU32(addr)
		if err != nil {
			return
		}
		w.release(ptr)
	}
}

// freeMapping recurses into each declared field. Ownership is attached to
// the slot, so a pointer-owned mapping's fields live behind the address
// stored at addr; the block itself is released by the dispatcher
// afterwards.
func (w *walker) freeMapping(nd *schema.Mapping, addr uint32) {
	base := addr
	if nd.Ptr {
		ptr, err := w.mem.ReadU32(addr)
		if err != nil || ptr == 0 {
			return
		}
		base = ptr
	}

	for _, f := range nd.Fields {
		fieldAddr, ok := safeAddU32(base, f.Offset)
		if !ok {
			continue
		}
		w.free(f.Node, fieldAddr)
	}
}

// freeSequence handles dynamic sequences: the element count is embedded in
// the buffer at a declared offset relative to the sequence's own location,
// next to the array pointer rather than inside the array block.
func (w *walker) freeSequence(nd *schema.Sequence, addr uint32) {
	countAddr, ok := safeAddU32(addr, nd.CountOffset)
	if !ok {
		return
	}
	count, err := readUint(w.mem, nd.CountWidth, countAddr)
	if err != nil {
		return
	}
	w.freeElements(nd.Ptr, nd.Elem, addr, count)
}

func (w *walker) freeFixed(nd *schema.SequenceFixed, addr uint32) {
	w.freeElements(nd.Ptr, nd.Elem, addr, uint64(nd.Count))
}

// freeElements resolves the array base, then recurses into each element.
// The sequence's own pointer flag governs the array block; the element
// node's flag governs each element block. They are independent.
func (w *walker) freeElements(seqPtr bool, elem schema.Node, addr uint32, count uint64) {
	base := addr
	if seqPtr {
		ptr, err := w.mem.ReadU32(addr)
		if err != nil || ptr == 0 {
			return
		}
		base = ptr
	}

	stride := schema.Stride(elem)
	for i := uint64(0); i < count; i++ {
		rel := i * uint64(stride)
		if rel > math.MaxUint32 {
			return
		}
		elemAddr, ok := safeAddU32(base, uint32(rel))
		if !ok {
			return
		}
		w.free(elem, elemAddr)
	}
}

// release gives one block back. Address 0 is the null marker and is
// skipped here so Releaser implementations never see it.
func (w *walker) release(ptr uint32) {
	if ptr == 0 {
		return
	}
	w.log.Debug("releasing allocation", zap.Uint32("ptr", ptr))
	w.rel.Free(ptr)
}
