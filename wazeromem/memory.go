package wazeromem

import (
	"context"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/memwalk/schemafree"
)

// Memory wraps wazero guest memory to implement schemafree.Memory.
type Memory struct {
	mem api.Memory
}

// NewMemory wraps the linear memory of an instantiated module.
func NewMemory(mem api.Memory) *Memory {
	return &Memory{mem: mem}
}

func (m *Memory) Read(offset uint32, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, fmt.Errorf("read out of bounds: offset=%d, length=%d", offset, length)
	}
	return data, nil
}

func (m *Memory) ReadU8(offset uint32) (uint8, error) {
	data, err := m.Read(offset, 1)
	if err != nil {
		return 0, err
	}
	return data[0], nil
}

func (m *Memory) ReadU16(offset uint32) (uint16, error) {
	data, err := m.Read(offset, 2)
	if err != nil {
		return 0, err
	}
	return uint16(data[0]) | uint16(data[1])<<8, nil
}

func (m *Memory) ReadU32(offset uint32) (uint32, error) {
	val, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, fmt.Errorf("read out of bounds")
	}
	return val, nil
}

func (m *Memory) ReadU64(offset uint32) (uint64, error) {
	val, ok := m.mem.ReadUint64Le(offset)
	if !ok {
		return 0, fmt.Errorf("read out of bounds")
	}
	return val, nil
}

func (m *Memory) Size() uint32 {
	if m.mem == nil {
		return 0
	}
	return m.mem.Size()
}

// GuestReleaser forwards Free to an exported guest function taking a
// single pointer parameter (the usual `free`-style export). A failed
// guest call is logged and swallowed: the engine's contract is that
// releasing never aborts the walk.
type GuestReleaser struct {
	fn  api.Function
	log *zap.Logger
	ctx context.Context
	mu  sync.Mutex
}

// NewGuestReleaser wraps an exported deallocation function.
func NewGuestReleaser(fn api.Function) *GuestReleaser {
	return &GuestReleaser{fn: fn, log: zap.NewNop()}
}

// SetLogger routes failed-call diagnostics to l. Nil restores the no-op
// sink.
func (r *GuestReleaser) SetLogger(l *zap.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l == nil {
		l = zap.NewNop()
	}
	r.log = l
}

// SetContext sets the context used for subsequent guest calls.
func (r *GuestReleaser) SetContext(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctx = ctx
}

func (r *GuestReleaser) Free(ptr uint32) {
	if r.fn == nil || ptr == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ctx := r.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := r.fn.Call(ctx, uint64(ptr)); err != nil {
		r.log.Warn("Free: guest deallocation call failed",
			zap.Uint32("ptr", ptr),
			zap.Error(err))
	}
}

// Compile-time checks that the adapters implement the core interfaces
var _ schemafree.Memory = (*Memory)(nil)
var _ schemafree.MemorySizer = (*Memory)(nil)
var _ schemafree.Releaser = (*GuestReleaser)(nil)
