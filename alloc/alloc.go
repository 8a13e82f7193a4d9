// Package alloc is the allocator adapter at the guest/host boundary.
//
// Every block is prefixed by a 4-byte header holding the exact size the
// caller asked for, so a bare offset is enough to free it again:
//
//	block start (32-byte aligned)
//	v
//	[int32 size][payload ...]
//	            ^ offset returned by Allocate, passed to Deallocate
//
// Allocate and Deallocate rebuild the same heap.Layout{size+4, 32}, which the
// underlying heap needs to return the block. There is no side table and no
// locking: a module instance runs one host call at a time.
package alloc

import (
	"fmt"
	"math"

	"github.com/kaylienode/wasmabi/env"
	"github.com/kaylienode/wasmabi/heap"
	"github.com/kaylienode/wasmabi/memory"
	"github.com/kaylienode/wasmabi/wireformat"
)

const (
	HeaderSize = wireformat.HeaderSize
	Alignment  = wireformat.Alignment

	// MaxSize is the largest size Allocate accepts.
	MaxSize = math.MaxInt32 - HeaderSize
)

// FailFunc aborts the module. Implementations must not return; if one does,
// the failing operation returns without effect.
type FailFunc func(code int32)

// Adapter hands out header-prefixed blocks from a heap.
type Adapter struct {
	mem  memory.Memory
	heap *heap.Heap
	fail FailFunc

	// arena keeps a Go-allocated heap region reachable while the adapter
	// addresses it by number.
	arena []byte
}

// Option configures an Adapter.
type Option func(*adapterConfig)

type adapterConfig struct {
	fail FailFunc
}

func defaultAdapterConfig() adapterConfig {
	return adapterConfig{
		fail: env.Fail,
	}
}

// WithFailHook replaces the abort hook (env.Fail by default).
func WithFailHook(fail FailFunc) Option {
	return func(c *adapterConfig) {
		if fail != nil {
			c.fail = fail
		}
	}
}

// New creates an adapter over the region [base, base+size) of mem.
// base must be aligned to Alignment.
func New(mem memory.Memory, base, size uint32, opts ...Option) (*Adapter, error) {
	cfg := defaultAdapterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if base%Alignment != 0 {
		return nil, fmt.Errorf("%w: heap base %#x is not %d-byte aligned", heap.ErrInvalidLayout, base, Alignment)
	}
	h, err := heap.New(mem, base, size)
	if err != nil {
		return nil, err
	}
	return &Adapter{mem: mem, heap: h, fail: cfg.fail}, nil
}

// NewLinear creates an adapter over a fresh memory.Linear. The first page is
// left unused so that no block sits at a low address; the heap spans the
// following pages (rounded down to a power of two).
func NewLinear(pages uint32, opts ...Option) (*Adapter, error) {
	mem := memory.NewLinear(pages+1, pages+1)
	return New(mem, memory.PageSize, pages*memory.PageSize, opts...)
}

// Memory returns the memory the adapter allocates in.
func (a *Adapter) Memory() memory.Memory {
	return a.mem
}

// Stats reports the blocks currently allocated.
func (a *Adapter) Stats() heap.Stats {
	return a.heap.Stats()
}

// Allocate returns the offset of a fresh block able to hold size bytes.
// The header word just before the offset holds size.
// A negative size, or a heap that cannot satisfy the request, aborts the module.
func (a *Adapter) Allocate(size int32) uint32 {
	if size < 0 || size > MaxSize {
		a.fail(wireformat.FailBadLayout)
		return 0
	}

	blk, err := a.heap.Alloc(layoutFor(size))
	if err != nil {
		a.fail(wireformat.FailOutOfMemory)
		return 0
	}
	memory.MustWriteInt32(a.mem, blk, size)
	return blk + HeaderSize
}

// Deallocate returns the block at ptr, previously obtained from Allocate,
// to the heap. Freeing a block twice, or freeing an offset that Allocate did
// not return, is undefined; offsets the heap can tell are foreign abort the module.
func (a *Adapter) Deallocate(ptr uint32) {
	if ptr < HeaderSize {
		a.fail(wireformat.FailBadFree)
		return
	}
	blk := ptr - HeaderSize
	size := memory.MustReadInt32(a.mem, blk)
	if size < 0 || size > MaxSize {
		a.fail(wireformat.FailBadFree)
		return
	}
	if err := a.heap.Dealloc(blk, layoutFor(size)); err != nil {
		a.fail(wireformat.FailBadFree)
	}
}

// SizeOf returns the size recorded in the header of the block at ptr.
func (a *Adapter) SizeOf(ptr uint32) int32 {
	return memory.MustReadInt32(a.mem, ptr-HeaderSize)
}

func layoutFor(size int32) heap.Layout {
	return heap.Layout{Size: uint32(size) + HeaderSize, Align: Alignment}
}
