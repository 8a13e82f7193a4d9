// Package heap implements the small-footprint allocator underneath the guest
// allocator adapter.
//
// Heap is a binary buddy allocator over a power-of-two region of linear
// memory. Free lists are threaded through the free blocks themselves (the
// first word of a free block holds the region-relative offset of the next free
// block of the same order), so the only out-of-band state is one list head per
// order. Blocks carry no header: the caller must present the same Layout to
// Dealloc that it used for Alloc, which is how the block order is recovered.
package heap

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/kaylienode/wasmabi/memory"
)

var (
	ErrOutOfMemory      = errors.New("heap: out of memory")
	ErrInvalidLayout    = errors.New("heap: invalid layout")
	ErrInvalidPointer   = errors.New("heap: invalid pointer")
	ErrUnsupportedAlign = errors.New("heap: unsupported alignment")
)

const (
	// MinOrder is the order of the smallest block (32 bytes).
	MinOrder = 5
	// MaxOrder is the order of the largest region a Heap can manage (2 GiB).
	MaxOrder = 31

	nilBlock = ^uint32(0)
)

// Stats describes the blocks currently handed out.
type Stats struct {
	Allocations int    // live blocks
	Requested   uint64 // sum of Layout.Size over live blocks
	Reserved    uint64 // sum of block sizes over live blocks
	Capacity    uint64 // size of the managed region
}

// Heap is not safe for concurrent use.
type Heap struct {
	mem       memory.Memory
	base      uint32
	baseAlign uint32
	maxOrder  uint
	free      [MaxOrder + 1]uint32
	stats     Stats
}

// New manages the region [base, base+size) of mem. size is rounded down to a
// power of two; the region must hold at least one minimum block and lie
// inside mem.
func New(mem memory.Memory, base, size uint32) (*Heap, error) {
	if size < 1<<MinOrder {
		return nil, fmt.Errorf("%w: region of %d bytes is smaller than one block", ErrInvalidLayout, size)
	}
	order := uint(bits.Len32(size) - 1)
	if order > MaxOrder {
		order = MaxOrder
	}
	if uint64(base)+(uint64(1)<<order) > uint64(mem.Size()) {
		return nil, fmt.Errorf("%w: region [%#x, +%d) exceeds memory of %d bytes",
			ErrInvalidLayout, base, uint64(1)<<order, mem.Size())
	}

	h := &Heap{
		mem:      mem,
		base:     base,
		maxOrder: order,
	}
	if base == 0 {
		h.baseAlign = 1 << MaxOrder
	} else {
		h.baseAlign = base & -base
	}
	for i := range h.free {
		h.free[i] = nilBlock
	}
	h.push(0, order)
	h.stats.Capacity = uint64(1) << order
	return h, nil
}

// Base returns the first address of the managed region.
func (h *Heap) Base() uint32 {
	return h.base
}

// Stats returns a snapshot of the allocation counters.
func (h *Heap) Stats() Stats {
	return h.stats
}

// Alloc returns the address of a block satisfying l.
func (h *Heap) Alloc(l Layout) (uint32, error) {
	order, err := h.orderFor(l)
	if err != nil {
		return 0, err
	}

	o := order
	for o <= h.maxOrder && h.free[o] == nilBlock {
		o++
	}
	if o > h.maxOrder {
		return 0, fmt.Errorf("%w: no block for layout %s", ErrOutOfMemory, l)
	}

	blk := h.pop(o)
	for o > order {
		o--
		h.push(blk+1<<o, o)
	}

	h.stats.Allocations++
	h.stats.Requested += uint64(l.Size)
	h.stats.Reserved += uint64(1) << order
	return h.base + blk, nil
}

// Dealloc returns the block at ptr, allocated with l, to the free pool and
// merges it with its buddy while the buddy is free. Freeing a block twice is
// not detected.
func (h *Heap) Dealloc(ptr uint32, l Layout) error {
	order, err := h.orderFor(l)
	if err != nil {
		return err
	}
	if ptr < h.base {
		return fmt.Errorf("%w: %#x is below the heap base %#x", ErrInvalidPointer, ptr, h.base)
	}
	blk := ptr - h.base
	if blk&(1<<order-1) != 0 || uint64(blk)+(uint64(1)<<order) > h.stats.Capacity {
		return fmt.Errorf("%w: %#x is not a block of layout %s", ErrInvalidPointer, ptr, l)
	}

	h.stats.Allocations--
	h.stats.Requested -= uint64(l.Size)
	h.stats.Reserved -= uint64(1) << order

	for order < h.maxOrder {
		if !h.remove(blk^1<<order, order) {
			break
		}
		blk &^= 1 << order
		order++
	}
	h.push(blk, order)
	return nil
}

func (h *Heap) orderFor(l Layout) (uint, error) {
	if l.Align == 0 || l.Align&(l.Align-1) != 0 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidLayout, l)
	}
	if l.Align > h.baseAlign {
		return 0, fmt.Errorf("%w: %s exceeds base alignment %d", ErrUnsupportedAlign, l, h.baseAlign)
	}
	need := max(l.Size, l.Align, 1<<MinOrder)
	order := uint(bits.Len32(need - 1))
	if order > h.maxOrder {
		return 0, fmt.Errorf("%w: layout %s is larger than the heap", ErrOutOfMemory, l)
	}
	return order, nil
}

func (h *Heap) next(blk uint32) uint32 {
	return uint32(memory.MustReadInt32(h.mem, h.base+blk))
}

func (h *Heap) setNext(blk, next uint32) {
	memory.MustWriteInt32(h.mem, h.base+blk, int32(next))
}

func (h *Heap) push(blk uint32, order uint) {
	h.setNext(blk, h.free[order])
	h.free[order] = blk
}

func (h *Heap) pop(order uint) uint32 {
	blk := h.free[order]
	h.free[order] = h.next(blk)
	return blk
}

// remove unlinks blk from the free list of order, reporting whether it was there.
func (h *Heap) remove(blk uint32, order uint) bool {
	prev := nilBlock
	for cur := h.free[order]; cur != nilBlock; cur = h.next(cur) {
		if cur != blk {
			prev = cur
			continue
		}
		if prev == nilBlock {
			h.free[order] = h.next(cur)
		} else {
			h.setNext(prev, h.next(cur))
		}
		return true
	}
	return false
}
