package heap

import (
	"fmt"
	"math"
)

// Layout describes a block request: its size in bytes and its alignment.
// A block must be freed with the same Layout it was allocated with.
type Layout struct {
	Size  uint32
	Align uint32
}

// NewLayout validates that align is a non-zero power of two and that size,
// once rounded up to align, still fits the 32-bit address space.
func NewLayout(size, align uint32) (Layout, error) {
	if align == 0 || align&(align-1) != 0 {
		return Layout{}, fmt.Errorf("%w: alignment %d is not a power of two", ErrInvalidLayout, align)
	}
	if uint64(size)+uint64(align-1) > math.MaxUint32 {
		return Layout{}, fmt.Errorf("%w: size %d overflows at alignment %d", ErrInvalidLayout, size, align)
	}
	return Layout{Size: size, Align: align}, nil
}

func (l Layout) String() string {
	return fmt.Sprintf("{size=%d align=%d}", l.Size, l.Align)
}
