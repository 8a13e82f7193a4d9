// Package testutil provides test doubles and Wasm fixtures shared by the
// package tests.
package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kaylienode/wasmabi/alloc"
	"github.com/kaylienode/wasmabi/memory"
)

// SpyAllocator wraps an allocator adapter and records every call.
type SpyAllocator struct {
	Adapter     *alloc.Adapter
	Allocated   []uint32
	Deallocated []uint32
}

// NewSpyAllocator returns a spy over a fresh adapter with pages of heap.
func NewSpyAllocator(t *testing.T, pages uint32) *SpyAllocator {
	t.Helper()
	a, err := alloc.NewLinear(pages)
	require.NoError(t, err)
	return &SpyAllocator{Adapter: a}
}

func (s *SpyAllocator) Memory() memory.Memory {
	return s.Adapter.Memory()
}

func (s *SpyAllocator) Allocate(size int32) uint32 {
	ptr := s.Adapter.Allocate(size)
	s.Allocated = append(s.Allocated, ptr)
	return ptr
}

func (s *SpyAllocator) Deallocate(ptr uint32) {
	s.Deallocated = append(s.Deallocated, ptr)
	s.Adapter.Deallocate(ptr)
}

// Live returns the number of blocks currently allocated.
func (s *SpyAllocator) Live() int {
	return s.Adapter.Stats().Allocations
}
