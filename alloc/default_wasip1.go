//go:build wasip1

package alloc

import (
	"github.com/kaylienode/wasmabi/env"
	"github.com/kaylienode/wasmabi/memory"
	"github.com/kaylienode/wasmabi/wireformat"
)

// newDefault carves the heap out of a Go-allocated arena and addresses it
// through memory.Native, so offsets are real linear-memory addresses the host
// can use directly. The adapter holds the arena, so it stays allocated for as
// long as the adapter is reachable. Go's collector does not move objects, so
// its address is stable.
func newDefault(size uint32) *Adapter {
	arena := make([]byte, size+Alignment)
	base := (memory.AddressOf(arena) + Alignment - 1) &^ (Alignment - 1)

	a, err := New(memory.Native{}, base, size)
	if err != nil {
		env.Fail(wireformat.FailBadLayout)
	}
	a.arena = arena
	return a
}
