//go:build !wasip1

package alloc

import (
	"github.com/kaylienode/wasmabi/env"
	"github.com/kaylienode/wasmabi/memory"
	"github.com/kaylienode/wasmabi/wireformat"
)

// newDefault backs the process-wide adapter with a memory.Linear in native
// builds, so guest code can be exercised outside a Wasm runtime.
func newDefault(size uint32) *Adapter {
	pages := (size + memory.PageSize - 1) / memory.PageSize
	a, err := NewLinear(pages)
	if err != nil {
		env.Fail(wireformat.FailBadLayout)
	}
	return a
}
