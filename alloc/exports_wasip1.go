//go:build wasip1

package alloc

import "github.com/kaylienode/wasmabi/wireformat"

// allocate reserves size bytes for the host and returns their offset.
//
//go:wasmexport allocate
func allocate(size int32) uint32 {
	return Default().Allocate(size)
}

// deallocate releases a block obtained from allocate.
//
//go:wasmexport deallocate
func deallocate(ptr uint32) {
	Default().Deallocate(ptr)
}

// strFormat tells the host how to encode strings it writes into this module.
//
//go:wasmexport str_format
func strFormat() int32 {
	return int32(wireformat.StringFormatUTF8)
}
