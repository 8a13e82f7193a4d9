// Package memory models the linear address space shared by a guest module and
// its host.
//
// Memory is deliberately a subset of wazero's api.Memory, so a host can hand an
// instantiated module's memory straight to the guest-side allocator and typed
// references. Linear is a page-granular in-process implementation, and on
// wasip1 Native addresses the guest's own linear memory directly.
package memory

import (
	"github.com/kaylienode/wasmabi/errors"
)

// PageSize is the Wasm page size in bytes.
const PageSize = 65536

// MaxPages bounds Linear so that Size always fits in a uint32.
const MaxPages = 65535

// Memory is a byte-addressable little-endian linear memory.
// Accessors return false when the range falls outside the memory.
type Memory interface {
	// Size returns the size in bytes available.
	Size() uint32

	ReadByte(offset uint32) (byte, bool)
	ReadUint16Le(offset uint32) (uint16, bool)
	ReadUint32Le(offset uint32) (uint32, bool)
	ReadUint64Le(offset uint32) (uint64, bool)
	ReadFloat32Le(offset uint32) (float32, bool)
	ReadFloat64Le(offset uint32) (float64, bool)

	// Read returns a view of byteCount bytes at offset. The view aliases the
	// underlying memory and is only valid until the memory grows.
	Read(offset, byteCount uint32) ([]byte, bool)

	WriteByte(offset uint32, v byte) bool
	WriteUint16Le(offset uint32, v uint16) bool
	WriteUint32Le(offset, v uint32) bool
	WriteUint64Le(offset uint32, v uint64) bool
	WriteFloat32Le(offset uint32, v float32) bool
	WriteFloat64Le(offset uint32, v float64) bool
	Write(offset uint32, v []byte) bool
}

// MustRead is Read that panics with *errors.MemoryAccessError when out of range.
func MustRead(m Memory, offset, byteCount uint32) []byte {
	b, ok := m.Read(offset, byteCount)
	if !ok {
		panic(&errors.MemoryAccessError{Op: "read", Offset: offset, Length: byteCount})
	}
	return b
}

// MustWrite is Write that panics with *errors.MemoryAccessError when out of range.
func MustWrite(m Memory, offset uint32, v []byte) {
	if !m.Write(offset, v) {
		panic(&errors.MemoryAccessError{Op: "write", Offset: offset, Length: uint32(len(v))})
	}
}

// MustReadInt32 reads a little-endian int32, panicking when out of range.
func MustReadInt32(m Memory, offset uint32) int32 {
	v, ok := m.ReadUint32Le(offset)
	if !ok {
		panic(&errors.MemoryAccessError{Op: "read", Offset: offset, Length: 4})
	}
	return int32(v)
}

// MustWriteInt32 writes a little-endian int32, panicking when out of range.
func MustWriteInt32(m Memory, offset uint32, v int32) {
	if !m.WriteUint32Le(offset, uint32(v)) {
		panic(&errors.MemoryAccessError{Op: "write", Offset: offset, Length: 4})
	}
}
