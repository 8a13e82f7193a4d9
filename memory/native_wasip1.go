//go:build wasip1

package memory

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// Native addresses the guest's own linear memory: an offset is the address.
// It performs no bounds checking beyond rejecting the null address; offsets
// are trusted to come from the allocator or from the host under the ABI.
type Native struct{}

var _ Memory = Native{}

// Size reports the whole 32-bit address space; Go has no intrinsic for the
// current memory size.
func (Native) Size() uint32 {
	return math.MaxUint32
}

func (Native) view(offset, n uint32) ([]byte, bool) {
	if offset == 0 {
		return nil, false
	}
	if n == 0 {
		return []byte{}, true
	}
	// WASM linear memory: uint32 offset -> pointer conversion is the address itself.
	//nolint:gosec // G103: Valid unsafe.Pointer use for WASM linear memory access
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(offset))), n), true
}

func (m Native) ReadByte(offset uint32) (byte, bool) {
	b, ok := m.view(offset, 1)
	if !ok {
		return 0, false
	}
	return b[0], true
}

func (m Native) ReadUint16Le(offset uint32) (uint16, bool) {
	b, ok := m.view(offset, 2)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint16(b), true
}

func (m Native) ReadUint32Le(offset uint32) (uint32, bool) {
	b, ok := m.view(offset, 4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}

func (m Native) ReadUint64Le(offset uint32) (uint64, bool) {
	b, ok := m.view(offset, 8)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint64(b), true
}

func (m Native) ReadFloat32Le(offset uint32) (float32, bool) {
	v, ok := m.ReadUint32Le(offset)
	return math.Float32frombits(v), ok
}

func (m Native) ReadFloat64Le(offset uint32) (float64, bool) {
	v, ok := m.ReadUint64Le(offset)
	return math.Float64frombits(v), ok
}

func (m Native) Read(offset, byteCount uint32) ([]byte, bool) {
	return m.view(offset, byteCount)
}

func (m Native) WriteByte(offset uint32, v byte) bool {
	b, ok := m.view(offset, 1)
	if ok {
		b[0] = v
	}
	return ok
}

func (m Native) WriteUint16Le(offset uint32, v uint16) bool {
	b, ok := m.view(offset, 2)
	if ok {
		binary.LittleEndian.PutUint16(b, v)
	}
	return ok
}

func (m Native) WriteUint32Le(offset, v uint32) bool {
	b, ok := m.view(offset, 4)
	if ok {
		binary.LittleEndian.PutUint32(b, v)
	}
	return ok
}

func (m Native) WriteUint64Le(offset uint32, v uint64) bool {
	b, ok := m.view(offset, 8)
	if ok {
		binary.LittleEndian.PutUint64(b, v)
	}
	return ok
}

func (m Native) WriteFloat32Le(offset uint32, v float32) bool {
	return m.WriteUint32Le(offset, math.Float32bits(v))
}

func (m Native) WriteFloat64Le(offset uint32, v float64) bool {
	return m.WriteUint64Le(offset, math.Float64bits(v))
}

func (m Native) Write(offset uint32, v []byte) bool {
	b, ok := m.view(offset, uint32(len(v)))
	if ok {
		copy(b, v)
	}
	return ok
}

// AddressOf returns the linear-memory address of the first byte of b.
func AddressOf(b []byte) uint32 {
	//nolint:gosec // G103: Valid unsafe.Pointer use for WASM linear memory access
	return uint32(uintptr(unsafe.Pointer(unsafe.SliceData(b))))
}
