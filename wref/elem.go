package wref

import (
	"unsafe"

	"github.com/kaylienode/wasmabi/errors"
	"github.com/kaylienode/wasmabi/memory"
)

// Elem is the closed set of element types a handle may view. All of them are
// plain fixed-width values with nothing to clean up, which is what allows
// Release to free a block without visiting its elements.
type Elem interface {
	int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64 | float32 | float64 | bool
}

// SizeOf returns the wire width of T.
func SizeOf[T Elem]() uint32 {
	var zero T
	return uint32(unsafe.Sizeof(zero))
}

func accessPanic(op string, offset, n uint32) {
	panic(&errors.MemoryAccessError{Op: op, Offset: offset, Length: n})
}

// Load reads one T at offset. It panics with *errors.MemoryAccessError if the
// value does not lie inside m.
func Load[T Elem](m memory.Memory, offset uint32) T {
	var v T
	ok := true
	switch p := any(&v).(type) {
	case *int8:
		var b byte
		b, ok = m.ReadByte(offset)
		*p = int8(b)
	case *uint8:
		*p, ok = m.ReadByte(offset)
	case *bool:
		var b byte
		b, ok = m.ReadByte(offset)
		*p = b != 0
	case *int16:
		var u uint16
		u, ok = m.ReadUint16Le(offset)
		*p = int16(u)
	case *uint16:
		*p, ok = m.ReadUint16Le(offset)
	case *int32:
		var u uint32
		u, ok = m.ReadUint32Le(offset)
		*p = int32(u)
	case *uint32:
		*p, ok = m.ReadUint32Le(offset)
	case *int64:
		var u uint64
		u, ok = m.ReadUint64Le(offset)
		*p = int64(u)
	case *uint64:
		*p, ok = m.ReadUint64Le(offset)
	case *float32:
		*p, ok = m.ReadFloat32Le(offset)
	case *float64:
		*p, ok = m.ReadFloat64Le(offset)
	}
	if !ok {
		accessPanic("read", offset, SizeOf[T]())
	}
	return v
}

// Store writes one T at offset, panicking like Load on a bad offset.
func Store[T Elem](m memory.Memory, offset uint32, v T) {
	var ok bool
	switch x := any(v).(type) {
	case int8:
		ok = m.WriteByte(offset, byte(x))
	case uint8:
		ok = m.WriteByte(offset, x)
	case bool:
		var b byte
		if x {
			b = 1
		}
		ok = m.WriteByte(offset, b)
	case int16:
		ok = m.WriteUint16Le(offset, uint16(x))
	case uint16:
		ok = m.WriteUint16Le(offset, x)
	case int32:
		ok = m.WriteUint32Le(offset, uint32(x))
	case uint32:
		ok = m.WriteUint32Le(offset, x)
	case int64:
		ok = m.WriteUint64Le(offset, uint64(x))
	case uint64:
		ok = m.WriteUint64Le(offset, x)
	case float32:
		ok = m.WriteFloat32Le(offset, x)
	case float64:
		ok = m.WriteFloat64Le(offset, x)
	}
	if !ok {
		accessPanic("write", offset, SizeOf[T]())
	}
}

// LoadN reads n consecutive elements starting at offset.
func LoadN[T Elem](m memory.Memory, offset uint32, n int) []T {
	out := make([]T, n)
	size := SizeOf[T]()
	for i := range out {
		out[i] = Load[T](m, offset+uint32(i)*size)
	}
	return out
}

// StoreN writes values consecutively starting at offset.
func StoreN[T Elem](m memory.Memory, offset uint32, values []T) {
	size := SizeOf[T]()
	for i, v := range values {
		Store(m, offset+uint32(i)*size, v)
	}
}
