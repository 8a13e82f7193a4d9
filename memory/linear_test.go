package memory

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaylienode/wasmabi/errors"
)

func TestNewLinear(t *testing.T) {
	m := NewLinear(2, 4)
	assert.Equal(t, uint32(2), m.Pages())
	assert.Equal(t, uint32(2*PageSize), m.Size())

	clamped := NewLinear(3, 1)
	assert.Equal(t, uint32(3), clamped.Pages())
	_, ok := clamped.Grow(1)
	assert.False(t, ok, "max pages is clamped up to the initial size")
}

func TestLinear_Grow(t *testing.T) {
	m := NewLinear(1, 3)
	require.True(t, m.WriteUint32Le(8, 0xCAFEBABE))

	prev, ok := m.Grow(2)
	require.True(t, ok)
	assert.Equal(t, uint32(1), prev)
	assert.Equal(t, uint32(3*PageSize), m.Size())

	v, ok := m.ReadUint32Le(8)
	require.True(t, ok)
	assert.Equal(t, uint32(0xCAFEBABE), v, "contents survive growth")

	prev, ok = m.Grow(1)
	assert.False(t, ok)
	assert.Equal(t, uint32(3), prev)

	prev, ok = m.Grow(0)
	assert.True(t, ok)
	assert.Equal(t, uint32(3), prev)
}

func TestLinear_ReadWrite(t *testing.T) {
	m := NewLinear(1, 1)

	require.True(t, m.WriteByte(1, 0xAB))
	require.True(t, m.WriteUint16Le(2, 0x1234))
	require.True(t, m.WriteUint32Le(4, 0xDEADBEEF))
	require.True(t, m.WriteUint64Le(8, math.MaxUint64-1))
	require.True(t, m.WriteFloat32Le(16, 1.5))
	require.True(t, m.WriteFloat64Le(24, -2.25))
	require.True(t, m.Write(32, []byte("hello")))

	b, ok := m.ReadByte(1)
	assert.True(t, ok)
	assert.Equal(t, byte(0xAB), b)

	u16, _ := m.ReadUint16Le(2)
	assert.Equal(t, uint16(0x1234), u16)
	raw, _ := m.Read(2, 2)
	assert.Equal(t, []byte{0x34, 0x12}, raw, "little endian")

	u32, _ := m.ReadUint32Le(4)
	assert.Equal(t, uint32(0xDEADBEEF), u32)

	u64, _ := m.ReadUint64Le(8)
	assert.Equal(t, uint64(math.MaxUint64-1), u64)

	f32, _ := m.ReadFloat32Le(16)
	assert.Equal(t, float32(1.5), f32)

	f64, _ := m.ReadFloat64Le(24)
	assert.Equal(t, -2.25, f64)

	s, ok := m.Read(32, 5)
	assert.True(t, ok)
	assert.Equal(t, "hello", string(s))
}

func TestLinear_ReadAliases(t *testing.T) {
	m := NewLinear(1, 1)
	view, ok := m.Read(100, 3)
	require.True(t, ok)

	require.True(t, m.Write(100, []byte{1, 2, 3}))
	assert.Equal(t, []byte{1, 2, 3}, view)
	assert.Equal(t, 3, cap(view), "view cannot be appended into neighbouring memory")
}

func TestLinear_OutOfRange(t *testing.T) {
	m := NewLinear(1, 1)
	end := m.Size()

	tests := []struct {
		name string
		ok   bool
	}{
		{name: "byte at end", ok: m.WriteByte(end, 1)},
		{name: "u16 straddling end", ok: m.WriteUint16Le(end-1, 1)},
		{name: "u32 straddling end", ok: m.WriteUint32Le(end-3, 1)},
		{name: "u64 straddling end", ok: m.WriteUint64Le(end-7, 1)},
		{name: "write straddling end", ok: m.Write(end-1, []byte{1, 2})},
		{name: "offset overflow", ok: m.Write(math.MaxUint32, []byte{1})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, tt.ok)
		})
	}

	_, ok := m.Read(end-2, 4)
	assert.False(t, ok)
	_, ok = m.ReadUint32Le(math.MaxUint32)
	assert.False(t, ok)

	empty, ok := m.Read(end, 0)
	assert.True(t, ok, "zero-length read at the end is in range")
	assert.Empty(t, empty)
}

func TestMustHelpers(t *testing.T) {
	m := NewLinear(1, 1)

	MustWriteInt32(m, 40, -5)
	assert.Equal(t, int32(-5), MustReadInt32(m, 40))

	MustWrite(m, 44, []byte{9, 8})
	assert.Equal(t, []byte{9, 8}, MustRead(m, 44, 2))

	defer func() {
		r := recover()
		require.NotNil(t, r)
		accessErr, ok := r.(*errors.MemoryAccessError)
		require.True(t, ok, "panic value is %T", r)
		assert.Equal(t, "read", accessErr.Op)
		assert.Equal(t, m.Size(), accessErr.Offset)
	}()
	MustReadInt32(m, m.Size())
}
