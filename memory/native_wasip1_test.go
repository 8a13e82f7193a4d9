//go:build wasip1

package memory

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNative_Size(t *testing.T) {
	assert.Equal(t, uint32(math.MaxUint32), Native{}.Size())
}

func TestNative_AddressOf(t *testing.T) {
	buf := []byte{1, 2, 3, 4}
	addr := AddressOf(buf)
	require.NotZero(t, addr)
	assert.Equal(t, addr+2, AddressOf(buf[2:]))

	got, ok := Native{}.Read(addr, 4)
	require.True(t, ok)
	assert.Equal(t, buf, got)

	// Writes through the address land in the Go slice.
	require.True(t, Native{}.WriteByte(addr+1, 0xAA))
	assert.Equal(t, byte(0xAA), buf[1])
}

func TestNative_ReadWrite(t *testing.T) {
	buf := make([]byte, 32)
	addr := AddressOf(buf)
	m := Native{}

	tests := []struct {
		name  string
		write func() bool
		check func(t *testing.T)
	}{
		{
			name:  "byte",
			write: func() bool { return m.WriteByte(addr, 0x7F) },
			check: func(t *testing.T) {
				v, ok := m.ReadByte(addr)
				require.True(t, ok)
				assert.Equal(t, byte(0x7F), v)
			},
		},
		{
			name:  "uint16",
			write: func() bool { return m.WriteUint16Le(addr+1, 0xBEEF) },
			check: func(t *testing.T) {
				v, ok := m.ReadUint16Le(addr + 1)
				require.True(t, ok)
				assert.Equal(t, uint16(0xBEEF), v)
				assert.Equal(t, []byte{0xEF, 0xBE}, buf[1:3], "little endian")
			},
		},
		{
			name:  "uint32",
			write: func() bool { return m.WriteUint32Le(addr+4, 0xCAFEBABE) },
			check: func(t *testing.T) {
				v, ok := m.ReadUint32Le(addr + 4)
				require.True(t, ok)
				assert.Equal(t, uint32(0xCAFEBABE), v)
			},
		},
		{
			name:  "uint64",
			write: func() bool { return m.WriteUint64Le(addr+8, 1<<60|7) },
			check: func(t *testing.T) {
				v, ok := m.ReadUint64Le(addr + 8)
				require.True(t, ok)
				assert.Equal(t, uint64(1<<60|7), v)
			},
		},
		{
			name:  "float32",
			write: func() bool { return m.WriteFloat32Le(addr+16, -2.5) },
			check: func(t *testing.T) {
				v, ok := m.ReadFloat32Le(addr + 16)
				require.True(t, ok)
				assert.Equal(t, float32(-2.5), v)
			},
		},
		{
			name:  "float64",
			write: func() bool { return m.WriteFloat64Le(addr+24, math.Pi) },
			check: func(t *testing.T) {
				v, ok := m.ReadFloat64Le(addr + 24)
				require.True(t, ok)
				assert.Equal(t, math.Pi, v)
			},
		},
		{
			name:  "bytes",
			write: func() bool { return m.Write(addr+20, []byte("abcd")) },
			check: func(t *testing.T) {
				assert.Equal(t, []byte("abcd"), buf[20:24])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.True(t, tt.write())
			tt.check(t)
		})
	}
}

func TestNative_RejectsNull(t *testing.T) {
	m := Native{}

	_, ok := m.ReadByte(0)
	assert.False(t, ok)
	_, ok = m.ReadUint32Le(0)
	assert.False(t, ok)
	_, ok = m.Read(0, 4)
	assert.False(t, ok)
	assert.False(t, m.WriteUint64Le(0, 1))
	assert.False(t, m.Write(0, []byte{1}))

	got, ok := m.Read(AddressOf(make([]byte, 1)), 0)
	assert.True(t, ok)
	assert.Empty(t, got)
}
