package wireformat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBorrowed(t *testing.T) {
	tests := []struct {
		name   string
		offset uint32
		want   bool
	}{
		{name: "zero", offset: 0, want: false},
		{name: "typical heap offset", offset: 0x0001_0024, want: false},
		{name: "max positive", offset: 0x7FFF_FFFF, want: false},
		{name: "sign bit", offset: 0x8000_0000, want: true},
		{name: "minus one", offset: 0xFFFF_FFFF, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsBorrowed(tt.offset))
		})
	}
}

func TestStringFormat(t *testing.T) {
	assert.False(t, StringFormatUnspecified.Valid())
	assert.True(t, StringFormatUTF16.Valid())
	assert.True(t, StringFormatUTF32.Valid())
	assert.True(t, StringFormatUTF8.Valid())
	assert.False(t, StringFormat(4).Valid())
	assert.False(t, StringFormat(-1).Valid())

	assert.Equal(t, int32(3), int32(StringFormatUTF8))
	assert.Equal(t, "utf8", StringFormatUTF8.String())
	assert.Equal(t, "StringFormat(9)", StringFormat(9).String())
}

func TestLayoutConstants(t *testing.T) {
	assert.Equal(t, 4, HeaderSize)
	assert.Equal(t, 4, CountSize)
	assert.Equal(t, 32, Alignment)
	assert.Zero(t, Alignment&(Alignment-1), "alignment must be a power of two")
}
