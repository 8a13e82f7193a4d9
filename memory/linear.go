package memory

import (
	"encoding/binary"
	"math"
)

// Linear is a growable, page-granular linear memory backed by a Go byte slice.
// It is not safe for concurrent use.
type Linear struct {
	buf      []byte
	maxPages uint32
}

var _ Memory = (*Linear)(nil)

// NewLinear returns a memory of pages pages that can grow up to maxPages.
// maxPages is clamped to [pages, MaxPages].
func NewLinear(pages, maxPages uint32) *Linear {
	if pages > MaxPages {
		pages = MaxPages
	}
	if maxPages > MaxPages {
		maxPages = MaxPages
	}
	if maxPages < pages {
		maxPages = pages
	}
	return &Linear{
		buf:      make([]byte, int(pages)*PageSize),
		maxPages: maxPages,
	}
}

// Pages returns the current size in pages.
func (m *Linear) Pages() uint32 {
	return uint32(len(m.buf) / PageSize)
}

// Grow extends the memory by delta pages and returns the previous page count.
// It returns false, leaving the memory untouched, if the result would exceed
// the maximum.
func (m *Linear) Grow(delta uint32) (uint32, bool) {
	prev := m.Pages()
	if uint64(prev)+uint64(delta) > uint64(m.maxPages) {
		return prev, false
	}
	if delta == 0 {
		return prev, true
	}
	grown := make([]byte, int(prev+delta)*PageSize)
	copy(grown, m.buf)
	m.buf = grown
	return prev, true
}

// Bytes exposes the backing slice. It is replaced on Grow.
func (m *Linear) Bytes() []byte {
	return m.buf
}

func (m *Linear) Size() uint32 {
	return uint32(len(m.buf))
}

func (m *Linear) has(offset uint32, n uint64) bool {
	return uint64(offset)+n <= uint64(len(m.buf))
}

func (m *Linear) ReadByte(offset uint32) (byte, bool) {
	if !m.has(offset, 1) {
		return 0, false
	}
	return m.buf[offset], true
}

func (m *Linear) ReadUint16Le(offset uint32) (uint16, bool) {
	if !m.has(offset, 2) {
		return 0, false
	}
	return binary.LittleEndian.Uint16(m.buf[offset:]), true
}

func (m *Linear) ReadUint32Le(offset uint32) (uint32, bool) {
	if !m.has(offset, 4) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(m.buf[offset:]), true
}

func (m *Linear) ReadUint64Le(offset uint32) (uint64, bool) {
	if !m.has(offset, 8) {
		return 0, false
	}
	return binary.LittleEndian.Uint64(m.buf[offset:]), true
}

func (m *Linear) ReadFloat32Le(offset uint32) (float32, bool) {
	v, ok := m.ReadUint32Le(offset)
	return math.Float32frombits(v), ok
}

func (m *Linear) ReadFloat64Le(offset uint32) (float64, bool) {
	v, ok := m.ReadUint64Le(offset)
	return math.Float64frombits(v), ok
}

func (m *Linear) Read(offset, byteCount uint32) ([]byte, bool) {
	if !m.has(offset, uint64(byteCount)) {
		return nil, false
	}
	return m.buf[offset : offset+byteCount : offset+byteCount], true
}

func (m *Linear) WriteByte(offset uint32, v byte) bool {
	if !m.has(offset, 1) {
		return false
	}
	m.buf[offset] = v
	return true
}

func (m *Linear) WriteUint16Le(offset uint32, v uint16) bool {
	if !m.has(offset, 2) {
		return false
	}
	binary.LittleEndian.PutUint16(m.buf[offset:], v)
	return true
}

func (m *Linear) WriteUint32Le(offset, v uint32) bool {
	if !m.has(offset, 4) {
		return false
	}
	binary.LittleEndian.PutUint32(m.buf[offset:], v)
	return true
}

func (m *Linear) WriteUint64Le(offset uint32, v uint64) bool {
	if !m.has(offset, 8) {
		return false
	}
	binary.LittleEndian.PutUint64(m.buf[offset:], v)
	return true
}

func (m *Linear) WriteFloat32Le(offset uint32, v float32) bool {
	return m.WriteUint32Le(offset, math.Float32bits(v))
}

func (m *Linear) WriteFloat64Le(offset uint32, v float64) bool {
	return m.WriteUint64Le(offset, math.Float64bits(v))
}

func (m *Linear) Write(offset uint32, v []byte) bool {
	if !m.has(offset, uint64(len(v))) {
		return false
	}
	copy(m.buf[offset:], v)
	return true
}
