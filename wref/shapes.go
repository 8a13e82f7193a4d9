package wref

import (
	"fmt"
	"math"

	"github.com/kaylienode/wasmabi/memory"
	"github.com/kaylienode/wasmabi/wireformat"
)

// Scalar views a single T at its offset.
type Scalar[T Elem] struct {
	ref
}

// ScalarAt wraps offset as a Scalar[T]. The offset is not validated.
func ScalarAt[T Elem](a Allocator, offset uint32) *Scalar[T] {
	return &Scalar[T]{ref: newRef(a, offset)}
}

// NewScalar allocates a block holding v and returns an owning handle.
func NewScalar[T Elem](a Allocator, v T) *Scalar[T] {
	s := ScalarAt[T](a, a.Allocate(int32(SizeOf[T]())))
	Store(s.mem(), s.offset, v)
	return s
}

// Get reads the value.
func (s *Scalar[T]) Get() T {
	return Load[T](s.mem(), s.offset)
}

// Len is implemented by the zero-size marker types that carry a fixed
// length in a Vec's type.
type Len interface {
	Len() int
}

// Length markers for the catalog's vector and matrix sizes.
type (
	N2  struct{}
	N3  struct{}
	N4  struct{}
	N9  struct{}
	N16 struct{}
)

func (N2) Len() int  { return 2 }
func (N3) Len() int  { return 3 }
func (N4) Len() int  { return 4 }
func (N9) Len() int  { return 9 }
func (N16) Len() int { return 16 }

// Vec views N elements of T at its offset. There is no count word: the
// length is a property of the type.
type Vec[T Elem, N Len] struct {
	ref
}

// VecAt wraps offset as a Vec[T, N]. The offset is not validated.
func VecAt[T Elem, N Len](a Allocator, offset uint32) *Vec[T, N] {
	return &Vec[T, N]{ref: newRef(a, offset)}
}

// NewVec allocates a block holding values and returns an owning handle.
// It panics unless len(values) equals N.
func NewVec[T Elem, N Len](a Allocator, values ...T) *Vec[T, N] {
	var n N
	if len(values) != n.Len() {
		panic(fmt.Sprintf("wref: NewVec needs %d values, got %d", n.Len(), len(values)))
	}
	v := VecAt[T, N](a, a.Allocate(int32(uint32(n.Len())*SizeOf[T]())))
	StoreN(v.mem(), v.offset, values)
	return v
}

// Len returns N.
func (v *Vec[T, N]) Len() int {
	var n N
	return n.Len()
}

// At returns element i. It panics if i is outside [0, N).
func (v *Vec[T, N]) At(i int) T {
	if i < 0 || i >= v.Len() {
		panic(fmt.Sprintf("wref: index %d out of range [0:%d]", i, v.Len()))
	}
	return Load[T](v.mem(), v.offset+uint32(i)*SizeOf[T]())
}

// Values copies the N elements out.
func (v *Vec[T, N]) Values() []T {
	return LoadN[T](v.mem(), v.offset, v.Len())
}

// Array views a variable-length array: an int32 element count followed by
// that many elements of T.
type Array[T Elem] struct {
	ref
}

// ArrayAt wraps offset as an Array[T]. The offset is not validated.
func ArrayAt[T Elem](a Allocator, offset uint32) *Array[T] {
	return &Array[T]{ref: newRef(a, offset)}
}

// NewArray allocates a block holding the count and values and returns an
// owning handle.
func NewArray[T Elem](a Allocator, values []T) *Array[T] {
	arr := ArrayAt[T](a, allocCounted(a, len(values), SizeOf[T]()))
	StoreN(arr.mem(), arr.offset+wireformat.CountSize, values)
	return arr
}

// Len returns the stored element count.
func (arr *Array[T]) Len() int {
	return int(memory.MustReadInt32(arr.mem(), arr.offset))
}

// At returns element i. It panics if i is outside [0, Len()).
func (arr *Array[T]) At(i int) T {
	if n := arr.Len(); i < 0 || i >= n {
		panic(fmt.Sprintf("wref: index %d out of range [0:%d]", i, n))
	}
	return Load[T](arr.mem(), arr.data()+uint32(i)*SizeOf[T]())
}

// Values copies the elements out.
func (arr *Array[T]) Values() []T {
	return LoadN[T](arr.mem(), arr.data(), arr.Len())
}

func (arr *Array[T]) data() uint32 {
	return arr.offset + wireformat.CountSize
}

// allocCounted allocates room for a count word and n elements of size bytes,
// writes the count, and returns the offset.
func allocCounted(a Allocator, n int, size uint32) uint32 {
	total := uint64(wireformat.CountSize) + uint64(n)*uint64(size)
	if n > math.MaxInt32 || total > math.MaxInt32 {
		panic(fmt.Sprintf("wref: %d elements of %d bytes do not fit a block", n, size))
	}
	offset := a.Allocate(int32(total))
	memory.MustWriteInt32(a.Memory(), offset, int32(n))
	return offset
}

// Binary views a raw byte buffer. It is an Array[uint8] with a zero-copy view.
type Binary struct {
	Array[uint8]
}

// BinaryAt wraps offset as Binary. The offset is not validated.
func BinaryAt(a Allocator, offset uint32) *Binary {
	return &Binary{Array: Array[uint8]{ref: newRef(a, offset)}}
}

// NewBinary allocates a block holding the count and b and returns an owning handle.
func NewBinary(a Allocator, b []byte) *Binary {
	bin := BinaryAt(a, allocCounted(a, len(b), 1))
	memory.MustWrite(bin.mem(), bin.data(), b)
	return bin
}

// Bytes returns a view of the payload. It aliases the block and is valid
// until the handle is released or the memory grows.
func (b *Binary) Bytes() []byte {
	return memory.MustRead(b.mem(), b.data(), uint32(b.Len()))
}

// String views UTF-8 text. Its layout is identical to Binary; the bytes are
// assumed, not checked, to be valid UTF-8.
type String struct {
	Binary
}

// StringAt wraps offset as String. The offset is not validated.
func StringAt(a Allocator, offset uint32) *String {
	return &String{Binary: Binary{Array: Array[uint8]{ref: newRef(a, offset)}}}
}

// NewString allocates a block holding the count and the bytes of s and
// returns an owning handle.
func NewString(a Allocator, s string) *String {
	str := StringAt(a, allocCounted(a, len(s), 1))
	memory.MustWrite(str.mem(), str.data(), []byte(s))
	return str
}

// AsBinary reinterprets the handle as its byte shape. Both views share one
// ownership state, so releasing either releases the block once.
func (s *String) AsBinary() *Binary {
	return &s.Binary
}

// String returns the text. Malformed UTF-8 is passed through unchanged.
func (s *String) String() string {
	return string(s.Bytes())
}
