package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaylienode/wasmabi/heap"
	"github.com/kaylienode/wasmabi/memory"
	"github.com/kaylienode/wasmabi/wireformat"
)

// failRecorder is a fail hook that records codes instead of aborting.
type failRecorder struct {
	codes []int32
}

func (r *failRecorder) hook(code int32) {
	r.codes = append(r.codes, code)
}

func newTestAdapter(t *testing.T, opts ...Option) *Adapter {
	t.Helper()
	a, err := NewLinear(4, opts...)
	require.NoError(t, err)
	return a
}

var testSizes = []int32{0, 1, 3, 4, 5, 27, 28, 29, 60, 64, 100, 1000, 4096, 65535}

func TestAllocate_HeaderHoldsExactSize(t *testing.T) {
	a := newTestAdapter(t)

	for _, size := range testSizes {
		ptr := a.Allocate(size)
		require.NotZero(t, ptr, "size %d", size)

		header, ok := a.Memory().ReadUint32Le(ptr - HeaderSize)
		require.True(t, ok)
		assert.Equal(t, size, int32(header), "header for size %d", size)
		assert.Equal(t, size, a.SizeOf(ptr))
	}
}

func TestAllocate_BlockStartIsAligned(t *testing.T) {
	a := newTestAdapter(t)

	for _, size := range testSizes {
		ptr := a.Allocate(size)
		assert.Zero(t, (ptr-HeaderSize)%Alignment, "size %d returned %#x", size, ptr)
		assert.Equal(t, uint32(HeaderSize), ptr%Alignment)
	}
}

func TestAllocate_PayloadIsWritable(t *testing.T) {
	a := newTestAdapter(t)

	first := a.Allocate(8)
	second := a.Allocate(8)
	memory.MustWrite(a.Memory(), first, []byte("abcdefgh"))
	memory.MustWrite(a.Memory(), second, []byte("12345678"))

	assert.Equal(t, []byte("abcdefgh"), memory.MustRead(a.Memory(), first, 8))
	assert.Equal(t, int32(8), a.SizeOf(second), "payload writes never reach a neighbour's header")
}

func TestRoundTrip(t *testing.T) {
	for _, size := range testSizes {
		a := newTestAdapter(t)

		ptr := a.Allocate(size)
		a.Deallocate(ptr)
		assert.Equal(t, 0, a.Stats().Allocations, "size %d", size)

		again := a.Allocate(size)
		assert.Equal(t, ptr, again, "size %d reuses the freed block", size)
		a.Deallocate(again)
	}
}

func TestRoundTrip_ManyBlocks(t *testing.T) {
	a := newTestAdapter(t)

	var ptrs []uint32
	for i := int32(0); i < 100; i++ {
		ptrs = append(ptrs, a.Allocate(i*7))
	}
	assert.Equal(t, 100, a.Stats().Allocations)

	for i := len(ptrs) - 1; i >= 0; i-- {
		a.Deallocate(ptrs[i])
	}
	assert.Equal(t, heap.Stats{Capacity: 4 * memory.PageSize}, a.Stats())

	big := a.Allocate(4*memory.PageSize - HeaderSize)
	assert.NotZero(t, big, "nothing leaked: the whole region is allocatable again")
}

func TestAllocate_NegativeSizeFails(t *testing.T) {
	rec := &failRecorder{}
	a := newTestAdapter(t, WithFailHook(rec.hook))

	assert.Zero(t, a.Allocate(-1))
	assert.Equal(t, []int32{wireformat.FailBadLayout}, rec.codes)
}

func TestAllocate_ExhaustionFails(t *testing.T) {
	rec := &failRecorder{}
	a, err := NewLinear(1, WithFailHook(rec.hook))
	require.NoError(t, err)

	assert.Zero(t, a.Allocate(memory.PageSize))
	assert.Equal(t, []int32{wireformat.FailOutOfMemory}, rec.codes)
}

func TestDeallocate_ForeignPointerFails(t *testing.T) {
	rec := &failRecorder{}
	a := newTestAdapter(t, WithFailHook(rec.hook))

	a.Deallocate(2)
	assert.Equal(t, []int32{wireformat.FailBadFree}, rec.codes)

	ptr := a.Allocate(16)
	a.Deallocate(ptr + 32)
	assert.Equal(t, []int32{wireformat.FailBadFree, wireformat.FailBadFree}, rec.codes)
	assert.Equal(t, 1, a.Stats().Allocations)
}

func TestNew_RejectsMisalignedBase(t *testing.T) {
	mem := memory.NewLinear(1, 1)
	_, err := New(mem, 48, 1024)
	assert.ErrorIs(t, err, heap.ErrInvalidLayout)

	a, err := New(mem, 1024, 1024)
	require.NoError(t, err)
	assert.Same(t, mem, a.Memory())
}

func TestDefault(t *testing.T) {
	custom := newTestAdapter(t)
	prev := SetDefault(custom)
	t.Cleanup(func() { SetDefault(prev) })

	assert.Same(t, custom, Default())

	SetDefault(nil)
	lazy := Default()
	require.NotNil(t, lazy)
	assert.Same(t, lazy, Default(), "created once")
	assert.Equal(t, uint64(DefaultArenaSize), lazy.Stats().Capacity)

	explicit := Init(1 << 16)
	assert.Same(t, explicit, Default())
	assert.Equal(t, uint64(1<<16), explicit.Stats().Capacity)
}

func BenchmarkAllocateDeallocate(b *testing.B) {
	a, err := NewLinear(16)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		a.Deallocate(a.Allocate(64))
	}
}
