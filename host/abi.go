package host

import (
	"context"
	stdErrors "errors"
	"fmt"
	"math"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"

	"github.com/kaylienode/wasmabi/errors"
	"github.com/kaylienode/wasmabi/memory"
	"github.com/kaylienode/wasmabi/wireformat"
	"github.com/kaylienode/wasmabi/wref"
)

// ErrNullBlock is returned when the guest allocator hands back an offset the
// host cannot use: zero, or one carrying the borrowed sentinel.
var ErrNullBlock = stdErrors.New("guest returned an unusable block")

// ABI allocates and fills blocks in a guest and reads guest-produced values.
//
// Offsets returned by the Alloc methods are owned by whoever receives them
// next. Passing one as a call argument hands it to the guest, which frees it;
// otherwise release it with Free.
type ABI struct {
	guest Guest
}

// NewABI wraps g. It fails if g reports an unknown string format.
func NewABI(g Guest) (*ABI, error) {
	if f := g.StringFormat(); !f.Valid() {
		return nil, &errors.FormatError{Format: int32(f)}
	}
	return &ABI{guest: g}, nil
}

// Format returns the string encoding the guest expects.
func (a *ABI) Format() wireformat.StringFormat {
	return a.guest.StringFormat()
}

// Memory returns the guest memory.
func (a *ABI) Memory() memory.Memory {
	return a.guest.Memory()
}

// AllocBlock allocates size bytes in the guest and returns the payload offset.
func (a *ABI) AllocBlock(ctx context.Context, size int32) (uint32, error) {
	if size < 0 {
		return 0, &errors.AllocError{Size: size, Err: fmt.Errorf("negative size")}
	}
	ptr, err := a.guest.Allocate(ctx, size)
	if err != nil {
		return 0, &errors.AllocError{Size: size, Err: err}
	}
	if ptr == 0 || wireformat.IsBorrowed(ptr) {
		return 0, &errors.AllocError{Size: size, Err: ErrNullBlock}
	}
	return ptr, nil
}

// AllocBytes allocates a counted block, [int32 len(b)][b], and returns its offset.
func (a *ABI) AllocBytes(ctx context.Context, b []byte) (uint32, error) {
	return a.allocCounted(ctx, int64(len(b)), 1, func(mem memory.Memory, data uint32) {
		memory.MustWrite(mem, data, b)
	})
}

// AllocString encodes s in the guest's string format and allocates it as a
// counted block. The count is the encoded length in bytes.
func (a *ABI) AllocString(ctx context.Context, s string) (uint32, error) {
	b, err := a.EncodeString(s)
	if err != nil {
		return 0, err
	}
	return a.AllocBytes(ctx, b)
}

// EncodeString returns s in the guest's string format, without a byte order mark.
func (a *ABI) EncodeString(s string) ([]byte, error) {
	enc, err := encodingFor(a.Format())
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return []byte(s), nil
	}
	b, err := enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("failed to encode string as %s: %w", a.Format(), err)
	}
	return b, nil
}

// DecodeString converts bytes in the guest's string format to a Go string.
func (a *ABI) DecodeString(b []byte) (string, error) {
	enc, err := encodingFor(a.Format())
	if err != nil {
		return "", err
	}
	if enc == nil {
		return string(b), nil
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s string: %w", a.Format(), err)
	}
	return string(out), nil
}

// encodingFor returns the transcoder for f, or nil for UTF-8.
func encodingFor(f wireformat.StringFormat) (encoding.Encoding, error) {
	switch f {
	case wireformat.StringFormatUTF8:
		return nil, nil
	case wireformat.StringFormatUTF16:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), nil
	case wireformat.StringFormatUTF32:
		return utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM), nil
	default:
		return nil, &errors.FormatError{Format: int32(f)}
	}
}

// ReadBytes copies the payload of the counted block at ptr.
func (a *ABI) ReadBytes(ptr uint32) (b []byte, err error) {
	defer recoverAccess(&err)
	mem := a.Memory()
	n := memory.MustReadInt32(mem, ptr)
	if n < 0 {
		return nil, fmt.Errorf("negative length %d at %#x", n, ptr)
	}
	view := memory.MustRead(mem, ptr+wireformat.CountSize, uint32(n))
	return append([]byte(nil), view...), nil
}

// ReadString reads the counted block at ptr as a string in the guest's format.
func (a *ABI) ReadString(ptr uint32) (string, error) {
	b, err := a.ReadBytes(ptr)
	if err != nil {
		return "", err
	}
	return a.DecodeString(b)
}

// Free releases a block the host allocated and still owns. Borrowed offsets
// are ignored.
func (a *ABI) Free(ctx context.Context, ptr uint32) error {
	if wireformat.IsBorrowed(ptr) {
		return nil
	}
	if err := a.guest.Deallocate(ctx, ptr); err != nil {
		return fmt.Errorf("failed to free %#x: %w", ptr, err)
	}
	return nil
}

// freeAfter releases ptr after a failed write and returns err joined with any
// error from the release.
func (a *ABI) freeAfter(ctx context.Context, ptr uint32, err error) error {
	if freeErr := a.Free(ctx, ptr); freeErr != nil {
		return stdErrors.Join(err, freeErr)
	}
	return err
}

// Color is an RGBA color with its color profile, laid out as four float32
// channels followed by an int32 profile.
type Color struct {
	R, G, B, A float32
	Profile    int32
}

// colorSize is the wire size of Color.
const colorSize = 4*4 + 4

// AllocColor allocates and fills a Color block.
func (a *ABI) AllocColor(ctx context.Context, c Color) (uint32, error) {
	ptr, err := a.AllocBlock(ctx, colorSize)
	if err != nil {
		return 0, err
	}
	if err := a.WriteColor(ptr, c); err != nil {
		return 0, a.freeAfter(ctx, ptr, err)
	}
	return ptr, nil
}

// WriteColor stores c at ptr.
func (a *ABI) WriteColor(ptr uint32, c Color) (err error) {
	defer recoverAccess(&err)
	wref.StoreN(a.Memory(), ptr, []float32{c.R, c.G, c.B, c.A})
	wref.Store(a.Memory(), ptr+16, c.Profile)
	return nil
}

// ReadColor loads a Color from ptr.
func (a *ABI) ReadColor(ptr uint32) (c Color, err error) {
	defer recoverAccess(&err)
	ch := wref.LoadN[float32](a.Memory(), ptr, 4)
	return Color{R: ch[0], G: ch[1], B: ch[2], A: ch[3], Profile: wref.Load[int32](a.Memory(), ptr+16)}, nil
}

// allocCounted allocates room for a count word and n elements of size
// bytes, writes the count, and hands the data offset to fill.
func (a *ABI) allocCounted(ctx context.Context, n int64, size uint32, fill func(mem memory.Memory, data uint32)) (ptr uint32, err error) {
	total := wireformat.CountSize + n*int64(size)
	if n > math.MaxInt32 || total > math.MaxInt32 {
		return 0, &errors.AllocError{Size: -1, Err: fmt.Errorf("%d elements of %d bytes do not fit a block", n, size)}
	}
	ptr, err = a.AllocBlock(ctx, int32(total))
	if err != nil {
		return 0, err
	}
	if err := a.fill(func(mem memory.Memory) {
		memory.MustWriteInt32(mem, ptr, int32(n))
		fill(mem, ptr+wireformat.CountSize)
	}); err != nil {
		return 0, a.freeAfter(ctx, ptr, err)
	}
	return ptr, nil
}

// fill runs f against guest memory, turning an out-of-range access into an error.
func (a *ABI) fill(f func(mem memory.Memory)) (err error) {
	defer recoverAccess(&err)
	f(a.Memory())
	return nil
}

// AllocVector allocates a block holding values back to back, with no count
// word. This is the layout of the fixed-size vector and matrix shapes.
func AllocVector[T wref.Elem](ctx context.Context, a *ABI, values []T) (uint32, error) {
	total := int64(len(values)) * int64(wref.SizeOf[T]())
	if total > math.MaxInt32 {
		return 0, &errors.AllocError{Size: -1, Err: fmt.Errorf("%d elements do not fit a block", len(values))}
	}
	ptr, err := a.AllocBlock(ctx, int32(total))
	if err != nil {
		return 0, err
	}
	if err := WriteVector(a, ptr, values); err != nil {
		return 0, a.freeAfter(ctx, ptr, err)
	}
	return ptr, nil
}

// WriteVector stores values back to back at ptr.
func WriteVector[T wref.Elem](a *ABI, ptr uint32, values []T) error {
	return a.fill(func(mem memory.Memory) {
		wref.StoreN(mem, ptr, values)
	})
}

// ReadVector loads n elements stored back to back at ptr.
func ReadVector[T wref.Elem](a *ABI, ptr uint32, n int) (out []T, err error) {
	defer recoverAccess(&err)
	if err := checkRange(a.Memory(), ptr, int64(n), wref.SizeOf[T]()); err != nil {
		return nil, err
	}
	return wref.LoadN[T](a.Memory(), ptr, n), nil
}

// AllocArray allocates a counted block holding values.
func AllocArray[T wref.Elem](ctx context.Context, a *ABI, values []T) (uint32, error) {
	return a.allocCounted(ctx, int64(len(values)), wref.SizeOf[T](), func(mem memory.Memory, data uint32) {
		wref.StoreN(mem, data, values)
	})
}

// ReadArray loads the elements of the counted block at ptr.
func ReadArray[T wref.Elem](a *ABI, ptr uint32) (out []T, err error) {
	defer recoverAccess(&err)
	n := memory.MustReadInt32(a.Memory(), ptr)
	if err := checkRange(a.Memory(), ptr+wireformat.CountSize, int64(n), wref.SizeOf[T]()); err != nil {
		return nil, err
	}
	return wref.LoadN[T](a.Memory(), ptr+wireformat.CountSize, int(n)), nil
}

// Borrowed marks offset as host-owned by setting the sign bit. The guest
// reads the marked value as the address, so memory the host lends this way
// must itself live in the upper half of the 32-bit address space.
func Borrowed(offset uint32) uint32 {
	return offset | 1<<31
}

// checkRange fails unless n elements of size bytes at ptr lie inside mem.
func checkRange(mem memory.Memory, ptr uint32, n int64, size uint32) error {
	if n < 0 {
		return fmt.Errorf("negative length %d at %#x", n, ptr)
	}
	if uint64(ptr)+uint64(n)*uint64(size) > uint64(mem.Size()) {
		return &errors.MemoryAccessError{Op: "read", Offset: ptr, Length: uint32(min(uint64(n)*uint64(size), math.MaxUint32))}
	}
	return nil
}

func recoverAccess(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if access, ok := r.(*errors.MemoryAccessError); ok {
		*err = access
		return
	}
	panic(r)
}
