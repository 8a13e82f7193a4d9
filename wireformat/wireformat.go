// Package wireformat defines the constants that make up the guest/host memory
// ABI. Both sides of the boundary depend on these values bit-for-bit, so they
// must remain stable and backward compatible.
//
// Every block handed out by the guest allocator has the layout
//
//	[int32 LE requested size][payload ...]
//	^ 32-byte aligned        ^ offset seen by the host
//
// Variable-length payloads (arrays, strings, binary) carry a second int32 LE
// element count at the start of the payload.
package wireformat

import "fmt"

const (
	// HeaderSize is the width of the allocation header preceding every block.
	HeaderSize = 4

	// CountSize is the width of the element count that prefixes variable-length payloads.
	CountSize = 4

	// Alignment is the alignment of every block start (the header address).
	// The offset returned to callers is Alignment-aligned plus HeaderSize.
	Alignment = 32
)

// Names of the functions the guest exports.
const (
	ExportAllocate   = "allocate"
	ExportDeallocate = "deallocate"
	ExportStrFormat  = "str_format"
	ExportMemory     = "memory"
	ExportInitialize = "_initialize"
)

// Names of the functions the guest imports from the host.
const (
	ImportModule      = "env"
	ImportAbort       = "abort"
	ImportCurrentTime = "curtime"
)

// Abort codes passed to the host abort hook by the guest core.
const (
	FailOutOfMemory int32 = 1
	FailBadLayout   int32 = 2
	FailBadFree     int32 = 3
)

// IsBorrowed reports whether offset carries the host-owned sentinel: the
// offset is negative when read as a signed 32-bit integer.
//
// The sentinel occupies the sign bit, so an owned block whose address is at
// or above 2^31 reads as borrowed and is never freed. Guests are expected to
// live in the lower 2 GiB of linear memory; the test is kept exactly as is
// because the host encodes ownership the same way.
func IsBorrowed(offset uint32) bool {
	return int32(offset) < 0
}

// StringFormat identifies the text encoding the guest expects for strings
// written into its memory by the host.
type StringFormat int32

const (
	StringFormatUnspecified StringFormat = iota
	StringFormatUTF16
	StringFormatUTF32
	StringFormatUTF8
	stringFormatEnd
)

// Valid reports whether f names a concrete encoding.
func (f StringFormat) Valid() bool {
	return f > StringFormatUnspecified && f < stringFormatEnd
}

func (f StringFormat) String() string {
	switch f {
	case StringFormatUTF16:
		return "utf16"
	case StringFormatUTF32:
		return "utf32"
	case StringFormatUTF8:
		return "utf8"
	case StringFormatUnspecified:
		return "unspecified"
	default:
		return fmt.Sprintf("StringFormat(%d)", int32(f))
	}
}
