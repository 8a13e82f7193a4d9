package wref

// Scalar wire types. They cross the boundary by value, as Wasm parameters and
// results, and are listed here so the catalog is complete.
type (
	Int    = int32
	Long   = int64
	Short  = int16
	SByte  = int8
	UInt   = uint32
	ULong  = uint64
	UShort = uint16
	Byte   = uint8
	Float  = float32
	Double = float64
)

// Fixed-size vectors.
type (
	FloatVec[N Len]  = Vec[float32, N]
	DoubleVec[N Len] = Vec[float64, N]
	IntVec[N Len]    = Vec[int32, N]
	LongVec[N Len]   = Vec[int64, N]
	UIntVec[N Len]   = Vec[uint32, N]
	ULongVec[N Len]  = Vec[uint64, N]
	BoolVec[N Len]   = Vec[bool, N]

	Float2 = FloatVec[N2]
	Float3 = FloatVec[N3]
	Float4 = FloatVec[N4]

	Double2 = DoubleVec[N2]
	Double3 = DoubleVec[N3]
	Double4 = DoubleVec[N4]

	Int2 = IntVec[N2]
	Int3 = IntVec[N3]
	Int4 = IntVec[N4]

	Long2 = LongVec[N2]
	Long3 = LongVec[N3]
	Long4 = LongVec[N4]

	UInt2 = UIntVec[N2]
	UInt3 = UIntVec[N3]
	UInt4 = UIntVec[N4]

	ULong2 = ULongVec[N2]
	ULong3 = ULongVec[N3]
	ULong4 = ULongVec[N4]

	Bool2 = BoolVec[N2]
	Bool3 = BoolVec[N3]
	Bool4 = BoolVec[N4]
)

// Square matrices, flattened row by row into W×H elements.
type (
	Float2x2 = FloatVec[N4]
	Float3x3 = FloatVec[N9]
	Float4x4 = FloatVec[N16]

	Double2x2 = DoubleVec[N4]
	Double3x3 = DoubleVec[N9]
	Double4x4 = DoubleVec[N16]
)

// Text and opaque binary.
type (
	Str = String
	Bin = Binary
)
