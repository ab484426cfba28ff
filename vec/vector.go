package vec

// Columnar vectors backed by an Allocator. A vector is exclusively owned by
// whoever created it (normally a partition) and must be released back to its
// allocator exactly once.

// MinorType identifies a vector's element encoding. The set is closed:
// adding a type means a new vector implementation plus new cases in the
// partition codec and iterator dispatch.
type MinorType uint8

const (
	Int       MinorType = iota + 1 // fixed-width 32-bit signed integer
	BigInt                         // fixed-width 64-bit signed integer
	Float8                         // fixed-width 64-bit IEEE-754 float
	VarBinary                      // variable-width byte string
	VarChar                        // variable-width utf-8 string
)

func (t MinorType) String() string {
	switch t {
	case Int:
		return "INT"
	case BigInt:
		return "BIGINT"
	case Float8:
		return "FLOAT8"
	case VarBinary:
		return "VARBINARY"
	case VarChar:
		return "VARCHAR"
	}
	return "UNKNOWN"
}

// Vector is a typed, contiguous buffer of values with a count and a type
// tag. Slots beyond ValueCount hold no meaningful data and must not be read.
type Vector interface {
	Type() MinorType
	ValueCount() int
	// SetValueCount declares how many leading slots are populated. n must
	// not exceed the capacity the vector was allocated with.
	SetValueCount(n int)
	Capacity() int
	// Release returns the vector's reserved bytes to its allocator.
	Release()
}

const (
	intWidth    = 4
	bigIntWidth = 8
	// accounting width of one variable-width slot header, data bytes are
	// reserved per value on Set
	varHeaderWidth = 16
)

// IntVector holds fixed-width 32-bit integers.
type IntVector struct {
	alloc  *Allocator
	values []int32
	count  int
}

func NewIntVector(alloc *Allocator, capacity int) (*IntVector, error) {
	if err := alloc.reserve(int64(capacity) * intWidth); err != nil {
		return nil, err
	}
	return &IntVector{alloc: alloc, values: make([]int32, capacity)}, nil
}

func (v *IntVector) Type() MinorType     { return Int }
func (v *IntVector) ValueCount() int     { return v.count }
func (v *IntVector) SetValueCount(n int) { v.count = n }
func (v *IntVector) Capacity() int       { return len(v.values) }

func (v *IntVector) Get(i int) int32 {
	return v.values[i]
}

func (v *IntVector) Set(i int, value int32) {
	v.values[i] = value
}

func (v *IntVector) Release() {
	v.alloc.release(int64(len(v.values)) * intWidth)
	v.values = nil
	v.count = 0
}

// BigIntVector holds fixed-width 64-bit integers.
type BigIntVector struct {
	alloc  *Allocator
	values []int64
	count  int
}

func NewBigIntVector(alloc *Allocator, capacity int) (*BigIntVector, error) {
	if err := alloc.reserve(int64(capacity) * bigIntWidth); err != nil {
		return nil, err
	}
	return &BigIntVector{alloc: alloc, values: make([]int64, capacity)}, nil
}

func (v *BigIntVector) Type() MinorType     { return BigInt }
func (v *BigIntVector) ValueCount() int     { return v.count }
func (v *BigIntVector) SetValueCount(n int) { v.count = n }
func (v *BigIntVector) Capacity() int       { return len(v.values) }

func (v *BigIntVector) Get(i int) int64 {
	return v.values[i]
}

func (v *BigIntVector) Set(i int, value int64) {
	v.values[i] = value
}

func (v *BigIntVector) Release() {
	v.alloc.release(int64(len(v.values)) * bigIntWidth)
	v.values = nil
	v.count = 0
}

// Float8Vector holds fixed-width 64-bit floats.
type Float8Vector struct {
	alloc  *Allocator
	values []float64
	count  int
}

func NewFloat8Vector(alloc *Allocator, capacity int) (*Float8Vector, error) {
	if err := alloc.reserve(int64(capacity) * bigIntWidth); err != nil {
		return nil, err
	}
	return &Float8Vector{alloc: alloc, values: make([]float64, capacity)}, nil
}

func (v *Float8Vector) Type() MinorType     { return Float8 }
func (v *Float8Vector) ValueCount() int     { return v.count }
func (v *Float8Vector) SetValueCount(n int) { v.count = n }
func (v *Float8Vector) Capacity() int       { return len(v.values) }

func (v *Float8Vector) Get(i int) float64 {
	return v.values[i]
}

func (v *Float8Vector) Set(i int, value float64) {
	v.values[i] = value
}

func (v *Float8Vector) Release() {
	v.alloc.release(int64(len(v.values)) * bigIntWidth)
	v.values = nil
	v.count = 0
}

// VarBinaryVector holds variable-width byte strings. Data bytes are reserved
// against the allocator per value on Set and returned when a slot is
// overwritten or the vector released.
type VarBinaryVector struct {
	alloc     *Allocator
	values    [][]byte
	count     int
	dataBytes int64
}

func NewVarBinaryVector(alloc *Allocator, capacity int) (*VarBinaryVector, error) {
	if err := alloc.reserve(int64(capacity) * varHeaderWidth); err != nil {
		return nil, err
	}
	return &VarBinaryVector{alloc: alloc, values: make([][]byte, capacity)}, nil
}

func (v *VarBinaryVector) Type() MinorType     { return VarBinary }
func (v *VarBinaryVector) ValueCount() int     { return v.count }
func (v *VarBinaryVector) SetValueCount(n int) { v.count = n }
func (v *VarBinaryVector) Capacity() int       { return len(v.values) }

func (v *VarBinaryVector) Get(i int) []byte {
	return v.values[i]
}

// Set copies value into the vector, the caller keeps ownership of its slice.
func (v *VarBinaryVector) Set(i int, value []byte) error {
	if err := v.alloc.reserve(int64(len(value))); err != nil {
		return err
	}
	if old := v.values[i]; old != nil {
		v.alloc.release(int64(len(old)))
		v.dataBytes -= int64(len(old))
	}
	v.values[i] = append([]byte(nil), value...)
	v.dataBytes += int64(len(value))
	return nil
}

func (v *VarBinaryVector) Release() {
	v.alloc.release(int64(len(v.values))*varHeaderWidth + v.dataBytes)
	v.values = nil
	v.dataBytes = 0
	v.count = 0
}

// VarCharVector holds variable-width utf-8 strings.
type VarCharVector struct {
	alloc     *Allocator
	values    []string
	count     int
	dataBytes int64
}

func NewVarCharVector(alloc *Allocator, capacity int) (*VarCharVector, error) {
	if err := alloc.reserve(int64(capacity) * varHeaderWidth); err != nil {
		return nil, err
	}
	return &VarCharVector{alloc: alloc, values: make([]string, capacity)}, nil
}

func (v *VarCharVector) Type() MinorType     { return VarChar }
func (v *VarCharVector) ValueCount() int     { return v.count }
func (v *VarCharVector) SetValueCount(n int) { v.count = n }
func (v *VarCharVector) Capacity() int       { return len(v.values) }

func (v *VarCharVector) Get(i int) string {
	return v.values[i]
}

func (v *VarCharVector) Set(i int, value string) error {
	if err := v.alloc.reserve(int64(len(value))); err != nil {
		return err
	}
	if old := v.values[i]; old != "" {
		v.alloc.release(int64(len(old)))
		v.dataBytes -= int64(len(old))
	}
	v.values[i] = value
	v.dataBytes += int64(len(value))
	return nil
}

func (v *VarCharVector) Release() {
	v.alloc.release(int64(len(v.values))*varHeaderWidth + v.dataBytes)
	v.values = nil
	v.dataBytes = 0
	v.count = 0
}
