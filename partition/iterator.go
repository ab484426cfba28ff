package partition

import (
	"github.com/pkg/errors"

	"github.com/vecbridge/vecbridge/vec"
)

// Element is the closed set of per-slot value types a vector can yield.
type Element interface {
	int32 | int64 | float64 | []byte | string
}

// ErrExhausted is returned by Next once the iterator has yielded every
// populated slot.
var ErrExhausted = errors.New("iterator exhausted")

// Iterator is a lazy, single-pass view over a partition's vector. It holds a
// cursor and is not restartable, build a new one to iterate again. Not safe
// for concurrent use, one iterator per consuming task.
type Iterator[T Element] struct {
	get    func(int) T
	count  int
	cursor int
}

// Iterate builds a typed iterator over p's vector. The element type must
// match the vector's minor type exactly, otherwise a TypeMismatchError is
// returned up front, values are never coerced. A partition holding no
// vector yields an empty iterator.
func Iterate[T Element](p *VectorPartition) (*Iterator[T], error) {
	want := elementType[T]()
	if p.vector == nil {
		return &Iterator[T]{}, nil
	}
	if got := p.vector.Type(); got != want {
		return nil, errors.WithStack(&TypeMismatchError{Want: want, Got: got})
	}

	var get func(int) T
	switch v := p.vector.(type) {
	case *vec.IntVector:
		get = any(v.Get).(func(int) T)
	case *vec.BigIntVector:
		get = any(v.Get).(func(int) T)
	case *vec.Float8Vector:
		get = any(v.Get).(func(int) T)
	case *vec.VarBinaryVector:
		get = any(v.Get).(func(int) T)
	case *vec.VarCharVector:
		get = any(v.Get).(func(int) T)
	default:
		return nil, errors.WithStack(&UnsupportedTypeError{Tag: uint8(p.vector.Type())})
	}
	return &Iterator[T]{get: get, count: p.vector.ValueCount()}, nil
}

func (it *Iterator[T]) HasNext() bool {
	return it.cursor < it.count
}

// Next reads the slot at the cursor and advances. After the last populated
// slot it returns ErrExhausted.
func (it *Iterator[T]) Next() (T, error) {
	if it.cursor >= it.count {
		var zero T
		return zero, ErrExhausted
	}
	value := it.get(it.cursor)
	it.cursor++
	return value, nil
}

func elementType[T Element]() vec.MinorType {
	var zero T
	switch any(zero).(type) {
	case int32:
		return vec.Int
	case int64:
		return vec.BigInt
	case float64:
		return vec.Float8
	case []byte:
		return vec.VarBinary
	default:
		return vec.VarChar
	}
}
