package partition

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vecbridge/vecbridge/vec"
)

func newVarCharPartition(t *testing.T, alloc *vec.Allocator, collectionID int64, index int, values []string) *VectorPartition {
	t.Helper()
	v, err := vec.NewVarCharVector(alloc, len(values))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	for i, s := range values {
		if err = v.Set(i, s); err != nil {
			t.Fatalf("%+v", err)
		}
	}
	v.SetValueCount(len(values))
	p, err := New(collectionID, index, v)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	return p
}

func TestVarCharRoundTrip(t *testing.T) {
	alloc := vec.NewAllocator(vec.DefaultAllocatorLimit)
	p := newVarCharPartition(t, alloc, 7, 2, []string{"a", "bb", "ccc"})

	var buf bytes.Buffer
	if err := Encode(&buf, p); err != nil {
		t.Fatalf("%+v", err)
	}

	decoded, err := Decode(&buf, alloc)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	assert.Equal(t, 2, decoded.Index())
	assert.Equal(t, int64(7), decoded.CollectionID())
	assert.True(t, p.Equal(decoded))
	assert.Equal(t, 3, decoded.Vector().ValueCount())

	it, err := Iterate[string](decoded)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	for _, want := range []string{"a", "bb", "ccc"} {
		got, err := it.Next()
		if err != nil {
			t.Fatalf("%+v", err)
		}
		assert.Equal(t, want, got)
	}
	assert.False(t, it.HasNext())

	p.Release()
	decoded.Release()
	assert.Equal(t, int64(0), alloc.Allocated())
}

func TestFixedWidthRoundTrips(t *testing.T) {
	alloc := vec.NewAllocator(vec.DefaultAllocatorLimit)

	iv, err := vec.NewIntVector(alloc, 4)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	for i, x := range []int32{-1, 0, 1, 1 << 30} {
		iv.Set(i, x)
	}
	iv.SetValueCount(4)

	bv, err := vec.NewBigIntVector(alloc, 2)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	bv.Set(0, -1<<60)
	bv.Set(1, 1<<60)
	bv.SetValueCount(2)

	fv, err := vec.NewFloat8Vector(alloc, 2)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	fv.Set(0, 3.25)
	fv.Set(1, -0.5)
	fv.SetValueCount(2)

	for i, v := range []vec.Vector{iv, bv, fv} {
		p, err := New(int64(i), i, v)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		var buf bytes.Buffer
		if err = Encode(&buf, p); err != nil {
			t.Fatalf("%+v", err)
		}
		decoded, err := Decode(&buf, alloc)
		if err != nil {
			t.Fatalf("%+v", err)
		}
		assert.True(t, p.Equal(decoded))
		assert.Equal(t, v.ValueCount(), decoded.Vector().ValueCount())
		decoded.Release()
		p.Release()
	}
	assert.Equal(t, int64(0), alloc.Allocated())
}

func TestFixedWidthRoundTripValues(t *testing.T) {
	alloc := vec.NewAllocator(vec.DefaultAllocatorLimit)

	v, err := vec.NewBigIntVector(alloc, 3)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	for i, x := range []int64{5, -7, 11} {
		v.Set(i, x)
	}
	v.SetValueCount(3)
	p, err := New(1, 0, v)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	var buf bytes.Buffer
	if err = Encode(&buf, p); err != nil {
		t.Fatalf("%+v", err)
	}
	decoded, err := Decode(&buf, alloc)
	if err != nil {
		t.Fatalf("%+v", err)
	}

	it, err := Iterate[int64](decoded)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	var got []int64
	for it.HasNext() {
		x, err := it.Next()
		if err != nil {
			t.Fatalf("%+v", err)
		}
		got = append(got, x)
	}
	assert.Equal(t, []int64{5, -7, 11}, got)

	p.Release()
	decoded.Release()
}

func TestEmptyVectorRoundTrip(t *testing.T) {
	alloc := vec.NewAllocator(vec.DefaultAllocatorLimit)
	p := newVarCharPartition(t, alloc, 3, 0, nil)

	var buf bytes.Buffer
	if err := Encode(&buf, p); err != nil {
		t.Fatalf("%+v", err)
	}
	decoded, err := Decode(&buf, alloc)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	assert.Equal(t, 0, decoded.Vector().ValueCount())

	it, err := Iterate[string](decoded)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	assert.False(t, it.HasNext())

	p.Release()
	decoded.Release()
	assert.Equal(t, int64(0), alloc.Allocated())
}

func TestDecodeUnsupportedTag(t *testing.T) {
	alloc := vec.NewAllocator(vec.DefaultAllocatorLimit)

	var buf bytes.Buffer
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, 7)
	buf.Write(b)
	binary.LittleEndian.PutUint32(b[:4], 2)
	buf.Write(b[:4])
	binary.LittleEndian.PutUint32(b[:4], 1)
	buf.Write(b[:4])
	buf.WriteByte(0xee)

	_, err := Decode(&buf, alloc)
	assert.NotNil(t, err)
	var ute *UnsupportedTypeError
	assert.True(t, errors.As(err, &ute))
	assert.Equal(t, uint8(0xee), ute.Tag)
	assert.Equal(t, int64(0), alloc.Allocated())
}

func TestDecodeTruncatedStream(t *testing.T) {
	alloc := vec.NewAllocator(vec.DefaultAllocatorLimit)
	p := newVarCharPartition(t, alloc, 7, 2, []string{"a", "bb", "ccc"})

	var buf bytes.Buffer
	if err := Encode(&buf, p); err != nil {
		t.Fatalf("%+v", err)
	}
	p.Release()

	// declared valueCount exceeds the elements actually present
	truncated := bytes.NewReader(buf.Bytes()[:buf.Len()-3])
	_, err := Decode(truncated, alloc)
	assert.NotNil(t, err)
	var cse *CorruptStreamError
	assert.True(t, errors.As(err, &cse))

	// the partial vector was released on the error path
	assert.Equal(t, int64(0), alloc.Allocated())
}

func TestDecodeOversizedLengthPrefix(t *testing.T) {
	alloc := vec.NewAllocator(vec.DefaultAllocatorLimit)

	var buf bytes.Buffer
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, 1)
	buf.Write(b)
	binary.LittleEndian.PutUint32(b[:4], 0)
	buf.Write(b[:4])
	binary.LittleEndian.PutUint32(b[:4], 1)
	buf.Write(b[:4])
	buf.WriteByte(byte(vec.VarBinary))
	n := binary.PutUvarint(b, uint64(MaxElementLength)+1)
	buf.Write(b[:n])

	_, err := Decode(&buf, alloc)
	var cse *CorruptStreamError
	assert.True(t, errors.As(err, &cse))
	assert.Equal(t, int64(0), alloc.Allocated())
}

func TestEncodeWithoutVector(t *testing.T) {
	p, err := New(1, 0, nil)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	var buf bytes.Buffer
	assert.NotNil(t, Encode(&buf, p))
}

func TestReadExternalReplacesVectorWholesale(t *testing.T) {
	alloc := vec.NewAllocator(vec.DefaultAllocatorLimit)

	src := newVarCharPartition(t, alloc, 7, 2, []string{"a", "bb", "ccc"})
	var buf bytes.Buffer
	if err := src.WriteExternal(&buf); err != nil {
		t.Fatalf("%+v", err)
	}

	dst := newVarCharPartition(t, alloc, 7, 2, []string{"stale"})
	if err := dst.ReadExternal(&buf, alloc); err != nil {
		t.Fatalf("%+v", err)
	}
	assert.True(t, src.Equal(dst))
	assert.Equal(t, 3, dst.Vector().ValueCount())

	src.Release()
	dst.Release()
	assert.Equal(t, int64(0), alloc.Allocated())
}

func TestReadExternalFailureLeavesPartitionUnchanged(t *testing.T) {
	alloc := vec.NewAllocator(vec.DefaultAllocatorLimit)

	p := newVarCharPartition(t, alloc, 1, 0, []string{"keep"})
	bad := bytes.NewReader([]byte{1, 2, 3})
	err := p.ReadExternal(bad, alloc)
	assert.NotNil(t, err)

	it, err := Iterate[string](p)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	got, err := it.Next()
	if err != nil {
		t.Fatalf("%+v", err)
	}
	assert.Equal(t, "keep", got)
	p.Release()
	assert.Equal(t, int64(0), alloc.Allocated())
}
