package partition

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"

	"github.com/vecbridge/vecbridge/vec"
)

// Externalization codec. Native vector memory cannot be relocated by a
// generic object copy, so a partition crosses process boundaries as an
// explicit value-by-value encoding:
//
//	[collectionId int64][index uint32][valueCount uint32][minorType byte]
//	([element] x valueCount)
//
// Fixed-width elements are little-endian, variable-width elements carry a
// uvarint byte-length prefix so the stream stays self-delimiting.

// MaxElementLength bounds a variable-width element's declared byte length.
// A longer prefix is treated as stream corruption, not an allocation.
const MaxElementLength = 1 << 30

// registryEntry reconstructs and transcribes one minor type. The registry is
// closed and exhaustive: exactly one entry per supported type, lookup of an
// unknown tag is a hard failure.
type registryEntry struct {
	allocate func(alloc *vec.Allocator, capacity int) (vec.Vector, error)
	read     func(r io.Reader, v vec.Vector, i int) error
	write    func(w io.Writer, v vec.Vector, i int) error
}

var registry = map[vec.MinorType]registryEntry{
	vec.Int: {
		allocate: func(alloc *vec.Allocator, capacity int) (vec.Vector, error) {
			return vec.NewIntVector(alloc, capacity)
		},
		read: func(r io.Reader, v vec.Vector, i int) error {
			u, err := readUint32(r)
			if err != nil {
				return err
			}
			v.(*vec.IntVector).Set(i, int32(u))
			return nil
		},
		write: func(w io.Writer, v vec.Vector, i int) error {
			return writeUint32(w, uint32(v.(*vec.IntVector).Get(i)))
		},
	},
	vec.BigInt: {
		allocate: func(alloc *vec.Allocator, capacity int) (vec.Vector, error) {
			return vec.NewBigIntVector(alloc, capacity)
		},
		read: func(r io.Reader, v vec.Vector, i int) error {
			u, err := readUint64(r)
			if err != nil {
				return err
			}
			v.(*vec.BigIntVector).Set(i, int64(u))
			return nil
		},
		write: func(w io.Writer, v vec.Vector, i int) error {
			return writeUint64(w, uint64(v.(*vec.BigIntVector).Get(i)))
		},
	},
	vec.Float8: {
		allocate: func(alloc *vec.Allocator, capacity int) (vec.Vector, error) {
			return vec.NewFloat8Vector(alloc, capacity)
		},
		read: func(r io.Reader, v vec.Vector, i int) error {
			u, err := readUint64(r)
			if err != nil {
				return err
			}
			v.(*vec.Float8Vector).Set(i, math.Float64frombits(u))
			return nil
		},
		write: func(w io.Writer, v vec.Vector, i int) error {
			return writeUint64(w, math.Float64bits(v.(*vec.Float8Vector).Get(i)))
		},
	},
	vec.VarBinary: {
		allocate: func(alloc *vec.Allocator, capacity int) (vec.Vector, error) {
			return vec.NewVarBinaryVector(alloc, capacity)
		},
		read: func(r io.Reader, v vec.Vector, i int) error {
			data, err := readLengthPrefixed(r)
			if err != nil {
				return err
			}
			return v.(*vec.VarBinaryVector).Set(i, data)
		},
		write: func(w io.Writer, v vec.Vector, i int) error {
			return writeLengthPrefixed(w, v.(*vec.VarBinaryVector).Get(i))
		},
	},
	vec.VarChar: {
		allocate: func(alloc *vec.Allocator, capacity int) (vec.Vector, error) {
			return vec.NewVarCharVector(alloc, capacity)
		},
		read: func(r io.Reader, v vec.Vector, i int) error {
			data, err := readLengthPrefixed(r)
			if err != nil {
				return err
			}
			return v.(*vec.VarCharVector).Set(i, string(data))
		},
		write: func(w io.Writer, v vec.Vector, i int) error {
			return writeLengthPrefixed(w, []byte(v.(*vec.VarCharVector).Get(i)))
		},
	},
}

// Encode writes p's identity, value count, type tag and every element onto
// w. A partition with no vector encodes as zero values of type tag 0 and
// cannot be decoded back, callers externalize loaded partitions only.
func Encode(w io.Writer, p *VectorPartition) error {
	if p.vector == nil {
		return errors.Errorf("partition %d/%d holds no vector", p.collectionID, p.index)
	}
	mt := p.vector.Type()
	entry, ok := registry[mt]
	if !ok {
		return errors.WithStack(&UnsupportedTypeError{Tag: uint8(mt)})
	}
	n := p.vector.ValueCount()

	if err := writeUint64(w, uint64(p.collectionID)); err != nil {
		return errors.Wrapf(err, "partition %d/%d", p.collectionID, p.index)
	}
	if err := writeUint32(w, uint32(p.index)); err != nil {
		return errors.Wrapf(err, "partition %d/%d", p.collectionID, p.index)
	}
	if err := writeUint32(w, uint32(n)); err != nil {
		return errors.Wrapf(err, "partition %d/%d", p.collectionID, p.index)
	}
	if _, err := w.Write([]byte{byte(mt)}); err != nil {
		return errors.Wrapf(err, "partition %d/%d", p.collectionID, p.index)
	}
	for i := 0; i < n; i++ {
		if err := entry.write(w, p.vector, i); err != nil {
			return errors.Wrapf(err, "partition %d/%d element %d", p.collectionID, p.index, i)
		}
	}
	logger.Tracef("encoded partition %d/%d, %s x %d", p.collectionID, p.index, mt, n)
	return nil
}

// Decode reconstructs a partition from r, allocating a fresh vector through
// alloc and populating it value by value. Any failure past the header
// releases the partial vector before propagating, a half-built partition is
// never returned.
func Decode(r io.Reader, alloc *vec.Allocator) (*VectorPartition, error) {
	cid, err := readUint64(r)
	if err != nil {
		return nil, err
	}
	collectionID := int64(cid)
	idx, err := readUint32(r)
	if err != nil {
		return nil, errors.Wrapf(err, "partition collection %d", collectionID)
	}
	index := int(idx)
	count, err := readUint32(r)
	if err != nil {
		return nil, errors.Wrapf(err, "partition %d/%d", collectionID, index)
	}
	var tag [1]byte
	if _, err := io.ReadFull(r, tag[:]); err != nil {
		return nil, errors.Wrapf(corrupt(err), "partition %d/%d", collectionID, index)
	}

	entry, ok := registry[vec.MinorType(tag[0])]
	if !ok {
		return nil, errors.Wrapf(errors.WithStack(&UnsupportedTypeError{Tag: tag[0]}),
			"partition %d/%d", collectionID, index)
	}

	v, err := entry.allocate(alloc, int(count))
	if err != nil {
		return nil, errors.Wrapf(err, "partition %d/%d", collectionID, index)
	}
	for i := 0; i < int(count); i++ {
		if err := entry.read(r, v, i); err != nil {
			v.Release()
			return nil, errors.Wrapf(err, "partition %d/%d element %d", collectionID, index, i)
		}
	}
	v.SetValueCount(int(count))

	logger.Tracef("decoded partition %d/%d, %s x %d", collectionID, index, v.Type(), count)
	return &VectorPartition{collectionID: collectionID, index: index, vector: v}, nil
}

func writeUint32(w io.Writer, u uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], u)
	_, err := w.Write(b[:])
	return errors.WithStack(err)
}

func writeUint64(w io.Writer, u uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], u)
	_, err := w.Write(b[:])
	return errors.WithStack(err)
}

func writeLengthPrefixed(w io.Writer, data []byte) error {
	var b [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(b[:], uint64(len(data)))
	if _, err := w.Write(b[:n]); err != nil {
		return errors.WithStack(err)
	}
	_, err := w.Write(data)
	return errors.WithStack(err)
}

func readUint32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, corrupt(err)
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readUint64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, corrupt(err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func readLengthPrefixed(r io.Reader) ([]byte, error) {
	length, err := binary.ReadUvarint(byteReader{r})
	if err != nil {
		return nil, corrupt(err)
	}
	if length > MaxElementLength {
		return nil, errors.WithStack(&CorruptStreamError{Reason: "element length prefix out of range"})
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, corrupt(err)
	}
	return data, nil
}

func corrupt(err error) error {
	return errors.WithStack(&CorruptStreamError{Reason: err.Error()})
}

// byteReader adapts r for binary.ReadUvarint without buffering ahead, the
// stream may carry further frames after this partition.
type byteReader struct {
	r io.Reader
}

func (br byteReader) ReadByte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(br.r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}
