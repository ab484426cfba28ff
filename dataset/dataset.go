// Package dataset adapts arrays of columnar vectors into the indexed
// partitions a distributed engine schedules. It owns no execution logic,
// transformation operators come from the host engine.
package dataset

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/vecbridge/vecbridge/partition"
	"github.com/vecbridge/vecbridge/vec"
)

var logger = log.New()

func SetLogLevel(level log.Level) {
	logger.SetLevel(level)
}

// Dataset is a distributed collection of vector partitions. All partitions
// share one collection id, their indexes are their positions.
type Dataset struct {
	id           string
	collectionID int64
	parts        []*partition.VectorPartition
}

// New wraps vectors into one partition each, taking ownership of them.
// Partition i owns vectors[i].
func New(collectionID int64, vectors []vec.Vector) (*Dataset, error) {
	id, err := uuid4()
	if err != nil {
		return nil, err
	}
	parts := make([]*partition.VectorPartition, len(vectors))
	for i, v := range vectors {
		p, err := partition.New(collectionID, i, v)
		if err != nil {
			return nil, err
		}
		parts[i] = p
	}
	logger.Debugf("dataset %s: collection %d, %d partitions", id, collectionID, len(parts))
	return &Dataset{id: id, collectionID: collectionID, parts: parts}, nil
}

// FromVector slices one vector across numPartitions contiguous pieces,
// copying values through alloc. Leading partitions get the remainder, so
// concatenating partitions by ascending index reproduces v's order. v stays
// owned by the caller.
func FromVector(alloc *vec.Allocator, collectionID int64, v vec.Vector, numPartitions int) (*Dataset, error) {
	if numPartitions <= 0 {
		return nil, errors.Errorf("numPartitions %d, must be positive", numPartitions)
	}
	n := v.ValueCount()
	base := n / numPartitions
	rem := n % numPartitions

	vectors := make([]vec.Vector, 0, numPartitions)
	start := 0
	for i := 0; i < numPartitions; i++ {
		size := base
		if i < rem {
			size++
		}
		sliced, err := copyRange(alloc, v, start, size)
		if err != nil {
			for _, s := range vectors {
				s.Release()
			}
			return nil, errors.Wrapf(err, "slicing partition %d", i)
		}
		vectors = append(vectors, sliced)
		start += size
	}

	ds, err := New(collectionID, vectors)
	if err != nil {
		for _, s := range vectors {
			s.Release()
		}
		return nil, err
	}
	return ds, nil
}

// copyRange materializes v[start..start+size) as a fresh vector. Dispatch is
// closed over the supported minor types, like the codec registry.
func copyRange(alloc *vec.Allocator, v vec.Vector, start, size int) (vec.Vector, error) {
	switch src := v.(type) {
	case *vec.IntVector:
		dst, err := vec.NewIntVector(alloc, size)
		if err != nil {
			return nil, err
		}
		for i := 0; i < size; i++ {
			dst.Set(i, src.Get(start+i))
		}
		dst.SetValueCount(size)
		return dst, nil
	case *vec.BigIntVector:
		dst, err := vec.NewBigIntVector(alloc, size)
		if err != nil {
			return nil, err
		}
		for i := 0; i < size; i++ {
			dst.Set(i, src.Get(start+i))
		}
		dst.SetValueCount(size)
		return dst, nil
	case *vec.Float8Vector:
		dst, err := vec.NewFloat8Vector(alloc, size)
		if err != nil {
			return nil, err
		}
		for i := 0; i < size; i++ {
			dst.Set(i, src.Get(start+i))
		}
		dst.SetValueCount(size)
		return dst, nil
	case *vec.VarBinaryVector:
		dst, err := vec.NewVarBinaryVector(alloc, size)
		if err != nil {
			return nil, err
		}
		for i := 0; i < size; i++ {
			if err := dst.Set(i, src.Get(start+i)); err != nil {
				dst.Release()
				return nil, err
			}
		}
		dst.SetValueCount(size)
		return dst, nil
	case *vec.VarCharVector:
		dst, err := vec.NewVarCharVector(alloc, size)
		if err != nil {
			return nil, err
		}
		for i := 0; i < size; i++ {
			if err := dst.Set(i, src.Get(start+i)); err != nil {
				dst.Release()
				return nil, err
			}
		}
		dst.SetValueCount(size)
		return dst, nil
	}
	return nil, errors.Errorf("cannot slice vector of type %s", v.Type())
}

func (d *Dataset) ID() string {
	return d.id
}

func (d *Dataset) CollectionID() int64 {
	return d.collectionID
}

func (d *Dataset) NumPartitions() int {
	return len(d.parts)
}

func (d *Dataset) Partition(i int) *partition.VectorPartition {
	return d.parts[i]
}

func (d *Dataset) Partitions() []*partition.VectorPartition {
	return d.parts
}

// Release returns every partition's vector bytes to its allocator.
func (d *Dataset) Release() {
	for _, p := range d.parts {
		p.Release()
	}
	logger.Debugf("dataset %s released", d.id)
}
