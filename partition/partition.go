package partition

import (
	"encoding/binary"
	"io"

	xxhash "github.com/cespare/xxhash"
	"github.com/pkg/errors"

	"github.com/vecbridge/vecbridge/vec"
)

// Interface is the engine-facing partition contract: a stable slice index
// plus an identity hash the engine may use as a scheduling or cache key.
type Interface interface {
	Index() int
	Hash() uint64
}

// Externalizable is invoked by the engine whenever a partition crosses a
// boundary where native vector memory cannot survive a generic copy.
type Externalizable interface {
	WriteExternal(w io.Writer) error
	ReadExternal(r io.Reader, alloc *vec.Allocator) error
}

// VectorPartition owns exactly one columnar vector together with the
// identity the engine schedules it by. Identity is positional: equality and
// hash are defined from (collectionID, index) only, never from the vector
// contents, so a partition compares equal to itself across an
// externalization round trip.
type VectorPartition struct {
	collectionID int64
	index        int
	vector       vec.Vector
}

// New constructs a partition that exclusively owns v. v may be nil for a
// partition whose data has not been loaded yet.
func New(collectionID int64, index int, v vec.Vector) (*VectorPartition, error) {
	if index < 0 {
		return nil, errors.Errorf("partition index %d, must not be negative", index)
	}
	return &VectorPartition{collectionID: collectionID, index: index, vector: v}, nil
}

func (p *VectorPartition) CollectionID() int64 {
	return p.collectionID
}

// Index is the zero-based slice position within the owning collection,
// immutable for the partition's life.
func (p *VectorPartition) Index() int {
	return p.index
}

// Vector returns the owned vector by reference. Callers must not retain it
// past the partition's life, ReadExternal replaces it wholesale.
func (p *VectorPartition) Vector() vec.Vector {
	return p.vector
}

func (p *VectorPartition) Equal(o *VectorPartition) bool {
	if o == nil {
		return false
	}
	return p.collectionID == o.collectionID && p.index == o.index
}

// Hash digests the identity pair only.
func (p *VectorPartition) Hash() uint64 {
	var b [12]byte
	binary.LittleEndian.PutUint64(b[:8], uint64(p.collectionID))
	binary.LittleEndian.PutUint32(b[8:], uint32(p.index))
	return xxhash.Sum64(b[:])
}

// Release returns the owned vector's bytes to its allocator. Safe to call
// on a partition that holds no vector.
func (p *VectorPartition) Release() {
	if p.vector != nil {
		p.vector.Release()
		p.vector = nil
	}
}

// WriteExternal encodes the partition onto w, see Encode.
func (p *VectorPartition) WriteExternal(w io.Writer) error {
	return Encode(w, p)
}

// ReadExternal decodes a partition from r and takes over its vector,
// replacing the current one wholesale. Identity fields are overwritten with
// the decoded ones. On any decode failure the partition is left unchanged.
func (p *VectorPartition) ReadExternal(r io.Reader, alloc *vec.Allocator) error {
	decoded, err := Decode(r, alloc)
	if err != nil {
		return err
	}
	if p.vector != nil {
		p.vector.Release()
	}
	*p = *decoded
	return nil
}
