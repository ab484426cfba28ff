package dataset

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/vecbridge/vecbridge/config"
	"github.com/vecbridge/vecbridge/partition"
	"github.com/vecbridge/vecbridge/vec"
)

// Checkpoint/restore spills a whole collection through the partition codec:
//
//	[kind byte][collectionId int64][numPartitions uint32]
//	([frameLen uint32][partition frame]) x numPartitions
//
// with everything after the kind byte optionally zstd-compressed. Frames are
// encoded concurrently but written in ascending index order, restore rebuilds
// partitions in that order.

const (
	checkpointPlain = byte(0)
	checkpointZstd  = byte(1)
)

// Checkpoint writes the dataset onto w.
func (d *Dataset) Checkpoint(w io.Writer, opts config.CheckpointOptions) error {
	frames := make([]bytes.Buffer, len(d.parts))
	g := errgroup.Group{}
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}
	for i, p := range d.parts {
		i, p := i, p
		g.Go(func() error {
			return p.WriteExternal(&frames[i])
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var out io.Writer = w
	var zw *zstd.Encoder
	switch opts.Compression {
	case config.CompressionNone:
		if _, err := w.Write([]byte{checkpointPlain}); err != nil {
			return errors.WithStack(err)
		}
	case config.CompressionZstd:
		if _, err := w.Write([]byte{checkpointZstd}); err != nil {
			return errors.WithStack(err)
		}
		var err error
		if zw, err = zstd.NewWriter(w); err != nil {
			return errors.WithStack(err)
		}
		out = zw
	default:
		return errors.Errorf("compression kind %d not supported", opts.Compression)
	}

	if err := writeCheckpointHeader(out, d.collectionID, uint32(len(d.parts))); err != nil {
		return err
	}
	for i := range frames {
		if err := writeUint32(out, uint32(frames[i].Len())); err != nil {
			return err
		}
		if _, err := frames[i].WriteTo(out); err != nil {
			return errors.WithStack(err)
		}
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			return errors.WithStack(err)
		}
	}
	logger.Debugf("dataset %s checkpointed, %d partitions", d.id, len(d.parts))
	return nil
}

// Restore rebuilds a dataset from a checkpoint stream, allocating every
// vector through alloc. On failure all partitions decoded so far are
// released before the error propagates.
func Restore(r io.Reader, alloc *vec.Allocator) (*Dataset, error) {
	var kind [1]byte
	if _, err := io.ReadFull(r, kind[:]); err != nil {
		return nil, errors.Wrap(err, "reading checkpoint header")
	}
	switch kind[0] {
	case checkpointPlain:
	case checkpointZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		defer zr.Close()
		r = zr
	default:
		return nil, errors.Errorf("checkpoint kind %d not supported", kind[0])
	}

	collectionID, count, err := readCheckpointHeader(r)
	if err != nil {
		return nil, err
	}

	parts := make([]*partition.VectorPartition, 0, count)
	release := func() {
		for _, p := range parts {
			p.Release()
		}
	}
	for i := uint32(0); i < count; i++ {
		frameLen, err := readUint32(r)
		if err != nil {
			release()
			return nil, errors.Wrapf(err, "restoring partition %d", i)
		}
		p, err := partition.Decode(io.LimitReader(r, int64(frameLen)), alloc)
		if err != nil {
			release()
			return nil, err
		}
		if p.CollectionID() != collectionID || p.Index() != int(i) {
			p.Release()
			release()
			return nil, errors.Errorf("checkpoint frame %d holds partition %d/%d of collection %d",
				i, p.CollectionID(), p.Index(), collectionID)
		}
		parts = append(parts, p)
	}

	id, err := uuid4()
	if err != nil {
		release()
		return nil, err
	}
	logger.Debugf("dataset %s restored, collection %d, %d partitions", id, collectionID, count)
	return &Dataset{id: id, collectionID: collectionID, parts: parts}, nil
}
