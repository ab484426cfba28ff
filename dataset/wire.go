package dataset

import (
	"encoding/binary"
	"io"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
)

func uuid4() (string, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return "", errors.Wrap(err, "generating dataset id")
	}
	return id.String(), nil
}

func writeCheckpointHeader(w io.Writer, collectionID int64, numPartitions uint32) error {
	var b [12]byte
	binary.LittleEndian.PutUint64(b[:8], uint64(collectionID))
	binary.LittleEndian.PutUint32(b[8:], numPartitions)
	_, err := w.Write(b[:])
	return errors.WithStack(err)
}

func readCheckpointHeader(r io.Reader) (collectionID int64, numPartitions uint32, err error) {
	var b [12]byte
	if _, err = io.ReadFull(r, b[:]); err != nil {
		return 0, 0, errors.Wrap(err, "reading checkpoint header")
	}
	return int64(binary.LittleEndian.Uint64(b[:8])), binary.LittleEndian.Uint32(b[8:]), nil
}

func writeUint32(w io.Writer, u uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], u)
	_, err := w.Write(b[:])
	return errors.WithStack(err)
}

func readUint32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, errors.WithStack(err)
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}
